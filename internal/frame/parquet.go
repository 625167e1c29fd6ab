package frame

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	_ "github.com/marcboeker/go-duckdb" // driver for read_parquet
)

// metadataString builds the parquet-go CSVWriter schema entry for a column.
func metadataString(c Column) string {
	name := sanitizeColumnName(c.Name)
	switch c.Type {
	case Int:
		return fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", name)
	case Float:
		return fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", name)
	case Bool:
		return fmt.Sprintf("name=%s, type=BOOLEAN, repetitiontype=OPTIONAL", name)
	case Timestamp:
		return fmt.Sprintf("name=%s, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL", name)
	default:
		return fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", name)
	}
}

// sanitizeColumnName replaces characters parquet-go rejects in field names.
func sanitizeColumnName(name string) string {
	clean := strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(name, " ", "_"), ".", "_"), ";", "_")
	if clean == "" {
		clean = "column"
	}
	return clean
}

// encodeCell renders a cell for CSVWriter.WriteString. nil stays nil
// (written as parquet NULL).
func encodeCell(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case int64:
		s = strconv.FormatInt(val, 10)
	case float64:
		s = strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		s = strconv.FormatBool(val)
	case time.Time:
		s = strconv.FormatInt(val.UnixMilli(), 10)
	default:
		s = fmt.Sprintf("%v", val)
	}
	return &s
}

// WriteParquet writes the frame to a SNAPPY-compressed parquet file,
// creating parent directories as needed.
func WriteParquet(f *Frame, path string) (err error) {
	if len(f.Columns) == 0 {
		return fmt.Errorf("refusing to write parquet with no columns: %s", path)
	}
	if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
		return fmt.Errorf("create directory for %s: %w", path, mkErr)
	}

	meta := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		meta[i] = metadataString(c)
	}

	fw, createErr := local.NewLocalFileWriter(path)
	if createErr != nil {
		return fmt.Errorf("create parquet file %s: %w", path, createErr)
	}

	pw, createErr := writer.NewCSVWriter(meta, fw, 4)
	if createErr != nil {
		fw.Close()
		return fmt.Errorf("create parquet writer %s: %w", path, createErr)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range f.Rows {
		recPtrs := make([]*string, len(row))
		for j, v := range row {
			recPtrs[j] = encodeCell(v)
		}
		if writeErr := pw.WriteString(recPtrs); writeErr != nil {
			err = errors.Join(err, fmt.Errorf("write row %d of %s: %w", i, path, writeErr))
		}
	}

	if stopErr := pw.WriteStop(); stopErr != nil {
		err = errors.Join(err, fmt.Errorf("stop parquet writer %s: %w", path, stopErr))
	}
	if closeErr := fw.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close parquet file %s: %w", path, closeErr))
	}
	return err
}

// duckdbPath escapes a filesystem path for embedding in a DuckDB string
// literal. DuckDB wants forward slashes on every platform.
func duckdbPath(path string) string {
	return strings.ReplaceAll(strings.ReplaceAll(path, `\`, `/`), `'`, `''`)
}

// typeFromDuckDB maps a DuckDB column type name onto a frame type.
func typeFromDuckDB(dbType string) Type {
	upper := strings.ToUpper(dbType)
	switch {
	case strings.HasPrefix(upper, "TIMESTAMP"), upper == "DATE":
		return Timestamp
	case upper == "BOOLEAN":
		return Bool
	case upper == "DOUBLE", upper == "FLOAT", upper == "REAL", strings.HasPrefix(upper, "DECIMAL"):
		return Float
	case strings.Contains(upper, "INT"):
		return Int
	default:
		return String
	}
}

// decodeCell normalizes a scanned DuckDB value into a frame cell.
func decodeCell(v any, t Type) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case string:
		return val
	case bool:
		return val
	case float32:
		return float64(val)
	case float64:
		return val
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		if t == Timestamp {
			return time.UnixMilli(val).UTC()
		}
		return val
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case time.Time:
		return val.UTC()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ReadParquet loads a parquet file into a frame via DuckDB's read_parquet.
// Column order and names follow the file; types are mapped from DuckDB's
// view of the schema.
func ReadParquet(ctx context.Context, path string) (*Frame, error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, fmt.Errorf("stat parquet %s: %w", path, statErr)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open in-memory duckdb: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf(`SELECT * FROM read_parquet('%s');`, duckdbPath(path))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read_parquet %s: %w", path, err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types of %s: %w", path, err)
	}

	cols := make([]Column, len(colTypes))
	for i, ct := range colTypes {
		cols[i] = Column{Name: ct.Name(), Type: typeFromDuckDB(ct.DatabaseTypeName())}
	}
	out := New(cols...)

	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if scanErr := rows.Scan(ptrs...); scanErr != nil {
			return nil, fmt.Errorf("scan row of %s: %w", path, scanErr)
		}
		row := make([]any, len(cols))
		for i, v := range raw {
			row[i] = decodeCell(v, cols[i].Type)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows of %s: %w", path, err)
	}
	return out, nil
}
