// Package ingestor implements the bronze stage: every declared source CSV is
// read verbatim, every business field kept as a nullable string, and the
// result snapshotted to parquet with provenance columns.
package ingestor

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lcharvet/energiedw/internal/config"
	"github.com/lcharvet/energiedw/internal/etl"
	"github.com/lcharvet/energiedw/internal/frame"
)

// Provenance columns appended to every bronze snapshot.
const (
	ColSourceFile = "_source_file"
	ColIngestTS   = "_ingest_ts"
	ColIngestDate = "_ingest_date"
)

// SnapshotFile is the parquet file name under each table directory, for
// every stage.
const SnapshotFile = "data.parquet"

// IngestSources runs the bronze stage for every configured source. A missing
// landing file marks its source missing without failing siblings; any other
// per-source error marks it failed. The stage as a whole succeeds only when
// every source succeeded.
func IngestSources(ctx context.Context, cfg config.Config, logger *slog.Logger, progress func(etl.UnitResult)) []etl.UnitResult {
	log := logger.With(slog.String("component", "ingestor"))
	results := make([]etl.UnitResult, 0, len(cfg.Sources))

	for _, src := range cfg.Sources {
		start := time.Now()
		res := ingestOne(ctx, cfg, src, log)
		res.Elapsed = time.Since(start)
		results = append(results, res)
		if progress != nil {
			progress(res)
		}
	}
	return results
}

func ingestOne(ctx context.Context, cfg config.Config, src config.Source, log *slog.Logger) etl.UnitResult {
	res := etl.UnitResult{Unit: src.Name}
	l := log.With(slog.String("source", src.Name))

	landingPath := filepath.Join(cfg.Paths.Landing, src.File)
	if _, err := os.Stat(landingPath); os.IsNotExist(err) {
		l.Warn("Landing file not found, skipping source.", slog.String("path", landingPath))
		res.Status = etl.StatusMissing
		res.Message = "file not found"
		return res
	}

	f, err := readDelimited(landingPath, []rune(src.Delimiter)[0])
	if err != nil {
		l.Error("Failed to read source CSV.", "error", err)
		res.Status = etl.StatusFailed
		res.Err = err
		return res
	}

	now := time.Now().UTC()
	f.AddColumn(frame.Column{Name: ColSourceFile, Type: frame.String}, src.File)
	f.AddColumn(frame.Column{Name: ColIngestTS, Type: frame.Timestamp}, now)
	f.AddColumn(frame.Column{Name: ColIngestDate, Type: frame.String}, now.Format("2006-01-02"))

	outPath := filepath.Join(cfg.Paths.Bronze, src.Name, SnapshotFile)
	if err := frame.WriteParquet(f, outPath); err != nil {
		l.Error("Failed to write bronze snapshot.", "error", err)
		res.Status = etl.StatusFailed
		res.Err = err
		return res
	}

	l.Info("Bronze snapshot written.", slog.Int("rows", f.NumRows()), slog.String("path", outPath))
	res.Status = etl.StatusSuccess
	res.Rows = int64(f.NumRows())
	return res
}

// readDelimited reads a delimited file into an all-string frame. The first
// record is the header; short rows are padded with nulls, long rows
// truncated to the header width. Field values are kept verbatim.
func readDelimited(path string, delimiter rune) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	cols := make([]frame.Column, len(header))
	for i, h := range header {
		cols[i] = frame.Column{Name: h, Type: frame.String}
	}
	f := frame.New(cols...)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record of %s: %w", path, err)
		}
		row := make([]any, len(cols))
		for i := range cols {
			if i < len(record) {
				row[i] = record[i]
			}
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}
