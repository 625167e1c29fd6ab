// Package api exposes a read-only JSON query layer over the warehouse
// schema. All SQL is parameterized; the schema identifier comes from the
// validated configuration, never from the request.
package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultPlantLimit = 10
	maxPlantLimit     = 100
)

type handlers struct {
	db     *sql.DB
	schema string
	logger *slog.Logger
}

// NewRouter builds the gin engine serving the query endpoints.
func NewRouter(db *sql.DB, schema string, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	h := &handlers{db: db, schema: schema, logger: logger.With(slog.String("component", "api"))}

	r.GET("/health", h.health)
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/production-daily", h.productionDaily)
		apiGroup.GET("/energy-mix", h.energyMix)
		apiGroup.GET("/capacity-by-region", h.capacityByRegion)
		apiGroup.GET("/monthly-summary", h.monthlySummary)
		apiGroup.GET("/plants/top", h.topPlants)
	}
	return r
}

// qualify prefixes a table with the warehouse schema, both quoted.
func (h *handlers) qualify(table string) string {
	quote := func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }
	return quote(h.schema) + "." + quote(table)
}

func (h *handlers) serverError(c *gin.Context, operation string, err error) {
	h.logger.Error("Query failed.", slog.String("operation", operation), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s failed", operation)})
}

// queryRows runs a query and renders each row as a column-keyed map.
func (h *handlers) queryRows(c *gin.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := h.db.QueryContext(c.Request.Context(), query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			switch v := raw[i].(type) {
			case []byte:
				record[col] = string(v)
			case time.Time:
				record[col] = v.UTC().Format(time.RFC3339)
			default:
				record[col] = v
			}
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (h *handlers) health(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) productionDaily(c *gin.Context) {
	query := fmt.Sprintf(`
        SELECT d.date, et.energy_type_name, f.value_mw, f.value_min_mw, f.value_max_mw, f.value_avg_mw, f.nb_records
        FROM %s f
        JOIN %s d ON d.date_id = f.date_id
        JOIN %s et ON et.energy_type_id = f.energy_type_id
    `, h.qualify("fact_energy_production"), h.qualify("dim_date"), h.qualify("dim_energy_type"))

	conditions := []string{}
	args := []any{}
	if year := c.Query("year"); year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
			return
		}
		conditions = append(conditions, "d.year = ?")
		args = append(args, y)
	}
	if energyType := c.Query("type"); energyType != "" {
		conditions = append(conditions, "lower(et.energy_type_name) = lower(?)")
		args = append(args, energyType)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY d.date, et.energy_type_id;"

	records, err := h.queryRows(c, query, args...)
	if err != nil {
		h.serverError(c, "production-daily", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "data": records})
}

func (h *handlers) energyMix(c *gin.Context) {
	query := fmt.Sprintf(`
        SELECT et.energy_type_name,
               SUM(f.value_mw) AS total_mw,
               ROUND(100.0 * SUM(f.value_mw) / NULLIF(SUM(SUM(f.value_mw)) OVER (), 0), 2) AS share_pct
        FROM %s f
        JOIN %s d ON d.date_id = f.date_id
        JOIN %s et ON et.energy_type_id = f.energy_type_id
    `, h.qualify("fact_energy_production"), h.qualify("dim_date"), h.qualify("dim_energy_type"))

	args := []any{}
	if year := c.Query("year"); year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
			return
		}
		query += " WHERE d.year = ?"
		args = append(args, y)
	}
	query += " GROUP BY et.energy_type_name, et.energy_type_id ORDER BY et.energy_type_id;"

	records, err := h.queryRows(c, query, args...)
	if err != nil {
		h.serverError(c, "energy-mix", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "data": records})
}

func (h *handlers) capacityByRegion(c *gin.Context) {
	query := fmt.Sprintf(`
        SELECT f.region, et.energy_type_name, f.total_capacity_mw, f.avg_capacity_mw, f.nb_plants, f.first_commission_date
        FROM %s f
        JOIN %s et ON et.energy_type_id = f.energy_type_id
        ORDER BY f.total_capacity_mw DESC;
    `, h.qualify("fact_renewable_capacity"), h.qualify("dim_energy_type"))

	records, err := h.queryRows(c, query)
	if err != nil {
		h.serverError(c, "capacity-by-region", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "data": records})
}

func (h *handlers) monthlySummary(c *gin.Context) {
	query := fmt.Sprintf(`
        SELECT f.date_id, et.energy_type_name, f.production_mwh, f.avg_mw, f.min_mw, f.max_mw, f.nb_records
        FROM %s f
        JOIN %s et ON et.energy_type_id = f.energy_type_id
    `, h.qualify("fact_monthly_summary"), h.qualify("dim_energy_type"))

	args := []any{}
	if since := c.Query("since"); since != "" {
		dateID, err := strconv.ParseInt(since, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a YYYYMMDD integer"})
			return
		}
		query += " WHERE f.date_id >= ?"
		args = append(args, dateID)
	}
	query += " ORDER BY f.date_id, et.energy_type_id;"

	records, err := h.queryRows(c, query, args...)
	if err != nil {
		h.serverError(c, "monthly-summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "data": records})
}

func (h *handlers) topPlants(c *gin.Context) {
	limit := clampLimit(c.DefaultQuery("limit", ""), defaultPlantLimit, maxPlantLimit)
	query := fmt.Sprintf(`
        SELECT plant_id, plant_name, technology, energy_source, capacity_mw, region
        FROM %s
        ORDER BY capacity_mw DESC
        LIMIT ?;
    `, h.qualify("dim_plant"))

	records, err := h.queryRows(c, query, limit)
	if err != nil {
		h.serverError(c, "plants-top", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "data": records})
}

// clampLimit parses a limit query value, falling back to def and capping at
// max. Non-positive and unparseable values get the default.
func clampLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
