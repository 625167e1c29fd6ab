package gold

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lcharvet/energiedw/internal/frame"
	"github.com/lcharvet/energiedw/internal/util"
)

// Date key used for the static capacity-snapshot block of the production
// fact: a far-future sentinel day rather than a measurement date.
const capacitySnapshotDateID int64 = 20260101

func toFloatValue(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// sourceToEnergyType maps an energy_source_level_1 value onto an energy type
// key. Exact match on the lowercased value; anything else is Other.
func sourceToEnergyType(source string) int64 {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "renewable energy":
		return EnergyTypeOther
	case "hydro":
		return EnergyTypeHydro
	case "solar":
		return EnergyTypeSolar
	case "wind":
		return EnergyTypeWind
	default:
		return EnergyTypeOther
	}
}

// techToEnergyType maps a plant technology label onto an energy type key by
// substring, checked in order.
func techToEnergyType(tech string) int64 {
	lower := strings.ToLower(tech)
	switch {
	case strings.Contains(lower, "photovoltaics"):
		return EnergyTypeSolar
	case strings.Contains(lower, "wind"):
		return EnergyTypeWind
	case strings.Contains(lower, "hydro"):
		return EnergyTypeHydro
	default:
		return EnergyTypeOther
	}
}

// agg accumulates one group's samples. Null cells never reach addSample, so
// n counts real measurements.
type agg struct {
	sum, min, max float64
	n             int64
}

func (a *agg) addSample(v float64) {
	if a.n == 0 || v < a.min {
		a.min = v
	}
	if a.n == 0 || v > a.max {
		a.max = v
	}
	a.sum += v
	a.n++
}

func (a *agg) avg() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

func cellFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int64:
		return float64(val), true
	case string:
		return toFloatValue(val)
	default:
		return 0, false
	}
}

func productionColumns() []frame.Column {
	return []frame.Column{
		{Name: "date_id", Type: frame.Int},
		{Name: "energy_type_id", Type: frame.Int},
		{Name: "country", Type: frame.String},
		{Name: "value_mw", Type: frame.Float},
		{Name: "value_min_mw", Type: frame.Float},
		{Name: "value_max_mw", Type: frame.Float},
		{Name: "value_avg_mw", Type: frame.Float},
		{Name: "nb_records", Type: frame.Int},
		{Name: "created_at", Type: frame.Timestamp},
	}
}

// Measures of the national time series, in output order.
var productionMeasures = []struct {
	col        string
	energyType int64
}{
	{"load_mw", EnergyTypeLoad},
	{"solar_mw", EnergyTypeSolar},
	{"wind_mw", EnergyTypeWind},
}

// BuildFactEnergyProduction aggregates the national time series per day and
// energy type, then appends a static capacity snapshot from the plant
// registry. Either input may be nil; the corresponding block is skipped.
func BuildFactEnergyProduction(ts, plants *frame.Frame, now time.Time, country string) *frame.Frame {
	f := frame.New(productionColumns()...)
	createdAt := util.Naive(now)

	if ts != nil && ts.HasColumn("event_ts") {
		tsIdx := ts.ColumnIndex("event_ts")
		for _, m := range productionMeasures {
			colIdx := ts.ColumnIndex(m.col)
			if colIdx < 0 {
				continue
			}
			groups := make(map[int64]*agg)
			for _, row := range ts.Rows {
				t, ok := row[tsIdx].(time.Time)
				if !ok {
					continue
				}
				key := util.DateID(t)
				g := groups[key]
				if g == nil {
					g = &agg{}
					groups[key] = g
				}
				if v, ok := cellFloat(row[colIdx]); ok {
					g.addSample(v)
				}
			}
			for _, key := range sortedKeys(groups) {
				g := groups[key]
				f.Rows = append(f.Rows, []any{
					key, m.energyType, country, g.sum, g.min, g.max, g.avg(), g.n, createdAt,
				})
			}
		}
	}

	if plants != nil && plants.HasColumn("electrical_capacity") {
		capIdx := plants.ColumnIndex("electrical_capacity")
		srcIdx := plants.ColumnIndex("energy_source_level_1")
		groups := make(map[int64]*agg)
		for _, row := range plants.Rows {
			source := ""
			if srcIdx >= 0 {
				source, _ = row[srcIdx].(string)
			}
			key := sourceToEnergyType(source)
			g := groups[key]
			if g == nil {
				g = &agg{}
				groups[key] = g
			}
			if v, ok := cellFloat(row[capIdx]); ok {
				g.addSample(v)
			}
		}
		for _, key := range sortedKeys(groups) {
			g := groups[key]
			// Installed capacity is a stock, not a flow: the total stands
			// in for value and max, with min pinned at zero.
			f.Rows = append(f.Rows, []any{
				capacitySnapshotDateID, key, country, g.sum, float64(0), g.sum, g.sum, g.n, createdAt,
			})
		}
	}

	return f
}

func capacityColumns() []frame.Column {
	return []frame.Column{
		{Name: "region", Type: frame.String},
		{Name: "energy_type_id", Type: frame.Int},
		{Name: "total_capacity_mw", Type: frame.Float},
		{Name: "avg_capacity_mw", Type: frame.Float},
		{Name: "nb_plants", Type: frame.Int},
		{Name: "first_commission_date", Type: frame.Timestamp},
		{Name: "date_id", Type: frame.Int},
		{Name: "country", Type: frame.String},
	}
}

// BuildFactRenewableCapacity aggregates installed capacity per region and
// technology-derived energy type.
func BuildFactRenewableCapacity(plants *frame.Frame, now time.Time, country string) (*frame.Frame, error) {
	if plants == nil {
		return nil, fmt.Errorf("plant registry unavailable")
	}
	for _, required := range []string{"region", "technology", "electrical_capacity"} {
		if !plants.HasColumn(required) {
			return nil, fmt.Errorf("plant registry has no %s column", required)
		}
	}

	regionIdx := plants.ColumnIndex("region")
	techIdx := plants.ColumnIndex("technology")
	capIdx := plants.ColumnIndex("electrical_capacity")
	commIdx := plants.ColumnIndex("commissioning_date")

	type group struct {
		agg
		firstCommission any
	}
	groups := make(map[string]*group)
	for _, row := range plants.Rows {
		region, _ := row[regionIdx].(string)
		if region == "" {
			region = "Unknown"
		}
		tech, _ := row[techIdx].(string)
		etID := techToEnergyType(tech)
		key := region + "\x1f" + strconv.FormatInt(etID, 10)
		g := groups[key]
		if g == nil {
			g = &group{}
			groups[key] = g
		}
		if v, ok := cellFloat(row[capIdx]); ok {
			g.addSample(v)
		}
		if commIdx >= 0 {
			if raw, ok := row[commIdx].(string); ok {
				if t, parsed := util.ParseTimestamp(raw); parsed {
					if first, ok := g.firstCommission.(time.Time); !ok || t.Before(first) {
						g.firstCommission = t
					}
				}
			}
		}
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("plant registry yielded no capacity groups")
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	runDateID := util.DateID(util.Naive(now))
	f := frame.New(capacityColumns()...)
	for _, key := range keys {
		g := groups[key]
		parts := strings.SplitN(key, "\x1f", 2)
		etID, _ := strconv.ParseInt(parts[1], 10, 64)
		f.Rows = append(f.Rows, []any{
			parts[0], etID, g.sum, g.avg(), g.n, g.firstCommission, runDateID, country,
		})
	}
	return f, nil
}

// FallbackCapacityFact is the single-row capacity fact written when the
// plant registry cannot be aggregated.
func FallbackCapacityFact(now time.Time, country string) *frame.Frame {
	f := frame.New(capacityColumns()...)
	f.Rows = [][]any{{
		"France", EnergyTypeOther, float64(0), float64(0), int64(0), nil, util.DateID(util.Naive(now)), country,
	}}
	return f
}

func monthlyColumns() []frame.Column {
	return []frame.Column{
		{Name: "date_id", Type: frame.Int},
		{Name: "energy_type_id", Type: frame.Int},
		{Name: "country", Type: frame.String},
		{Name: "production_mwh", Type: frame.Float},
		{Name: "avg_mw", Type: frame.Float},
		{Name: "min_mw", Type: frame.Float},
		{Name: "max_mw", Type: frame.Float},
		{Name: "nb_records", Type: frame.Int},
	}
}

// Candidate timestamp columns for the monthly rollup, checked in order.
var monthlyDateColumns = []string{"event_ts", "DateTime", "datetime", "date"}

// Monthly measures: only columns present in the input contribute rows.
var monthlyMeasures = []struct {
	col        string
	energyType int64
}{
	{"solar_mw", EnergyTypeSolar},
	{"wind_mw", EnergyTypeWind},
	{"load_mw", EnergyTypeLoad},
}

// BuildFactMonthlySummary rolls the national time series up to calendar
// months. A missing timestamp column produces an empty fact, not an error.
func BuildFactMonthlySummary(ts *frame.Frame, country string) *frame.Frame {
	f := frame.New(monthlyColumns()...)
	if ts == nil {
		return f
	}

	dateIdx := -1
	for _, candidate := range monthlyDateColumns {
		if idx := ts.ColumnIndex(candidate); idx >= 0 {
			dateIdx = idx
			break
		}
	}
	if dateIdx < 0 {
		return f
	}

	for _, m := range monthlyMeasures {
		colIdx := ts.ColumnIndex(m.col)
		if colIdx < 0 {
			continue
		}
		groups := make(map[int64]*agg)
		for _, row := range ts.Rows {
			var t time.Time
			switch v := row[dateIdx].(type) {
			case time.Time:
				t = v
			case string:
				parsed, ok := util.ParseTimestamp(v)
				if !ok {
					continue
				}
				t = parsed
			default:
				continue
			}
			key := int64(t.Year())*10000 + int64(t.Month())*100 + 1
			g := groups[key]
			if g == nil {
				g = &agg{}
				groups[key] = g
			}
			if v, ok := cellFloat(row[colIdx]); ok {
				g.addSample(v)
			}
		}
		for _, key := range sortedKeys(groups) {
			g := groups[key]
			f.Rows = append(f.Rows, []any{
				key, m.energyType, country, g.sum, g.avg(), g.min, g.max, g.n,
			})
		}
	}
	return f
}

func sortedKeys(m map[int64]*agg) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
