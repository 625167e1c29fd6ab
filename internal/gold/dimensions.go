package gold

import (
	"fmt"
	"time"

	"github.com/lcharvet/energiedw/internal/frame"
	"github.com/lcharvet/energiedw/internal/util"
)

// Energy type surrogate keys. Fixed by contract, not by position.
const (
	EnergyTypeSolar int64 = 1
	EnergyTypeWind  int64 = 2
	EnergyTypeLoad  int64 = 3
	EnergyTypeHydro int64 = 4
	EnergyTypeOther int64 = 5
)

// BuildDimEnergyType returns the fixed energy-type dimension.
func BuildDimEnergyType() *frame.Frame {
	f := frame.New(
		frame.Column{Name: "energy_type_id", Type: frame.Int},
		frame.Column{Name: "energy_type_name", Type: frame.String},
		frame.Column{Name: "description", Type: frame.String},
		frame.Column{Name: "unit", Type: frame.String},
		frame.Column{Name: "category", Type: frame.String},
	)
	f.Rows = [][]any{
		{EnergyTypeSolar, "Solar", "Solar photovoltaic generation", "MW", "Renewable"},
		{EnergyTypeWind, "Wind Onshore", "Onshore wind generation", "MW", "Renewable"},
		{EnergyTypeLoad, "Load (Consumption)", "National electricity consumption", "MW", "Consumption"},
		{EnergyTypeHydro, "Hydro", "Hydroelectric generation", "MW", "Renewable"},
		{EnergyTypeOther, "Other", "Other or unclassified generation", "MW", "Other"},
	}
	return f
}

func locationColumns() []frame.Column {
	return []frame.Column{
		{Name: "location_id", Type: frame.Int},
		{Name: "nuts_1_code", Type: frame.String},
		{Name: "nuts_2_code", Type: frame.String},
		{Name: "region_name", Type: frame.String},
		{Name: "region_code", Type: frame.String},
		{Name: "country", Type: frame.String},
	}
}

// stringOrEmpty reads a cell as a string, treating null and non-string as "".
func stringOrEmpty(f *frame.Frame, row int, col string) string {
	if s, ok := f.Value(row, col).(string); ok {
		return s
	}
	return ""
}

// BuildDimLocation derives the location dimension from the cleaned plant
// registry: distinct region tuples, null regions dropped, location_id by
// position from 1.
func BuildDimLocation(plants *frame.Frame, country string) (*frame.Frame, error) {
	if plants == nil || !plants.HasColumn("region") {
		return nil, fmt.Errorf("plant registry has no region column")
	}

	f := frame.New(locationColumns()...)
	seen := make(map[string]bool)
	var nextID int64 = 1
	for i := range plants.Rows {
		region := stringOrEmpty(plants, i, "region")
		if region == "" {
			continue
		}
		nuts1 := stringOrEmpty(plants, i, "nuts_1_region")
		nuts2 := stringOrEmpty(plants, i, "nuts_2_region")
		code := stringOrEmpty(plants, i, "region_code")
		key := nuts1 + "\x1f" + nuts2 + "\x1f" + region + "\x1f" + code
		if seen[key] {
			continue
		}
		seen[key] = true
		f.Rows = append(f.Rows, []any{nextID, nuts1, nuts2, region, code, country})
		nextID++
	}
	if len(f.Rows) == 0 {
		return nil, fmt.Errorf("plant registry yielded no locations")
	}
	return f, nil
}

// PlaceholderLocation is the single-row fallback used when the plant
// registry cannot supply locations.
func PlaceholderLocation(country string) *frame.Frame {
	f := frame.New(locationColumns()...)
	f.Rows = [][]any{{int64(1), "FRF", "FRF1", "France", "", country}}
	return f
}

func plantColumns() []frame.Column {
	return []frame.Column{
		{Name: "plant_id", Type: frame.Int},
		{Name: "plant_name", Type: frame.String},
		{Name: "technology", Type: frame.String},
		{Name: "energy_source", Type: frame.String},
		{Name: "capacity_mw", Type: frame.Float},
		{Name: "latitude", Type: frame.Float},
		{Name: "longitude", Type: frame.Float},
		{Name: "commissioning_date", Type: frame.Timestamp},
		{Name: "region", Type: frame.String},
	}
}

func floatOrZero(f *frame.Frame, row int, col string) float64 {
	switch v := f.Value(row, col).(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		if parsed, ok := toFloatValue(v); ok {
			return parsed
		}
	}
	return 0
}

func stringOrDefault(f *frame.Frame, row int, col, def string) string {
	if s, ok := f.Value(row, col).(string); ok && s != "" {
		return s
	}
	return def
}

// BuildDimPlant derives one dimension row per cleaned plant, plant_id by
// position from 1. Missing descriptive fields get Unknown/zero defaults.
func BuildDimPlant(plants *frame.Frame) (*frame.Frame, error) {
	if plants == nil || plants.NumRows() == 0 {
		return nil, fmt.Errorf("plant registry is empty")
	}

	f := frame.New(plantColumns()...)
	for i := range plants.Rows {
		var commissioned any
		if raw, ok := plants.Value(i, "commissioning_date").(string); ok {
			if t, parsed := util.ParseTimestamp(raw); parsed {
				commissioned = t
			}
		} else if t, ok := plants.Value(i, "commissioning_date").(time.Time); ok {
			commissioned = t
		}
		f.Rows = append(f.Rows, []any{
			int64(i + 1),
			stringOrDefault(plants, i, "site_name", fmt.Sprintf("Plant_%d", i+1)),
			stringOrDefault(plants, i, "technology", "Unknown"),
			stringOrDefault(plants, i, "energy_source_level_1", "Unknown"),
			floatOrZero(plants, i, "electrical_capacity"),
			floatOrZero(plants, i, "lat"),
			floatOrZero(plants, i, "lon"),
			commissioned,
			stringOrDefault(plants, i, "region", "Unknown"),
		})
	}
	return f, nil
}

// PlaceholderPlant is the single-row fallback plant dimension.
func PlaceholderPlant() *frame.Frame {
	f := frame.New(plantColumns()...)
	f.Rows = [][]any{{int64(1), "Unknown", "Unknown", "Unknown", float64(0), float64(0), float64(0), nil, "Unknown"}}
	return f
}
