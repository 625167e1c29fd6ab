package gold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcharvet/energiedw/internal/frame"
)

func TestBuildDimEnergyType(t *testing.T) {
	f := BuildDimEnergyType()
	require.Equal(t, 5, f.NumRows())

	assert.Equal(t, EnergyTypeSolar, f.Value(0, "energy_type_id"))
	assert.Equal(t, "Solar", f.Value(0, "energy_type_name"))
	assert.Equal(t, "Wind Onshore", f.Value(1, "energy_type_name"))
	assert.Equal(t, "Load (Consumption)", f.Value(2, "energy_type_name"))
	assert.Equal(t, "Hydro", f.Value(3, "energy_type_name"))
	assert.Equal(t, "Other", f.Value(4, "energy_type_name"))
	for i := range f.Rows {
		assert.Equal(t, int64(i+1), f.Value(i, "energy_type_id"))
		assert.Equal(t, "MW", f.Value(i, "unit"))
	}
}

func plantRegistry(t *testing.T, rows ...[]any) *frame.Frame {
	t.Helper()
	f := frame.New(
		frame.Column{Name: "site_name", Type: frame.String},
		frame.Column{Name: "technology", Type: frame.String},
		frame.Column{Name: "energy_source_level_1", Type: frame.String},
		frame.Column{Name: "electrical_capacity", Type: frame.Float},
		frame.Column{Name: "lat", Type: frame.String},
		frame.Column{Name: "lon", Type: frame.String},
		frame.Column{Name: "commissioning_date", Type: frame.String},
		frame.Column{Name: "nuts_1_region", Type: frame.String},
		frame.Column{Name: "nuts_2_region", Type: frame.String},
		frame.Column{Name: "region", Type: frame.String},
		frame.Column{Name: "region_code", Type: frame.String},
	)
	for _, r := range rows {
		require.NoError(t, f.AppendRow(r...))
	}
	return f
}

func TestBuildDimLocationDistinctTuples(t *testing.T) {
	plants := plantRegistry(t,
		[]any{"A", "Photovoltaics", "Solar", 10.0, "48.1", "2.3", "2019-05-01", "FRF", "FRF1", "Grand Est", "44"},
		[]any{"B", "Onshore wind", "Wind", 20.0, "48.2", "2.4", "2018-01-01", "FRF", "FRF1", "Grand Est", "44"},
		[]any{"C", "Hydro", "Hydro", 30.0, "45.0", "4.0", "2010-01-01", "FRK", "FRK2", "Auvergne-Rhône-Alpes", "84"},
		[]any{"D", "Photovoltaics", "Solar", 5.0, "44.0", "1.0", "2021-01-01", "", "", "", ""},
	)

	f, err := BuildDimLocation(plants, "FR")
	require.NoError(t, err)
	require.Equal(t, 2, f.NumRows())

	assert.Equal(t, int64(1), f.Value(0, "location_id"))
	assert.Equal(t, "Grand Est", f.Value(0, "region_name"))
	assert.Equal(t, "FRF", f.Value(0, "nuts_1_code"))
	assert.Equal(t, "44", f.Value(0, "region_code"))
	assert.Equal(t, int64(2), f.Value(1, "location_id"))
	assert.Equal(t, "Auvergne-Rhône-Alpes", f.Value(1, "region_name"))
	assert.Equal(t, "FR", f.Value(0, "country"))
}

func TestBuildDimLocationErrors(t *testing.T) {
	_, err := BuildDimLocation(nil, "FR")
	assert.Error(t, err)

	noRegion := frame.New(frame.Column{Name: "site_name", Type: frame.String})
	_, err = BuildDimLocation(noRegion, "FR")
	assert.Error(t, err)

	allEmpty := plantRegistry(t,
		[]any{"A", "Photovoltaics", "Solar", 10.0, "", "", "", "", "", "", ""},
	)
	_, err = BuildDimLocation(allEmpty, "FR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no locations")
}

func TestPlaceholderLocation(t *testing.T) {
	f := PlaceholderLocation("FR")
	require.Equal(t, 1, f.NumRows())
	assert.Equal(t, int64(1), f.Value(0, "location_id"))
	assert.Equal(t, "France", f.Value(0, "region_name"))
	assert.Equal(t, "FR", f.Value(0, "country"))
}

func TestBuildDimPlant(t *testing.T) {
	plants := plantRegistry(t,
		[]any{"Ferme du Soleil", "Photovoltaics", "Solar", 12.5, "48.1", "2.3", "2019-05-01", "FRF", "FRF1", "Grand Est", "44"},
		[]any{"", "", "", nil, "", "", "not a date", "", "", "", ""},
	)

	f, err := BuildDimPlant(plants)
	require.NoError(t, err)
	require.Equal(t, 2, f.NumRows())

	assert.Equal(t, int64(1), f.Value(0, "plant_id"))
	assert.Equal(t, "Ferme du Soleil", f.Value(0, "plant_name"))
	assert.Equal(t, "Photovoltaics", f.Value(0, "technology"))
	assert.Equal(t, 12.5, f.Value(0, "capacity_mw"))
	assert.Equal(t, 48.1, f.Value(0, "latitude"))
	assert.Equal(t, time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC), f.Value(0, "commissioning_date"))
	assert.Equal(t, "Grand Est", f.Value(0, "region"))

	assert.Equal(t, int64(2), f.Value(1, "plant_id"))
	assert.Equal(t, "Plant_2", f.Value(1, "plant_name"))
	assert.Equal(t, "Unknown", f.Value(1, "technology"))
	assert.Equal(t, "Unknown", f.Value(1, "energy_source"))
	assert.Equal(t, 0.0, f.Value(1, "capacity_mw"))
	assert.Nil(t, f.Value(1, "commissioning_date"))
	assert.Equal(t, "Unknown", f.Value(1, "region"))
}

func TestBuildDimPlantEmptyRegistry(t *testing.T) {
	_, err := BuildDimPlant(nil)
	assert.Error(t, err)
	_, err = BuildDimPlant(frame.New(frame.Column{Name: "site_name", Type: frame.String}))
	assert.Error(t, err)
}

func TestPlaceholderPlant(t *testing.T) {
	f := PlaceholderPlant()
	require.Equal(t, 1, f.NumRows())
	assert.Equal(t, int64(1), f.Value(0, "plant_id"))
	assert.Equal(t, "Unknown", f.Value(0, "plant_name"))
	assert.Equal(t, 0.0, f.Value(0, "capacity_mw"))
}
