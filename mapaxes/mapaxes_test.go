package mapaxes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigComplete(t *testing.T) {
	cfg := DefaultConfig().Complete()

	assert.Equal(t, "50m", cfg.GeoResCities)
	assert.Equal(t, "50m", cfg.GeoResRivers)
	require.NotNil(t, cfg.RefDist)
	assert.Equal(t, DefaultRefDistConfig(), *cfg.RefDist)
	assert.True(t, cfg.AllCapitalCities)
	assert.True(t, cfg.RefDistOn)
	assert.Equal(t, "data", cfg.Projection)
}

func TestCompleteScalesRefDist(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScaleFact = 2
	cfg.GeoRes = "10m"
	cfg.GeoResRivers = "110m"

	done := cfg.Complete()
	assert.Equal(t, "10m", done.GeoResCities)
	assert.Equal(t, "110m", done.GeoResRivers)
	assert.Equal(t, 22.0, done.RefDist.FontSize)
	assert.Equal(t, 4.0, done.RefDist.LineWidth)
	assert.Equal(t, 100.0, done.RefDist.Dist)
	// The receiver is left alone.
	assert.Nil(t, cfg.RefDist)
}

func TestDecode(t *testing.T) {
	cfg, err := Decode([]byte(`
plot_variable = "concentration"

[map_axes]
lang = "de"
min_city_pop = 50000
aspect = 2.0
exclude_cities = ["Zug"]
scale_fact = 0.5

[map_axes.ref_dist_config]
dist = 50.0
unit = "km"
pos = "tr"
font_size = 10.0
line_width = 2.0
`))
	require.NoError(t, err)

	assert.Equal(t, "de", cfg.Lang)
	assert.Equal(t, 50000, cfg.MinCityPop)
	assert.Equal(t, 2.0, cfg.Aspect)
	assert.Equal(t, []string{"Zug"}, cfg.ExcludeCities)
	assert.Equal(t, 10.0, cfg.DLatGrid)
	require.NotNil(t, cfg.RefDist)
	assert.Equal(t, "tr", cfg.RefDist.Pos)
	assert.Equal(t, 50.0, cfg.RefDist.Dist)
	assert.Equal(t, 5.0, cfg.RefDist.FontSize)
	assert.Equal(t, 1.0, cfg.RefDist.LineWidth)
}

func TestDecodeWithoutTable(t *testing.T) {
	cfg, err := Decode([]byte(`a = 1`))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Complete(), cfg)
}

func TestDecodeUnknownKey(t *testing.T) {
	_, err := Decode([]byte("[map_axes]\ncolour = \"red\"\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestZOrder(t *testing.T) {
	z := ZOrder()
	assert.Equal(t, 1, z["lowest"])
	assert.Equal(t, 2, z["fld"])
	assert.Equal(t, 7, z["frames"])
	assert.Less(t, z["geo_lower"], z["geo_upper"])
	assert.Len(t, z, 7)
}

func TestCityName(t *testing.T) {
	fr := City{Names: map[string]string{"en": "Freiburg im Üechtland", "de": "Freiburg im Uechtland"}}
	assert.Equal(t, "Freiburg", fr.Name("en"))
	assert.Equal(t, "Freiburg", fr.Name("de"))

	bern := City{Names: map[string]string{"en": "Bern"}, FeatureClass: "Admin-0 capital alt"}
	assert.Equal(t, "Bern", bern.Name("en"))
	assert.True(t, bern.IsCapital())
	assert.False(t, City{FeatureClass: "Admin-1 capital"}.IsCapital())
}

// identity treats longitude and latitude in [0, 10] as the axes.
func identity(lon, lat float64) (float64, float64) { return lon / 10, lat / 10 }

func city(name string, capital bool, pop int, lon, lat float64) City {
	c := City{Names: map[string]string{"en": name}, Population: pop, Lon: lon, Lat: lat, FeatureClass: "Populated place"}
	if capital {
		c.FeatureClass = "Admin-0 capital"
	}
	return c
}

func names(cities []City) []string {
	var out []string
	for _, c := range cities {
		out = append(out, c.Name("en"))
	}
	return out
}

func TestSelectCitiesPopulation(t *testing.T) {
	cities := []City{
		city("Capital", true, 10, 5, 5),
		city("Big", false, 1000, 5, 5),
		city("Small", false, 10, 5, 5),
	}
	bbox := BBox{-1, -1, 11, 11}
	tests := []struct {
		all, only bool
		want      []string
	}{
		{true, true, []string{"Capital"}},
		{true, false, []string{"Big", "Capital"}},
		{false, true, nil},
		{false, false, []string{"Big"}},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.AllCapitalCities, cfg.OnlyCapitalCities = tt.all, tt.only
		cfg.MinCityPop = 100
		assert.Equal(t, tt.want, names(SelectCities(cities, cfg, bbox, identity, nil)), "all=%v only=%v", tt.all, tt.only)
	}
}

func TestSelectCitiesVisibility(t *testing.T) {
	cities := []City{
		city("Outside bbox", false, 1, 9.5, 5),
		city("Outside axes", false, 1, 5, 11),
		city("Zurich", false, 1, 5, 5),
		city("Behind box", false, 1, 0.5, 0.5),
		city("Aarau", false, 1, 2, 8),
		city("Excluded", false, 1, 3, 3),
	}
	cfg := DefaultConfig()
	cfg.ExcludeCities = []string{"Excluded"}
	bbox := BBox{LonMin: -1, LatMin: -1, LonMax: 9, LatMax: 12}
	box := &Rect{X0: 0, Y0: 0, X1: 0.2, Y1: 0.1}

	got := SelectCities(cities, cfg, bbox, identity, box)
	assert.Equal(t, []string{"Aarau", "Zurich"}, names(got))

	got = SelectCities(cities, cfg, bbox, identity, nil)
	assert.Equal(t, []string{"Aarau", "Behind box", "Zurich"}, names(got))
}

func TestSelectCitiesUnmappable(t *testing.T) {
	cities := []City{city("Zurich", false, 1, 5, 5)}
	bbox := BBox{LonMin: -1, LatMin: -1, LonMax: 11, LatMax: 11}
	unmapped := func(lon, lat float64) (float64, float64) { return math.NaN(), lat / 10 }

	assert.Empty(t, SelectCities(cities, DefaultConfig(), bbox, unmapped, nil))
}

func TestDomainBBox(t *testing.T) {
	toGeo := func(x, y float64) (float64, float64) { return 5 + 10*x, 45 + 5*y*y }
	bbox := DomainBBox(toGeo, 20, 1)
	assert.Equal(t, BBox{LonMin: 4, LatMin: 44, LonMax: 16, LatMax: 51}, bbox)

	assert.Equal(t, []float64{0, 0.5, 1}, linspace(3))
	assert.Equal(t, []float64{0}, linspace(1))
	assert.Empty(t, linspace(0))
}
