package mapaxes

import (
	"math"
	"sort"
	"strings"
)

// City is a populated place as listed in the Natural Earth data set.
type City struct {
	Names        map[string]string // Name by language, e.g. "en", "de".
	FeatureClass string
	Population   int
	Lon, Lat     float64
}

// Name returns the city name in the given language.
func (c City) Name(lang string) string {
	name := c.Names[lang]
	if strings.HasPrefix(name, "Freiburg im ") && strings.HasSuffix(name, "echtland") {
		return "Freiburg"
	}
	return name
}

// IsCapital reports whether the city is a national capital.
func (c City) IsCapital() bool {
	return strings.HasPrefix(c.FeatureClass, "Admin-0 capital")
}

// BBox is a geographic bounding box in degrees.
type BBox struct {
	LonMin, LatMin, LonMax, LatMax float64
}

// Contains reports whether the point lies strictly inside the box.
func (b BBox) Contains(lon, lat float64) bool {
	return lon > b.LonMin && lon < b.LonMax && lat > b.LatMin && lat < b.LatMax
}

// Rect is a rectangle in axes coordinates.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Contains reports whether the point lies inside the rectangle or on its
// edge.
func (r Rect) Contains(x, y float64) bool {
	return r.X0 <= x && x <= r.X1 && r.Y0 <= y && y <= r.Y1
}

// Transform maps a point from one coordinate system to another.
type Transform func(x, y float64) (float64, float64)

// SelectCities returns the cities to be labeled on the map, sorted by
// their name in cfg.Lang. Cities are picked by capital status and
// population, must lie inside geoBBox and inside the axes, and must not be
// hidden behind refDistBox, which may be nil. Names listed in
// cfg.ExcludeCities are dropped.
func SelectCities(cities []City, cfg Config, geoBBox BBox, geoToAxes Transform, refDistBox *Rect) []City {
	excluded := make(map[string]bool, len(cfg.ExcludeCities))
	for _, name := range cfg.ExcludeCities {
		excluded[name] = true
	}

	var selected []City
	for _, city := range cities {
		if !populationSelected(city, cfg) {
			continue
		}
		if !geoBBox.Contains(city.Lon, city.Lat) {
			continue
		}
		x, y := geoToAxes(city.Lon, city.Lat)
		if !(x >= 0 && x <= 1 && y >= 0 && y <= 1) {
			continue
		}
		if refDistBox != nil && refDistBox.Contains(x, y) {
			continue
		}
		selected = append(selected, city)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Name(cfg.Lang) < selected[j].Name(cfg.Lang)
	})

	out := selected[:0]
	for _, city := range selected {
		if !excluded[city.Name(cfg.Lang)] {
			out = append(out, city)
		}
	}
	return out
}

func populationSelected(city City, cfg Config) bool {
	capital := city.IsCapital()
	populous := city.Population > cfg.MinCityPop
	switch {
	case cfg.AllCapitalCities && cfg.OnlyCapitalCities:
		return capital
	case cfg.AllCapitalCities:
		return capital || populous
	case cfg.OnlyCapitalCities:
		return capital && populous
	}
	return populous
}

// DomainBBox samples n points along each edge of the axes, maps them to
// geographic coordinates and returns their bounding box grown by pad
// degrees on every side.
func DomainBBox(axesToGeo Transform, n int, pad float64) BBox {
	inf := math.Inf(1)
	bbox := BBox{LonMin: inf, LatMin: inf, LonMax: -inf, LatMax: -inf}
	add := func(x, y float64) {
		lon, lat := axesToGeo(x, y)
		bbox.LonMin = min(bbox.LonMin, lon)
		bbox.LatMin = min(bbox.LatMin, lat)
		bbox.LonMax = max(bbox.LonMax, lon)
		bbox.LatMax = max(bbox.LatMax, lat)
	}
	for _, t := range linspace(n) {
		add(t, 0)
		add(t, 1)
		add(0, t)
		add(1, t)
	}
	return BBox{
		LonMin: bbox.LonMin - pad,
		LatMin: bbox.LatMin - pad,
		LonMax: bbox.LonMax + pad,
		LatMax: bbox.LatMax + pad,
	}
}

// linspace returns n evenly spaced values from 0 to 1.
func linspace(n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{0}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) / float64(n-1)
	}
	return out
}
