// Package mapaxes holds the rendering-independent parts of the map plot
// axes: their configuration, element layering, city selection and the
// geographic bounding box of the visible domain.
package mapaxes

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("invalid map axes config")

// RefDistConfig configures the reference distance indicator.
type RefDistConfig struct {
	Dist      float64 `toml:"dist" yaml:"dist"`           // Reference distance in Unit.
	Unit      string  `toml:"unit" yaml:"unit"`           // Distance unit.
	Pos       string  `toml:"pos" yaml:"pos"`             // Corner: "bl", "br", "tl" or "tr".
	FontSize  float64 `toml:"font_size" yaml:"font_size"` // Label font size in points.
	LineWidth float64 `toml:"line_width" yaml:"line_width"`
	HBox      float64 `toml:"h_box" yaml:"h_box"` // Box height in axes coordinates.
	XPadBox   float64 `toml:"xpad_box" yaml:"xpad_box"`
	YPadBox   float64 `toml:"ypad_box" yaml:"ypad_box"`
}

// DefaultRefDistConfig returns the default reference distance indicator.
func DefaultRefDistConfig() RefDistConfig {
	return RefDistConfig{
		Dist:      100,
		Unit:      "km",
		Pos:       "bl",
		FontSize:  11,
		LineWidth: 2,
		HBox:      0.06,
		XPadBox:   0.2,
		YPadBox:   0.2,
	}
}

// Scale returns a copy with font size and line width multiplied by factor.
func (c RefDistConfig) Scale(factor float64) RefDistConfig {
	c.FontSize *= factor
	c.LineWidth *= factor
	return c
}

// Config configures the map axes.
type Config struct {
	AllCapitalCities  bool           `toml:"all_capital_cities" yaml:"all_capital_cities"`
	Aspect            float64        `toml:"aspect" yaml:"aspect"` // Width by height.
	DLatGrid          float64        `toml:"d_lat_grid" yaml:"d_lat_grid"`
	DLonGrid          float64        `toml:"d_lon_grid" yaml:"d_lon_grid"`
	ExcludeCities     []string       `toml:"exclude_cities" yaml:"exclude_cities"`
	GeoRes            string         `toml:"geo_res" yaml:"geo_res"`
	GeoResCities      string         `toml:"geo_res_cities" yaml:"geo_res_cities"` // "none" means GeoRes.
	GeoResRivers      string         `toml:"geo_res_rivers" yaml:"geo_res_rivers"` // "none" means GeoRes.
	Lang              string         `toml:"lang" yaml:"lang"`
	LwFrame           float64        `toml:"lw_frame" yaml:"lw_frame"`
	MinCityPop        int            `toml:"min_city_pop" yaml:"min_city_pop"`
	OnlyCapitalCities bool           `toml:"only_capital_cities" yaml:"only_capital_cities"`
	Projection        string         `toml:"projection" yaml:"projection"`
	RefDist           *RefDistConfig `toml:"ref_dist_config" yaml:"ref_dist_config"`
	RefDistOn         bool           `toml:"ref_dist_on" yaml:"ref_dist_on"`
	ScaleFact         float64        `toml:"scale_fact" yaml:"scale_fact"` // Scales fonts and lines.
}

// DefaultConfig returns the configuration with all defaults set. It is not
// completed yet.
func DefaultConfig() Config {
	return Config{
		AllCapitalCities: true,
		Aspect:           1,
		DLatGrid:         10,
		DLonGrid:         10,
		GeoRes:           "50m",
		GeoResCities:     "none",
		GeoResRivers:     "none",
		Lang:             "en",
		LwFrame:          1,
		Projection:       "data",
		RefDistOn:        true,
		ScaleFact:        1,
	}
}

// Complete resolves the "none" resolutions to GeoRes and sets up the scaled
// reference distance indicator.
func (c Config) Complete() Config {
	if c.GeoResCities == "none" {
		c.GeoResCities = c.GeoRes
	}
	if c.GeoResRivers == "none" {
		c.GeoResRivers = c.GeoRes
	}
	ref := DefaultRefDistConfig()
	if c.RefDist != nil {
		ref = *c.RefDist
	}
	ref = ref.Scale(c.ScaleFact)
	c.RefDist = &ref
	return c
}

// Decode reads the [map_axes] table of a TOML document on top of the
// defaults and returns the completed configuration. Unknown keys are
// rejected.
func Decode(data []byte) (Config, error) {
	var doc struct {
		Table map[string]interface{} `toml:"map_axes"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg := DefaultConfig()
	if doc.Table != nil {
		table, err := toml.Marshal(doc.Table)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		ref := DefaultRefDistConfig()
		cfg.RefDist = &ref
		dec := toml.NewDecoder(bytes.NewReader(table))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return cfg.Complete(), nil
}

// Layer names of the map elements, lowest first.
var Layers = []string{"lowest", "fld", "geo_lower", "geo_upper", "grid", "marker", "frames"}

// ZOrder returns the drawing order of the map element layers, starting at
// 1 for the lowest.
func ZOrder() map[string]int {
	out := make(map[string]int, len(Layers))
	for i, name := range Layers {
		out[name] = 1 + i
	}
	return out
}
