package config

import (
	"fmt"
	"os"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/scene"
	"gopkg.in/yaml.v3"
)

// LayerStyle is the paint of one layer.
type LayerStyle struct {
	Class   string      `yaml:"class"`
	Style   scene.Style `yaml:"style"`
	Opacity float64     `yaml:"opacity"`
	// RadiusScale multiplies the magnitude into a circle radius (seismic layer only).
	RadiusScale float64 `yaml:"radius_scale"`
}

// Styles maps each layer to its paint.
type Styles map[domain.LayerName]LayerStyle

// DefaultStyles returns the built-in layer paint.
func DefaultStyles() Styles {
	return Styles{
		domain.LayerContinents: {
			Class:   "continent",
			Style:   scene.Style{Fill: "lightgreen", Stroke: "darkgreen"},
			Opacity: 0.1,
		},
		domain.LayerPlates: {
			Class: "tectonic-plate",
			Style: scene.Style{
				Fill:          "blue",
				FillOpacity:   0.1,
				Stroke:        "blue",
				StrokeWidth:   1,
				StrokeOpacity: 0.2,
			},
			Opacity: 1,
		},
		domain.LayerEarthquakes: {
			Class:       "earthquake",
			Style:       scene.Style{Fill: "red", Stroke: "red"},
			Opacity:     0.1,
			RadiusScale: 1,
		},
	}
}

// LoadStyles returns the default styles overlaid with the YAML file at path.
// Fields missing from the file keep their defaults. An empty path yields the
// defaults.
func LoadStyles(path string) (Styles, error) {
	styles := DefaultStyles()
	if path == "" {
		return styles, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layer styles: %w", err)
	}
	if err := styles.merge(raw); err != nil {
		return nil, fmt.Errorf("parse layer styles %s: %w", path, err)
	}
	return styles, nil
}

func (s Styles) merge(raw []byte) error {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for name, node := range doc {
		layer, ok := domain.ParseLayerName(name)
		if !ok {
			return fmt.Errorf("unknown layer %q", name)
		}
		st := s[layer]
		if err := node.Decode(&st); err != nil {
			return fmt.Errorf("layer %s: %w", name, err)
		}
		if st.Opacity < 0 || st.Opacity > 1 {
			return fmt.Errorf("layer %s: opacity %v out of [0,1]", name, st.Opacity)
		}
		s[layer] = st
	}
	return nil
}
