package domain

import (
	"strings"

	"github.com/paulmach/orb"
)

// LayerName identifies one of the map layers.
type LayerName string

const (
	LayerContinents  LayerName = "continents"
	LayerPlates      LayerName = "tectonic-plates"
	LayerEarthquakes LayerName = "earthquakes"
)

// Layers lists the map layers in paint order.
var Layers = []LayerName{LayerContinents, LayerPlates, LayerEarthquakes}

// ParseLayerName validates a layer name supplied by a client.
func ParseLayerName(s string) (LayerName, bool) {
	for _, l := range Layers {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Feature is one geographic entity: a point or polygon in lon/lat with attributes.
type Feature struct {
	Key        string         `json:"key"`
	Geometry   orb.Geometry   `json:"-"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Float returns a numeric attribute, or def when it is missing or not a number.
func (f Feature) Float(name string, def float64) float64 {
	switch v := f.Attributes[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// String returns a string attribute, or "" when it is missing or not a string.
func (f Feature) String(name string) string {
	if s, ok := f.Attributes[name].(string); ok {
		return s
	}
	return ""
}

// FeatureCollection is an ordered set of features of one layer.
type FeatureCollection struct {
	Layer    LayerName `json:"layer"`
	Features []Feature `json:"features"`
}

// Len returns the number of features.
func (fc FeatureCollection) Len() int { return len(fc.Features) }

// Keys returns the feature keys in collection order.
func (fc FeatureCollection) Keys() []string {
	keys := make([]string, len(fc.Features))
	for i, f := range fc.Features {
		keys[i] = f.Key
	}
	return keys
}

// Dedupe drops features whose key appears again later in the collection, so
// that the last occurrence wins. Order of the survivors is preserved. It
// returns the deduplicated collection and the number of features dropped.
func (fc FeatureCollection) Dedupe() (FeatureCollection, int) {
	last := make(map[string]int, len(fc.Features))
	for i, f := range fc.Features {
		last[f.Key] = i
	}
	if len(last) == len(fc.Features) {
		return fc, 0
	}

	out := FeatureCollection{Layer: fc.Layer, Features: make([]Feature, 0, len(last))}
	for i, f := range fc.Features {
		if last[f.Key] == i {
			out.Features = append(out.Features, f)
		}
	}
	return out, len(fc.Features) - len(out.Features)
}

// Bound returns the lon/lat bounding box of all feature geometries.
// ok is false when no feature carries a geometry.
func (fc FeatureCollection) Bound() (b orb.Bound, ok bool) {
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if !ok {
			b, ok = f.Geometry.Bound(), true
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b, ok
}

// Geometry collects every feature geometry into one orb.Collection.
func (fc FeatureCollection) Geometry() orb.Collection {
	c := make(orb.Collection, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry != nil {
			c = append(c, f.Geometry)
		}
	}
	return c
}

// Slug lowercases a display name and replaces spaces with dashes,
// e.g. "North America" -> "north-america". Used for element ids and keys.
func Slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
