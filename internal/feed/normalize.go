package feed

import (
	"fmt"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Attribute names kept on seismic features.
const (
	AttrCode  = "code"
	AttrMag   = "mag"
	AttrPlace = "place"
	AttrTime  = "time"
	AttrURL   = "url"
)

// Normalize decodes a GeoJSON feed response into the seismic collection.
// Features are keyed by properties.code, falling back to the feature id.
// Features without a key or a point geometry are skipped; the number skipped
// is returned alongside the collection.
func Normalize(raw []byte) (domain.FeatureCollection, int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return domain.FeatureCollection{}, 0, fmt.Errorf("decode feed: %w", err)
	}

	out := domain.FeatureCollection{
		Layer:    domain.LayerEarthquakes,
		Features: make([]domain.Feature, 0, len(fc.Features)),
	}
	dropped := 0
	for _, f := range fc.Features {
		key := featureKey(f)
		pt, ok := f.Geometry.(orb.Point)
		if key == "" || !ok {
			dropped++
			continue
		}

		attrs := map[string]any{
			AttrCode: key,
			AttrMag:  number(f.Properties[AttrMag]),
		}
		for _, name := range []string{AttrPlace, AttrTime, AttrURL} {
			if v, ok := f.Properties[name]; ok && v != nil {
				attrs[name] = v
			}
		}
		out.Features = append(out.Features, domain.Feature{
			Key:        key,
			Geometry:   pt,
			Attributes: attrs,
		})
	}
	return out, dropped, nil
}

func featureKey(f *geojson.Feature) string {
	if code, ok := f.Properties[AttrCode].(string); ok && code != "" {
		return code
	}
	switch id := f.ID.(type) {
	case nil:
		return ""
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

// number reads a JSON numeric property. Null or non-numeric values count as 0.
func number(v any) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}
