// Package dataset loads the static GeoJSON layers (continents, tectonic plates).
package dataset

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/paulmach/orb/geojson"
)

// Source describes one static dataset file.
type Source struct {
	Layer domain.LayerName
	Path  string
	// KeyProperty names the feature property whose slug becomes the key.
	// Features without it are keyed by their position in the file.
	KeyProperty string
}

// Load reads and parses the dataset at src.Path.
func Load(ctx context.Context, src Source) (domain.FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return domain.FeatureCollection{}, err
	}
	raw, err := os.ReadFile(src.Path)
	if err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("read %s dataset: %w", src.Layer, err)
	}
	fc, err := Parse(src, raw)
	if err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("parse %s dataset %s: %w", src.Layer, src.Path, err)
	}
	return fc, nil
}

// Parse converts GeoJSON bytes into a keyed collection for src.Layer.
func Parse(src Source, raw []byte) (domain.FeatureCollection, error) {
	gfc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return domain.FeatureCollection{}, err
	}

	out := domain.FeatureCollection{
		Layer:    src.Layer,
		Features: make([]domain.Feature, 0, len(gfc.Features)),
	}
	for i, f := range gfc.Features {
		if f.Geometry == nil {
			continue
		}
		key := ""
		if name, ok := f.Properties[src.KeyProperty].(string); ok {
			key = domain.Slug(name)
		}
		if key == "" {
			key = strconv.Itoa(i)
		}
		out.Features = append(out.Features, domain.Feature{
			Key:        key,
			Geometry:   f.Geometry,
			Attributes: map[string]any(f.Properties),
		})
	}
	return out, nil
}

// Load reads the dataset described by s.
func (s Source) Load(ctx context.Context) (domain.FeatureCollection, error) {
	return Load(ctx, s)
}
