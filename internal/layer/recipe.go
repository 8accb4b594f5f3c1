package layer

import (
	"math"
	"time"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/scene"
)

// Recipe describes how one feature becomes one visual element.
type Recipe struct {
	Class string
	Shape scene.Shape

	// ElementID derives the element id attribute. Defaults to the feature key.
	ElementID func(domain.Feature) string
	// Style derives the static paint. Attributes read here are the ones whose
	// change triggers a restyle on update.
	Style func(domain.Feature) scene.Style
	// Radius derives the settled radius of circle elements.
	Radius func(domain.Feature) float64
	// Opacity is the settled element opacity.
	Opacity float64

	// AnimateEnter grows new elements from zero radius and opacity.
	AnimateEnter  bool
	EnterDuration time.Duration
	ExitDuration  time.Duration
	// TransformDuration is the eased re-application time of a new view transform.
	TransformDuration time.Duration
}

// Default transition timings.
const (
	DefaultEnterDuration     = 250 * time.Millisecond
	DefaultExitDuration      = 250 * time.Millisecond
	DefaultTransformDuration = 200 * time.Millisecond
)

func (r Recipe) elementID(f domain.Feature) string {
	if r.ElementID != nil {
		return r.ElementID(f)
	}
	return f.Key
}

func (r Recipe) style(f domain.Feature) scene.Style {
	if r.Style != nil {
		return r.Style(f)
	}
	return scene.Style{}
}

func (r Recipe) radius(f domain.Feature) float64 {
	if r.Shape != scene.ShapeCircle || r.Radius == nil {
		return 0
	}
	return math.Max(0, r.Radius(f))
}

// PolygonRecipe renders static polygon layers such as continents and plates.
func PolygonRecipe(class string, style scene.Style, opacity float64) Recipe {
	return Recipe{
		Class:             class,
		Shape:             scene.ShapePath,
		Style:             func(domain.Feature) scene.Style { return style },
		Opacity:           opacity,
		ExitDuration:      DefaultExitDuration,
		TransformDuration: DefaultTransformDuration,
	}
}

// QuakeRecipe renders seismic events as circles whose radius is the
// magnitude times radiusScale. New events grow in from nothing.
func QuakeRecipe(style scene.Style, opacity, radiusScale float64) Recipe {
	return Recipe{
		Class: "earthquake",
		Shape: scene.ShapeCircle,
		Style: func(domain.Feature) scene.Style { return style },
		Radius: func(f domain.Feature) float64 {
			return f.Float("mag", 0) * radiusScale
		},
		Opacity:           opacity,
		AnimateEnter:      true,
		EnterDuration:     DefaultEnterDuration,
		ExitDuration:      DefaultExitDuration,
		TransformDuration: DefaultTransformDuration,
	}
}
