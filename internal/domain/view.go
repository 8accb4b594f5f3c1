package domain

// Scale bounds of the shared view transform.
const (
	MinScale = 1.0
	MaxScale = 4.0
)

// ViewTransform is the pan/zoom transform shared by all layers.
type ViewTransform struct {
	Scale      float64 `json:"k"`
	TranslateX float64 `json:"x"`
	TranslateY float64 `json:"y"`
}

// Identity is the transform at startup.
var Identity = ViewTransform{Scale: 1}

// Apply maps a projected point to the transformed screen position.
func (t ViewTransform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.TranslateX, y*t.Scale + t.TranslateY
}

// Invert maps a transformed screen position back to projected space.
func (t ViewTransform) Invert(x, y float64) (float64, float64) {
	return (x - t.TranslateX) / t.Scale, (y - t.TranslateY) / t.Scale
}

// Interpolate returns the transform a fraction f of the way from t to to.
func (t ViewTransform) Interpolate(to ViewTransform, f float64) ViewTransform {
	return ViewTransform{
		Scale:      t.Scale + (to.Scale-t.Scale)*f,
		TranslateX: t.TranslateX + (to.TranslateX-t.TranslateX)*f,
		TranslateY: t.TranslateY + (to.TranslateY-t.TranslateY)*f,
	}
}
