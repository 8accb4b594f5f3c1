// Package viewport owns the single pan/zoom transform shared by every map
// layer and keeps it within bounds.
package viewport

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/observability"
)

// ErrInvalidGesture is returned for gestures that cannot be applied.
var ErrInvalidGesture = errors.New("invalid gesture")

// Listener receives every new transform. Layers implement it.
type Listener interface {
	ApplyTransform(domain.ViewTransform)
}

// GestureType names a user interaction.
type GestureType string

const (
	GesturePan   GestureType = "pan"
	GestureZoom  GestureType = "zoom"
	GestureWheel GestureType = "wheel"
	GestureReset GestureType = "reset"
)

// Gesture is one pan/zoom interaction as reported by a client.
type Gesture struct {
	Type      GestureType `json:"type"`
	DX        float64     `json:"dx,omitempty"`
	DY        float64     `json:"dy,omitempty"`
	Factor    float64     `json:"factor,omitempty"`
	DeltaY    float64     `json:"delta_y,omitempty"`
	DeltaMode int         `json:"delta_mode,omitempty"`
	X         float64     `json:"x,omitempty"`
	Y         float64     `json:"y,omitempty"`
}

// Controller holds the current view transform. It is not safe for concurrent use.
type Controller struct {
	width, height float64
	current       domain.ViewTransform
	listeners     []Listener
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// New creates a controller for a drawing area of the given size, starting at identity.
func New(width, height float64, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	metrics.ViewScale.Set(domain.Identity.Scale)
	return &Controller{
		width:   width,
		height:  height,
		current: domain.Identity,
		logger:  logger,
		metrics: metrics,
	}
}

// Subscribe registers l for transform changes.
func (c *Controller) Subscribe(l Listener) {
	c.listeners = append(c.listeners, l)
}

// Current returns the transform newly entering elements are born with.
func (c *Controller) Current() domain.ViewTransform { return c.current }

// Pan shifts the view by (dx, dy) screen pixels.
func (c *Controller) Pan(dx, dy float64) domain.ViewTransform {
	next := c.current
	next.TranslateX += dx
	next.TranslateY += dy
	return c.set(GesturePan, next)
}

// Zoom multiplies the scale by factor, keeping the screen point (x, y) fixed.
func (c *Controller) Zoom(factor, x, y float64) (domain.ViewTransform, error) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return c.current, fmt.Errorf("zoom factor %v: %w", factor, ErrInvalidGesture)
	}
	return c.zoom(GestureZoom, factor, x, y), nil
}

// Wheel zooms by a mouse wheel delta about (x, y). Line-mode deltas
// (deltaMode != 0) count as 120 pixels per unit.
func (c *Controller) Wheel(deltaY float64, deltaMode int, x, y float64) domain.ViewTransform {
	return c.zoom(GestureWheel, WheelFactor(deltaY, deltaMode), x, y)
}

// WheelFactor converts a wheel delta to a zoom factor.
func WheelFactor(deltaY float64, deltaMode int) float64 {
	unit := 1.0
	if deltaMode != 0 {
		unit = 120
	}
	return math.Pow(2, -deltaY*unit*0.002)
}

// Reset returns to the identity transform.
func (c *Controller) Reset() domain.ViewTransform {
	return c.set(GestureReset, domain.Identity)
}

// Handle dispatches a client gesture.
func (c *Controller) Handle(g Gesture) (domain.ViewTransform, error) {
	if !finite(g.DX, g.DY, g.DeltaY, g.X, g.Y) {
		return c.current, fmt.Errorf("%s gesture: non-finite value: %w", g.Type, ErrInvalidGesture)
	}
	switch g.Type {
	case GesturePan:
		return c.Pan(g.DX, g.DY), nil
	case GestureZoom:
		return c.Zoom(g.Factor, g.X, g.Y)
	case GestureWheel:
		return c.Wheel(g.DeltaY, g.DeltaMode, g.X, g.Y), nil
	case GestureReset:
		return c.Reset(), nil
	default:
		return c.current, fmt.Errorf("gesture type %q: %w", g.Type, ErrInvalidGesture)
	}
}

func (c *Controller) zoom(kind GestureType, factor, x, y float64) domain.ViewTransform {
	cur := c.current
	k := clamp(cur.Scale*factor, domain.MinScale, domain.MaxScale)
	// Projected point under the pointer stays under the pointer.
	px, py := cur.Invert(x, y)
	return c.set(kind, domain.ViewTransform{
		Scale:      k,
		TranslateX: x - px*k,
		TranslateY: y - py*k,
	})
}

// set constrains next and broadcasts it when it differs from the current transform.
func (c *Controller) set(kind GestureType, next domain.ViewTransform) domain.ViewTransform {
	next = c.constrain(next)
	if next == c.current {
		return next
	}
	c.current = next

	c.metrics.TransformChanges.WithLabelValues(string(kind)).Inc()
	c.metrics.ViewScale.Set(next.Scale)
	c.logger.Debug("view transform changed",
		"gesture", kind, "k", next.Scale, "x", next.TranslateX, "y", next.TranslateY)

	for _, l := range c.listeners {
		l.ApplyTransform(next)
	}
	return next
}

// constrain clamps scale to [MinScale, MaxScale] and translation so that the
// viewport, mapped back through the transform, stays inside the drawing area.
func (c *Controller) constrain(t domain.ViewTransform) domain.ViewTransform {
	t.Scale = clamp(t.Scale, domain.MinScale, domain.MaxScale)
	t.TranslateX = clamp(t.TranslateX, c.width*(1-t.Scale), 0)
	t.TranslateY = clamp(t.TranslateY, c.height*(1-t.Scale), 0)
	return t
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
