package layer

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/observability"
	"github.com/couchcryptid/seismic-map/internal/scene"
	"github.com/paulmach/orb"
)

// Projector maps geographic geometry to screen space.
type Projector interface {
	Project(orb.Point) (scene.Point, error)
	Path(orb.Geometry) ([][]scene.Point, error)
}

// TransformSource supplies the view transform new elements are born with.
type TransformSource interface {
	Current() domain.ViewTransform
}

// Diff lists the keys touched by one reconciliation.
type Diff struct {
	Layer    domain.LayerName
	Entered  []string
	Updated  []string
	Restyled []string
	Exited   []string
	Dropped  int
}

// Empty reports whether nothing entered or exited.
func (d Diff) Empty() bool { return len(d.Entered) == 0 && len(d.Exited) == 0 }

// Reconciler performs keyed enter/update/exit against layers.
type Reconciler struct {
	projector Projector
	view      TransformSource
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewReconciler creates a Reconciler placing elements with projector and view.
func NewReconciler(projector Projector, view TransformSource, logger *slog.Logger, metrics *observability.Metrics) *Reconciler {
	return &Reconciler{
		projector: projector,
		view:      view,
		logger:    logger,
		metrics:   metrics,
	}
}

// Reconcile converges l onto fc. Duplicate keys in fc are resolved last-wins.
// Elements for new keys enter carrying the current view transform; kept keys
// are restyled in place when their style changed; missing keys animate out
// and are removed once their exit transition completes. A key that comes back
// while still exiting is revived in place.
//
// Projection failures abort before l is modified.
func (r *Reconciler) Reconcile(l *Layer, fc domain.FeatureCollection) (Diff, error) {
	fc, dropped := fc.Dedupe()
	fc.Layer = l.name
	diff := Diff{Layer: l.name, Dropped: dropped}
	if dropped > 0 {
		r.logger.Debug("duplicate feature keys dropped", "layer", l.name, "dropped", dropped)
		r.metrics.DuplicateFeatures.WithLabelValues(string(l.name)).Add(float64(dropped))
	}

	incoming := make(map[string]struct{}, len(fc.Features))
	entering := make([]*scene.Element, 0)
	for _, f := range fc.Features {
		incoming[f.Key] = struct{}{}
		if _, ok := l.registry[f.Key]; ok {
			continue
		}
		el, err := r.build(l, f)
		if err != nil {
			return Diff{}, fmt.Errorf("reconcile %s: feature %q: %w", l.name, f.Key, err)
		}
		entering = append(entering, el)
	}

	for _, key := range l.Keys() {
		if _, ok := incoming[key]; ok {
			continue
		}
		if e := l.registry[key]; !e.exiting {
			r.exit(l, key, e)
			diff.Exited = append(diff.Exited, key)
		}
	}

	next := 0
	for _, f := range fc.Features {
		e, ok := l.registry[f.Key]
		if !ok {
			el := entering[next]
			next++
			r.enter(l, f, el)
			diff.Entered = append(diff.Entered, f.Key)
			continue
		}
		if e.exiting {
			r.revive(l, e, f)
			diff.Entered = append(diff.Entered, f.Key)
			continue
		}
		diff.Updated = append(diff.Updated, f.Key)
		if r.restyle(l, e, f) {
			diff.Restyled = append(diff.Restyled, f.Key)
		}
	}

	l.current = fc
	r.observe(diff, l)
	return diff, nil
}

// build creates the element for f without attaching it.
func (r *Reconciler) build(l *Layer, f domain.Feature) (*scene.Element, error) {
	rec := l.recipe
	el := &scene.Element{
		Key:           f.Key,
		ID:            rec.elementID(f),
		Class:         rec.Class,
		Shape:         rec.Shape,
		Style:         rec.style(f),
		TargetRadius:  rec.radius(f),
		TargetOpacity: rec.Opacity,
	}
	if f.Geometry == nil {
		return el, nil
	}

	switch rec.Shape {
	case scene.ShapeCircle:
		anchor, ok := f.Geometry.(orb.Point)
		if !ok {
			anchor = f.Geometry.Bound().Center()
		}
		center, err := r.projector.Project(anchor)
		if err != nil {
			return nil, err
		}
		el.Center = center
	default:
		path, err := r.projector.Path(f.Geometry)
		if err != nil {
			return nil, err
		}
		el.Path = path
	}
	return el, nil
}

func (r *Reconciler) enter(l *Layer, f domain.Feature, el *scene.Element) {
	// Born at the current transform so it never flashes at identity.
	el.Transform = r.view.Current()
	l.registry[f.Key] = &entry{el: el, feature: f}
	l.group.Append(el)

	if !l.recipe.AnimateEnter {
		el.Radius = el.TargetRadius
		el.Opacity = el.TargetOpacity
		return
	}
	el.Radius, el.Opacity = 0, 0
	r.grow(l, el)
}

// grow animates an element from its current radius and opacity to its targets.
func (r *Reconciler) grow(l *Layer, el *scene.Element) {
	fromR, fromO := el.Radius, el.Opacity
	l.timeline.Animate(el, scene.PropAppearance, l.recipe.EnterDuration, func(t float64) {
		el.Radius = scene.Lerp(fromR, el.TargetRadius, t)
		el.Opacity = scene.Lerp(fromO, el.TargetOpacity, t)
	})
}

func (r *Reconciler) exit(l *Layer, key string, e *entry) {
	e.exiting = true
	el := e.el
	fromR, fromO := el.Radius, el.Opacity
	l.timeline.Animate(el, scene.PropAppearance, l.recipe.ExitDuration, func(t float64) {
		el.Radius = scene.Lerp(fromR, 0, t)
		el.Opacity = scene.Lerp(fromO, 0, t)
	}).OnEnd(func(o scene.Outcome) {
		if o != scene.Completed {
			return
		}
		if l.unregister(key, el) {
			r.metrics.RenderedElements.WithLabelValues(string(l.name)).Set(float64(l.group.Len()))
		}
	})
}

// revive brings an exiting element back, keeping its identity.
func (r *Reconciler) revive(l *Layer, e *entry, f domain.Feature) {
	e.exiting = false
	r.restyle(l, e, f)
	r.grow(l, e.el)
}

// restyle re-derives style and radius from f. Geometry is immutable per key,
// so position is left alone. An in-flight transition picks up the new radius
// target on its next frame.
func (r *Reconciler) restyle(l *Layer, e *entry, f domain.Feature) bool {
	e.feature = f
	el := e.el
	style, radius := l.recipe.style(f), l.recipe.radius(f)
	if style == el.Style && radius == el.TargetRadius {
		return false
	}
	el.Style = style
	el.TargetRadius = radius
	if !l.timeline.Active(el, scene.PropAppearance) {
		el.Radius = radius
	}
	return true
}

func (r *Reconciler) observe(d Diff, l *Layer) {
	name := string(l.name)
	r.metrics.ReconcileEvents.WithLabelValues(name, "enter").Add(float64(len(d.Entered)))
	r.metrics.ReconcileEvents.WithLabelValues(name, "update").Add(float64(len(d.Updated)))
	r.metrics.ReconcileEvents.WithLabelValues(name, "restyle").Add(float64(len(d.Restyled)))
	r.metrics.ReconcileEvents.WithLabelValues(name, "exit").Add(float64(len(d.Exited)))
	r.metrics.RenderedElements.WithLabelValues(name).Set(float64(l.group.Len()))

	r.logger.Debug("layer reconciled",
		"layer", name,
		"entered", len(d.Entered),
		"updated", len(d.Updated),
		"restyled", len(d.Restyled),
		"exited", len(d.Exited),
		"rendered", l.group.Len(),
	)
}
