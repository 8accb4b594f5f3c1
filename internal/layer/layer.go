// Package layer reconciles a layer's rendered elements with a feature
// collection: elements are created for new keys, restyled in place for kept
// keys, and animated out then removed for missing keys.
package layer

import (
	"sort"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/scene"
)

// Layer owns one scene group and the registry of elements it has rendered.
// It is not safe for concurrent use.
type Layer struct {
	name     domain.LayerName
	group    *scene.Group
	recipe   Recipe
	timeline *scene.Timeline

	registry map[string]*entry
	current  domain.FeatureCollection
}

type entry struct {
	el      *scene.Element
	feature domain.Feature
	exiting bool
}

// New creates an empty layer drawing into group.
func New(name domain.LayerName, group *scene.Group, recipe Recipe, timeline *scene.Timeline) *Layer {
	return &Layer{
		name:     name,
		group:    group,
		recipe:   recipe,
		timeline: timeline,
		registry: make(map[string]*entry),
		current:  domain.FeatureCollection{Layer: name},
	}
}

// Name returns the layer name.
func (l *Layer) Name() domain.LayerName { return l.name }

// Group returns the scene group the layer draws into.
func (l *Layer) Group() *scene.Group { return l.group }

// Collection returns the feature collection last committed by Reconcile.
func (l *Layer) Collection() domain.FeatureCollection { return l.current }

// Keys returns the sorted keys of every registered element, exiting ones included.
func (l *Layer) Keys() []string {
	keys := make([]string, 0, len(l.registry))
	for k := range l.registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered elements, exiting ones included.
func (l *Layer) Len() int { return len(l.registry) }

// Exiting returns the number of elements still animating out.
func (l *Layer) Exiting() int {
	n := 0
	for _, e := range l.registry {
		if e.exiting {
			n++
		}
	}
	return n
}

// Element returns the element registered under key.
func (l *Layer) Element(key string) (*scene.Element, bool) {
	e, ok := l.registry[key]
	if !ok {
		return nil, false
	}
	return e.el, true
}

// ApplyTransform eases every rendered element to t.
func (l *Layer) ApplyTransform(t domain.ViewTransform) {
	for _, key := range l.Keys() {
		el := l.registry[key].el
		if l.recipe.TransformDuration <= 0 {
			l.timeline.Interrupt(el, scene.PropTransform)
			el.Transform = t
			continue
		}
		from := el.Transform
		l.timeline.Animate(el, scene.PropTransform, l.recipe.TransformDuration, func(f float64) {
			el.Transform = from.Interpolate(t, f)
		})
	}
}

// unregister drops key if it still maps to el.
func (l *Layer) unregister(key string, el *scene.Element) bool {
	e, ok := l.registry[key]
	if !ok || e.el != el {
		return false
	}
	delete(l.registry, key)
	l.group.Remove(key)
	return true
}
