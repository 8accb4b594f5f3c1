// Package scene is the retained render tree of the map: named groups of
// visual elements with their attributes, display flags and opacities. It plays
// the part a DOM plays for a browser map. Clients paint it from a Snapshot.
package scene

import (
	"sort"

	"github.com/couchcryptid/seismic-map/internal/domain"
)

// Shape is the kind of visual element.
type Shape string

const (
	ShapeCircle Shape = "circle"
	ShapePath   Shape = "path"
)

// Point is a projected screen coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style is the static paint of an element.
type Style struct {
	Fill          string  `json:"fill,omitempty" yaml:"fill"`
	FillOpacity   float64 `json:"fill_opacity,omitempty" yaml:"fill_opacity"`
	Stroke        string  `json:"stroke,omitempty" yaml:"stroke"`
	StrokeWidth   float64 `json:"stroke_width,omitempty" yaml:"stroke_width"`
	StrokeOpacity float64 `json:"stroke_opacity,omitempty" yaml:"stroke_opacity"`
}

// Element is one rendered feature.
//
// Radius and Opacity are the live, possibly mid-transition values.
// TargetRadius and TargetOpacity are where transitions settle; animations read
// them on every frame, so changing a target retargets an in-flight transition.
type Element struct {
	Key       string               `json:"key"`
	ID        string               `json:"id"`
	Class     string               `json:"class"`
	Shape     Shape                `json:"shape"`
	Center    Point                `json:"center,omitzero"`
	Path      [][]Point            `json:"path,omitempty"`
	Radius    float64              `json:"r,omitempty"`
	Opacity   float64              `json:"opacity"`
	Style     Style                `json:"style"`
	Transform domain.ViewTransform `json:"transform"`

	TargetRadius  float64 `json:"-"`
	TargetOpacity float64 `json:"-"`
}

// Group is a layer's node in the render tree. Elements are kept by key, and
// listed in insertion order.
type Group struct {
	ID      string
	Display bool
	Opacity float64

	elements map[string]*Element
	order    []string
}

// NewGroup returns a displayed, fully opaque, empty group.
func NewGroup(id string) *Group {
	return &Group{
		ID:       id,
		Display:  true,
		Opacity:  1,
		elements: make(map[string]*Element),
	}
}

// Append adds el under el.Key, replacing any element with the same key.
func (g *Group) Append(el *Element) {
	if _, ok := g.elements[el.Key]; !ok {
		g.order = append(g.order, el.Key)
	}
	g.elements[el.Key] = el
}

// Remove detaches the element with the given key. It reports whether one was found.
func (g *Group) Remove(key string) bool {
	if _, ok := g.elements[key]; !ok {
		return false
	}
	delete(g.elements, key)
	for i, k := range g.order {
		if k == key {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return true
}

// Element returns the element with the given key.
func (g *Group) Element(key string) (*Element, bool) {
	el, ok := g.elements[key]
	return el, ok
}

// Len returns the number of attached elements.
func (g *Group) Len() int { return len(g.elements) }

// Elements returns the attached elements in insertion order.
func (g *Group) Elements() []*Element {
	out := make([]*Element, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.elements[k])
	}
	return out
}

// Keys returns the sorted keys of the attached elements.
func (g *Group) Keys() []string {
	keys := make([]string, 0, len(g.elements))
	for k := range g.elements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Scene is the whole render tree: a clipped drawing area with layer groups
// painted in order.
type Scene struct {
	Title  string
	Width  float64
	Height float64

	groups []*Group
}

// New returns an empty scene of the given drawing size.
func New(title string, width, height float64) *Scene {
	return &Scene{Title: title, Width: width, Height: height}
}

// AddGroup appends a new group on top of the existing ones.
func (s *Scene) AddGroup(id string) *Group {
	g := NewGroup(id)
	s.groups = append(s.groups, g)
	return g
}

// Group looks up a group by id.
func (s *Scene) Group(id string) (*Group, bool) {
	for _, g := range s.groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// Groups returns the groups in paint order.
func (s *Scene) Groups() []*Group {
	return append([]*Group(nil), s.groups...)
}
