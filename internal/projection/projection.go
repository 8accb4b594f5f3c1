// Package projection maps geographic coordinates to screen coordinates. A
// Projection is fit once to a reference extent and held fixed afterwards.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/seismic-map/internal/scene"
	"github.com/paulmach/orb"
)

const radians = math.Pi / 180

// ErrAlreadyFitted is returned by a second call to Fit.
var ErrAlreadyFitted = errors.New("projection already fitted")

// NotFittedError reports use of a projection before Fit.
type NotFittedError struct {
	Op string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("projection: %s before fit", e.Op)
}

// Projection is a raw projection with a fitted scale and translation.
// Screen y grows downwards.
type Projection struct {
	raw    Raw
	k      float64
	tx, ty float64
	fitted bool
}

// New wraps a raw projection. It must be fit before use.
func New(raw Raw) *Projection {
	return &Projection{raw: raw}
}

// Fitted reports whether Fit has succeeded.
func (p *Projection) Fitted() bool { return p.fitted }

// Fit scales and translates the projection so the projected extent exactly
// fills a width × height box, centred, with the aspect ratio preserved.
func (p *Projection) Fit(extent orb.Geometry, width, height float64) error {
	if p.fitted {
		return ErrAlreadyFitted
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("fit projection: invalid size %gx%g", width, height)
	}

	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	eachPoint(extent, func(pt orb.Point) {
		x, y := p.rawScreen(pt)
		x0, y0 = math.Min(x0, x), math.Min(y0, y)
		x1, y1 = math.Max(x1, x), math.Max(y1, y)
	})
	if math.IsInf(x0, 1) {
		return errors.New("fit projection: empty extent")
	}

	dx, dy := x1-x0, y1-y0
	var k float64
	switch {
	case dx == 0 && dy == 0:
		return errors.New("fit projection: degenerate extent")
	case dx == 0:
		k = height / dy
	case dy == 0:
		k = width / dx
	default:
		k = math.Min(width/dx, height/dy)
	}

	p.k = k
	p.tx = (width - k*(x0+x1)) / 2
	p.ty = (height - k*(y0+y1)) / 2
	p.fitted = true
	return nil
}

// Project maps a lon/lat point to screen coordinates.
func (p *Projection) Project(pt orb.Point) (scene.Point, error) {
	if !p.fitted {
		return scene.Point{}, &NotFittedError{Op: "project"}
	}
	x, y := p.rawScreen(pt)
	return scene.Point{X: p.tx + p.k*x, Y: p.ty + p.k*y}, nil
}

// Path projects every line and ring of a geometry. Points become single-point
// paths; polygons contribute one path per ring.
func (p *Projection) Path(g orb.Geometry) ([][]scene.Point, error) {
	if !p.fitted {
		return nil, &NotFittedError{Op: "path"}
	}

	var out [][]scene.Point
	line := func(pts []orb.Point) {
		path := make([]scene.Point, len(pts))
		for i, pt := range pts {
			path[i], _ = p.Project(pt)
		}
		out = append(out, path)
	}

	var walk func(orb.Geometry)
	walk = func(g orb.Geometry) {
		switch g := g.(type) {
		case orb.Point:
			line([]orb.Point{g})
		case orb.MultiPoint:
			for _, pt := range g {
				line([]orb.Point{pt})
			}
		case orb.LineString:
			line(g)
		case orb.MultiLineString:
			for _, ls := range g {
				line(ls)
			}
		case orb.Ring:
			line(g)
		case orb.Polygon:
			for _, r := range g {
				line(r)
			}
		case orb.MultiPolygon:
			for _, poly := range g {
				walk(poly)
			}
		case orb.Collection:
			for _, c := range g {
				walk(c)
			}
		case orb.Bound:
			line(densify(g))
		}
	}
	walk(g)
	return out, nil
}

// rawScreen applies the raw projection and flips y to screen orientation.
func (p *Projection) rawScreen(pt orb.Point) (float64, float64) {
	x, y := p.raw.Project(pt.Lon()*radians, pt.Lat()*radians)
	return x, -y
}

func eachPoint(g orb.Geometry, fn func(orb.Point)) {
	switch g := g.(type) {
	case orb.Point:
		fn(g)
	case orb.MultiPoint:
		for _, pt := range g {
			fn(pt)
		}
	case orb.LineString:
		for _, pt := range g {
			fn(pt)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			eachPoint(ls, fn)
		}
	case orb.Ring:
		for _, pt := range g {
			fn(pt)
		}
	case orb.Polygon:
		for _, r := range g {
			eachPoint(r, fn)
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			eachPoint(poly, fn)
		}
	case orb.Collection:
		for _, c := range g {
			eachPoint(c, fn)
		}
	case orb.Bound:
		eachPoint(densify(g), fn)
	}
}

// boundSteps is the number of samples per edge when projecting a bounding box,
// so curved projected edges contribute their true extent.
const boundSteps = 36

// densify turns a lon/lat box into a closed ring sampled along every edge.
func densify(b orb.Bound) orb.Ring {
	corners := []orb.Point{
		{b.Min.Lon(), b.Min.Lat()},
		{b.Max.Lon(), b.Min.Lat()},
		{b.Max.Lon(), b.Max.Lat()},
		{b.Min.Lon(), b.Max.Lat()},
		{b.Min.Lon(), b.Min.Lat()},
	}
	ring := make(orb.Ring, 0, 4*boundSteps+1)
	for i := 0; i < 4; i++ {
		a, c := corners[i], corners[i+1]
		for s := 0; s < boundSteps; s++ {
			t := float64(s) / boundSteps
			ring = append(ring, orb.Point{a[0] + (c[0]-a[0])*t, a[1] + (c[1]-a[1])*t})
		}
	}
	return append(ring, corners[4])
}
