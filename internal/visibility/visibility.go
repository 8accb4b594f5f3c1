// Package visibility fades map layers in and out independently of their data.
package visibility

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/observability"
	"github.com/couchcryptid/seismic-map/internal/scene"
)

// DefaultFadeDuration is the time a full fade in or out takes.
const DefaultFadeDuration = 500 * time.Millisecond

// ErrUnknownLayer is returned for layer names that were never registered.
var ErrUnknownLayer = errors.New("unknown layer")

// State is the visibility of one layer. Exactly one state holds at a time.
type State int

const (
	Visible State = iota
	Hiding
	Hidden
	Showing
)

func (s State) String() string {
	switch s {
	case Visible:
		return "visible"
	case Hiding:
		return "hiding"
	case Hidden:
		return "hidden"
	case Showing:
		return "showing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type layerState struct {
	name  domain.LayerName
	group *scene.Group
	state State
}

// Controller runs one visibility state machine per layer. It is not safe for
// concurrent use.
type Controller struct {
	timeline *scene.Timeline
	fade     time.Duration
	layers   map[domain.LayerName]*layerState
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a controller fading groups over fade.
func New(timeline *scene.Timeline, fade time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	return &Controller{
		timeline: timeline,
		fade:     fade,
		layers:   make(map[domain.LayerName]*layerState),
		logger:   logger,
		metrics:  metrics,
	}
}

// Register puts a layer's group under control. Displayed groups start Visible,
// others Hidden.
func (c *Controller) Register(name domain.LayerName, group *scene.Group) {
	ls := &layerState{name: name, group: group, state: Visible}
	if !group.Display {
		ls.state = Hidden
		group.Opacity = 0
	}
	c.layers[name] = ls
}

// State returns the current state of a layer.
func (c *Controller) State(name domain.LayerName) (State, error) {
	ls, err := c.lookup(name)
	if err != nil {
		return 0, err
	}
	return ls.state, nil
}

// States returns the state of every registered layer.
func (c *Controller) States() map[domain.LayerName]State {
	out := make(map[domain.LayerName]State, len(c.layers))
	for name, ls := range c.layers {
		out[name] = ls.state
	}
	return out
}

// Set shows or hides a layer.
func (c *Controller) Set(name domain.LayerName, visible bool) (State, error) {
	if visible {
		return c.Show(name)
	}
	return c.Hide(name)
}

// Hide fades a layer out and removes it from display once the fade completes.
// Hiding an already hidden or hiding layer is a no-op; hiding a layer that is
// still fading in reverses the fade from its current opacity.
func (c *Controller) Hide(name domain.LayerName) (State, error) {
	ls, err := c.lookup(name)
	if err != nil {
		return 0, err
	}
	if ls.state == Hidden || ls.state == Hiding {
		return ls.state, nil
	}

	ls.state = Hiding
	c.fadeTo(ls, 0, func() {
		ls.group.Display = false
		ls.state = Hidden
	})
	c.toggled(ls)
	return ls.state, nil
}

// Show restores a layer's display and fades it in from its current opacity.
func (c *Controller) Show(name domain.LayerName) (State, error) {
	ls, err := c.lookup(name)
	if err != nil {
		return 0, err
	}
	if ls.state == Visible || ls.state == Showing {
		return ls.state, nil
	}

	ls.state = Showing
	ls.group.Display = true
	c.fadeTo(ls, 1, func() {
		ls.state = Visible
	})
	c.toggled(ls)
	return ls.state, nil
}

func (c *Controller) fadeTo(ls *layerState, target float64, done func()) {
	g := ls.group
	from := g.Opacity
	c.timeline.Animate(g, scene.PropGroupOpacity, c.fade, func(t float64) {
		g.Opacity = scene.Lerp(from, target, t)
	}).OnEnd(func(o scene.Outcome) {
		if o == scene.Completed {
			done()
		}
	})
}

func (c *Controller) toggled(ls *layerState) {
	c.metrics.VisibilityToggles.WithLabelValues(string(ls.name), ls.state.String()).Inc()
	c.logger.Debug("layer visibility", "layer", ls.name, "state", ls.state, "opacity", ls.group.Opacity)
}

func (c *Controller) lookup(name domain.LayerName) (*layerState, error) {
	ls, ok := c.layers[name]
	if !ok {
		return nil, fmt.Errorf("layer %q: %w", name, ErrUnknownLayer)
	}
	return ls, nil
}
