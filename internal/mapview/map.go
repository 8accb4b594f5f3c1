// Package mapview assembles the map: one scene, one projection, three layers,
// the shared view transform and per-layer visibility. Map is single-threaded;
// Loop owns it and serializes every event against it.
package mapview

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/seismic-map/internal/config"
	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/feed"
	"github.com/couchcryptid/seismic-map/internal/layer"
	"github.com/couchcryptid/seismic-map/internal/observability"
	"github.com/couchcryptid/seismic-map/internal/projection"
	"github.com/couchcryptid/seismic-map/internal/scene"
	"github.com/couchcryptid/seismic-map/internal/viewport"
	"github.com/couchcryptid/seismic-map/internal/visibility"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
)

// Title is the scene title.
const Title = "Seismic Map"

// ErrNotRendered is returned by operations that need the initial render.
var ErrNotRendered = errors.New("map not rendered yet")

// Options configure a Map.
type Options struct {
	Width, Height float64
	Projection    projection.Raw
	Styles        config.Styles
	FadeDuration  time.Duration
	Timezone      *time.Location
	Lookback      time.Duration
}

// OptionsFromConfig derives map options from the service configuration.
func OptionsFromConfig(cfg *config.Config, styles config.Styles) (Options, error) {
	raw, err := projection.ByName(cfg.Projection)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Width:        cfg.MapWidth,
		Height:       cfg.MapHeight,
		Projection:   raw,
		Styles:       styles,
		FadeDuration: cfg.FadeDuration,
		Timezone:     cfg.FeedTimezone,
		Lookback:     cfg.FeedLookback,
	}, nil
}

// Feed status values.
const (
	FeedIdle    = "idle"
	FeedLoading = "loading"
	FeedOK      = "ok"
	FeedError   = "error"
)

// FeedStatus describes the most recent seismic refresh.
type FeedStatus struct {
	State     string            `json:"state"`
	RequestID string            `json:"request_id,omitempty"`
	Query     *feed.QueryParams `json:"query,omitempty"`
	Error     string            `json:"error,omitempty"`
	Events    int               `json:"events"`
	UpdatedAt time.Time         `json:"updated_at,omitzero"`
}

// Snapshot is the full client-visible state of the map.
type Snapshot struct {
	Scene  scene.Snapshot                        `json:"scene"`
	View   domain.ViewTransform                  `json:"view"`
	Layers map[domain.LayerName]visibility.State `json:"layers"`
	Feed   FeedStatus                            `json:"feed"`
}

// Map owns every piece of map state. It is not safe for concurrent use.
type Map struct {
	clock      clockwork.Clock
	scene      *scene.Scene
	timeline   *scene.Timeline
	projection *projection.Projection
	layers     map[domain.LayerName]*layer.Layer
	reconciler *layer.Reconciler
	viewport   *viewport.Controller
	visibility *visibility.Controller
	builder    *feed.Builder
	lookback   time.Duration

	status   FeedStatus
	rendered bool
	logger   *slog.Logger
}

// New builds an empty, unfitted map.
func New(opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Map {
	if opts.Styles == nil {
		opts.Styles = config.DefaultStyles()
	}
	if opts.FadeDuration <= 0 {
		opts.FadeDuration = visibility.DefaultFadeDuration
	}
	if opts.Lookback <= 0 {
		opts.Lookback = domain.DefaultLookback
	}
	if opts.Projection == nil {
		opts.Projection = projection.Winkel3
	}

	m := &Map{
		clock:      clock,
		scene:      scene.New(Title, opts.Width, opts.Height),
		timeline:   scene.NewTimeline(clock),
		projection: projection.New(opts.Projection),
		layers:     make(map[domain.LayerName]*layer.Layer, len(domain.Layers)),
		builder:    feed.NewBuilder(opts.Timezone),
		lookback:   opts.Lookback,
		status:     FeedStatus{State: FeedIdle},
		logger:     logger,
	}
	m.viewport = viewport.New(opts.Width, opts.Height, logger, metrics)
	m.reconciler = layer.NewReconciler(m.projection, m.viewport, logger, metrics)
	m.visibility = visibility.New(m.timeline, opts.FadeDuration, logger, metrics)

	for _, name := range domain.Layers {
		group := m.scene.AddGroup(string(name))
		l := layer.New(name, group, recipeFor(name, opts.Styles[name]), m.timeline)
		m.layers[name] = l
		m.viewport.Subscribe(l)
		m.visibility.Register(name, group)
	}
	return m
}

func recipeFor(name domain.LayerName, st config.LayerStyle) layer.Recipe {
	if name == domain.LayerEarthquakes {
		r := layer.QuakeRecipe(st.Style, st.Opacity, st.RadiusScale)
		if st.Class != "" {
			r.Class = st.Class
		}
		return r
	}
	return layer.PolygonRecipe(st.Class, st.Style, st.Opacity)
}

// Render fits the projection to the static layers, draws them, and draws the
// initial seismic collection when one is given. It runs once per map.
func (m *Map) Render(continents, plates domain.FeatureCollection, quakes *domain.FeatureCollection) error {
	extent := orb.Collection{continents.Geometry(), plates.Geometry()}
	if err := m.projection.Fit(extent, m.scene.Width, m.scene.Height); err != nil {
		return fmt.Errorf("fit projection: %w", err)
	}
	if _, err := m.reconciler.Reconcile(m.layers[domain.LayerContinents], continents); err != nil {
		return err
	}
	if _, err := m.reconciler.Reconcile(m.layers[domain.LayerPlates], plates); err != nil {
		return err
	}
	m.rendered = true
	m.logger.Info("map rendered",
		"continents", continents.Len(),
		"plates", plates.Len(),
		"width", m.scene.Width,
		"height", m.scene.Height,
	)

	if quakes != nil {
		if _, err := m.ApplyFeed("initial", *quakes); err != nil {
			return err
		}
	}
	return nil
}

// Rendered reports whether the initial render completed.
func (m *Map) Rendered() bool { return m.rendered }

// DefaultFilter is the filter of the initial seismic load.
func (m *Map) DefaultFilter() domain.FilterState {
	return m.builder.DefaultFilter(m.clock.Now(), m.lookback)
}

// BuildQuery validates a filter into a feed query.
func (m *Map) BuildQuery(fs domain.FilterState) (feed.QueryParams, error) {
	return m.builder.BuildQuery(fs)
}

// FeedStarted records an in-flight refresh.
func (m *Map) FeedStarted(requestID string, q feed.QueryParams) {
	m.status = FeedStatus{
		State:     FeedLoading,
		RequestID: requestID,
		Query:     &q,
		Events:    m.layers[domain.LayerEarthquakes].Collection().Len(),
		UpdatedAt: m.clock.Now(),
	}
}

// ApplyFeed reconciles a fetched collection into the seismic layer.
func (m *Map) ApplyFeed(requestID string, fc domain.FeatureCollection) (layer.Diff, error) {
	if !m.rendered {
		return layer.Diff{}, ErrNotRendered
	}
	quakes := m.layers[domain.LayerEarthquakes]
	diff, err := m.reconciler.Reconcile(quakes, fc)
	if err != nil {
		return layer.Diff{}, err
	}
	m.status.State = FeedOK
	m.status.RequestID = requestID
	m.status.Error = ""
	m.status.Events = quakes.Collection().Len()
	m.status.UpdatedAt = m.clock.Now()
	return diff, nil
}

// FeedFailed records a failed refresh. The seismic layer keeps its data.
func (m *Map) FeedFailed(requestID string, err error) {
	m.status.State = FeedError
	m.status.RequestID = requestID
	m.status.Error = err.Error()
	m.status.UpdatedAt = m.clock.Now()
}

// Gesture applies a pan/zoom interaction.
func (m *Map) Gesture(g viewport.Gesture) (domain.ViewTransform, error) {
	return m.viewport.Handle(g)
}

// SetVisible shows or hides a layer.
func (m *Map) SetVisible(name domain.LayerName, visible bool) (visibility.State, error) {
	return m.visibility.Set(name, visible)
}

// Layer returns the named layer.
func (m *Map) Layer(name domain.LayerName) (*layer.Layer, bool) {
	l, ok := m.layers[name]
	return l, ok
}

// View returns the current view transform.
func (m *Map) View() domain.ViewTransform { return m.viewport.Current() }

// Step advances animations to the clock's time and returns how many remain.
func (m *Map) Step() int { return m.timeline.Step() }

// Finish jumps every animation to its end.
func (m *Map) Finish() { m.timeline.Finish() }

// Snapshot copies the client-visible state.
func (m *Map) Snapshot() Snapshot {
	return Snapshot{
		Scene:  m.scene.Snapshot(),
		View:   m.viewport.Current(),
		Layers: m.visibility.States(),
		Feed:   m.status,
	}
}
