package mapview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/feed"
	"github.com/couchcryptid/seismic-map/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// ErrStopped is returned when the loop is not running.
var ErrStopped = errors.New("map loop stopped")

// StaticSource loads one static dataset.
type StaticSource interface {
	Load(ctx context.Context) (domain.FeatureCollection, error)
}

// Publisher delivers seismic layer changes to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, changes ...domain.Change) error
}

const (
	changeBuffer   = 64
	publishTimeout = 5 * time.Second
)

// Loop is the map's event loop. Every read or write of the Map happens on the
// goroutine running Run: client commands, fetch completions and animation
// frames are serialized through it.
type Loop struct {
	m         *Map
	fetcher   feed.Fetcher
	publisher Publisher
	clock     clockwork.Clock
	frame     time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics

	cmds    chan func()
	changes chan domain.Change
	running chan struct{}
	stopped chan struct{}
	runCtx  context.Context
	fetches sync.WaitGroup
	ready   atomic.Bool
}

// NewLoop creates a loop around m. publisher may be nil.
func NewLoop(m *Map, fetcher feed.Fetcher, publisher Publisher, clock clockwork.Clock, frame time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Loop {
	return &Loop{
		m:         m,
		fetcher:   fetcher,
		publisher: publisher,
		clock:     clock,
		frame:     frame,
		logger:    logger,
		metrics:   metrics,
		cmds:      make(chan func()),
		changes:   make(chan domain.Change, changeBuffer),
		running:   make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// CheckReadiness returns nil once the initial render has completed.
func (l *Loop) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		return errors.New("initial map render has not completed")
	}
	return nil
}

// Run processes events until ctx is cancelled. In-flight fetches are abandoned
// and waited for before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	l.runCtx = ctx
	close(l.running)
	defer close(l.stopped)

	l.logger.Info("map loop started", "frame_interval", l.frame)
	g.Go(func() error { return l.events(ctx) })
	if l.publisher != nil {
		g.Go(func() error { return l.publish(ctx) })
	}
	err := g.Wait()
	l.fetches.Wait()
	l.logger.Info("map loop stopped")
	return err
}

func (l *Loop) events(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.cmds:
			fn()
		case <-ticker.Chan():
			l.m.Step()
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func(*Map)) error {
	select {
	case <-l.running:
	case <-ctx.Done():
		return ctx.Err()
	}

	done := make(chan struct{})
	select {
	case l.cmds <- func() { fn(l.m); close(done) }:
	case <-l.stopped:
		return ErrStopped
	case <-l.runCtx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn on the loop without waiting. It gives up once the loop stops.
func (l *Loop) post(fn func()) {
	select {
	case l.cmds <- fn:
	case <-l.runCtx.Done():
	}
}

// LoadInitial loads both static datasets and the default seismic query
// concurrently, then renders. A failed seismic load leaves the layer empty; a
// failed static load is returned.
func (l *Loop) LoadInitial(ctx context.Context, continents, plates StaticSource) error {
	var (
		q        feed.QueryParams
		queryErr error
	)
	if err := l.Do(ctx, func(m *Map) { q, queryErr = m.BuildQuery(m.DefaultFilter()) }); err != nil {
		return err
	}
	if queryErr != nil {
		return fmt.Errorf("initial query: %w", queryErr)
	}

	var cont, pl domain.FeatureCollection
	var quakes *domain.FeatureCollection
	var feedErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fc, err := continents.Load(gctx)
		cont = fc
		return err
	})
	g.Go(func() error {
		fc, err := plates.Load(gctx)
		pl = fc
		return err
	})
	g.Go(func() error {
		fc, err := l.fetcher.Fetch(gctx, q)
		if err != nil {
			feedErr = err
			return nil
		}
		quakes = &fc
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load static datasets: %w", err)
	}

	var renderErr error
	var initial domain.Change
	err := l.Do(ctx, func(m *Map) {
		m.FeedStarted("initial", q)
		if renderErr = m.Render(cont, pl, nil); renderErr != nil {
			return
		}
		if feedErr != nil {
			m.FeedFailed("initial", feedErr)
			return
		}
		d, err := m.ApplyFeed("initial", *quakes)
		if err != nil {
			renderErr = err
			return
		}
		initial = l.change("initial", d.Entered, d.Exited)
	})
	if err != nil {
		return err
	}
	if renderErr != nil {
		return renderErr
	}
	if feedErr != nil {
		l.logger.Warn("initial seismic load failed, starting with an empty layer", "error", feedErr)
	} else {
		l.enqueue(initial)
	}

	l.ready.Store(true)
	l.metrics.Ready.Set(1)
	l.logger.Info("initial load complete", "query_start", q.StartTime, "query_end", q.EndTime)
	return nil
}

// Refresh validates fs and starts a seismic fetch. The result is applied to
// the seismic layer whenever it arrives; overlapping refreshes are applied in
// completion order.
func (l *Loop) Refresh(ctx context.Context, fs domain.FilterState) (string, feed.QueryParams, error) {
	var (
		q      feed.QueryParams
		err    error
		reqID  = uuid.NewString()
		notYet bool
	)
	doErr := l.Do(ctx, func(m *Map) {
		if !m.Rendered() {
			notYet = true
			return
		}
		if q, err = m.BuildQuery(fs); err != nil {
			return
		}
		m.FeedStarted(reqID, q)
		l.startFetch(reqID, q)
	})
	switch {
	case doErr != nil:
		return "", feed.QueryParams{}, doErr
	case notYet:
		return "", feed.QueryParams{}, ErrNotRendered
	case err != nil:
		return "", feed.QueryParams{}, err
	}
	l.logger.Info("seismic refresh started", "request_id", reqID,
		"starttime", q.StartTime, "endtime", q.EndTime, "minmagnitude", q.MinMagnitude)
	return reqID, q, nil
}

// startFetch runs on the loop goroutine.
func (l *Loop) startFetch(reqID string, q feed.QueryParams) {
	l.fetches.Add(1)
	go func() {
		defer l.fetches.Done()
		fc, err := l.fetcher.Fetch(l.runCtx, q)
		l.post(func() { l.complete(reqID, fc, err) })
	}()
}

// complete runs on the loop goroutine.
func (l *Loop) complete(reqID string, fc domain.FeatureCollection, err error) {
	if err != nil {
		l.logger.Error("seismic refresh failed", "request_id", reqID, "error", err)
		l.m.FeedFailed(reqID, err)
		return
	}
	diff, err := l.m.ApplyFeed(reqID, fc)
	if err != nil {
		l.logger.Error("apply seismic refresh", "request_id", reqID, "error", err)
		l.m.FeedFailed(reqID, err)
		return
	}
	l.logger.Info("seismic refresh applied", "request_id", reqID,
		"entered", len(diff.Entered), "exited", len(diff.Exited), "events", fc.Len())
	l.enqueue(l.change(reqID, diff.Entered, diff.Exited))
}

func (l *Loop) change(reqID string, entered, exited []string) domain.Change {
	quakes, _ := l.m.Layer(domain.LayerEarthquakes)
	return domain.Change{
		Layer:     domain.LayerEarthquakes,
		RequestID: reqID,
		Entered:   nonNil(entered),
		Exited:    nonNil(exited),
		Rendered:  quakes.Collection().Len(),
		At:        l.clock.Now(),
	}
}

// enqueue hands a change to the publisher without blocking the loop.
func (l *Loop) enqueue(c domain.Change) {
	if l.publisher == nil {
		return
	}
	select {
	case l.changes <- c:
	default:
		l.metrics.ChangesPublished.WithLabelValues("dropped").Inc()
		l.logger.Warn("change queue full, dropping change", "request_id", c.RequestID)
	}
}

// publish drains the change queue, retrying failed writes with backoff.
func (l *Loop) publish(ctx context.Context) error {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-l.changes:
			for {
				pctx, cancel := context.WithTimeout(ctx, publishTimeout)
				err := l.publisher.Publish(pctx, c)
				cancel()
				if err == nil {
					l.metrics.ChangesPublished.WithLabelValues("success").Inc()
					backoff = 200 * time.Millisecond
					break
				}
				l.metrics.ChangesPublished.WithLabelValues("error").Inc()
				l.logger.Error("publish change failed", "request_id", c.RequestID, "error", err)
				if !l.sleep(ctx, backoff) {
					return nil
				}
				backoff = nextBackoff(backoff, maxBackoff)
			}
		}
	}
}

func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := l.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
