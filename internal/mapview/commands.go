package mapview

import (
	"context"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/viewport"
	"github.com/couchcryptid/seismic-map/internal/visibility"
)

// SetVisible shows or hides a layer on the loop goroutine.
func (l *Loop) SetVisible(ctx context.Context, name domain.LayerName, visible bool) (visibility.State, error) {
	var (
		state visibility.State
		err   error
	)
	if doErr := l.Do(ctx, func(m *Map) { state, err = m.SetVisible(name, visible) }); doErr != nil {
		return 0, doErr
	}
	return state, err
}

// Gesture applies a pan/zoom interaction on the loop goroutine.
func (l *Loop) Gesture(ctx context.Context, g viewport.Gesture) (domain.ViewTransform, error) {
	var (
		view domain.ViewTransform
		err  error
	)
	if doErr := l.Do(ctx, func(m *Map) { view, err = m.Gesture(g) }); doErr != nil {
		return domain.ViewTransform{}, doErr
	}
	return view, err
}

// Snapshot copies the map state on the loop goroutine.
func (l *Loop) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := l.Do(ctx, func(m *Map) { snap = m.Snapshot() }); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
