package feed

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	b := NewBuilder(time.UTC)

	q, err := b.BuildQuery(domain.FilterState{
		StartTime:    "2024-01-01",
		EndTime:      "2024-01-08T12:30",
		MinMagnitude: 2.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "geojson", q.Format)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", q.StartTime)
	assert.Equal(t, "2024-01-08T12:30:00.000Z", q.EndTime)
	assert.Equal(t, 2.5, q.MinMagnitude)

	v := q.Values()
	assert.Equal(t, "geojson", v.Get("format"))
	assert.Equal(t, "2.5", v.Get("minmagnitude"))
	assert.Equal(t, q.StartTime, v.Get("starttime"))
	assert.Equal(t, q.EndTime, v.Get("endtime"))
}

func TestBuildQuery_CanonicalZone(t *testing.T) {
	santiago := time.FixedZone("CLT", -3*3600)
	b := NewBuilder(santiago)

	t.Run("naive input is read in the canonical zone", func(t *testing.T) {
		q, err := b.BuildQuery(domain.FilterState{StartTime: "2024-03-01T10:00", EndTime: "2024-03-02"})
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01T10:00:00.000-03:00", q.StartTime)
		assert.Equal(t, "2024-03-02T00:00:00.000-03:00", q.EndTime)
	})

	t.Run("explicit offsets are converted", func(t *testing.T) {
		q, err := b.BuildQuery(domain.FilterState{
			StartTime: "2024-03-01T12:00:00.5Z",
			EndTime:   "2024-03-01T18:00:00+02:00",
		})
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01T09:00:00.500-03:00", q.StartTime)
		assert.Equal(t, "2024-03-01T13:00:00.000-03:00", q.EndTime)
	})
}

func TestBuildQuery_Validation(t *testing.T) {
	b := NewBuilder(nil)

	tests := []struct {
		name  string
		fs    domain.FilterState
		field string
	}{
		{"end before start", domain.FilterState{StartTime: "2024-01-10", EndTime: "2024-01-01"}, "starttime"},
		{"missing start", domain.FilterState{EndTime: "2024-01-01"}, "starttime"},
		{"missing end", domain.FilterState{StartTime: "2024-01-01"}, "endtime"},
		{"garbage start", domain.FilterState{StartTime: "yesterday", EndTime: "2024-01-01"}, "starttime"},
		{"garbage end", domain.FilterState{StartTime: "2024-01-01", EndTime: "01/02/2024"}, "endtime"},
		{"negative magnitude", domain.FilterState{StartTime: "2024-01-01", EndTime: "2024-01-02", MinMagnitude: -1}, "minmagnitude"},
		{"NaN magnitude", domain.FilterState{StartTime: "2024-01-01", EndTime: "2024-01-02", MinMagnitude: math.NaN()}, "minmagnitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.BuildQuery(tt.fs)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Contains(t, verr.Error(), tt.field)
		})
	}
}

func TestBuildQuery_EqualBoundsAllowed(t *testing.T) {
	_, err := NewBuilder(nil).BuildQuery(domain.FilterState{StartTime: "2024-01-01", EndTime: "2024-01-01"})
	assert.NoError(t, err)
}

func TestDefaultFilter(t *testing.T) {
	b := NewBuilder(time.UTC)
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	fs := b.DefaultFilter(now, domain.DefaultLookback)
	assert.Equal(t, "2024-05-03T08:00:00.000Z", fs.StartTime)
	assert.Equal(t, "2024-05-10T08:00:00.000Z", fs.EndTime)
	assert.Zero(t, fs.MinMagnitude)

	q, err := b.BuildQuery(fs)
	require.NoError(t, err)
	assert.Equal(t, fs.StartTime, q.StartTime)
	assert.True(t, q.End.Equal(now))
}

func TestQueryKeyIsStable(t *testing.T) {
	b := NewBuilder(nil)
	fs := domain.FilterState{StartTime: "2024-01-01", EndTime: "2024-01-02", MinMagnitude: 1}
	a, err := b.BuildQuery(fs)
	require.NoError(t, err)
	c, err := b.BuildQuery(fs)
	require.NoError(t, err)
	assert.Equal(t, a.Key(), c.Key())

	fs.MinMagnitude = 2
	d, err := b.BuildQuery(fs)
	require.NoError(t, err)
	assert.NotEqual(t, a.Key(), d.Key())
}
