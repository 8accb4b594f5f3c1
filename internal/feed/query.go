// Package feed builds seismic feed queries from filter input and normalizes
// feed responses into feature collections.
package feed

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/seismic-map/internal/domain"
)

// TimestampLayout is the ISO-8601 form sent to the feed: millisecond precision
// with the zone offset.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// inputLayouts are the accepted filter time forms, tried in order.
var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Fetcher retrieves a normalized seismic collection for a query.
type Fetcher interface {
	Fetch(ctx context.Context, q QueryParams) (domain.FeatureCollection, error)
}

// ValidationError reports a filter value the feed would not accept.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// QueryParams are the validated feed request parameters.
type QueryParams struct {
	Format       string  `json:"format"`
	MinMagnitude float64 `json:"minmagnitude"`
	StartTime    string  `json:"starttime"`
	EndTime      string  `json:"endtime"`

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

// Values encodes the parameters as a feed URL query.
func (q QueryParams) Values() url.Values {
	return url.Values{
		"format":       {q.Format},
		"minmagnitude": {strconv.FormatFloat(q.MinMagnitude, 'f', -1, 64)},
		"starttime":    {q.StartTime},
		"endtime":      {q.EndTime},
	}
}

// Key identifies the query for caching.
func (q QueryParams) Key() string { return q.Values().Encode() }

// Builder turns filter input into feed queries. Times without an explicit
// offset are read in the builder's canonical zone.
type Builder struct {
	loc *time.Location
}

// NewBuilder creates a builder for the canonical zone loc (UTC when nil).
func NewBuilder(loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{loc: loc}
}

// Location returns the canonical zone.
func (b *Builder) Location() *time.Location { return b.loc }

// BuildQuery validates fs and produces the feed query for it.
func (b *Builder) BuildQuery(fs domain.FilterState) (QueryParams, error) {
	start, err := b.parse("starttime", fs.StartTime)
	if err != nil {
		return QueryParams{}, err
	}
	end, err := b.parse("endtime", fs.EndTime)
	if err != nil {
		return QueryParams{}, err
	}
	if start.After(end) {
		return QueryParams{}, &ValidationError{Field: "starttime", Reason: "must not be after endtime"}
	}
	if math.IsNaN(fs.MinMagnitude) || math.IsInf(fs.MinMagnitude, 0) {
		return QueryParams{}, &ValidationError{Field: "minmagnitude", Reason: "must be a number"}
	}
	if fs.MinMagnitude < 0 {
		return QueryParams{}, &ValidationError{Field: "minmagnitude", Reason: "must not be negative"}
	}

	start, end = start.In(b.loc), end.In(b.loc)
	return QueryParams{
		Format:       "geojson",
		MinMagnitude: fs.MinMagnitude,
		StartTime:    start.Format(TimestampLayout),
		EndTime:      end.Format(TimestampLayout),
		Start:        start,
		End:          end,
	}, nil
}

// DefaultFilter is the filter of the initial load: the lookback window ending
// at now, every magnitude.
func (b *Builder) DefaultFilter(now time.Time, lookback time.Duration) domain.FilterState {
	now = now.In(b.loc)
	return domain.FilterState{
		StartTime:    now.Add(-lookback).Format(TimestampLayout),
		EndTime:      now.Format(TimestampLayout),
		MinMagnitude: 0,
	}
}

func (b *Builder) parse(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ValidationError{Field: field, Reason: "is required"}
	}
	var lastErr error
	for _, layout := range inputLayouts {
		t, err := time.ParseInLocation(layout, s, b.loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &ValidationError{Field: field, Reason: fmt.Sprintf("unparsable time %q", s), Err: lastErr}
}
