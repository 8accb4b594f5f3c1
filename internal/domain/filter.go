package domain

import "time"

// DefaultLookback is the time window of the initial seismic query.
const DefaultLookback = 7 * 24 * time.Hour

// FilterState holds the raw values of the UI filter controls. Times are kept
// as entered (date or datetime strings); the feed query builder parses and
// validates them.
type FilterState struct {
	StartTime    string  `json:"starttime"`
	EndTime      string  `json:"endtime"`
	MinMagnitude float64 `json:"minmagnitude"`
}
