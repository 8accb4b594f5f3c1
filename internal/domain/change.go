package domain

import "time"

// Change summarizes one reconciliation of a layer for downstream consumers.
type Change struct {
	Layer     LayerName `json:"layer"`
	RequestID string    `json:"request_id,omitempty"`
	Entered   []string  `json:"entered"`
	Exited    []string  `json:"exited"`
	Rendered  int       `json:"rendered"`
	At        time.Time `json:"at"`
}
