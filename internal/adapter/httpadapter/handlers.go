package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/feed"
	"github.com/couchcryptid/seismic-map/internal/mapview"
	"github.com/couchcryptid/seismic-map/internal/viewport"
	"github.com/couchcryptid/seismic-map/internal/visibility"
)

const maxRequestBody = 1 << 20

type refreshResponse struct {
	RequestID string           `json:"request_id"`
	Query     feed.QueryParams `json:"query"`
}

type layerRequest struct {
	Visible *bool `json:"visible"`
}

type layerResponse struct {
	Layer domain.LayerName `json:"layer"`
	State visibility.State `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var fs domain.FilterState
	if !decode(w, r, &fs) {
		return
	}
	reqID, q, err := s.ctrl.Refresh(r.Context(), fs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{RequestID: reqID, Query: q})
}

func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	name, ok := domain.ParseLayerName(r.PathValue("name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown layer " + r.PathValue("name")})
		return
	}
	var req layerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Visible == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "visible is required", Field: "visible"})
		return
	}
	state, err := s.ctrl.SetVisible(r.Context(), name, *req.Visible)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layerResponse{Layer: name, State: state})
}

func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	var g viewport.Gesture
	if !decode(w, r, &g) {
		return
	}
	view, err := s.ctrl.Gesture(r.Context(), g)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ctrl.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *feed.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, viewport.ErrInvalidGesture):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, visibility.ErrUnknownLayer):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, mapview.ErrNotRendered), errors.Is(err, mapview.ErrStopped):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
