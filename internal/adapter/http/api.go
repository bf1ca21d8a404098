package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/couchcryptid/city-distance-service/internal/autocomplete"
	"github.com/couchcryptid/city-distance-service/internal/domain"
	"github.com/couchcryptid/city-distance-service/internal/geodesy"
	"github.com/couchcryptid/city-distance-service/internal/session"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const maxBodyBytes = 1 << 16

type createSessionResponse struct {
	ID string `json:"id"`
}

type inputRequest struct {
	Text string `json:"text"`
}

type selectRequest struct {
	Index *int `json:"index"`
}

type distanceResponse struct {
	From              domain.GeoPoint   `json:"from"`
	To                domain.GeoPoint   `json:"to"`
	Algorithm         geodesy.Algorithm `json:"algorithm"`
	Kilometers        float64           `json:"kilometers"`
	RoundedKilometers float64           `json:"rounded_kilometers"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	sharedobs.WriteJSON(w, http.StatusCreated, createSessionResponse{ID: sess.ID()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, sess.View(r.Context()))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookupEndpoint(w, r)
	if !ok {
		return
	}
	var req inputRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctrl.Input(req.Text)
	sharedobs.WriteJSON(w, http.StatusOK, ctrl.State())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookupEndpoint(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, errors.New("index is required"))
		return
	}

	_, err := ctrl.Select(*req.Index)
	switch {
	case errors.Is(err, autocomplete.ErrNotReady):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, autocomplete.ErrIndexOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, ctrl.State())
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookupEndpoint(w, r)
	if !ok {
		return
	}
	ctrl.Dismiss()
	sharedobs.WriteJSON(w, http.StatusOK, ctrl.State())
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookupEndpoint(w, r)
	if !ok {
		return
	}
	ctrl.Focus()
	sharedobs.WriteJSON(w, http.StatusOK, ctrl.State())
}

// handleDistance is a stateless calculation between two coordinate pairs.
// Vincenty failures are reported rather than replaced by haversine.
func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := domain.ParseGeoPoint(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("from: %w", err))
		return
	}
	to, err := domain.ParseGeoPoint(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("to: %w", err))
		return
	}

	alg := s.algorithm
	if name := q.Get("algorithm"); name != "" {
		if alg, err = geodesy.ParseAlgorithm(name); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	km, err := geodesy.NewCalculator(alg).Distance(from, to)
	if errors.Is(err, geodesy.ErrConvergence) {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, distanceResponse{
		From:              from,
		To:                to,
		Algorithm:         alg,
		Kilometers:        km,
		RoundedKilometers: geodesy.RoundToNearest(km, geodesy.DefaultRoundingStep),
	})
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) lookupEndpoint(w http.ResponseWriter, r *http.Request) (*autocomplete.Controller, bool) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return nil, false
	}
	ctrl, err := sess.Endpoint(r.PathValue("endpoint"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return ctrl, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}
