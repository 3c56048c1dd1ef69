package server

import (
	"net/http"

	"github.com/matzehuels/trackplan/pkg/buildinfo"
	errs "github.com/matzehuels/trackplan/pkg/errors"
	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/session"
)

type healthResponse struct {
	Status  string         `json:"status"`
	Session string         `json:"session"`
	Active  bool           `json:"active"`
	Build   buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Session: s.session.ID(),
		Active:  s.session.Active(),
		Build:   buildinfo.Get(),
	})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type updateMapRequest struct {
	Cell *grid.Cell `json:"cell"`
}

type updateMapResponse struct {
	Message string `json:"message"`
	session.UpdateResult
}

func (s *Server) handleUpdateMap(w http.ResponseWriter, r *http.Request) {
	var req updateMapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Cell == nil {
		writeError(w, errs.New(errs.ErrCodeInvalidRequest, "cell is required"))
		return
	}
	res, err := s.session.UpdateMap(r.Context(), *req.Cell)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updateMapResponse{Message: "map updated", UpdateResult: res})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Step(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "planner reset"})
}
