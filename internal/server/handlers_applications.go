package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/application-tracker/internal/types"
	"github.com/jonathan/application-tracker/internal/workflow"
)

// parseApplicationID reads the {id} path value, writing a 400 when it is not a UUID
func (s *Server) parseApplicationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid application ID")
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON decodes the request body into dst, writing a 400 on failure
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// handleListApplications lists application summaries, optionally only open ones
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.applications.List(r.Context())
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	openOnly := r.URL.Query().Get("open") == "true"
	summaries := make([]types.ApplicationSummary, 0, len(apps))
	for _, app := range apps {
		if openOnly && app.Closed() {
			continue
		}
		summaries = append(summaries, app.Summary())
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"applications": summaries,
		"total":        len(summaries),
	})
}

// handleCreateApplication creates a new application
func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req types.CreateApplicationRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	app, err := s.applications.Create(r.Context(), &req)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, app)
}

// handleGetApplication retrieves an application with its full history
func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseApplicationID(w, r)
	if !ok {
		return
	}

	app, err := s.applications.Get(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, app)
}

// handleUpdateApplication replaces an application's fields, status history and events
func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseApplicationID(w, r)
	if !ok {
		return
	}

	var req types.UpdateApplicationRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	app, err := s.applications.Update(r.Context(), id, &req)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, app)
}

// handleDeleteApplication deletes an application
func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseApplicationID(w, r)
	if !ok {
		return
	}

	if err := s.applications.Delete(r.Context(), id); err != nil {
		s.serviceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetTransitions returns the statuses that may be added next
func (s *Server) handleGetTransitions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseApplicationID(w, r)
	if !ok {
		return
	}

	app, next, err := s.applications.Transitions(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"application_id": app.ID,
		"current":        app.Statuses(),
		"available":      next,
		"closed":         app.Closed(),
	})
}

// handleAddStatus appends a status to an application's history
func (s *Server) handleAddStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseApplicationID(w, r)
	if !ok {
		return
	}

	var req types.AddStatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	app, err := s.applications.AddStatus(r.Context(), id, &req)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, app)
}

// handleQueryTransitions evaluates the workflow for an ad hoc set of statuses
// given as ?status=Applied&status=Screen or ?status=Applied,Screen
func (s *Server) handleQueryTransitions(w http.ResponseWriter, r *http.Request) {
	var current []workflow.Status
	for _, raw := range r.URL.Query()["status"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			st, err := workflow.ParseStatus(part)
			if err != nil {
				s.errorResponse(w, http.StatusBadRequest, err.Error())
				return
			}
			current = append(current, st)
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"current":   nonNilStatuses(current),
		"available": workflow.AvailableTransitions(current),
	})
}

// handleFunnel returns the funnel report over all applications
func (s *Server) handleFunnel(w http.ResponseWriter, r *http.Request) {
	edges, total, err := s.applications.Funnel(r.Context())
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"edges":        edges,
		"applications": total,
	})
}

func nonNilStatuses(statuses []workflow.Status) []workflow.Status {
	if statuses == nil {
		return []workflow.Status{}
	}
	return statuses
}
