package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"regard/internal/interpret"
	"regard/internal/tracking"
)

type searchBody struct {
	Term string `json:"term"`
}

type tagsBody struct {
	Tags []string `json:"tags"`
}

type selectionBody struct {
	ID string `json:"id"`
}

type mapConfigResponse struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider"`
	APIKey   string `json:"api_key,omitempty"`
}

// handleListEntities applies the session view unless search or tags are
// given as query parameters.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st := s.view.State()
	if q.Has("search") {
		st.SearchTerm = q.Get("search")
	}
	if q.Has("tags") {
		st.ActiveTags = splitTags(q.Get("tags"))
	}
	writeJSON(w, http.StatusOK, tracking.VisibleEntities(s.store.Snapshot(), st.SearchTerm, st.ActiveTags))
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("entity %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requestID, err := s.req.RequestInterpretation(r.Context(), id)
	switch {
	case errors.Is(err, interpret.ErrUnknownEntity):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, interpret.ErrAlreadyProcessing):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.logger.Error("request interpretation", "entity_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "interpretation request failed")
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"request_id": requestID})
	}
}

func (s *Server) handleGetView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.view.State())
}

func (s *Server) handleGetSelected(w http.ResponseWriter, _ *http.Request) {
	e, ok := s.view.Selected(s.store.Snapshot())
	if !ok {
		writeError(w, http.StatusNotFound, "no entity selected")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleSetSearch(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if !decodeBody(w, r, &body) {
		return
	}
	s.view.SetSearchTerm(body.Term)
	writeJSON(w, http.StatusOK, s.view.State())
}

func (s *Server) handleSetTags(w http.ResponseWriter, r *http.Request) {
	var body tagsBody
	if !decodeBody(w, r, &body) {
		return
	}
	for _, t := range body.Tags {
		if !slices.Contains(tracking.AllTags, t) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown tag %q", t))
			return
		}
	}
	s.view.SetActiveTags(body.Tags)
	writeJSON(w, http.StatusOK, s.view.State())
}

// handleSetSelection selects an entity; an empty id clears the selection.
func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var body selectionBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ID != "" {
		if _, ok := s.store.Get(body.ID); !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("entity %s not found", body.ID))
			return
		}
	}
	s.view.Select(body.ID)
	writeJSON(w, http.StatusOK, s.view.State())
}

func (s *Server) handleMapConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, mapConfigResponse{
		Enabled:  s.mapCfg.Enabled(),
		Provider: s.mapCfg.Provider,
		APIKey:   s.mapCfg.APIKey,
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	if s.notes == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, s.notes.Recent(limit))
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
