package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"baedal/internal/core"
	"baedal/internal/log"
	"baedal/internal/services"
)

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Entries(from, to))
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// postEntry creates an entry, or updates one when the body carries an id.
// force=true saves even when an identical entry exists.
func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	var e core.Entry
	if err := decodeJSON(w, r, &e); err != nil {
		writeServiceError(w, r, err)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	status := http.StatusCreated
	if e.ID != "" {
		status = http.StatusOK
	}
	saved, err := s.svc.Save(r.Context(), e, force)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, status, saved)
}

func (s *Server) putEntry(w http.ResponseWriter, r *http.Request) {
	var e core.Entry
	if err := decodeJSON(w, r, &e); err != nil {
		writeServiceError(w, r, err)
		return
	}
	saved, err := s.svc.Update(r.Context(), chi.URLParam(r, "id"), e)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Entry deleted", log.FieldEntryID, id)
	w.WriteHeader(http.StatusNoContent)
}

// deleteGroup removes an installment group; after=YYYY-MM-DD keeps the
// payments dated up to the cutoff.
func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	after, err := queryDate(r, "after")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	removed, err := s.svc.DeleteGroup(r.Context(), chi.URLParam(r, "groupId"), after)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// importEntries accepts a JSON array of entries or an object {"entries": [...]}.
func (s *Server) importEntries(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		writeServiceError(w, r, err)
		return
	}
	var candidates []core.Entry
	var err error
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Entries []core.Entry `json:"entries"`
		}
		err = json.Unmarshal(trimmed, &wrapped)
		candidates = wrapped.Entries
	} else {
		err = json.Unmarshal(raw, &candidates)
	}
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("%w: %w", services.ErrInvalidInput, err))
		return
	}

	res, err := s.svc.Import(r.Context(), candidates)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) clearEntries(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Clear(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postInstallments(w http.ResponseWriter, r *http.Request) {
	var plan services.InstallmentPlan
	if err := decodeJSON(w, r, &plan); err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := s.svc.ScheduleInstallments(r.Context(), plan)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) listInstallments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Installments())
}
