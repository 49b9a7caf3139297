package http

import (
	"encoding/json"
	"net/http"

	"baedal/internal/core"
)

func (s *Server) monthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.parseYearMonth(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.MonthlySummary(year, month))
}

func (s *Server) previousMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.parseYearMonth(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.PreviousMonthlySummary(year, month))
}

func (s *Server) yearlySummary(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", s.now().Year())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.YearlySummary(year))
}

func (s *Server) cumulativeSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.CumulativeSummary())
}

func (s *Server) goalProgress(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.parseYearMonth(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.GoalProgress(year, month))
}

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Settings())
}

// putSettings replaces the settings. Fields missing from the body keep their
// current values.
func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.Settings
	// Decode over a deep copy so the live settings' slices are never reused.
	current, err := json.Marshal(s.svc.Settings())
	if err == nil {
		err = json.Unmarshal(current, &settings)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := decodeJSON(w, r, &settings); err != nil {
		writeServiceError(w, r, err)
		return
	}
	saved, err := s.svc.UpdateSettings(r.Context(), settings)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
