package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"JobScraper/internal/callback"
	"JobScraper/internal/domain"
)

const taskInitiated = "task initiated"

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScrape admits a search or details job. The route decides the dashboard.
func (s *Server) handleScrape(dashboard domain.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var p domain.JobScraperPayload
		if err := decode(w, r, &p); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		if err := validateScrape(p); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		job := domain.JobFromScraperPayload(uuid.NewString(), userID, p)
		job.Dashboard = dashboard
		s.submit(w, job)
	}
}

func (s *Server) handleRefreshProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var p domain.ProfileUpdatePayload
	if err := decode(w, r, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if p.UserHeadline == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "userHeadline is required"})
		return
	}

	s.submit(w, domain.JobFromProfilePayload(uuid.NewString(), userID, p))
}

func (s *Server) submit(w http.ResponseWriter, job domain.Job) {
	if err := s.jobs.Submit(job); err != nil {
		s.log.Error("job not admitted", "job_id", job.ID, "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	s.log.Info("task initiated",
		"job_id", job.ID,
		"action", job.Action,
		"dashboard", job.Dashboard,
		"entry_points", len(job.EntryPoints),
	)
	writeJSON(w, http.StatusOK, domain.ScraperResponse{Response: taskInitiated})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(callback.UserIDHeader)
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing userId header"})
		return "", false
	}
	return userID, true
}

func validateScrape(p domain.JobScraperPayload) error {
	if !p.JobDashboard.Valid() {
		return fmt.Errorf("unknown jobDashboard %q", p.JobDashboard)
	}
	if !p.Action.Scrapable() {
		return fmt.Errorf("unknown action %q", p.Action)
	}
	for i, e := range p.EntryPoints {
		if e == "" {
			return fmt.Errorf("entryPoints[%d] is empty", i)
		}
	}
	return nil
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
