package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/medialog/internal/common"
	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	list, err := s.entries.List(r.Context(), models.FiltersFromValues(r.URL.Query()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": list})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.entries.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) dates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.entries.Dates(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, maxBodyBytes, &in) {
		return
	}

	sess, err := s.auth.Login(r.Context(), in.Password)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid password")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	s.metrics.LoginAttempts.WithLabelValues("ok").Inc()
	s.logger.Info(r.Context(), "admin logged in")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), sessionID(r.Context())); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	var in models.Entry
	if !decodeBody(w, r, maxBodyBytes, &in) {
		return
	}

	created, err := s.entries.Create(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": created.ID, "entry": created})
}

func entryID(w http.ResponseWriter, r *http.Request) (models.ID, bool) {
	id, err := models.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	var in models.Entry
	if !decodeBody(w, r, maxBodyBytes, &in) {
		return
	}

	if err := s.entries.Update(r.Context(), id, in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": 1})
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	if err := s.entries.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": 1})
}

func (s *Server) importEntries(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Entries []models.Entry `json:"entries"`
	}
	if !decodeBody(w, r, maxImportBytes, &in) {
		return
	}

	n, err := s.entries.Import(r.Context(), in.Entries)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "entries imported", "received", len(in.Entries), "imported", n)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "imported": n})
}

func (s *Server) exportEntries(w http.ResponseWriter, r *http.Request) {
	list, err := s.entries.Export(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": list})
}

func (s *Server) clearAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.entries.ClearAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Warn(r.Context(), "all entries deleted", "deleted", n)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": n})
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AutoSync *bool `json:"auto_sync"`
	}
	if !decodeBody(w, r, maxBodyBytes, &in) {
		return
	}
	if in.AutoSync == nil {
		writeError(w, http.StatusBadRequest, "auto_sync required")
		return
	}

	if err := s.settings.SetAutoSync(r.Context(), *in.AutoSync); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
