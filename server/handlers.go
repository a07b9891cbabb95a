package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/giygas/bpmn-tools/templates/entities"
	"github.com/go-chi/chi/v5"
)

// templateHeader is the part of an element template used for lookups
type templateHeader struct {
	ID string `json:"id"`
}

// serveTemplates returns the whole collection, in source order
func (s *Server) serveTemplates(w http.ResponseWriter, r *http.Request) {
	setLastModified(w, s.store.GetLastUpdated())
	respondWithJSON(w, r, http.StatusOK, s.store.GetTemplates())
}

// findTemplate returns every template whose "id" matches, one per published version
func (s *Server) findTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := validateTemplateID(id); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches := make([]entities.Template, 0)
	for _, t := range s.store.GetTemplates() {
		var header templateHeader
		if err := json.Unmarshal(t, &header); err != nil {
			continue
		}
		if header.ID == id {
			matches = append(matches, t)
		}
	}

	if len(matches) == 0 {
		respondWithError(w, http.StatusNotFound, "template not found")
		return
	}

	setLastModified(w, s.store.GetLastUpdated())
	respondWithJSON(w, r, http.StatusOK, matches)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, code := s.health.HealthCheck()
	if data == nil {
		data = make(map[string]any)
	}
	data["status"] = status
	respondWithJSON(w, r, code, data)
}

func setLastModified(w http.ResponseWriter, t time.Time) {
	if !t.IsZero() {
		w.Header().Set("Last-Modified", t.UTC().Format(http.TimeFormat))
	}
}

// Template ids look like io.camunda.connectors.HttpJson.v2
const maxTemplateIDLength = 200

func validateTemplateID(id string) error {
	if id == "" {
		return fmt.Errorf("template id is required")
	}

	if len(id) > maxTemplateIDLength {
		return fmt.Errorf("template id too long: maximum %d characters", maxTemplateIDLength)
	}

	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '-', c == '_', c == ':':
		default:
			return fmt.Errorf("template id contains invalid characters. Only letters, numbers, '.', '-', '_' and ':' are allowed")
		}
	}

	return nil
}
