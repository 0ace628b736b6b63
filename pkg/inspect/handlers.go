package inspect

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
)

type widgetSummary struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type windowInfo struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Title      string `json:"title"`
	Background any    `json:"background_color"`
}

type widgetDetail struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Methods    []string       `json:"methods"`
	Signals    []string       `json:"signals"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	select {
	case <-s.target.Done():
		status = "closed"
	default:
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": status,
		"scene":  s.target.Name(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListWidgets(w http.ResponseWriter, r *http.Request) {
	ids := s.target.Identifiers()
	widgets := make([]widgetSummary, 0, len(ids))
	for _, id := range ids {
		p, err := s.target.Widget(id)
		if err != nil {
			respondError(w, err)
			return
		}
		widgets = append(widgets, widgetSummary{ID: id, Type: p.Type()})
	}

	win := s.target.Window()
	respondJSON(w, http.StatusOK, map[string]any{
		"scene": s.target.Name(),
		"window": windowInfo{
			Width:      win.Width,
			Height:     win.Height,
			Title:      win.Title,
			Background: win.Background,
		},
		"widgets": widgets,
	})
}

func (s *Server) handleGetWidget(w http.ResponseWriter, r *http.Request) {
	p, err := s.target.Widget(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	props := make(map[string]any)
	for _, name := range p.Properties() {
		v, err := p.Get(name)
		if err != nil {
			respondError(w, err)
			return
		}
		props[name] = v
	}
	respondJSON(w, http.StatusOK, widgetDetail{
		ID:         p.ID(),
		Type:       p.Type(),
		Properties: props,
		Methods:    p.Methods(),
		Signals:    p.Signals(),
	})
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.target.Widget(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	property := chi.URLParam(r, "property")
	v, err := p.Get(property)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"property": property, "value": v})
}

func (s *Server) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value any `json:"value"`
	}
	if err := decodeJSONBody(w, r, &body); err != nil {
		respondError(w, err)
		return
	}

	p, err := s.target.Widget(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	if err := p.Set(chi.URLParam(r, "property"), body.Value); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleCallMethod(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Args []any `json:"args"`
	}
	if err := decodeJSONBody(w, r, &body); err != nil {
		respondError(w, err)
		return
	}

	v, err := s.target.Call(chi.URLParam(r, "id"), chi.URLParam(r, "method"), body.Args...)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"value": v})
}

// statusFor maps an error code onto an HTTP status.
func statusFor(code rgerrors.ErrorCode) int {
	switch code {
	case rgerrors.ErrCodeUnknownIdentifier:
		return http.StatusNotFound
	case rgerrors.ErrCodeInvalidProperty, rgerrors.ErrCodeInvalidValue, rgerrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case rgerrors.ErrCodeSceneClosed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
