// Package api provides the HTTP API handlers: gesture template calibration
// and the detection toggle.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/store"
)

// TemplateService manages the stored gesture templates.
type TemplateService interface {
	List() ([]*store.Gesture, error)
	Get(name gesture.Name) (*app.TemplateInfo, error)
	Samples(name gesture.Name) ([]store.Sample, error)
	Train(name gesture.Name, samples []json.RawMessage) (*app.TemplateInfo, error)
	Reset(name gesture.Name) (*app.TemplateInfo, error)
}

// GestureHandler handles HTTP requests for gesture resources.
type GestureHandler struct {
	templates TemplateService
}

// NewGestureHandler creates a new GestureHandler.
func NewGestureHandler(templates TemplateService) *GestureHandler {
	return &GestureHandler{templates: templates}
}

// ServeHTTP routes /api/gestures and /api/gestures/{name}.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	name, ok := parseName(w, path)
	if !ok {
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.get(w, r, name)
}

type gestureResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Source    string             `json:"source"`
	Samples   int                `json:"samples"`
	Icon      string             `json:"icon,omitempty"`
	Landmarks []detector.Point3D `json:"landmarks,omitempty"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func toResponse(g *store.Gesture) gestureResponse {
	return gestureResponse{
		ID:        g.ID,
		Name:      g.Name,
		Source:    string(g.Source),
		Samples:   g.Samples,
		Icon:      render.IconFor(gesture.Name(g.Name)),
		CreatedAt: g.CreatedAt.Format(timeLayout),
		UpdatedAt: g.UpdatedAt.Format(timeLayout),
	}
}

func infoResponse(info *app.TemplateInfo) gestureResponse {
	resp := toResponse(info.Gesture)
	resp.Landmarks = info.Landmarks
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// parseName validates a gesture name from the URL and writes a 404 if it
// is not one of the supported gestures.
func parseName(w http.ResponseWriter, s string) (gesture.Name, bool) {
	name, err := gesture.ParseName(s)
	if err != nil {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return "", false
	}
	return name, true
}

// writeLookupError maps a template lookup failure to a response.
func writeLookupError(w http.ResponseWriter, err error, action string) {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, gesture.ErrUnknownGesture) {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to "+action)
}

// list handles GET /api/gestures.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	gestures, err := h.templates.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list gestures")
		return
	}

	response := listGesturesResponse{
		Gestures: make([]gestureResponse, 0, len(gestures)),
	}
	for _, g := range gestures {
		response.Gestures = append(response.Gestures, toResponse(g))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/gestures/{name}.
func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, name gesture.Name) {
	info, err := h.templates.Get(name)
	if err != nil {
		writeLookupError(w, err, "get gesture")
		return
	}

	writeJSON(w, http.StatusOK, infoResponse(info))
}
