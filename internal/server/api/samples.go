package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
)

// maxSamplesBody bounds a training upload.
const maxSamplesBody = 4 << 20

// SamplesHandler handles recorded training samples of a gesture.
type SamplesHandler struct {
	templates TemplateService
}

// NewSamplesHandler creates a new SamplesHandler.
func NewSamplesHandler(templates TemplateService) *SamplesHandler {
	return &SamplesHandler{templates: templates}
}

// ServeHTTP handles /api/gestures/{name}/samples.
//
//	GET     list the samples the current template was trained from
//	POST    train a new template from {"samples":[{"landmarks":[...]}]}
//	DELETE  drop the samples and restore the built-in template
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "samples" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	name, ok := parseName(w, parts[0])
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, name)
	case http.MethodPost:
		h.train(w, r, name)
	case http.MethodDelete:
		h.reset(w, r, name)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

// list handles GET /api/gestures/{name}/samples.
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, name gesture.Name) {
	samples, err := h.templates.Samples(name)
	if err != nil {
		writeLookupError(w, err, "list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format(timeLayout),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// train handles POST /api/gestures/{name}/samples.
func (h *SamplesHandler) train(w http.ResponseWriter, r *http.Request, name gesture.Name) {
	var req createSamplesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSamplesBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	// Surface lookup failures before validation errors
	if _, err := h.templates.Get(name); err != nil {
		writeLookupError(w, err, "verify gesture")
		return
	}

	info, err := h.templates.Train(name, req.Samples)
	if err != nil {
		if errors.Is(err, app.ErrInvalidSamples) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeLookupError(w, err, "train gesture")
		return
	}

	writeJSON(w, http.StatusCreated, infoResponse(info))
}

// reset handles DELETE /api/gestures/{name}/samples.
func (h *SamplesHandler) reset(w http.ResponseWriter, r *http.Request, name gesture.Name) {
	info, err := h.templates.Reset(name)
	if err != nil {
		writeLookupError(w, err, "restore gesture")
		return
	}

	writeJSON(w, http.StatusOK, infoResponse(info))
}
