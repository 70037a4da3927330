package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ayusman/mudra/internal/store"
)

// DetectionControl toggles gesture detection.
type DetectionControl interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
}

// Preferences persists the toggle across restarts.
type Preferences interface {
	SetBool(key string, value bool) error
}

// DetectionHandler serves GET and POST /api/detection.
type DetectionHandler struct {
	control DetectionControl
	prefs   Preferences
	logger  *slog.Logger
}

// NewDetectionHandler creates a DetectionHandler. prefs may be nil.
func NewDetectionHandler(control DetectionControl, prefs Preferences, logger *slog.Logger) *DetectionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetectionHandler{control: control, prefs: prefs, logger: logger}
}

type detectionState struct {
	Enabled *bool `json:"enabled"`
}

func (h *DetectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req detectionState
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}

		h.control.SetEnabled(*req.Enabled)
		h.logger.Info("detection toggled", "enabled", *req.Enabled)

		if h.prefs != nil {
			if err := h.prefs.SetBool(store.SettingDetectionEnabled, *req.Enabled); err != nil {
				h.logger.Warn("failed to persist detection toggle", "error", err)
			}
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enabled := h.control.IsEnabled()
	writeJSON(w, http.StatusOK, detectionState{Enabled: &enabled})
}
