package channel

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxEventBytes = 64 << 10

// Submitter accepts an event for asynchronous processing.
type Submitter interface {
	Submit(ev Event) <-chan struct{}
}

// Handler serves the inbound HTTP endpoints.
type Handler struct {
	submitter Submitter
	logger    *zap.Logger
	version   string
}

// NewHandler returns a handler passing events to submitter.
func NewHandler(submitter Submitter, version string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{submitter: submitter, logger: log, version: version}
}

// RegisterRoutes mounts POST /events and GET /health on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/events", h.handleEvents)
	mux.HandleFunc("/health", h.handleHealth)
}

// handleEvents handles POST /events
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ev Event
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err := dec.Decode(&ev); err != nil {
		jsonError(w, "invalid event: "+err.Error(), http.StatusBadRequest)
		return
	}
	ev.Identity = strings.TrimSpace(ev.Identity)
	if ev.Identity == "" {
		jsonError(w, "identity is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(ev.Text) == "" && (ev.Media == nil || ev.Media.URL == "") {
		jsonError(w, "text or media is required", http.StatusBadRequest)
		return
	}

	h.submitter.Submit(ev)
	h.logger.Debug("event accepted", zap.String("identity", ev.Identity), zap.Bool("media", ev.Media != nil))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

// handleHealth handles GET /health
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "talent-intake",
		"version": h.version,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
