package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	apiContext "minthook/internal/api/context"
	"minthook/internal/engine/webhooks"
	"minthook/internal/pkg/errors"
	"minthook/internal/platform/audit"
	"minthook/internal/platform/models"
	"minthook/internal/platform/repositories"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

type EventHandler struct {
	events   *repositories.EventRepository
	enqueuer *webhooks.Enqueuer
	audit    *audit.Logger
}

func NewEventHandler(events *repositories.EventRepository, enqueuer *webhooks.Enqueuer, auditLog *audit.Logger) *EventHandler {
	return &EventHandler{events: events, enqueuer: enqueuer, audit: auditLog}
}

// List is the operator's view into the queue, most importantly the
// status=failed rows: dead letters are retained, not dropped.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch models.EventStatus(status) {
	case "", models.StatusPending, models.StatusSent, models.StatusFailed:
	default:
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput,
			"status must be pending, sent or failed", nil)
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid limit", nil)
			return
		}
		if parsed > maxEventLimit {
			parsed = maxEventLimit
		}
		limit = parsed
	}

	events, err := h.events.List(status, r.URL.Query().Get("client_id"), limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}
	if events == nil {
		events = []*models.WebhookEvent{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("event_id")

	event, err := h.events.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Event not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

// Replay re-queues a dead-lettered event. Pending and sent events are not
// replayable; the automatic state machine owns those.
func (h *EventHandler) Replay(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("event_id")

	if _, err := h.events.GetByID(id); err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Event not found", nil)
		return
	}

	replayed, err := h.events.Replay(id, time.Now().Unix())
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}
	if !replayed {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict,
			"Only failed events can be replayed", nil)
		return
	}

	h.audit.Log(r, "event.replayed", "webhook_event", id, nil)

	event, err := h.events.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

// EnqueueOccurrence is the manual producer entry point: fan an occurrence out
// to all active clients. Fire-and-forget; only the queued count is returned,
// delivery status is observable via the event store.
func (h *EventHandler) EnqueueOccurrence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Event == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Event type is required", nil)
		return
	}

	queued, err := h.enqueuer.Enqueue(req.Event, req.Data)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]int{"queued": queued})
}
