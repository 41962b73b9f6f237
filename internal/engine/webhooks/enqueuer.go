package webhooks

import (
	"github.com/rs/zerolog/log"
	"minthook/internal/platform/models"
)

// ClientStore is the view of the client registry the engine needs.
type ClientStore interface {
	GetByID(id string) (*models.IntegrationClient, error)
	ListActive() ([]*models.IntegrationClient, error)
}

// EventStore is the view of the event record store the engine needs.
type EventStore interface {
	Create(event *models.WebhookEvent) error
	SelectDue(now int64, limit int) ([]*models.WebhookEvent, error)
	MarkSent(id string, now int64) error
	ScheduleRetry(id string, attempts int, lastError string, nextRetryAt, now int64) error
	MarkFailed(id string, attempts int, lastError string, now int64) error
}

// Enqueuer fans a source occurrence out to every active integration client,
// one pending event row per client. It performs no network calls.
type Enqueuer struct {
	clients ClientStore
	events  EventStore
}

func NewEnqueuer(clients ClientStore, events EventStore) *Enqueuer {
	return &Enqueuer{clients: clients, events: events}
}

// Enqueue creates one pending event per active client and returns how many
// were queued. A failed insert for one client is logged and does not block
// fan-out to the rest; only failure to list clients aborts.
func (e *Enqueuer) Enqueue(eventType string, payload interface{}) (int, error) {
	clients, err := e.clients.ListActive()
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, client := range clients {
		event := &models.WebhookEvent{
			ClientID: client.ID,
			Event:    eventType,
			Payload:  payload,
		}
		if err := e.events.Create(event); err != nil {
			log.Error().Err(err).
				Str("client_id", client.ID).
				Str("event", eventType).
				Msg("failed to enqueue webhook event")
			continue
		}
		queued++
	}

	log.Debug().Str("event", eventType).Int("queued", queued).Msg("occurrence fanned out")
	return queued, nil
}
