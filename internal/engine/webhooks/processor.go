package webhooks

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"minthook/internal/platform/models"
)

// Sender is the single-attempt delivery primitive the processor drives.
type Sender interface {
	Deliver(url, signature string, body []byte, eventID, eventType string, timestamp int64) Result
}

// Stats summarizes one processing pass.
type Stats struct {
	Processed    int
	Sent         int
	Retried      int
	DeadLettered int
}

// Processor applies the delivery state machine to due events: select, sign,
// deliver, persist the outcome. Delivery failures are converted into state
// transitions and never abort the pass; only store errors propagate.
type Processor struct {
	clients     ClientStore
	events      EventStore
	sender      Sender
	schedule    Schedule
	maxAttempts int
	batchSize   int

	// now is swapped out in tests to drive the backoff clock.
	now func() time.Time
}

func NewProcessor(clients ClientStore, events EventStore, sender Sender, schedule Schedule, maxAttempts, batchSize int) *Processor {
	if len(schedule) == 0 {
		schedule = DefaultSchedule
	}
	return &Processor{
		clients:     clients,
		events:      events,
		sender:      sender,
		schedule:    schedule,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
		now:         time.Now,
	}
}

// Run performs one bounded pass over due events, oldest first. The returned
// error is only non-nil for store-level failures; the pass is safe to re-run
// since every event's outcome is persisted before the next event is touched.
func (p *Processor) Run() (Stats, error) {
	var stats Stats

	due, err := p.events.SelectDue(p.now().Unix(), p.batchSize)
	if err != nil {
		return stats, fmt.Errorf("selecting due events: %w", err)
	}

	for _, event := range due {
		stats.Processed++

		outcome, err := p.processOne(event)
		if err != nil {
			return stats, err
		}

		switch outcome {
		case eventSent:
			stats.Sent++
		case eventRetried:
			stats.Retried++
		case eventDeadLettered:
			stats.DeadLettered++
		}
	}

	return stats, nil
}

type passOutcome int

const (
	eventSent passOutcome = iota
	eventRetried
	eventDeadLettered
)

// processOne runs one event through the state machine. The returned error is
// reserved for store failures; everything else becomes a state transition.
func (p *Processor) processOne(event *models.WebhookEvent) (passOutcome, error) {
	client, err := p.clients.GetByID(event.ClientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Configuration error, not a transient fault: the subscriber is
			// gone, so retrying can never succeed.
			return p.deadLetter(event, event.Attempts, "integration client not found")
		}
		return 0, fmt.Errorf("resolving client %s: %w", event.ClientID, err)
	}

	if client.CallbackURL == "" {
		return p.deadLetter(event, event.Attempts, "integration client has no callback URL")
	}
	if client.CallbackSecret == "" {
		// Never substitute a shared default secret; a missing secret is a
		// configuration error like a missing URL.
		return p.deadLetter(event, event.Attempts, "integration client has no callback secret")
	}

	timestamp := p.now().Unix()
	body, err := CanonicalPayload(event, timestamp)
	if err != nil {
		return p.deadLetter(event, event.Attempts, fmt.Sprintf("serialize payload: %v", err))
	}

	signature := Sign(client.CallbackSecret, body)
	result := p.sender.Deliver(client.CallbackURL, signature, body, event.ID, event.Event, timestamp)

	now := p.now().Unix()
	if result.OK() {
		if err := p.events.MarkSent(event.ID, now); err != nil {
			return 0, fmt.Errorf("marking event %s sent: %w", event.ID, err)
		}
		log.Debug().Str("event_id", event.ID).Str("client_id", client.ID).
			Int("status", result.StatusCode).Msg("webhook delivered")
		return eventSent, nil
	}

	attempts := event.Attempts + 1
	if attempts >= p.maxAttempts {
		return p.deadLetter(event, attempts, result.Err)
	}

	nextRetryAt := now + int64(p.schedule.Delay(attempts).Seconds())
	if err := p.events.ScheduleRetry(event.ID, attempts, result.Err, nextRetryAt, now); err != nil {
		return 0, fmt.Errorf("scheduling retry for event %s: %w", event.ID, err)
	}

	log.Warn().Str("event_id", event.ID).Str("client_id", client.ID).
		Int("attempts", attempts).Int64("next_retry_at", nextRetryAt).
		Str("error", result.Err).Msg("webhook delivery failed, retry scheduled")
	return eventRetried, nil
}

func (p *Processor) deadLetter(event *models.WebhookEvent, attempts int, reason string) (passOutcome, error) {
	if err := p.events.MarkFailed(event.ID, attempts, reason, p.now().Unix()); err != nil {
		return 0, fmt.Errorf("dead-lettering event %s: %w", event.ID, err)
	}
	log.Error().Str("event_id", event.ID).Str("client_id", event.ClientID).
		Int("attempts", attempts).Str("reason", reason).Msg("webhook event dead-lettered")
	return eventDeadLettered, nil
}
