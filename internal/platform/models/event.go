package models

// EventStatus is the delivery state of a webhook event. Transitions are
// monotonic: pending -> sent or pending -> failed. The one exception is an
// operator replay, which moves a failed event back to pending.
type EventStatus string

const (
	StatusPending EventStatus = "pending"
	StatusSent    EventStatus = "sent"
	StatusFailed  EventStatus = "failed"
)

type WebhookEvent struct {
	ID          string      `json:"id"`
	ClientID    string      `json:"client_id"`
	Event       string      `json:"event"`
	Payload     interface{} `json:"payload"`
	Status      EventStatus `json:"status"`
	Attempts    int         `json:"attempts"`
	LastError   string      `json:"last_error,omitempty"`
	NextRetryAt int64       `json:"next_retry_at"`
	CreatedAt   int64       `json:"created_at"`
	UpdatedAt   int64       `json:"updated_at"`
}

// Due reports whether the event is eligible for a delivery attempt.
func (e *WebhookEvent) Due(now int64) bool {
	return e.Status == StatusPending && e.NextRetryAt <= now
}
