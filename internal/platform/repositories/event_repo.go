package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"minthook/internal/platform/models"
)

// EventRepository is the event record store. All state transitions are
// single-row conditional updates: a row is only mutated if it is still in the
// expected prior state, which keeps concurrent or resumed processing passes
// safe without a global lock.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(event *models.WebhookEvent) error {
	event.ID = "evt_" + uuid.New().String()
	event.Status = models.StatusPending
	event.Attempts = 0
	now := time.Now().Unix()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.NextRetryAt == 0 {
		event.NextRetryAt = now
	}

	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO webhook_events (id, client_id, event, payload, status, attempts, next_retry_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, event.ID, event.ClientID, event.Event, string(payloadJSON),
		string(event.Status), event.Attempts, event.NextRetryAt, event.CreatedAt, event.UpdatedAt)
	return err
}

func (r *EventRepository) GetByID(id string) (*models.WebhookEvent, error) {
	query := `SELECT id, client_id, event, payload, status, attempts, last_error, next_retry_at, created_at, updated_at FROM webhook_events WHERE id = ?`
	row := r.db.QueryRow(query, id)

	event, err := scanEvent(row)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// SelectDue returns up to limit pending events whose retry time has passed,
// oldest first so a growing backlog cannot starve older events.
func (r *EventRepository) SelectDue(now int64, limit int) ([]*models.WebhookEvent, error) {
	query := `
		SELECT id, client_id, event, payload, status, attempts, last_error, next_retry_at, created_at, updated_at
		FROM webhook_events
		WHERE status = 'pending' AND next_retry_at <= ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	rows, err := r.db.Query(query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.WebhookEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *EventRepository) List(status, clientID string, limit int) ([]*models.WebhookEvent, error) {
	query := `SELECT id, client_id, event, payload, status, attempts, last_error, next_retry_at, created_at, updated_at FROM webhook_events WHERE 1=1`
	args := []interface{}{}

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.WebhookEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// MarkSent transitions pending -> sent. A row that is no longer pending is
// left untouched; sent events are immutable.
func (r *EventRepository) MarkSent(id string, now int64) error {
	_, err := r.db.Exec(`UPDATE webhook_events SET status = 'sent', updated_at = ? WHERE id = ? AND status = 'pending'`,
		now, id)
	return err
}

// ScheduleRetry records a failed attempt and pushes the next retry out to
// nextRetryAt. The event stays pending.
func (r *EventRepository) ScheduleRetry(id string, attempts int, lastError string, nextRetryAt, now int64) error {
	_, err := r.db.Exec(`
		UPDATE webhook_events
		SET attempts = ?, last_error = ?, next_retry_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, attempts, lastError, nextRetryAt, now, id)
	return err
}

// MarkFailed dead-letters the event: pending -> failed, terminal.
func (r *EventRepository) MarkFailed(id string, attempts int, lastError string, now int64) error {
	_, err := r.db.Exec(`
		UPDATE webhook_events
		SET status = 'failed', attempts = ?, last_error = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, attempts, lastError, now, id)
	return err
}

// Replay re-queues a dead-lettered event for delivery. Only failed events can
// be replayed; the returned bool reports whether a row actually transitioned.
func (r *EventRepository) Replay(id string, now int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE webhook_events
		SET status = 'pending', attempts = 0, last_error = NULL, next_retry_at = ?, updated_at = ?
		WHERE id = ? AND status = 'failed'
	`, now, now, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.WebhookEvent, error) {
	var e models.WebhookEvent
	var status string
	var payloadStr string
	var lastError sql.NullString

	err := row.Scan(&e.ID, &e.ClientID, &e.Event, &payloadStr, &status, &e.Attempts,
		&lastError, &e.NextRetryAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	e.Status = models.EventStatus(status)
	if lastError.Valid {
		e.LastError = lastError.String
	}
	json.Unmarshal([]byte(payloadStr), &e.Payload)

	return &e, nil
}
