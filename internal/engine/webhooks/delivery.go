package webhooks

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Outcome classifies a single delivery attempt.
type Outcome int

const (
	// Success means the endpoint acknowledged with a 2xx status.
	Success Outcome = iota

	// RetryableFailure covers network errors, timeouts, 429 and 5xx.
	RetryableFailure

	// FatalFailure covers the remaining HTTP error statuses. Current policy
	// still retries these up to the attempt ceiling; the distinction exists
	// so the processor could short-circuit them later without touching the
	// delivery client.
	FatalFailure
)

// Result is the outcome of one delivery attempt.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Err        string
}

func (r Result) OK() bool {
	return r.Outcome == Success
}

// Deliverer performs a single outbound HTTP POST per event. It holds no retry
// logic; retry orchestration belongs to the processor.
type Deliverer struct {
	client *http.Client
}

func NewDeliverer(timeout time.Duration) *Deliverer {
	return &Deliverer{
		client: &http.Client{Timeout: timeout},
	}
}

// Deliver posts the signed envelope to url. The signature travels in the
// X-Minthook-Signature header; the body is the exact byte sequence that was
// signed.
func (d *Deliverer) Deliver(url, signature string, body []byte, eventID, eventType string, timestamp int64) Result {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		// A URL the HTTP client cannot even parse will never succeed.
		return Result{Outcome: FatalFailure, Err: fmt.Sprintf("build request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Minthook/1.0")
	req.Header.Set("X-Minthook-Signature", signature)
	req.Header.Set("X-Minthook-Event", eventType)
	req.Header.Set("X-Minthook-Delivery", eventID)
	req.Header.Set("X-Minthook-Timestamp", strconv.FormatInt(timestamp, 10))

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{Outcome: RetryableFailure, Err: err.Error()}
	}
	defer resp.Body.Close()

	return classify(resp.StatusCode)
}

func classify(status int) Result {
	switch {
	case status >= 200 && status < 300:
		return Result{Outcome: Success, StatusCode: status}
	case status == http.StatusTooManyRequests || status >= 500:
		return Result{Outcome: RetryableFailure, StatusCode: status, Err: fmt.Sprintf("HTTP %d", status)}
	default:
		return Result{Outcome: FatalFailure, StatusCode: status, Err: fmt.Sprintf("HTTP %d", status)}
	}
}
