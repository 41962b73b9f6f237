package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"minthook/internal/platform/models"
)

// Envelope is the canonical wire format delivered to callback URLs. The
// serialized envelope is also the exact byte sequence that gets signed, so
// receivers can verify the signature over the raw request body.
type Envelope struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Version   string      `json:"version"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

const envelopeVersion = "v1"

// CanonicalPayload serializes an event into its signable form. Marshaling is
// deterministic: struct fields keep declaration order and Go sorts map keys.
func CanonicalPayload(event *models.WebhookEvent, timestamp int64) ([]byte, error) {
	return json.Marshal(Envelope{
		ID:        event.ID,
		Type:      event.Event,
		Version:   envelopeVersion,
		Timestamp: timestamp,
		Data:      event.Payload,
	})
}

// Sign computes the hex-encoded HMAC-SHA256 of payload under the client's
// callback secret.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
