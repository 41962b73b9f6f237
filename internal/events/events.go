package events

import (
	"context"
	"encoding/json"
)

// Subjects published by the chain-event listener. The webhook worker
// subscribes to chain.> and fans each occurrence out to integration clients.
const (
	TopicNFTMinted         = "chain.nft.minted"
	TopicNFTTransferred    = "chain.nft.transferred"
	TopicCollectionCreated = "chain.collection.created"
)

// Occurrence is the bus envelope for a single platform event. Data is kept
// raw; the enqueuer stores it verbatim as the webhook payload.
type Occurrence struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Publisher emits occurrences onto the bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, occurrence any) error
	Close() error
}

// Subscriber receives occurrences from the bus.
type Subscriber interface {
	// Subscribe delivers raw occurrence payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
