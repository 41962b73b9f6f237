package events

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Enqueuer is the fan-out side of the webhook engine.
type Enqueuer interface {
	Enqueue(eventType string, payload interface{}) (int, error)
}

// Listener consumes occurrences from the bus and queues webhook events for
// every active integration client. Malformed payloads are logged and skipped;
// the listener never stops on a bad message.
type Listener struct {
	sub      Subscriber
	enqueuer Enqueuer
	topic    string
}

func NewListener(sub Subscriber, enqueuer Enqueuer, topic string) *Listener {
	return &Listener{sub: sub, enqueuer: enqueuer, topic: topic}
}

// Run blocks consuming occurrences until stop is closed or the subscription
// channel closes.
func (l *Listener) Run(stop <-chan struct{}) error {
	ch, cancel, err := l.sub.Subscribe(l.topic)
	if err != nil {
		return err
	}
	defer cancel()

	log.Info().Str("topic", l.topic).Msg("occurrence listener started")

	for {
		select {
		case <-stop:
			return nil
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			l.handle(raw)
		}
	}
}

func (l *Listener) handle(raw []byte) {
	var occ Occurrence
	if err := json.Unmarshal(raw, &occ); err != nil {
		log.Error().Err(err).Msg("discarding malformed occurrence")
		return
	}
	if occ.Event == "" {
		log.Error().Msg("discarding occurrence without event type")
		return
	}

	queued, err := l.enqueuer.Enqueue(occ.Event, occ.Data)
	if err != nil {
		log.Error().Err(err).Str("event", occ.Event).Msg("failed to fan out occurrence")
		return
	}
	log.Debug().Str("event", occ.Event).Int("queued", queued).Msg("occurrence queued")
}
