package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestNATSSubscriber_ReceivesOccurrences(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe("chain.>")
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer cancel()

	occ := Occurrence{Event: TopicNFTMinted, Data: json.RawMessage(`{"tokenId":"42"}`)}
	if err := pub.Publish(context.Background(), TopicNFTMinted, occ); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	pub.conn.Flush()

	select {
	case raw := <-ch:
		var got Occurrence
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("unmarshaling received occurrence: %v", err)
		}
		if got.Event != TopicNFTMinted {
			t.Errorf("got event %q, want %q", got.Event, TopicNFTMinted)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for occurrence")
	}
}

func TestNATSSubscriber_Cancel(t *testing.T) {
	url := startTestNATS(t)

	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe("chain.>")
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	cancel()

	// Channel should be closed.
	_, ok := <-ch
	if ok {
		t.Fatal("expected channel to be closed after cancel")
	}
}

func TestListener_EndToEnd(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer sub.Close()

	enq := &mockEnqueuer{}
	listener := NewListener(sub, enq, "chain.>")

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- listener.Run(stop) }()

	// Give the subscription a moment to register before publishing.
	time.Sleep(50 * time.Millisecond)

	occ := Occurrence{Event: TopicNFTTransferred, Data: json.RawMessage(`{"tokenId":"7","to":"0xdef"}`)}
	if err := pub.Publish(context.Background(), TopicNFTTransferred, occ); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	pub.conn.Flush()

	deadline := time.After(2 * time.Second)
	for len(enq.enqueued()) == 0 {
		select {
		case <-deadline:
			t.Fatal("occurrence never reached the enqueuer")
		case <-time.After(10 * time.Millisecond):
		}
	}

	close(stop)
	<-done

	if calls := enq.enqueued(); calls[0] != TopicNFTTransferred {
		t.Errorf("Expected %s, got %s", TopicNFTTransferred, calls[0])
	}
}
