package events

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// chanSubscriber feeds canned payloads to a Listener.
type chanSubscriber struct {
	ch chan []byte
}

func (s *chanSubscriber) Subscribe(topic string) (<-chan []byte, func(), error) {
	return s.ch, func() {}, nil
}

func (s *chanSubscriber) Close() error { return nil }

type mockEnqueuer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockEnqueuer) Enqueue(eventType string, payload interface{}) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, eventType)
	return 1, nil
}

func (m *mockEnqueuer) enqueued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func TestListener_EnqueuesOccurrences(t *testing.T) {
	sub := &chanSubscriber{ch: make(chan []byte, 4)}
	enq := &mockEnqueuer{}
	listener := NewListener(sub, enq, "chain.>")

	occ, _ := json.Marshal(Occurrence{Event: TopicNFTMinted, Data: json.RawMessage(`{"tokenId":"42"}`)})
	sub.ch <- occ
	sub.ch <- []byte("not json")                       // skipped
	sub.ch <- []byte(`{"data":{"tokenId":"7"}}`)       // missing event type, skipped
	close(sub.ch)

	done := make(chan error, 1)
	go func() { done <- listener.Run(nil) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after channel close")
	}

	calls := enq.enqueued()
	if len(calls) != 1 || calls[0] != TopicNFTMinted {
		t.Errorf("Expected one enqueue for %s, got %v", TopicNFTMinted, calls)
	}
}

func TestListener_EnqueueErrorDoesNotStop(t *testing.T) {
	sub := &chanSubscriber{ch: make(chan []byte, 2)}
	enq := &mockEnqueuer{err: errors.New("db down")}
	listener := NewListener(sub, enq, "chain.>")

	occ, _ := json.Marshal(Occurrence{Event: TopicNFTMinted})
	sub.ch <- occ
	sub.ch <- occ
	close(sub.ch)

	done := make(chan error, 1)
	go func() { done <- listener.Run(nil) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("listener stopped consuming after enqueue error")
	}
}

func TestListener_Stop(t *testing.T) {
	sub := &chanSubscriber{ch: make(chan []byte)}
	listener := NewListener(sub, &mockEnqueuer{}, "chain.>")

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- listener.Run(stop) }()

	close(stop)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("listener did not honor stop signal")
	}
}
