package runtime_test

import (
	"sync"

	"lobby-chat/domain/chat"
)

// stubSink is an in-memory connection double recording everything the
// lobby core pushes at it.
type stubSink struct {
	mu         sync.Mutex
	id         chat.Identity
	events     []chat.Event
	terminated []chat.Event
	consumeErr error
	closed     int
}

func newStubSink(id chat.Identity) *stubSink {
	return &stubSink{id: id}
}

func (s *stubSink) Bind(id chat.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

func (s *stubSink) Identity() chat.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *stubSink) Consume(e chat.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumeErr != nil {
		return s.consumeErr
	}
	s.events = append(s.events, e)
	return nil
}

func (s *stubSink) Terminate(e chat.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminated = append(s.terminated, e)
}

func (s *stubSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func (s *stubSink) failConsume(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumeErr = err
}

func (s *stubSink) recorded() []chat.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *stubSink) terminations() []chat.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.Event, len(s.terminated))
	copy(out, s.terminated)
	return out
}

func (s *stubSink) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func eventTypes(events []chat.Event) []chat.EventType {
	types := make([]chat.EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}
