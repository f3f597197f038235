package events

import (
	"context"
	"sync"
)

// MemoryBus fans events out in-process. It backs the event stream when the
// service runs without Redis and doubles as a recorder in tests.
type MemoryBus struct {
	mu        sync.Mutex
	subs      map[string]map[chan Event]struct{}
	published []Event
}

var _ Bus = (*MemoryBus)(nil)

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[chan Event]struct{})}
}

// Publish never blocks; a subscriber whose buffer is full misses the event.
func (m *MemoryBus) Publish(ctx context.Context, sessionID string, event Event) error {
	if event.GameID == "" {
		event.GameID = sessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	for ch := range m.subs[sessionID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MemoryBus) Subscribe(ctx context.Context, sessionID string) (<-chan Event, func(), error) {
	ch := make(chan Event, 16)
	m.mu.Lock()
	if m.subs[sessionID] == nil {
		m.subs[sessionID] = make(map[chan Event]struct{})
	}
	m.subs[sessionID][ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[sessionID], ch)
			if len(m.subs[sessionID]) == 0 {
				delete(m.subs, sessionID)
			}
			m.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

// Published returns a copy of every event seen, in order.
func (m *MemoryBus) Published() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.published...)
}

// Types lists the types of every published event, in order.
func (m *MemoryBus) Types() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]EventType, 0, len(m.published))
	for _, e := range m.published {
		types = append(types, e.Type)
	}
	return types
}
