package session

import "sync"

// Message types exchanged between live editors.
const (
	TypePing          = "ping"
	TypePong          = "pong"
	TypeHeartbeat     = "heartbeat"
	TypeSessionClosed = "session-closed"
)

// Message is one presence-protocol broadcast.
type Message struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// Bus is a broadcast channel between editor instances. Delivery is
// best-effort and includes the publisher's own subscriptions; handlers
// filter by session id.
type Bus interface {
	Publish(Message)
	Subscribe(fn func(Message)) (unsubscribe func())
}

// LoopbackBus is an in-process Bus. Each subscriber gets its own delivery
// goroutine, so a handler may publish without deadlocking.
type LoopbackBus struct {
	mu   sync.Mutex
	subs map[int]chan Message
	next int
}

// NewLoopbackBus creates an empty bus.
func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{subs: make(map[int]chan Message)}
}

// Publish delivers m to every subscriber. Subscribers that have fallen far
// behind are skipped rather than blocking the publisher. The sends happen
// under the lock so an unsubscribe cannot close a channel mid-publish.
func (b *LoopbackBus) Publish(m Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- m:
		default:
		}
	}
}

// Subscribe registers fn and returns its unsubscribe function. Unsubscribing
// twice is safe.
func (b *LoopbackBus) Subscribe(fn func(Message)) func() {
	ch := make(chan Message, 64)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		for m := range ch {
			fn(m)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}
