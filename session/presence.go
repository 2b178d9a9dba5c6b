package session

import (
	"context"
	"sync"
	"time"

	"github.com/vibrantwave/wv/idgen"
)

const (
	// DefaultProbeWindow is how long a probe waits for another editor to
	// answer before concluding it is alone.
	DefaultProbeWindow = 500 * time.Millisecond
	// DefaultHeartbeatInterval is the beat period of a live session.
	DefaultHeartbeatInterval = 2500 * time.Millisecond
)

// Probe ids are one-shot throwaways that must never collide with a session
// id on the bus; UUIDv7 gives that without any scoping.
var newProbeID = idgen.Prefixed("probe_", idgen.UUIDv7())

// Probe broadcasts a ping under a throwaway id and reports whether any other
// live session answered within the window. Heartbeats that happen to arrive
// during the window count as answers too.
func Probe(ctx context.Context, bus Bus, window time.Duration) bool {
	if window <= 0 {
		window = DefaultProbeWindow
	}
	probeID := newProbeID()

	answered := make(chan struct{}, 1)
	unsub := bus.Subscribe(func(m Message) {
		if (m.Type == TypePong || m.Type == TypeHeartbeat) && m.SessionID != probeID {
			select {
			case answered <- struct{}{}:
			default:
			}
		}
	})
	defer unsub()

	bus.Publish(Message{Type: TypePing, SessionID: probeID})

	t := time.NewTimer(window)
	defer t.Stop()
	select {
	case <-answered:
		return true
	case <-t.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Heartbeat announces a live session on the bus: one beat immediately, then
// one per interval, plus a pong whenever some other editor pings. Stop
// announces the session as closed.
type Heartbeat struct {
	bus      Bus
	id       string
	interval time.Duration

	unsub    func()
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartHeartbeat begins beating for sessionID. interval <= 0 uses the
// default.
func StartHeartbeat(bus Bus, sessionID string, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	h := &Heartbeat{
		bus:      bus,
		id:       sessionID,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	h.unsub = bus.Subscribe(func(m Message) {
		if m.Type == TypePing && m.SessionID != h.id {
			bus.Publish(Message{Type: TypePong, SessionID: h.id})
		}
	})
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer close(h.done)

	h.bus.Publish(Message{Type: TypeHeartbeat, SessionID: h.id})

	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-t.C:
			h.bus.Publish(Message{Type: TypeHeartbeat, SessionID: h.id})
		}
	}
}

// Stop halts the beats, stops answering pings, and broadcasts session-closed.
// Safe to call more than once.
func (h *Heartbeat) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
		<-h.done
		h.unsub()
		h.bus.Publish(Message{Type: TypeSessionClosed, SessionID: h.id})
	})
}
