package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vibrantwave/wv/board"
)

// DefaultSaveDelay is the autosave debounce window.
const DefaultSaveDelay = 500 * time.Millisecond

// AutoSaver persists document changes after a quiet period. Rapid edits
// coalesce into one write. The session id and a snapshot of the state are
// captured when the save is scheduled, so a session switch between schedule
// and fire cannot write the new document under the old id, or vice versa.
type AutoSaver struct {
	store *Store
	delay time.Duration
	log   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	closed  bool
}

// NewAutoSaver creates an AutoSaver. delay <= 0 uses the default.
func NewAutoSaver(store *Store, delay time.Duration, log *slog.Logger) *AutoSaver {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &AutoSaver{store: store, delay: delay, log: log}
}

// Schedule queues a save of st under sessionID, replacing any save still
// pending. The state is deep-copied now; later mutations of st are not
// picked up.
func (a *AutoSaver) Schedule(sessionID string, st board.State) {
	snap := st.Clone()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.pending = func() { a.save(sessionID, snap) }
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *AutoSaver) fire() {
	a.mu.Lock()
	fn := a.pending
	a.pending = nil
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Flush runs the pending save now, if any.
func (a *AutoSaver) Flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	fn := a.pending
	a.pending = nil
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Close flushes the pending save and rejects further schedules.
func (a *AutoSaver) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.Flush()
}

// save runs outside the lock. Failures are logged, never surfaced: the
// editing flow must not stall on a bad disk.
func (a *AutoSaver) save(sessionID string, st board.State) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.Save(ctx, sessionID, st); err != nil {
		a.log.Warn("autosave failed", "session_id", sessionID, "error", err)
	}
}
