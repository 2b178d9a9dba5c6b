package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vibrantwave/wv/board"
)

// Resolution is the outcome of startup session resolution.
type Resolution struct {
	SessionID string
	State     board.State
	// Restored is true when the state came from storage rather than a fresh
	// document.
	Restored bool
}

// Resolve decides which session a starting editor works in:
//
//  1. An explicitly requested id (shared or bookmarked link) is
//     authoritative: load it if stored, otherwise adopt it anyway and
//     persist an empty document under it.
//  2. No requested id: probe the bus. Another live editor means its session
//     stays untouched and this editor gets a fresh one. A nil bus means
//     other editors cannot be detected at all, which also forces a fresh
//     session.
//  3. Alone: adopt the most recently updated stored session, document and
//     id both. Nothing stored, or storage unreadable: fresh session, empty
//     document. A storage failure is logged but never blocks startup.
func Resolve(ctx context.Context, bus Bus, store *Store, requested string, probeWindow time.Duration, log *slog.Logger) Resolution {
	if log == nil {
		log = slog.Default()
	}

	if requested != "" {
		rec, err := store.Load(ctx, requested)
		if err == nil {
			log.Info("restored requested session", "session_id", requested, "elements", len(rec.State.Elements))
			return Resolution{SessionID: requested, State: rec.State, Restored: true}
		}
		if !errors.Is(err, ErrNotFound) {
			log.Warn("requested session unreadable, adopting id with empty document", "session_id", requested, "error", err)
		}
		return fresh(ctx, store, requested, log)
	}

	if bus == nil {
		return fresh(ctx, store, NewID(), log)
	}
	if Probe(ctx, bus, probeWindow) {
		id := NewID()
		log.Info("another editor is live, starting fresh session", "session_id", id)
		return fresh(ctx, store, id, log)
	}

	rec, err := store.Last(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn("session restore failed, starting fresh", "error", err)
		}
		return fresh(ctx, store, NewID(), log)
	}

	log.Info("restored session", "session_id", rec.SessionID, "elements", len(rec.State.Elements))
	return Resolution{SessionID: rec.SessionID, State: rec.State, Restored: true}
}

// fresh persists an empty document under id so the session is addressable
// immediately. A failed write is logged; the in-memory document is still the
// source of truth.
func fresh(ctx context.Context, store *Store, id string, log *slog.Logger) Resolution {
	st := board.NewState()
	if err := store.Save(ctx, id, st); err != nil {
		log.Warn("persist fresh session failed", "session_id", id, "error", err)
	}
	return Resolution{SessionID: id, State: st}
}
