package board

import (
	"sync"

	"github.com/vibrantwave/wv/store"
)

// Command is a reversible, self-contained document mutation. Execute applies
// it against the live document; Undo restores the pre-mutation state.
// Commands on missing or unsuitable targets are defensive no-ops.
type Command interface {
	Execute()
	Undo()
}

// HistoryState is what History publishes to subscribers after every change.
type HistoryState struct {
	CanUndo bool
	CanRedo bool
}

// History is the undo/redo stack pair for one editing session. Stacks are
// unbounded and are reset wholesale when a new document replaces the current
// one (session switch, file import), since captured ids and snapshots no
// longer apply.
type History struct {
	mu    sync.Mutex
	undo  []Command
	redo  []Command
	state *store.Store[HistoryState]
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{state: store.New(HistoryState{})}
}

// Execute runs cmd, pushes it on the undo stack, and clears the redo stack.
func (h *History) Execute(cmd Command) {
	cmd.Execute()
	h.mu.Lock()
	h.undo = append(h.undo, cmd)
	h.redo = nil
	h.mu.Unlock()
	h.publish()
}

// Undo reverts the most recent command. No-op when nothing is undoable.
func (h *History) Undo() {
	h.mu.Lock()
	if len(h.undo) == 0 {
		h.mu.Unlock()
		return
	}
	cmd := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.mu.Unlock()

	cmd.Undo()

	h.mu.Lock()
	h.redo = append(h.redo, cmd)
	h.mu.Unlock()
	h.publish()
}

// Redo re-applies the most recently undone command. No-op when the redo
// stack is empty.
func (h *History) Redo() {
	h.mu.Lock()
	if len(h.redo) == 0 {
		h.mu.Unlock()
		return
	}
	cmd := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.mu.Unlock()

	cmd.Execute()

	h.mu.Lock()
	h.undo = append(h.undo, cmd)
	h.mu.Unlock()
	h.publish()
}

// CanUndo reports whether the undo stack is non-empty.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Reset clears both stacks without touching the document.
func (h *History) Reset() {
	h.mu.Lock()
	h.undo = nil
	h.redo = nil
	h.mu.Unlock()
	h.publish()
}

// Subscribe registers fn to run whenever undo/redo availability changes.
func (h *History) Subscribe(fn func(HistoryState)) func() {
	return h.state.Subscribe(fn)
}

func (h *History) publish() {
	h.state.Set(HistoryState{CanUndo: h.CanUndo(), CanRedo: h.CanRedo()})
}
