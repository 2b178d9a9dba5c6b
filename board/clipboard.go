package board

import "sync"

// Clipboard is the single-slot internal copy buffer. It keeps everything
// except the element's identity, so a paste can mint a fresh id while
// preserving slice metadata and rotation that a round-trip through the
// system clipboard would lose.
//
// The internal-copy flag tracks whether the buffered content is also what
// sits on the system clipboard. Consumers prefer this buffer over decoding
// a system-clipboard image when the flag is set.
type Clipboard struct {
	mu       sync.Mutex
	content  *Element
	internal bool
}

// NewClipboard creates an empty clipboard.
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// Copy stores the element with its id stripped and clears the internal-copy
// flag — a fresh copy is not known to match the system clipboard until the
// caller marks it.
func (c *Clipboard) Copy(el Element) {
	snap := el.Clone()
	snap.ID = ""
	c.mu.Lock()
	c.content = &snap
	c.internal = false
	c.mu.Unlock()
}

// MarkInternal records that the buffered content was successfully written to
// the system clipboard as well. No-op on an empty buffer.
func (c *Clipboard) MarkInternal() {
	c.mu.Lock()
	if c.content != nil {
		c.internal = true
	}
	c.mu.Unlock()
}

// IsInternal reports whether the system clipboard should be treated as
// redundant with this buffer.
func (c *Clipboard) IsInternal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.internal
}

// Paste returns a copy of the buffered content, or nil when empty. The
// buffer is kept, so repeated pastes work.
func (c *Clipboard) Paste() *Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.content == nil {
		return nil
	}
	out := c.content.Clone()
	return &out
}

// Clear empties the buffer and resets the internal-copy flag.
func (c *Clipboard) Clear() {
	c.mu.Lock()
	c.content = nil
	c.internal = false
	c.mu.Unlock()
}
