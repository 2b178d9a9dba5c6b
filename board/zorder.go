package board

// ZOrderOp names a stacking move. Index 0 is topmost: Raise moves toward
// index 0, Lower away from it, ToFront to index 0, ToBack to the end.
type ZOrderOp string

const (
	Raise   ZOrderOp = "raise"
	Lower   ZOrderOp = "lower"
	ToFront ZOrderOp = "toFront"
	ToBack  ZOrderOp = "toBack"
)

// ZOrder moves an element within the stacking order.
type ZOrder struct {
	doc       *DocStore
	elementID string
	op        ZOrderOp

	originalIndex int
}

// NewZOrder creates the command.
func NewZOrder(doc *DocStore, elementID string, op ZOrderOp) *ZOrder {
	return &ZOrder{doc: doc, elementID: elementID, op: op, originalIndex: -1}
}

func (c *ZOrder) Execute() {
	c.doc.Update(func(st State) State {
		idx := st.Find(c.elementID)
		if idx == -1 {
			return st
		}
		c.originalIndex = idx

		els := make([]Element, len(st.Elements))
		copy(els, st.Elements)
		item := els[idx]
		els = append(els[:idx], els[idx+1:]...)

		target := idx
		switch c.op {
		case Raise:
			if idx > 0 {
				target = idx - 1
			}
		case Lower:
			if idx < len(els) {
				target = idx + 1
			}
		case ToFront:
			target = 0
		case ToBack:
			target = len(els)
		}
		if target > len(els) {
			target = len(els)
		}

		els = append(els[:target], append([]Element{item}, els[target:]...)...)
		st.Elements = els
		return st
	})
}

func (c *ZOrder) Undo() {
	if c.originalIndex == -1 {
		return
	}
	c.doc.Update(func(st State) State {
		idx := st.Find(c.elementID)
		if idx == -1 {
			return st
		}
		els := make([]Element, len(st.Elements))
		copy(els, st.Elements)
		item := els[idx]
		els = append(els[:idx], els[idx+1:]...)

		target := c.originalIndex
		if target > len(els) {
			target = len(els)
		}
		els = append(els[:target], append([]Element{item}, els[target:]...)...)
		st.Elements = els
		return st
	})
}
