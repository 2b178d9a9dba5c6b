package board

// RemoveElement deletes an element by id. It snapshots the removed element
// and its index on Execute so Undo restores the exact ordering.
type RemoveElement struct {
	doc       *DocStore
	elementID string

	removed       *Element
	originalIndex int
}

// NewRemoveElement creates the command.
func NewRemoveElement(doc *DocStore, elementID string) *RemoveElement {
	return &RemoveElement{doc: doc, elementID: elementID, originalIndex: -1}
}

func (c *RemoveElement) Execute() {
	c.doc.Update(func(st State) State {
		idx := st.Find(c.elementID)
		if idx == -1 {
			return st
		}
		snap := st.Elements[idx].Clone()
		c.removed = &snap
		c.originalIndex = idx
		st.Elements = removeByID(st.Elements, c.elementID)
		return st
	})
}

func (c *RemoveElement) Undo() {
	if c.removed == nil || c.originalIndex == -1 {
		return
	}
	c.doc.Update(func(st State) State {
		els := make([]Element, 0, len(st.Elements)+1)
		idx := c.originalIndex
		if idx > len(st.Elements) {
			idx = len(st.Elements)
		}
		els = append(els, st.Elements[:idx]...)
		els = append(els, c.removed.Clone())
		els = append(els, st.Elements[idx:]...)
		st.Elements = els
		return st
	})
}
