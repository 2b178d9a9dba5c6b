package board

// Patch is a partial-field update for an element. Nil fields are left alone.
type Patch struct {
	Name     *string
	Src      *string
	Visible  *bool
	Locked   *bool
	X        *float64
	Y        *float64
	Width    *float64
	Height   *float64
	Rotation *float64
}

func (p Patch) apply(el Element) Element {
	if p.Name != nil {
		el.Name = *p.Name
	}
	if p.Src != nil {
		el.Src = *p.Src
	}
	if p.Visible != nil {
		el.Visible = *p.Visible
	}
	if p.Locked != nil {
		el.Locked = *p.Locked
	}
	if p.X != nil {
		el.X = *p.X
	}
	if p.Y != nil {
		el.Y = *p.Y
	}
	if p.Width != nil {
		el.Width = *p.Width
	}
	if p.Height != nil {
		el.Height = *p.Height
	}
	if p.Rotation != nil {
		el.Rotation = *p.Rotation
	}
	return el
}

// UpdateElement applies a partial patch to one element. The caller supplies
// both the old and new values for the touched fields, the same way gesture
// handlers capture the pre-state when the interaction starts.
type UpdateElement struct {
	doc       *DocStore
	elementID string
	oldProps  Patch
	newProps  Patch
}

// NewUpdateElement creates the command.
func NewUpdateElement(doc *DocStore, elementID string, oldProps, newProps Patch) *UpdateElement {
	return &UpdateElement{doc: doc, elementID: elementID, oldProps: oldProps, newProps: newProps}
}

func (c *UpdateElement) Execute() { c.applyProps(c.newProps) }
func (c *UpdateElement) Undo()    { c.applyProps(c.oldProps) }

func (c *UpdateElement) applyProps(p Patch) {
	c.doc.Update(func(st State) State {
		idx := st.Find(c.elementID)
		if idx == -1 {
			return st
		}
		els := make([]Element, len(st.Elements))
		copy(els, st.Elements)
		els[idx] = p.apply(els[idx])
		st.Elements = els
		return st
	})
}
