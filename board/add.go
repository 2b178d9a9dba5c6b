package board

// AddElement inserts an element at the top of the document.
type AddElement struct {
	doc     *DocStore
	element Element
}

// NewAddElement creates the command. The element keeps the id it was given;
// callers mint one with NewElementID.
func NewAddElement(doc *DocStore, el Element) *AddElement {
	return &AddElement{doc: doc, element: el.Clone()}
}

func (c *AddElement) Execute() {
	c.doc.Update(func(st State) State {
		st.Elements = append([]Element{c.element.Clone()}, st.Elements...)
		return st
	})
}

func (c *AddElement) Undo() {
	c.doc.Update(func(st State) State {
		st.Elements = removeByID(st.Elements, c.element.ID)
		return st
	})
}

func removeByID(els []Element, id string) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		if el.ID != id {
			out = append(out, el)
		}
	}
	return out
}
