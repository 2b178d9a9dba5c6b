package board

// Geometry is the transformable subset of an element.
type Geometry struct {
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Rotation float64
}

// TransformElement applies a geometry change with old/new snapshots captured
// at gesture end — continuous drags produce one command, not one per frame.
// New width/height are clamped to MinElementSize.
type TransformElement struct {
	doc       *DocStore
	elementID string
	oldGeom   Geometry
	newGeom   Geometry
}

// NewTransformElement creates the command.
func NewTransformElement(doc *DocStore, elementID string, oldGeom, newGeom Geometry) *TransformElement {
	if newGeom.Width < MinElementSize {
		newGeom.Width = MinElementSize
	}
	if newGeom.Height < MinElementSize {
		newGeom.Height = MinElementSize
	}
	return &TransformElement{doc: doc, elementID: elementID, oldGeom: oldGeom, newGeom: newGeom}
}

func (c *TransformElement) Execute() { c.setGeometry(c.newGeom) }
func (c *TransformElement) Undo()    { c.setGeometry(c.oldGeom) }

func (c *TransformElement) setGeometry(g Geometry) {
	c.doc.Update(func(st State) State {
		idx := st.Find(c.elementID)
		if idx == -1 {
			return st
		}
		els := make([]Element, len(st.Elements))
		copy(els, st.Elements)
		el := els[idx]
		el.X, el.Y, el.Width, el.Height, el.Rotation = g.X, g.Y, g.Width, g.Height, g.Rotation
		els[idx] = el
		st.Elements = els
		return st
	})
}
