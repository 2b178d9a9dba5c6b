package board

import (
	"fmt"
	"math"
)

// SliceElement partitions one image element into cols×rows siblings that
// tile the original, each cropping the same source image. The original is
// replaced by the slices; Undo removes them and restores the snapshot.
type SliceElement struct {
	doc       *DocStore
	elementID string
	cols      int
	rows      int
	thickness float64 // grid line thickness in canvas-space pixels

	original *Element
	sliced   []Element
}

// NewSliceElement creates the command. cols and rows below 1 are clamped.
func NewSliceElement(doc *DocStore, elementID string, cols, rows int, thickness float64) *SliceElement {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &SliceElement{doc: doc, elementID: elementID, cols: cols, rows: rows, thickness: thickness}
}

func (c *SliceElement) Execute() {
	c.doc.Update(func(st State) State {
		idx := st.Find(c.elementID)
		if idx == -1 || st.Elements[idx].Type != TypeImage {
			return st
		}
		el := st.Elements[idx]
		snap := el.Clone()
		c.original = &snap

		// Slice geometry lives in original-image pixel space; fall back to
		// the canvas size when the source resolution is unknown.
		ow := el.OriginalWidth
		oh := el.OriginalHeight
		if ow == 0 {
			ow = el.Width
		}
		if oh == 0 {
			oh = el.Height
		}

		cellW := ow / float64(c.cols)
		cellH := oh / float64(c.rows)
		scaleX := el.Width / ow
		scaleY := el.Height / oh

		// Convert line thickness to original space against the thinner scale
		// dimension so neither axis under-compensates.
		thickness := c.thickness / math.Min(scaleX, scaleY)

		name := el.Name
		if name == "" {
			name = "Element"
		}

		c.sliced = c.sliced[:0]
		for row := 0; row < c.rows; row++ {
			for col := 0; col < c.cols; col++ {
				// Inset each cell by half the line thickness per side so
				// adjacent slices don't overlap the grid line.
				sx := float64(col)*cellW + thickness/2
				sy := float64(row)*cellH + thickness/2
				sw := cellW - thickness
				sh := cellH - thickness
				// Thickness at or beyond the cell size would produce an
				// empty crop; floor at one source pixel.
				if sw < 1 {
					sw = 1
				}
				if sh < 1 {
					sh = 1
				}

				slice := Element{
					ID:             fmt.Sprintf("%s_slice_%d_%d", el.ID, row, col),
					Type:           TypeImage,
					Src:            el.Src,
					Name:           fmt.Sprintf("%s_%d_%d", name, row+1, col+1),
					X:              round2(el.X + sx*scaleX),
					Y:              round2(el.Y + sy*scaleY),
					Width:          round2(sw * scaleX),
					Height:         round2(sh * scaleY),
					Rotation:       el.Rotation,
					OriginalWidth:  el.OriginalWidth,
					OriginalHeight: el.OriginalHeight,
					SliceX:         ptr(math.Round(sx)),
					SliceY:         ptr(math.Round(sy)),
					SliceWidth:     ptr(math.Round(sw)),
					SliceHeight:    ptr(math.Round(sh)),
					Visible:        el.Visible,
					Locked:         el.Locked,
				}
				c.sliced = append(c.sliced, slice)
			}
		}

		rest := removeByID(st.Elements, c.elementID)
		els := make([]Element, 0, len(c.sliced)+len(rest))
		for _, s := range c.sliced {
			els = append(els, s.Clone())
		}
		els = append(els, rest...)
		st.Elements = els
		return st
	})
}

func (c *SliceElement) Undo() {
	if c.original == nil {
		return
	}
	c.doc.Update(func(st State) State {
		els := st.Elements
		for _, s := range c.sliced {
			els = removeByID(els, s.ID)
		}
		st.Elements = append([]Element{c.original.Clone()}, els...)
		return st
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 { return &v }
