package board

import (
	"fmt"
	"math"
	"reflect"
	"testing"
)

func TestSliceProducesColsTimesRows(t *testing.T) {
	doc := NewDocStore()
	h := NewHistory()
	h.Execute(NewAddElement(doc, testElement("img", 10, 20, 300, 200)))

	h.Execute(NewSliceElement(doc, "img", 3, 2, 0))

	st := doc.Get()
	if len(st.Elements) != 6 {
		t.Fatalf("got %d elements, want 6", len(st.Elements))
	}
	if st.Find("img") != -1 {
		t.Fatal("original element still present after slice")
	}
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			id := fmt.Sprintf("img_slice_%d_%d", row, col)
			if st.Find(id) == -1 {
				t.Errorf("missing slice %s", id)
			}
		}
	}
}

func TestSliceTilesReconstructOriginalBounds(t *testing.T) {
	// WHAT: With zero line thickness the slices tile the original's
	// bounding box edge to edge.
	// WHY: The partition must reproduce the original when rendered.
	doc := NewDocStore()
	h := NewHistory()
	h.Execute(NewAddElement(doc, testElement("img", 10, 20, 100, 100)))
	h.Execute(NewSliceElement(doc, "img", 2, 1, 0))

	st := doc.Get()
	var minX, minY, maxX, maxY float64 = math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
	for _, el := range st.Elements {
		minX = math.Min(minX, el.X)
		minY = math.Min(minY, el.Y)
		maxX = math.Max(maxX, el.X+el.Width)
		maxY = math.Max(maxY, el.Y+el.Height)
	}
	if minX != 10 || minY != 20 || maxX != 110 || maxY != 120 {
		t.Fatalf("tiled bounds (%v,%v)-(%v,%v), want (10,20)-(110,120)", minX, minY, maxX, maxY)
	}
}

func TestSliceAccountsForGridThickness(t *testing.T) {
	// Element drawn at half scale: 400×400 source on a 200×200 canvas rect.
	// A 2px canvas line is 4px in source space; each cell is inset 2px per side.
	doc := NewDocStore()
	el := testElement("img", 0, 0, 200, 200)
	el.OriginalWidth, el.OriginalHeight = 400, 400
	h := NewHistory()
	h.Execute(NewAddElement(doc, el))
	h.Execute(NewSliceElement(doc, "img", 2, 2, 2))

	st := doc.Get()
	idx := st.Find("img_slice_0_0")
	if idx == -1 {
		t.Fatal("missing img_slice_0_0")
	}
	s := st.Elements[idx]
	if *s.SliceX != 2 || *s.SliceY != 2 {
		t.Errorf("slice origin (%v,%v), want (2,2)", *s.SliceX, *s.SliceY)
	}
	if *s.SliceWidth != 196 || *s.SliceHeight != 196 {
		t.Errorf("slice size %vx%v, want 196x196", *s.SliceWidth, *s.SliceHeight)
	}
	if s.X != 1 || s.Y != 1 {
		t.Errorf("canvas origin (%v,%v), want (1,1)", s.X, s.Y)
	}
	if s.Width != 98 || s.Height != 98 {
		t.Errorf("canvas size %vx%v, want 98x98", s.Width, s.Height)
	}
	if !s.IsSlice() {
		t.Error("IsSlice() = false for generated slice")
	}
}

func TestSliceDegenerateThicknessClampsToOnePixel(t *testing.T) {
	// WHAT: Line thickness at or beyond the cell size floors the crop at
	// one source pixel instead of going non-positive.
	doc := NewDocStore()
	h := NewHistory()
	h.Execute(NewAddElement(doc, testElement("img", 0, 0, 100, 100)))
	h.Execute(NewSliceElement(doc, "img", 10, 10, 50))

	for _, el := range doc.Get().Elements {
		if *el.SliceWidth < 1 || *el.SliceHeight < 1 {
			t.Fatalf("degenerate slice rect %vx%v in %s", *el.SliceWidth, *el.SliceHeight, el.ID)
		}
		if el.Width <= 0 || el.Height <= 0 {
			t.Fatalf("non-positive canvas rect in %s", el.ID)
		}
	}
}

func TestSliceUndoRestoresOriginal(t *testing.T) {
	doc := NewDocStore()
	h := NewHistory()
	el := testElement("img", 5, 5, 80, 60)
	h.Execute(NewAddElement(doc, el))
	h.Execute(NewAddElement(doc, testElement("other", 0, 0, 100, 100)))
	before := doc.Get().Clone()

	h.Execute(NewSliceElement(doc, "img", 2, 2, 1))
	h.Undo()

	st := doc.Get()
	if len(st.Elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(st.Elements))
	}
	idx := st.Find("img")
	if idx != 0 {
		t.Fatalf("restored original at index %d, want 0 (topmost)", idx)
	}
	if !reflect.DeepEqual(st.Elements[idx], before.Elements[before.Find("img")]) {
		t.Fatalf("restored element differs: %+v", st.Elements[idx])
	}
}

func TestSliceNonImageOrMissingTargetIsNoOp(t *testing.T) {
	doc := NewDocStore()
	h := NewHistory()
	h.Execute(NewAddElement(doc, testElement("e1", 0, 0, 100, 100)))
	before := doc.Get().Clone()

	h.Execute(NewSliceElement(doc, "ghost", 2, 2, 1))
	if !reflect.DeepEqual(doc.Get(), before) {
		t.Fatal("slicing a missing element mutated the document")
	}
}

func TestSliceFallsBackToCanvasDimensions(t *testing.T) {
	// Element with unknown source resolution: canvas size doubles as the
	// original size, so scale is 1 and slice rects equal canvas rects.
	doc := NewDocStore()
	el := testElement("img", 0, 0, 100, 50)
	el.OriginalWidth, el.OriginalHeight = 0, 0
	h := NewHistory()
	h.Execute(NewAddElement(doc, el))
	h.Execute(NewSliceElement(doc, "img", 2, 1, 0))

	st := doc.Get()
	idx := st.Find("img_slice_0_1")
	if idx == -1 {
		t.Fatal("missing img_slice_0_1")
	}
	s := st.Elements[idx]
	if *s.SliceX != 50 || *s.SliceWidth != 50 || *s.SliceHeight != 50 {
		t.Fatalf("slice rect (%v,%v %vx%v)", *s.SliceX, *s.SliceY, *s.SliceWidth, *s.SliceHeight)
	}
	if s.X != 50 || s.Width != 50 || s.Height != 50 {
		t.Fatalf("canvas rect (%v,%v %vx%v)", s.X, s.Y, s.Width, s.Height)
	}
}
