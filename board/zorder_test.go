package board

import (
	"reflect"
	"testing"
)

// stack builds a document with elements ordered topmost-first: a, b, c.
func stack(t *testing.T) (*DocStore, *History) {
	t.Helper()
	doc := NewDocStore()
	h := NewHistory()
	for _, id := range []string{"c", "b", "a"} {
		h.Execute(NewAddElement(doc, testElement(id, 0, 0, 100, 100)))
	}
	return doc, h
}

func TestZOrderOps(t *testing.T) {
	tests := []struct {
		name string
		id   string
		op   ZOrderOp
		want []string
	}{
		{"raise moves toward top", "b", Raise, []string{"b", "a", "c"}},
		{"raise at top is a no-op", "a", Raise, []string{"a", "b", "c"}},
		{"lower moves toward back", "b", Lower, []string{"a", "c", "b"}},
		{"lower at back is a no-op", "c", Lower, []string{"a", "b", "c"}},
		{"to front", "c", ToFront, []string{"c", "a", "b"}},
		{"to back", "a", ToBack, []string{"b", "c", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, h := stack(t)
			h.Execute(NewZOrder(doc, tt.id, tt.op))
			if got := ids(doc.Get().Elements); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			h.Undo()
			if got := ids(doc.Get().Elements); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
				t.Fatalf("after undo: %v, want [a b c]", got)
			}
		})
	}
}

func TestZOrderMissingElementIsNoOp(t *testing.T) {
	doc, h := stack(t)
	before := doc.Get().Clone()
	h.Execute(NewZOrder(doc, "ghost", ToFront))
	if !reflect.DeepEqual(doc.Get(), before) {
		t.Fatal("z-order on missing element mutated the document")
	}
}
