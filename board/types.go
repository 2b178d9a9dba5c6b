// Package board implements the editable board document: elements, settings,
// reversible commands, and the undo/redo history that executes them.
//
// All mutation goes through commands executed by a History. The document
// itself lives in a store.Store[State]; commands read the live state right
// before mutating, so undo stays exact even when the current document has
// been touched by other commands in between.
package board

import (
	"fmt"
	"time"

	"github.com/vibrantwave/wv/idgen"
	"github.com/vibrantwave/wv/store"
)

// MinElementSize is the floor for element width/height on the canvas.
const MinElementSize = 20.0

// TypeImage is the only element kind the current data model carries.
const TypeImage = "image"

// Element is a positioned visual unit on the canvas.
//
// Geometry (X, Y, Width, Height, Rotation) is in document space. The slice
// fields, when present, describe a crop rectangle in the original image's
// pixel space; they are present together or absent together.
type Element struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Src  string `json:"src,omitempty"`
	Name string `json:"name,omitempty"`

	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"`

	// Source pixel dimensions, distinct from on-canvas size. Zero means the
	// displayed size is the only known resolution.
	OriginalWidth  float64 `json:"originalWidth,omitempty"`
	OriginalHeight float64 `json:"originalHeight,omitempty"`

	SliceX      *float64 `json:"sliceX,omitempty"`
	SliceY      *float64 `json:"sliceY,omitempty"`
	SliceWidth  *float64 `json:"sliceWidth,omitempty"`
	SliceHeight *float64 `json:"sliceHeight,omitempty"`

	Visible bool `json:"visible"`
	// Locked is a vestigial no-op retained for board.json compatibility.
	Locked bool `json:"locked"`
}

// IsSlice reports whether the element is a crop of its source image.
func (e *Element) IsSlice() bool {
	return e.SliceX != nil && e.SliceY != nil && e.SliceWidth != nil && e.SliceHeight != nil
}

// Clone returns a deep copy of the element.
func (e Element) Clone() Element {
	c := e
	c.SliceX = clonePtr(e.SliceX)
	c.SliceY = clonePtr(e.SliceY)
	c.SliceWidth = clonePtr(e.SliceWidth)
	c.SliceHeight = clonePtr(e.SliceHeight)
	return c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Settings holds the per-document generation and canvas settings.
type Settings struct {
	AspectRatio         string  `json:"aspectRatio"`
	GridEnabled         bool    `json:"gridEnabled"`
	GridCols            int     `json:"gridCols"`
	GridRows            int     `json:"gridRows"`
	GridThickness       float64 `json:"gridThickness"`
	GridColor           string  `json:"gridColor"`
	BackgroundColor     string  `json:"backgroundColor"`
	GenerationFillColor string  `json:"generationFillColor"`
}

// DefaultSettings returns the settings of a fresh document.
func DefaultSettings() Settings {
	return Settings{
		AspectRatio:         "1:1",
		GridEnabled:         false,
		GridCols:            2,
		GridRows:            2,
		GridThickness:       1,
		GridColor:           "#d1d5db",
		BackgroundColor:     "#f5f5f5",
		GenerationFillColor: "#ffffff",
	}
}

// State is the editable unit: an ordered element list plus settings.
//
// Element order encodes z-order: index 0 is topmost, everywhere — insertion
// prepends, Raise moves toward index 0, and renderers paint back-to-front by
// iterating from the end of the slice.
type State struct {
	Elements []Element `json:"elements"`
	Settings Settings  `json:"settings"`
}

// NewState returns an empty document with default settings.
func NewState() State {
	return State{Elements: []Element{}, Settings: DefaultSettings()}
}

// Clone returns a deep copy of the document state.
func (s State) Clone() State {
	c := s
	c.Elements = make([]Element, len(s.Elements))
	for i, el := range s.Elements {
		c.Elements[i] = el.Clone()
	}
	return c
}

// Find returns the index of the element with the given id, or -1.
func (s State) Find(id string) int {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// DocStore is the observable store holding the current document.
type DocStore = store.Store[State]

// NewDocStore creates a document store seeded with an empty document.
func NewDocStore() *DocStore {
	return store.New(NewState())
}

var elementSuffix = idgen.NanoID(4)

// NewElementID mints an element id. Ids are opaque and never reused; the
// timestamp component keeps them unique across a session, the random suffix
// across same-millisecond insertions.
func NewElementID() string {
	return fmt.Sprintf("el_%d_%s", time.Now().UnixMilli(), elementSuffix())
}
