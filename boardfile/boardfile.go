// Package boardfile reads and writes .wv board files: a zip archive holding
// a board.json manifest plus the element images as separate PNG entries.
// Keeping the pixels out of the manifest keeps board.json diffable and the
// archive streamable.
package boardfile

import (
	"archive/zip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/vibrantwave/wv/board"
)

// Version is the manifest format version this codec writes.
const Version = "1.0"

const manifestName = "board.json"

// manifestElement is a board element as serialized in board.json: the inline
// data URL is replaced by a path into the archive.
type manifestElement struct {
	board.Element
	ImagePath string `json:"imagePath,omitempty"`
}

type manifest struct {
	Version  string            `json:"version"`
	Elements []manifestElement `json:"elements"`
	Settings *board.Settings   `json:"settings,omitempty"`
}

// Encode writes st as a .wv archive. Element images that are data URLs move
// into images/element_<i>.png entries; elements whose src is not a data URL
// (remote or unset) are kept without an image.
func Encode(w io.Writer, st board.State) error {
	zw := zip.NewWriter(w)

	m := manifest{Version: Version, Elements: make([]manifestElement, 0, len(st.Elements))}
	settings := st.Settings
	m.Settings = &settings

	for i, el := range st.Elements {
		me := manifestElement{Element: el.Clone()}
		me.Src = ""
		if payload, ok := dataURLPayload(el.Src); ok {
			raw, err := base64.StdEncoding.DecodeString(payload)
			if err != nil {
				return fmt.Errorf("boardfile: element %s: decode image: %w", el.ID, err)
			}
			name := fmt.Sprintf("images/element_%d.png", i)
			f, err := zw.Create(name)
			if err != nil {
				return fmt.Errorf("boardfile: create %s: %w", name, err)
			}
			if _, err := f.Write(raw); err != nil {
				return fmt.Errorf("boardfile: write %s: %w", name, err)
			}
			me.ImagePath = name
		}
		m.Elements = append(m.Elements, me)
	}

	mf, err := zw.Create(manifestName)
	if err != nil {
		return fmt.Errorf("boardfile: create manifest: %w", err)
	}
	enc := json.NewEncoder(mf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("boardfile: write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("boardfile: close archive: %w", err)
	}
	return nil
}

// Decode reads a .wv archive back into a board state. A missing manifest
// fails the whole decode; a missing image only drops its element, with a
// warning, so one bad entry cannot take the rest of the board down. Image
// lookup falls back to the base filename, tolerating archives re-zipped
// with a different folder layout.
func Decode(r io.ReaderAt, size int64, log *slog.Logger) (board.State, error) {
	if log == nil {
		log = slog.Default()
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return board.State{}, fmt.Errorf("boardfile: open archive: %w", err)
	}

	byName := make(map[string]*zip.File, len(zr.File))
	byBase := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
		byBase[path.Base(f.Name)] = f
	}

	mf, ok := byName[manifestName]
	if !ok {
		return board.State{}, fmt.Errorf("boardfile: missing %s", manifestName)
	}
	var m manifest
	if err := readJSON(mf, &m); err != nil {
		return board.State{}, err
	}

	st := board.State{Elements: make([]board.Element, 0, len(m.Elements))}
	if m.Settings != nil {
		st.Settings = *m.Settings
	} else {
		st.Settings = board.DefaultSettings()
	}

	for _, me := range m.Elements {
		el := me.Element.Clone()
		if me.ImagePath != "" {
			f := byName[me.ImagePath]
			if f == nil {
				f = byBase[path.Base(me.ImagePath)]
			}
			if f == nil {
				log.Warn("board file references missing image, dropping element",
					"element_id", el.ID, "image_path", me.ImagePath)
				continue
			}
			raw, err := readAll(f)
			if err != nil {
				return board.State{}, fmt.Errorf("boardfile: read %s: %w", me.ImagePath, err)
			}
			el.Src = "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
		}
		st.Elements = append(st.Elements, el)
	}
	return st, nil
}

// dataURLPayload extracts the base64 payload of a data URL.
func dataURLPayload(src string) (string, bool) {
	if !strings.HasPrefix(src, "data:") {
		return "", false
	}
	_, payload, ok := strings.Cut(src, ",")
	return payload, ok
}

func readJSON(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("boardfile: open %s: %w", f.Name, err)
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("boardfile: parse %s: %w", f.Name, err)
	}
	return nil
}

func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
