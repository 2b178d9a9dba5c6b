package boardfile

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/vibrantwave/wv/board"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func imageDataURL(raw []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	// WHAT: Encode then decode returns the same elements, image payloads
	// byte for byte, and the same settings.
	st := board.NewState()
	st.Settings.AspectRatio = "16:9"
	st.Settings.GridEnabled = true
	sx := 5.0
	st.Elements = []board.Element{
		{
			ID: "e1", Type: board.TypeImage, Name: "hero",
			Src: imageDataURL([]byte("first image bytes")),
			X:   10, Y: 20, Width: 100, Height: 80, Rotation: 15,
			OriginalWidth: 200, OriginalHeight: 160,
			SliceX: &sx, SliceY: &sx, SliceWidth: &sx, SliceHeight: &sx,
			Visible: true,
		},
		{
			ID: "e2", Type: board.TypeImage,
			Src:     imageDataURL([]byte("second image bytes")),
			Width:   50, Height: 50,
			Visible: true,
		},
		{
			ID: "e3", Type: board.TypeImage,
			Width: 30, Height: 30, Visible: true, // no src
		},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, st); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len()), quietLog())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, st) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, st)
	}
}

func TestEncodeLayout(t *testing.T) {
	// The archive holds board.json plus one PNG per image element, and the
	// manifest never inlines pixel data.
	st := board.NewState()
	st.Elements = []board.Element{
		{ID: "e1", Type: board.TypeImage, Src: imageDataURL([]byte("img")), Width: 10, Height: 10, Visible: true},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, st); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["board.json"] || !names["images/element_0.png"] {
		t.Fatalf("archive entries: %v", names)
	}

	mf, err := zr.Open("board.json")
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	defer mf.Close()
	raw, err := io.ReadAll(mf)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	manifest := string(raw)
	if strings.Contains(manifest, "base64") {
		t.Fatal("manifest inlines image data")
	}
	if !strings.Contains(manifest, `"version": "1.0"`) {
		t.Fatalf("manifest misses version: %s", manifest)
	}
	if !strings.Contains(manifest, `"imagePath": "images/element_0.png"`) {
		t.Fatalf("manifest misses imagePath: %s", manifest)
	}
}

func TestDecodeMissingManifestFails(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, _ := zw.Create("images/element_0.png")
	_, _ = f.Write([]byte("img"))
	_ = zw.Close()

	if _, err := Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len()), quietLog()); err == nil {
		t.Fatal("decode without board.json succeeded")
	}
}

func TestDecodeMissingImageDropsElementOnly(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	mf, _ := zw.Create("board.json")
	_, _ = mf.Write([]byte(`{
		"version": "1.0",
		"elements": [
			{"id": "kept", "type": "image", "width": 10, "height": 10, "visible": true, "imagePath": "images/element_0.png"},
			{"id": "dropped", "type": "image", "width": 10, "height": 10, "visible": true, "imagePath": "images/element_1.png"}
		]
	}`))
	img, _ := zw.Create("images/element_0.png")
	_, _ = img.Write([]byte("pixels"))
	_ = zw.Close()

	st, err := Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len()), quietLog())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(st.Elements) != 1 || st.Elements[0].ID != "kept" {
		t.Fatalf("elements = %+v", st.Elements)
	}
	if st.Elements[0].Src != imageDataURL([]byte("pixels")) {
		t.Fatalf("src = %q", st.Elements[0].Src)
	}
}

func TestDecodeFindsImagesByBaseName(t *testing.T) {
	// Archives re-zipped by hand often flatten the folder structure; the
	// base filename still resolves.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	mf, _ := zw.Create("board.json")
	_, _ = mf.Write([]byte(`{
		"version": "1.0",
		"elements": [
			{"id": "e1", "type": "image", "width": 10, "height": 10, "visible": true, "imagePath": "images/element_0.png"}
		]
	}`))
	img, _ := zw.Create("element_0.png")
	_, _ = img.Write([]byte("pixels"))
	_ = zw.Close()

	st, err := Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len()), quietLog())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(st.Elements) != 1 || st.Elements[0].Src == "" {
		t.Fatalf("elements = %+v", st.Elements)
	}
}

func TestDecodeDefaultsSettingsWhenAbsent(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	mf, _ := zw.Create("board.json")
	_, _ = mf.Write([]byte(`{"version": "1.0", "elements": []}`))
	_ = zw.Close()

	st, err := Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len()), quietLog())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if st.Settings != board.DefaultSettings() {
		t.Fatalf("settings = %+v", st.Settings)
	}
}
