package genflow

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"strings"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// targetPixels is the pixel budget a model input is normalized to.
const targetPixels = 1024 * 1024

// ResizeForModel re-encodes a data-URL image at roughly one megapixel,
// preserving aspect ratio. Smaller images are scaled up too, so every
// attachment reaches the model at a predictable resolution. Callers should
// fall back to the original data URL when this fails.
func ResizeForModel(dataURL string) (string, error) {
	_, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return "", fmt.Errorf("genflow: malformed data url")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("genflow: decode base64: %w", err)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("genflow: decode image: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return "", fmt.Errorf("genflow: empty image")
	}

	aspect := float64(w) / float64(h)
	nh := int(math.Floor(math.Sqrt(targetPixels / aspect)))
	nw := int(math.Floor(float64(nh) * aspect))
	if nh < 1 {
		nh = 1
	}
	if nw < 1 {
		nw = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 90}); err != nil {
		return "", fmt.Errorf("genflow: encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(out.Bytes()), nil
}
