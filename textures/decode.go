package textures

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"gallery-engine/scene"
)

var ErrNotImage = errors.New("not a supported image")

// Decode sniffs data, decodes it and downscales it so neither side exceeds
// maxSize. TGA has no signature and is recognised by name only.
func Decode(name string, data []byte, maxSize int) (*scene.Texture, error) {
	img, err := decodeImage(name, data)
	if err != nil {
		return nil, err
	}
	return scene.NewTextureFromImage(name, Downscale(img, maxSize)), nil
}

func decodeImage(name string, data []byte) (image.Image, error) {
	kind, _ := filetype.Match(data)

	r := bytes.NewReader(data)
	var (
		img image.Image
		err error
	)
	switch kind.Extension {
	case "png":
		img, err = png.Decode(r)
	case "jpg":
		img, err = jpeg.Decode(r)
	case "gif":
		img, err = gif.Decode(r)
	case "webp":
		img, err = webp.Decode(r)
	case "bmp":
		img, err = bmp.Decode(r)
	default:
		if kind != filetype.Unknown || !isTGA(name) {
			return nil, fmt.Errorf("%w: %s", ErrNotImage, describe(kind.MIME.Value))
		}
		img, err = tga.Decode(r)
	}
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

func isTGA(name string) bool {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.EqualFold(path.Ext(name), ".tga")
}

func describe(mime string) string {
	if mime == "" {
		return "unknown content"
	}
	return mime
}

// Downscale returns img scaled to fit within maxSize on both sides, or img
// itself when it already fits. A non-positive maxSize disables scaling.
func Downscale(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}

	if w >= h {
		h = max(1, h*maxSize/w)
		w = maxSize
	} else {
		w = max(1, w*maxSize/h)
		h = maxSize
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
