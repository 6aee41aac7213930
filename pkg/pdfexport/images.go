package pdfexport

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"net/url"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxImageWidth bounds signature images before they are embedded.
const maxImageWidth = 1200

// Fetcher reads a stored object by key or URL.
type Fetcher interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// ImageLoader resolves an image reference to raw image bytes.
type ImageLoader interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// Loader resolves data URLs inline and hands everything else to Store.
type Loader struct {
	Store Fetcher
}

func (l Loader) Load(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty image reference")
	}
	if strings.HasPrefix(ref, "data:") {
		return DecodeDataURL(ref)
	}
	if l.Store == nil {
		return nil, fmt.Errorf("no store configured for %q", ref)
	}
	return l.Store.Get(ctx, ref)
}

// DecodeDataURL returns the payload of a base64 or percent-encoded data URL.
func DecodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some canvases emit unpadded or url-safe payloads
			if b, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
				return nil, fmt.Errorf("decode data url: %w", err)
			}
		}
		return b, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return []byte(s), nil
}

// normalizeImage decodes PNG, JPEG or WebP, flattens transparency onto
// white, scales wide images down and re-encodes as PNG.
func normalizeImage(raw []byte) ([]byte, image.Point, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, image.Point{}, fmt.Errorf("empty image")
	}

	size := b.Size()
	if size.X > maxImageWidth {
		size = image.Pt(maxImageWidth, b.Dy()*maxImageWidth/b.Dx())
		if size.Y == 0 {
			size.Y = 1
		}
	}

	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if size == b.Size() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, image.Point{}, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), size, nil
}
