package pdfexport

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore map[string][]byte

func (m mapStore) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := m[key]
	if !ok {
		return nil, assert.AnError
	}
	return b, nil
}

func TestLoader_Load(t *testing.T) {
	store := mapStore{"signatures/a.png": []byte("raw")}
	l := Loader{Store: store}
	ctx := context.Background()

	b, err := l.Load(ctx, "data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	b, err = l.Load(ctx, "data:text/plain,hi%20there")
	require.NoError(t, err)
	assert.Equal(t, "hi there", string(b))

	b, err = l.Load(ctx, "signatures/a.png")
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	_, err = l.Load(ctx, "signatures/b.png")
	assert.Error(t, err)

	_, err = l.Load(ctx, "")
	assert.Error(t, err)

	_, err = Loader{}.Load(ctx, "signatures/a.png")
	assert.Error(t, err)

	_, err = l.Load(ctx, "data:image/png;base64")
	assert.Error(t, err)
}

func TestNormalizeImage(t *testing.T) {
	t.Run("wide png is scaled and flattened", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 2400, 300))
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, src))

		out, size, err := normalizeImage(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, image.Pt(1200, 150), size)

		decoded, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		r, g, b, a := decoded.At(10, 10).RGBA()
		assert.Equal(t, [4]uint32{0xffff, 0xffff, 0xffff, 0xffff}, [4]uint32{r, g, b, a})
	})

	t.Run("jpeg is re-encoded as png", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 40, 20))
		src.Set(1, 1, color.Black)
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, src, nil))

		out, size, err := normalizeImage(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, image.Pt(40, 20), size)
		assert.True(t, bytes.HasPrefix(out, []byte("\x89PNG")))
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := normalizeImage([]byte("nope"))
		assert.Error(t, err)
	})
}
