package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"deepfake-detector/internal/domain/entity"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecoder_Channels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 3))
	gray.SetGray(2, 1, color.Gray{Y: 99})

	opaque := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	transparent := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			opaque.SetNRGBA(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
			transparent.SetNRGBA(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 128})
		}
	}

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, opaque, &jpeg.Options{Quality: 95}))

	tests := []struct {
		name     string
		data     []byte
		channels int
	}{
		{name: "gray png", data: encodePNG(t, gray), channels: 1},
		{name: "opaque png", data: encodePNG(t, opaque), channels: 3},
		{name: "transparent png", data: encodePNG(t, transparent), channels: 4},
		{name: "color jpeg", data: jpg.Bytes(), channels: 3},
	}

	d := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := d.Decode(tt.data)
			require.NoError(t, err)
			require.Equal(t, tt.channels, raw.Channels)
			require.Equal(t, 4, raw.Width)
			require.Equal(t, 3, raw.Height)
			require.NoError(t, raw.Validate())
		})
	}
}

func TestDecoder_PreservesPixels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 3))
	gray.SetGray(2, 1, color.Gray{Y: 99})

	raw, err := NewDecoder().Decode(encodePNG(t, gray))
	require.NoError(t, err)
	require.Equal(t, uint8(99), raw.Pix[raw.Offset(2, 1)])
}

func TestDecoder_Errors(t *testing.T) {
	d := NewDecoder()

	_, err := d.Decode(nil)
	require.True(t, errors.Is(err, entity.ErrUndecodable))

	_, err = d.Decode([]byte("definitely not an image"))
	require.True(t, errors.Is(err, entity.ErrUndecodable))
}

func TestApplyOrientation(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	tests := []struct {
		orientation int
		w, h        int
		redAt       image.Point
	}{
		{orientation: 1, w: 3, h: 2, redAt: image.Pt(0, 0)},
		{orientation: 2, w: 3, h: 2, redAt: image.Pt(2, 0)},
		{orientation: 3, w: 3, h: 2, redAt: image.Pt(2, 1)},
		{orientation: 4, w: 3, h: 2, redAt: image.Pt(0, 1)},
		{orientation: 6, w: 2, h: 3, redAt: image.Pt(1, 0)},
		{orientation: 8, w: 2, h: 3, redAt: image.Pt(0, 2)},
	}

	for _, tt := range tests {
		out := applyOrientation(src, tt.orientation)
		require.Equal(t, tt.w, out.Bounds().Dx(), "orientation %d", tt.orientation)
		require.Equal(t, tt.h, out.Bounds().Dy(), "orientation %d", tt.orientation)
		r, _, _, _ := out.At(tt.redAt.X, tt.redAt.Y).RGBA()
		require.Equal(t, uint32(0xffff), r, "orientation %d", tt.orientation)
	}
}

func TestReadOrientation_NoExif(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	require.Equal(t, 0, readOrientation(encodePNG(t, img), "png"))
	require.Equal(t, 0, readOrientation([]byte("GIF89a"), "gif"))
}
