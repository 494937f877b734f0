package vision

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"deepfake-detector/internal/domain/entity"
)

func gradientImage(w, h, channels int) *entity.RawImage {
	raw := entity.NewRawImage(w, h, channels)
	for i := range raw.Pix {
		raw.Pix[i] = uint8(i % 251)
	}
	return raw
}

func TestAnnotator_NoRegionsIsPixelIdentical(t *testing.T) {
	a := NewAnnotator([]string{"deepfake"})

	for _, channels := range []int{1, 3, 4} {
		raw := gradientImage(31, 17, channels)
		want := raw.NRGBA()

		out, err := a.Annotate(raw, []entity.Region{})
		require.NoError(t, err)
		require.Equal(t, want.Bounds(), out.Bounds())
		for y := 0; y < 17; y++ {
			for x := 0; x < 31; x++ {
				require.Equal(t, want.At(x, y), out.At(x, y), "channels=%d at %d,%d", channels, x, y)
			}
		}
	}
}

func TestAnnotator_DoesNotModifySource(t *testing.T) {
	raw := gradientImage(64, 64, 3)
	before := append([]uint8(nil), raw.Pix...)

	_, err := NewAnnotator(nil).Annotate(raw, []entity.Region{{X: 5, Y: 30, Width: 20, Height: 20, Confidence: 0.9}})
	require.NoError(t, err)
	require.Equal(t, before, raw.Pix)
}

func TestAnnotator_DrawsBox(t *testing.T) {
	a := NewAnnotator([]string{"deepfake"})
	raw := entity.NewRawImage(100, 100, 3)

	out, err := a.Annotate(raw, []entity.Region{{X: 20, Y: 40, Width: 30, Height: 30, Confidence: 0.87}})
	require.NoError(t, err)

	box := color.NRGBAModel.Convert(out.At(35, 69)).(color.NRGBA)
	require.Equal(t, a.BoxColor, box)

	inside := color.NRGBAModel.Convert(out.At(35, 55)).(color.NRGBA)
	require.Equal(t, color.NRGBA{A: 255}, inside)
}

func TestAnnotator_RegionOutsideImageIgnored(t *testing.T) {
	raw := entity.NewRawImage(10, 10, 3)
	out, err := NewAnnotator(nil).Annotate(raw, []entity.Region{{X: 50, Y: 50, Width: 5, Height: 5}})
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{A: 255}, color.NRGBAModel.Convert(out.At(5, 5)).(color.NRGBA))
}

func TestAnnotator_InvalidImage(t *testing.T) {
	_, err := NewAnnotator(nil).Annotate(entity.NewRawImage(4, 4, 2), nil)
	require.True(t, errors.Is(err, entity.ErrUnsupportedShape))
}

func TestRegionLabel(t *testing.T) {
	require.Equal(t, "deepfake 0.87", RegionLabel([]string{"deepfake"}, entity.Region{Confidence: 0.87}))
	require.Equal(t, "class3 0.50", RegionLabel(nil, entity.Region{ClassID: 3, Confidence: 0.5}))
}

func TestRestoreAlpha(t *testing.T) {
	src := entity.NewRawImage(3, 2, 4)
	for i := 0; i < len(src.Pix); i += 4 {
		copy(src.Pix[i:i+4], []uint8{10, 20, 30, 100})
	}

	drawn := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			drawn.SetRGBA(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	drawn.SetRGBA(0, 0, color.RGBA{R: 255, G: 56, B: 56, A: 255})

	out := restoreAlpha(drawn, src)
	require.Equal(t, color.NRGBA{R: 255, G: 56, B: 56, A: 255}, out.NRGBAAt(0, 0))
	require.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 100}, out.NRGBAAt(2, 1))

	opaque := entity.NewRawImage(3, 2, 3)
	out = restoreAlpha(drawn, opaque)
	require.Equal(t, uint8(255), out.NRGBAAt(2, 1).A)
}

func TestAnnotator_KeepsAlphaOutsideBoxes(t *testing.T) {
	src := entity.NewRawImage(40, 40, 4)
	for i := 0; i < len(src.Pix); i += 4 {
		copy(src.Pix[i:i+4], []uint8{10, 20, 30, 100})
	}

	out, err := NewAnnotator(nil).Annotate(src, []entity.Region{{X: 20, Y: 20, Width: 10, Height: 10, Confidence: 0.9}})
	require.NoError(t, err)

	_, _, _, a := out.At(2, 38).RGBA()
	require.Equal(t, uint32(100)*0x101, a)
}
