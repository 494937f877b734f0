package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/domain/service"
)

func filledImage(w, h, channels int, fill func(i int) uint8) *entity.RawImage {
	raw := entity.NewRawImage(w, h, channels)
	for i := range raw.Pix {
		raw.Pix[i] = fill(i)
	}
	return raw
}

func TestNormalize_ShapeAndRange(t *testing.T) {
	for _, channels := range []int{1, 3, 4} {
		raw := filledImage(37, 19, channels, func(i int) uint8 { return uint8(i * 7) })

		tensor, err := service.Normalize(raw)
		require.NoError(t, err, "channels=%d", channels)
		require.Equal(t, [4]int64{1, 3, 256, 256}, tensor.Shape)
		require.Len(t, tensor.Data, 3*256*256)
		for _, v := range tensor.Data {
			require.GreaterOrEqual(t, v, float32(0))
			require.LessOrEqual(t, v, float32(1))
		}
	}
}

func TestNormalize_UnsupportedShape(t *testing.T) {
	for _, channels := range []int{0, 2, 5} {
		raw := entity.NewRawImage(8, 8, channels)
		_, err := service.Normalize(raw)
		require.True(t, errors.Is(err, entity.ErrUnsupportedShape), "channels=%d", channels)
	}
}

func TestNormalize_GrayReplicated(t *testing.T) {
	raw := filledImage(256, 256, 1, func(int) uint8 { return 51 })

	tensor, err := service.Normalize(raw)
	require.NoError(t, err)
	for c := 0; c < 3; c++ {
		require.InDelta(t, 0.2, tensor.At(c, 100, 100), 1e-6)
	}
}

func TestNormalize_AlphaDiscarded(t *testing.T) {
	raw := entity.NewRawImage(256, 256, 4)
	for i := 0; i < len(raw.Pix); i += 4 {
		raw.Pix[i], raw.Pix[i+1], raw.Pix[i+2], raw.Pix[i+3] = 255, 0, 51, 0
	}

	tensor, err := service.Normalize(raw)
	require.NoError(t, err)
	require.InDelta(t, 1.0, tensor.At(0, 10, 10), 1e-6)
	require.InDelta(t, 0.0, tensor.At(1, 10, 10), 1e-6)
	require.InDelta(t, 0.2, tensor.At(2, 10, 10), 1e-6)
}

func TestNormalize_ChannelFirstLayout(t *testing.T) {
	raw := entity.NewRawImage(256, 256, 3)
	for i := 0; i < len(raw.Pix); i += 3 {
		raw.Pix[i], raw.Pix[i+1], raw.Pix[i+2] = 255, 0, 0
	}

	tensor, err := service.Normalize(raw)
	require.NoError(t, err)

	plane := 256 * 256
	require.InDelta(t, 1.0, tensor.Data[0], 1e-6)
	require.InDelta(t, 0.0, tensor.Data[plane], 1e-6)
	require.InDelta(t, 0.0, tensor.Data[2*plane], 1e-6)
}
