package entity

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawImage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		img     *RawImage
		wantErr bool
	}{
		{name: "gray", img: NewRawImage(4, 3, 1)},
		{name: "rgb", img: NewRawImage(4, 3, 3)},
		{name: "rgba", img: NewRawImage(4, 3, 4)},
		{name: "two channels", img: NewRawImage(4, 3, 2), wantErr: true},
		{name: "five channels", img: NewRawImage(4, 3, 5), wantErr: true},
		{name: "zero width", img: NewRawImage(0, 3, 3), wantErr: true},
		{name: "short buffer", img: &RawImage{Width: 2, Height: 2, Channels: 3, Pix: make([]uint8, 5)}, wantErr: true},
		{name: "nil", img: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.img.Validate()
			if tt.wantErr {
				require.True(t, errors.Is(err, ErrUnsupportedShape))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConvertImage_KeepsChannels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 1, color.Gray{Y: 200})
	raw := ConvertImage(gray, ChannelsOf(gray))
	require.Equal(t, 1, raw.Channels)
	require.Equal(t, uint8(200), raw.Pix[raw.Offset(1, 1)])

	opaque := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range opaque.Pix {
		opaque.Pix[i] = 0xff
	}
	require.Equal(t, 3, ConvertImage(opaque, ChannelsOf(opaque)).Channels)

	transparent := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	transparent.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	raw = ConvertImage(transparent, ChannelsOf(transparent))
	require.Equal(t, 4, raw.Channels)
	require.Equal(t, []uint8{10, 20, 30, 40}, raw.Pix[0:4])
}

func TestRawImage_NRGBA(t *testing.T) {
	raw := NewRawImage(1, 1, 1)
	raw.Pix[0] = 77
	require.Equal(t, color.NRGBA{R: 77, G: 77, B: 77, A: 0xff}, raw.NRGBA().NRGBAAt(0, 0))

	rgba := NewRawImage(1, 1, 4)
	copy(rgba.Pix, []uint8{1, 2, 3, 4})
	require.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 4}, rgba.NRGBA().NRGBAAt(0, 0))
}

func TestVerdictMessage(t *testing.T) {
	require.Equal(t, "Deepfake detected", Verdict{IsDeepfake: true}.Message())
	require.Equal(t, "Authentic media", Verdict{}.Message())
}
