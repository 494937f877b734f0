package entity

import (
	"fmt"
	"image"
	"image/color"
)

// RawImage хранит декодированный 8-битный буфер пикселей.
// Pix хранит каналы чередованием (HWC), строка за строкой.
type RawImage struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewRawImage создаёт пустое изображение нужного размера.
func NewRawImage(width, height, channels int) *RawImage {
	return &RawImage{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Validate проверяет согласованность размеров и буфера.
func (r *RawImage) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil image", ErrUnsupportedShape)
	}
	switch r.Channels {
	case 1, 3, 4:
	default:
		return fmt.Errorf("%w: %d channels", ErrUnsupportedShape, r.Channels)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrUnsupportedShape, r.Width, r.Height)
	}
	if len(r.Pix) != r.Width*r.Height*r.Channels {
		return fmt.Errorf("%w: buffer has %d bytes, want %d",
			ErrUnsupportedShape, len(r.Pix), r.Width*r.Height*r.Channels)
	}
	return nil
}

// Offset возвращает индекс первого канала пикселя (x, y).
func (r *RawImage) Offset(x, y int) int {
	return (y*r.Width + x) * r.Channels
}

// NRGBA возвращает копию изображения в формате image.NRGBA.
// Серый канал размножается, альфа сохраняется только у 4-канальных.
func (r *RawImage) NRGBA() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			src := r.Offset(x, y)
			d := dst.PixOffset(x, y)
			switch r.Channels {
			case 1:
				v := r.Pix[src]
				dst.Pix[d], dst.Pix[d+1], dst.Pix[d+2], dst.Pix[d+3] = v, v, v, 0xff
			case 3:
				dst.Pix[d], dst.Pix[d+1], dst.Pix[d+2], dst.Pix[d+3] = r.Pix[src], r.Pix[src+1], r.Pix[src+2], 0xff
			case 4:
				copy(dst.Pix[d:d+4], r.Pix[src:src+4])
			}
		}
	}
	return dst
}

// RGB возвращает непрозрачную копию: серый размножается, альфа отбрасывается
// без смешивания с фоном.
func (r *RawImage) RGB() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			src := r.Offset(x, y)
			d := dst.PixOffset(x, y)
			if r.Channels == 1 {
				v := r.Pix[src]
				dst.Pix[d], dst.Pix[d+1], dst.Pix[d+2] = v, v, v
			} else {
				dst.Pix[d], dst.Pix[d+1], dst.Pix[d+2] = r.Pix[src], r.Pix[src+1], r.Pix[src+2]
			}
			dst.Pix[d+3] = 0xff
		}
	}
	return dst
}

// ConvertImage переводит image.Image в RawImage с заданным числом каналов (1, 3 или 4).
func ConvertImage(img image.Image, channels int) *RawImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	raw := NewRawImage(w, h, channels)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := raw.Offset(x, y)
			c := img.At(b.Min.X+x, b.Min.Y+y)
			switch channels {
			case 1:
				raw.Pix[off] = color.GrayModel.Convert(c).(color.Gray).Y
			case 3:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				raw.Pix[off], raw.Pix[off+1], raw.Pix[off+2] = n.R, n.G, n.B
			default:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				raw.Pix[off], raw.Pix[off+1], raw.Pix[off+2], raw.Pix[off+3] = n.R, n.G, n.B, n.A
			}
		}
	}
	return raw
}

// ChannelsOf определяет число каналов по типу и непрозрачности изображения.
func ChannelsOf(img image.Image) int {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.YCbCr, *image.CMYK:
		return 3
	case *image.NRGBA:
		if m.Opaque() {
			return 3
		}
		return 4
	case *image.RGBA:
		if m.Opaque() {
			return 3
		}
		return 4
	case *image.NRGBA64:
		if m.Opaque() {
			return 3
		}
		return 4
	case *image.RGBA64:
		if m.Opaque() {
			return 3
		}
		return 4
	case *image.Paletted:
		if m.Opaque() {
			return 3
		}
		return 4
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return 4
	}
	return 3
}
