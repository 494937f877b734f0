package service

import (
	"image"

	"github.com/nfnt/resize"

	"deepfake-detector/internal/domain/entity"
)

// Normalize приводит изображение к входу классификатора:
// 3 канала, 256x256, значения /255, порядок CHW, батч 1.
//
// Серое изображение размножается на три канала, альфа-канал отбрасывается,
// трёхканальное проходит без изменений (коррекция цветового пространства не делается).
func Normalize(raw *entity.RawImage) (*entity.NormalizedTensor, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	resized := resize.Resize(entity.TensorSize, entity.TensorSize, raw.RGB(), resize.Bilinear)

	tensor := entity.NewNormalizedTensor()
	plane := entity.TensorSize * entity.TensorSize

	if m, ok := resized.(*image.RGBA); ok {
		for y := 0; y < entity.TensorSize; y++ {
			for x := 0; x < entity.TensorSize; x++ {
				p := m.PixOffset(m.Rect.Min.X+x, m.Rect.Min.Y+y)
				i := y*entity.TensorSize + x
				tensor.Data[i] = float32(m.Pix[p]) / 255.0
				tensor.Data[plane+i] = float32(m.Pix[p+1]) / 255.0
				tensor.Data[2*plane+i] = float32(m.Pix[p+2]) / 255.0
			}
		}
		return tensor, nil
	}

	b := resized.Bounds()
	for y := 0; y < entity.TensorSize; y++ {
		for x := 0; x < entity.TensorSize; x++ {
			r, g, bl, _ := resized.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := y*entity.TensorSize + x
			tensor.Data[i] = float32(r>>8) / 255.0
			tensor.Data[plane+i] = float32(g>>8) / 255.0
			tensor.Data[2*plane+i] = float32(bl>>8) / 255.0
		}
	}
	return tensor, nil
}
