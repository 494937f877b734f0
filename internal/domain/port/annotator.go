package port

import (
	"image"

	"deepfake-detector/internal/domain/entity"
)

// Annotator рисует найденные области на копии изображения
type Annotator interface {
	Annotate(img *entity.RawImage, regions []entity.Region) (image.Image, error)
}
