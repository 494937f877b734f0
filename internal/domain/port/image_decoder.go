package port

import "deepfake-detector/internal/domain/entity"

// ImageDecoder превращает загруженные байты в RawImage
type ImageDecoder interface {
	Decode(data []byte) (*entity.RawImage, error)
}
