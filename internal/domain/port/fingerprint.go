package port

import "deepfake-detector/internal/domain/entity"

// Fingerprinter считает перцептивный хеш изображения
type Fingerprinter interface {
	Fingerprint(img *entity.RawImage) (string, error)
}
