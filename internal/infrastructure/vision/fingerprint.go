package vision

import (
	"fmt"

	"github.com/corona10/goimagehash"

	"deepfake-detector/internal/domain/entity"
)

// Fingerprinter считает перцептивный dHash изображения для логов и аудита.
type Fingerprinter struct{}

// NewFingerprinter создаёт Fingerprinter.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{}
}

// Fingerprint возвращает dHash в виде строки "d:<hex>".
func (f *Fingerprinter) Fingerprint(img *entity.RawImage) (string, error) {
	hash, err := goimagehash.DifferenceHash(img.NRGBA())
	if err != nil {
		return "", fmt.Errorf("difference hash: %w", err)
	}
	return hash.ToString(), nil
}
