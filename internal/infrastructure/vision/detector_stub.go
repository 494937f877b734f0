//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"

	"deepfake-detector/internal/domain/entity"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// GoCVDetector: заглушка детектора на OpenCV для сборки без тега gocv.
type GoCVDetector struct{}

// NewGoCVDetector возвращает ошибку, если сборка без тега gocv.
func NewGoCVDetector(modelPath string, cfg YOLOConfig) (*GoCVDetector, error) {
	_ = modelPath
	_ = cfg
	return nil, fmt.Errorf("%w: %v", entity.ErrModelUnavailable, errNoGoCV)
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Detect(ctx context.Context, img *entity.RawImage) ([]entity.Region, error) {
	_ = ctx
	_ = img
	return nil, fmt.Errorf("%w: %v", entity.ErrModelUnavailable, errNoGoCV)
}

// Close ничего не делает.
func (d *GoCVDetector) Close() error {
	return nil
}

// GoCVAnnotator: заглушка аннотатора на OpenCV.
type GoCVAnnotator struct{}

// NewGoCVAnnotator возвращает ошибку, если сборка без тега gocv.
func NewGoCVAnnotator(classNames []string) (*GoCVAnnotator, error) {
	_ = classNames
	return nil, errNoGoCV
}

// Annotate возвращает ошибку, если сборка без тега gocv.
func (a *GoCVAnnotator) Annotate(img *entity.RawImage, regions []entity.Region) (image.Image, error) {
	_ = img
	_ = regions
	return nil, errNoGoCV
}
