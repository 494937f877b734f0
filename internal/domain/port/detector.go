package port

import (
	"context"

	"deepfake-detector/internal/domain/entity"
)

// Classifier интерфейс бинарного классификатора
type Classifier interface {
	// Score возвращает вероятность того, что изображение подделано
	Score(ctx context.Context, tensor *entity.NormalizedTensor) (float64, error)
}

// RegionDetector интерфейс детектора подозрительных областей
type RegionDetector interface {
	// Detect возвращает все области, предложенные детектором. Никогда не nil.
	Detect(ctx context.Context, img *entity.RawImage) ([]entity.Region, error)
}
