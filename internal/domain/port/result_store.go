package port

import (
	"context"
	"image"
)

// ResultStore сохраняет аннотированное изображение
type ResultStore interface {
	// Save записывает изображение под именем исходного файла и возвращает публичный путь
	Save(ctx context.Context, filename string, img image.Image) (string, error)
}
