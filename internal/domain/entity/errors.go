package entity

import "errors"

// Ошибки конвейера детекции. Инфраструктура оборачивает их через %w,
// транспорт сопоставляет через errors.Is.
var (
	ErrUnsupportedShape = errors.New("unsupported image shape")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrIOFailure        = errors.New("image i/o failure")
	ErrUndecodable      = errors.New("image cannot be decoded")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrNotImplemented   = errors.New("not implemented")
	ErrTimeout          = errors.New("detection timed out")
)
