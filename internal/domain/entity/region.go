package entity

import "image"

// Region: область, которую детектор считает подозрительной.
// Координаты в пикселях исходного изображения.
type Region struct {
	X          int     // координата X левого верхнего угла
	Y          int     // координата Y левого верхнего угла
	Width      int     // ширина области в пикселях
	Height     int     // высота области в пикселях
	Confidence float32 // уверенность детектора для этой области
	ClassID    int     // индекс класса детектора
}

// Rect возвращает область как image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}
