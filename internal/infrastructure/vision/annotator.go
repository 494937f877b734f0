package vision

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/domain/port"
)

// Annotator рисует области детектора средствами Go без OpenCV.
type Annotator struct {
	BoxColor   color.NRGBA
	TextColor  color.NRGBA
	ClassNames []string
}

// NewAnnotator создаёт аннотатор с именами классов детектора.
func NewAnnotator(classNames []string) *Annotator {
	return &Annotator{
		BoxColor:   color.NRGBA{R: 255, G: 56, B: 56, A: 255},
		TextColor:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		ClassNames: classNames,
	}
}

// Annotate рисует прямоугольники и подписи на копии изображения.
// Без областей возвращает неизменённую копию.
func (a *Annotator) Annotate(img *entity.RawImage, regions []entity.Region) (image.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	canvas := img.NRGBA()
	if len(regions) == 0 {
		return canvas, nil
	}

	lw := lineWidth(img.Width, img.Height)
	for _, r := range regions {
		rect := r.Rect().Intersect(canvas.Bounds())
		if rect.Empty() {
			continue
		}
		drawBox(canvas, rect, lw, a.BoxColor)
		a.drawLabel(canvas, rect, RegionLabel(a.ClassNames, r))
	}
	return canvas, nil
}

// RegionLabel возвращает подпись вида "deepfake 0.87".
func RegionLabel(classNames []string, r entity.Region) string {
	name := fmt.Sprintf("class%d", r.ClassID)
	if r.ClassID >= 0 && r.ClassID < len(classNames) {
		name = classNames[r.ClassID]
	}
	return fmt.Sprintf("%s %.2f", name, r.Confidence)
}

// restoreAlpha переносит прозрачность исходного 4-канального изображения на
// отрисованную копию. Пиксели, изменённые рамками и подписями, остаются непрозрачными.
func restoreAlpha(drawn image.Image, src *entity.RawImage) *image.NRGBA {
	b := drawn.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), drawn, b.Min, draw.Src)
	if src.Channels != 4 || b.Dx() != src.Width || b.Dy() != src.Height {
		return out
	}

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			s := src.Offset(x, y)
			d := out.PixOffset(x, y)
			if out.Pix[d] == src.Pix[s] && out.Pix[d+1] == src.Pix[s+1] && out.Pix[d+2] == src.Pix[s+2] {
				out.Pix[d+3] = src.Pix[s+3]
			}
		}
	}
	return out
}

func lineWidth(w, h int) int {
	lw := int(math.Round(float64(w+h) / 2 * 0.003))
	if lw < 2 {
		lw = 2
	}
	return lw
}

func drawBox(dst *image.NRGBA, r image.Rectangle, lw int, c color.NRGBA) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+lw),
		image.Rect(r.Min.X, r.Max.Y-lw, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+lw, r.Max.Y),
		image.Rect(r.Max.X-lw, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// drawLabel рисует подпись над прямоугольником, а если места нет, то внутри него.
func (a *Annotator) drawLabel(dst *image.NRGBA, box image.Rectangle, text string) {
	face := basicfont.Face7x13
	textW := font.MeasureString(face, text).Ceil()
	textH := face.Metrics().Height.Ceil()
	pad := 2

	top := box.Min.Y - textH - 2*pad
	if top < dst.Bounds().Min.Y {
		top = box.Min.Y
	}
	bg := image.Rect(box.Min.X, top, box.Min.X+textW+2*pad, top+textH+2*pad).Intersect(dst.Bounds())
	draw.Draw(dst, bg, image.NewUniform(a.BoxColor), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(a.TextColor),
		Face: face,
		Dot:  fixed.P(box.Min.X+pad, top+pad+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

var _ port.Annotator = (*Annotator)(nil)
