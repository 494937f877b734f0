package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/draw"

	"deepfake-detector/internal/domain/entity"
)

// YOLOConfig: собственная пре- и постобработка детектора.
// Это внутренние настройки рантайма детектора, а не фильтр поверх его выдачи.
type YOLOConfig struct {
	InputSize      int
	ScoreThreshold float32
	IoUThreshold   float32
	MaxDetections  int
}

// DefaultYOLOConfig возвращает значения по умолчанию рантайма YOLOv8.
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		InputSize:      640,
		ScoreThreshold: 0.25,
		IoUThreshold:   0.7,
		MaxDetections:  300,
	}
}

const (
	letterboxFill = 114
	maxCandidates = 30000
	// смещение боксов по классу, чтобы NMS не подавлял боксы разных классов
	classOffset = 7680
)

// Letterbox описывает преобразование исходного изображения во вход детектора.
type Letterbox struct {
	Scale float64
	PadX  int
	PadY  int
}

// LetterboxImage вписывает изображение в квадрат size x size с сохранением пропорций,
// заполняя поля серым 114.
func LetterboxImage(raw *entity.RawImage, size int) (*image.RGBA, Letterbox) {
	scale := math.Min(float64(size)/float64(raw.Height), float64(size)/float64(raw.Width))
	newW := int(math.Round(float64(raw.Width) * scale))
	newH := int(math.Round(float64(raw.Height) * scale))
	padX := int(math.Round(float64(size-newW)/2 - 0.1))
	padY := int(math.Round(float64(size-newH)/2 - 0.1))

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.RGBA{R: letterboxFill, G: letterboxFill, B: letterboxFill, A: 0xff}), image.Point{}, draw.Src)

	target := image.Rect(padX, padY, padX+newW, padY+newH)
	src := raw.RGB()
	draw.BiLinear.Scale(canvas, target, src, src.Bounds(), draw.Src, nil)

	return canvas, Letterbox{Scale: scale, PadX: padX, PadY: padY}
}

// TensorFromRGBA раскладывает изображение в CHW float32 со значениями /255.
func TensorFromRGBA(img *image.RGBA) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	data := make([]float32, 3*plane)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			i := y*w + x
			data[i] = float32(img.Pix[p]) / 255.0
			data[plane+i] = float32(img.Pix[p+1]) / 255.0
			data[2*plane+i] = float32(img.Pix[p+2]) / 255.0
		}
	}
	return data
}

type candidate struct {
	x1, y1, x2, y2 float32
	score          float32
	class          int
}

// DecodeYOLO разбирает выход YOLOv8 формы (1, 4+nc, N) или (1, N, 4+nc),
// применяет порог кандидатов и NMS по классам и переводит боксы в координаты
// исходного изображения.
func DecodeYOLO(out []float32, shape []int64, lb Letterbox, imgW, imgH int, cfg YOLOConfig) ([]entity.Region, error) {
	if len(shape) != 3 || shape[0] != 1 {
		return nil, fmt.Errorf("unexpected detector output shape %v", shape)
	}

	attrs, count := int(shape[1]), int(shape[2])
	transposed := false
	if attrs > count {
		attrs, count = count, attrs
		transposed = true
	}
	if attrs < 5 {
		return nil, fmt.Errorf("detector output has %d attributes, want at least 5", attrs)
	}
	if len(out) < attrs*count {
		return nil, errors.New("detector output is shorter than its shape")
	}

	at := func(a, i int) float32 {
		if transposed {
			return out[i*attrs+a]
		}
		return out[a*count+i]
	}

	candidates := make([]candidate, 0, 64)
	for i := 0; i < count; i++ {
		best, bestClass := float32(-1), 0
		for c := 4; c < attrs; c++ {
			if s := at(c, i); s > best {
				best, bestClass = s, c-4
			}
		}
		if best < cfg.ScoreThreshold {
			continue
		}
		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		candidates = append(candidates, candidate{
			x1: cx - w/2, y1: cy - h/2,
			x2: cx + w/2, y2: cy + h/2,
			score: best, class: bestClass,
		})
	}

	kept := nonMaxSuppression(candidates, cfg.IoUThreshold, cfg.MaxDetections)

	regions := make([]entity.Region, 0, len(kept))
	for _, c := range kept {
		x1 := clamp((float64(c.x1)-float64(lb.PadX))/lb.Scale, 0, float64(imgW))
		y1 := clamp((float64(c.y1)-float64(lb.PadY))/lb.Scale, 0, float64(imgH))
		x2 := clamp((float64(c.x2)-float64(lb.PadX))/lb.Scale, 0, float64(imgW))
		y2 := clamp((float64(c.y2)-float64(lb.PadY))/lb.Scale, 0, float64(imgH))
		regions = append(regions, entity.Region{
			X:          int(x1),
			Y:          int(y1),
			Width:      int(x2) - int(x1),
			Height:     int(y2) - int(y1),
			Confidence: c.score,
			ClassID:    c.class,
		})
	}
	return regions, nil
}

func nonMaxSuppression(cands []candidate, iouThreshold float32, maxDet int) []candidate {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > maxCandidates {
		cands = cands[:maxCandidates]
	}

	kept := make([]candidate, 0, len(cands))
	suppressed := make([]bool, len(cands))
	for i := range cands {
		if suppressed[i] {
			continue
		}
		kept = append(kept, cands[i])
		if maxDet > 0 && len(kept) >= maxDet {
			break
		}
		for j := i + 1; j < len(cands); j++ {
			if !suppressed[j] && iou(cands[i], cands[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

func iou(a, b candidate) float32 {
	off := func(c candidate) float32 { return float32(c.class * classOffset) }
	ax1, ay1, ax2, ay2 := a.x1+off(a), a.y1+off(a), a.x2+off(a), a.y2+off(a)
	bx1, by1, bx2, by2 := b.x1+off(b), b.y1+off(b), b.x2+off(b), b.y2+off(b)

	iw := minf(ax2, bx2) - maxf(ax1, bx1)
	ih := minf(ay2, by2) - maxf(ay1, by1)
	if iw <= 0 || ih <= 0 {
		return 0
	}
	inter := iw * ih
	union := (ax2-ax1)*(ay2-ay1) + (bx2-bx1)*(by2-by1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
