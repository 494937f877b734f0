//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/domain/port"
)

// GoCVDetector запускает детектор областей через OpenCV DNN.
type GoCVDetector struct {
	mu  sync.Mutex
	net *gocv.Net
	cfg YOLOConfig
}

// NewGoCVDetector загружает ONNX-модель детектора в OpenCV DNN.
func NewGoCVDetector(modelPath string, cfg YOLOConfig) (*GoCVDetector, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: failed to load detector %s", entity.ErrModelUnavailable, modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("%w: set backend: %v", entity.ErrModelUnavailable, err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("%w: set target: %v", entity.ErrModelUnavailable, err)
	}
	return &GoCVDetector{net: &net, cfg: cfg}, nil
}

// Detect находит подозрительные области на исходном изображении.
func (d *GoCVDetector) Detect(ctx context.Context, img *entity.RawImage) ([]entity.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	letterboxed, lb := LetterboxImage(img, d.cfg.InputSize)
	mat, err := gocv.ImageToMatRGB(letterboxed)
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(d.cfg.InputSize, d.cfg.InputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.net == nil {
		return nil, fmt.Errorf("%w: detector is closed", entity.ErrModelUnavailable)
	}

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()
	if out.Empty() {
		return nil, errors.New("detector returned empty output")
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read detector output: %w", err)
	}
	sizes := out.Size()
	shape := make([]int64, len(sizes))
	for i, s := range sizes {
		shape[i] = int64(s)
	}

	return DecodeYOLO(data, shape, lb, img.Width, img.Height, d.cfg)
}

// Close освобождает сеть OpenCV.
func (d *GoCVDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.net == nil {
		return nil
	}
	err := d.net.Close()
	d.net = nil
	return err
}

// GoCVAnnotator рисует области средствами OpenCV.
type GoCVAnnotator struct {
	ClassNames []string
}

// NewGoCVAnnotator создаёт аннотатор на OpenCV.
func NewGoCVAnnotator(classNames []string) (*GoCVAnnotator, error) {
	return &GoCVAnnotator{ClassNames: classNames}, nil
}

// Annotate рисует прямоугольники вокруг областей и возвращает новую картинку.
func (a *GoCVAnnotator) Annotate(img *entity.RawImage, regions []entity.Region) (image.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return img.NRGBA(), nil
	}

	mat, err := gocv.ImageToMatRGB(img.RGB())
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer mat.Close()

	red := color.RGBA{R: 255, G: 56, B: 56, A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	lw := lineWidth(img.Width, img.Height)
	for _, r := range regions {
		rect := r.Rect()
		gocv.Rectangle(&mat, rect, red, lw)

		label := RegionLabel(a.ClassNames, r)
		size := gocv.GetTextSize(label, gocv.FontHersheySimplex, 0.5, 1)
		top := rect.Min.Y - size.Y - 4
		if top < 0 {
			top = rect.Min.Y
		}
		gocv.Rectangle(&mat, image.Rect(rect.Min.X, top, rect.Min.X+size.X+4, top+size.Y+4), red, -1)
		gocv.PutText(&mat, label, image.Pt(rect.Min.X+2, top+size.Y+2), gocv.FontHersheySimplex, 0.5, white, 1)
	}

	out, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("mat to image: %w", err)
	}
	return restoreAlpha(out, img), nil
}

var (
	_ port.RegionDetector = (*GoCVDetector)(nil)
	_ port.Annotator      = (*GoCVAnnotator)(nil)
)
