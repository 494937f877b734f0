package inference

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/domain/port"
	"deepfake-detector/internal/infrastructure/vision"
)

// Detector: детектор подозрительных областей (YOLOv8, экспорт в ONNX).
type Detector struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	outputShape  []int64
	cfg          vision.YOLOConfig
}

// NewDetector загружает модель детектора. Размер входа берётся из модели,
// если он там задан, иначе из cfg.InputSize.
func NewDetector(modelPath string, yolo vision.YOLOConfig, cfg RuntimeConfig) (*Detector, error) {
	in, out, err := modelIO(modelPath)
	if err != nil {
		return nil, fmt.Errorf("detector %s: %w", modelPath, err)
	}

	size := int64(yolo.InputSize)
	inputShape, err := staticShape(in.Dimensions, 3, size, size)
	if err != nil {
		return nil, fmt.Errorf("detector input: %w", err)
	}
	if len(inputShape) != 4 || inputShape[2] != inputShape[3] {
		return nil, fmt.Errorf("detector input shape %v, want square (1, 3, N, N)", inputShape)
	}
	yolo.InputSize = int(inputShape[2])

	outputShape, err := staticShape(out.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("detector output: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	opts, err := sessionOptions(cfg)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, err
	}
	defer opts.Destroy()

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{in.Name}, []string{out.Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		opts)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Detector{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		outputShape:  []int64(outputShape),
		cfg:          yolo,
	}, nil
}

// Detect запускает детектор на исходном изображении и возвращает все его области.
func (d *Detector) Detect(ctx context.Context, img *entity.RawImage) ([]entity.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	letterboxed, lb := vision.LetterboxImage(img, d.cfg.InputSize)
	data := vision.TensorFromRGBA(letterboxed)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil, fmt.Errorf("%w: detector is closed", entity.ErrModelUnavailable)
	}

	copy(d.inputTensor.GetData(), data)
	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return vision.DecodeYOLO(d.outputTensor.GetData(), d.outputShape, lb, img.Width, img.Height, d.cfg)
}

// Close освобождает сессию и тензоры.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	if d.session != nil {
		firstErr = d.session.Destroy()
		d.session = nil
	}
	for _, t := range []*ort.Tensor[float32]{d.inputTensor, d.outputTensor} {
		if t == nil {
			continue
		}
		if err := t.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.inputTensor, d.outputTensor = nil, nil
	return firstErr
}

var _ port.RegionDetector = (*Detector)(nil)
