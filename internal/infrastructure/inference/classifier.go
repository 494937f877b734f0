package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/domain/port"
)

// Classifier: бинарный классификатор дипфейков на ONNX Runtime.
// Тензоры сессии выделены заранее, поэтому вызовы Score сериализуются.
type Classifier struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewClassifier загружает модель классификатора. Модель должна принимать
// (1, 3, 256, 256) и возвращать один логит.
func NewClassifier(modelPath string, cfg RuntimeConfig) (*Classifier, error) {
	in, out, err := modelIO(modelPath)
	if err != nil {
		return nil, fmt.Errorf("classifier %s: %w", modelPath, err)
	}

	inputShape, err := staticShape(in.Dimensions, entity.TensorChannels, entity.TensorSize, entity.TensorSize)
	if err != nil {
		return nil, fmt.Errorf("classifier input: %w", err)
	}
	want := ort.NewShape(entity.TensorBatch, entity.TensorChannels, entity.TensorSize, entity.TensorSize)
	if inputShape.String() != want.String() {
		return nil, fmt.Errorf("classifier input shape %v, want %v", inputShape, want)
	}
	outputShape, err := staticShape(out.Dimensions, 1)
	if err != nil {
		return nil, fmt.Errorf("classifier output: %w", err)
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

	return &Classifier{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Score возвращает вероятность подделки sigmoid(логит).
func (c *Classifier) Score(ctx context.Context, tensor *entity.NormalizedTensor) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return 0, fmt.Errorf("%w: classifier is closed", entity.ErrModelUnavailable)
	}

	dst := c.inputTensor.GetData()
	if len(tensor.Data) != len(dst) {
		return 0, fmt.Errorf("%w: tensor has %d values, want %d", entity.ErrUnsupportedShape, len(tensor.Data), len(dst))
	}
	copy(dst, tensor.Data)

	if err := c.session.Run(); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}

	out := c.outputTensor.GetData()
	if len(out) == 0 {
		return 0, errors.New("classifier returned no output")
	}
	return Sigmoid(float64(out[0])), nil
}

// Close освобождает сессию и тензоры.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	if c.session != nil {
		firstErr = c.session.Destroy()
		c.session = nil
	}
	if c.inputTensor != nil {
		if err := c.inputTensor.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.inputTensor = nil
	}
	if c.outputTensor != nil {
		if err := c.outputTensor.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.outputTensor = nil
	}
	return firstErr
}

// Sigmoid переводит логит в вероятность.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

var _ port.Classifier = (*Classifier)(nil)
