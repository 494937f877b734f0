package entity

// Размер входа классификатора.
const (
	TensorBatch    = 1
	TensorChannels = 3
	TensorSize     = 256
)

// NormalizedTensor описывает вход классификатора формы (1, 3, 256, 256), CHW, значения в [0,1].
type NormalizedTensor struct {
	Data  []float32
	Shape [4]int64
}

// NewNormalizedTensor выделяет тензор стандартной формы.
func NewNormalizedTensor() *NormalizedTensor {
	return &NormalizedTensor{
		Data:  make([]float32, TensorBatch*TensorChannels*TensorSize*TensorSize),
		Shape: [4]int64{TensorBatch, TensorChannels, TensorSize, TensorSize},
	}
}

// At возвращает значение канала c в точке (x, y) первого элемента батча.
func (t *NormalizedTensor) At(c, x, y int) float32 {
	h, w := int(t.Shape[2]), int(t.Shape[3])
	return t.Data[c*h*w+y*w+x]
}
