package entity

// Label: итоговая метка подлинности.
type Label string

const (
	LabelAuthentic Label = "AUTHENTIC"
	LabelDeepfake  Label = "DEEPFAKE"
)

// Verdict: решение о подлинности изображения.
type Verdict struct {
	IsDeepfake bool
	Confidence float64
	Label      Label
}

// Message возвращает текст ответа для клиента.
func (v Verdict) Message() string {
	if v.IsDeepfake {
		return "Deepfake detected"
	}
	return "Authentic media"
}

// DetectionRequest: входные данные одного запроса.
type DetectionRequest struct {
	Filename  string
	ImageData []byte
}

// DetectionResult хранит итог обработки изображения.
type DetectionResult struct {
	RequestID   string
	Verdict     Verdict
	Score       float64  // вероятность классификатора
	Regions     []Region // области детектора
	ResultPath  string   // публичный путь к аннотированному изображению
	Message     string
	Fingerprint string // перцептивный хеш исходного изображения
}
