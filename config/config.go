package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendONNX = "onnx"
	BackendGoCV = "gocv"
)

type Config struct {
	HTTPAddr      string
	TelegramToken string

	ClassifierModelPath string
	DetectorModelPath   string
	DetectorBackend     string
	DetectorClasses     []string
	ONNXLibraryPath     string
	ONNXThreads         int

	UploadDir       string
	ResultURLPrefix string

	InferenceTimeout time.Duration
	MaxUploadBytes   int64

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфигурацию из функции чтения переменных окружения.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		HTTPAddr:            get("HTTP_ADDR", ":8000"),
		TelegramToken:       getenv("TELEGRAM_TOKEN"),
		ClassifierModelPath: get("CLASSIFIER_MODEL_PATH", "models/cnn_model.onnx"),
		DetectorModelPath:   get("DETECTOR_MODEL_PATH", "models/yolov8_model.onnx"),
		DetectorBackend:     strings.ToLower(get("DETECTOR_BACKEND", BackendONNX)),
		DetectorClasses:     splitList(get("DETECTOR_CLASSES", "deepfake")),
		ONNXLibraryPath:     getenv("ONNX_LIBRARY_PATH"),
		UploadDir:           get("UPLOAD_DIR", "static/uploads"),
		ResultURLPrefix:     get("RESULT_URL_PREFIX", "/static/uploads"),
		LogLevel:            get("LOG_LEVEL", "info"),
		LogFormat:           get("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.InferenceTimeout, err = time.ParseDuration(get("INFERENCE_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("invalid INFERENCE_TIMEOUT: %w", err)
	}
	if cfg.InferenceTimeout < 0 {
		return nil, fmt.Errorf("invalid INFERENCE_TIMEOUT: must not be negative")
	}

	if cfg.MaxUploadBytes, err = ParseSize(get("MAX_UPLOAD_BYTES", "50MB")); err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
	}

	if cfg.ONNXThreads, err = strconv.Atoi(get("ONNX_THREADS", "0")); err != nil || cfg.ONNXThreads < 0 {
		return nil, fmt.Errorf("invalid ONNX_THREADS: %q", getenv("ONNX_THREADS"))
	}

	switch cfg.DetectorBackend {
	case BackendONNX, BackendGoCV:
	default:
		return nil, fmt.Errorf("invalid DETECTOR_BACKEND %q: want %s or %s", cfg.DetectorBackend, BackendONNX, BackendGoCV)
	}

	return cfg, nil
}

// ParseSize разбирает размер в байтах: "1048576", "512KB", "50MB", "1GB".
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	mult := int64(1)
	for _, u := range []struct {
		suffix string
		mult   int64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	} {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			mult = u.mult
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive, got %d", n)
	}
	if n > math.MaxInt64/mult {
		return 0, fmt.Errorf("size %s overflows int64", s)
	}
	return n * mult, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
