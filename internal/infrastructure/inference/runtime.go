package inference

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// RuntimeConfig настраивает окружение ONNX Runtime.
type RuntimeConfig struct {
	LibraryPath string // путь к libonnxruntime; если пусто, ищется в системных каталогах
	NumThreads  int    // потоки внутри операторов; 0 оставляет значение рантайма
}

// InitEnvironment находит библиотеку ONNX Runtime и инициализирует окружение.
// Повторный вызов после успешной инициализации ничего не делает.
func InitEnvironment(cfg RuntimeConfig) error {
	if ort.IsInitialized() {
		return nil
	}

	path, err := libraryPath(cfg.LibraryPath)
	if err != nil {
		return err
	}
	ort.SetSharedLibraryPath(path)

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// DestroyEnvironment освобождает окружение ONNX Runtime.
func DestroyEnvironment() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

func libraryPath(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("onnx runtime library: %w", err)
		}
		return configured, nil
	}

	name, err := libraryName()
	if err != nil {
		return "", err
	}
	for _, dir := range []string{"/usr/local/lib", "/usr/lib", "/opt/onnxruntime/lib", "./onnxruntime/lib"} {
		p := dir + "/" + name
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("onnx runtime library not found, set ONNX_LIBRARY_PATH")
}

func libraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

// sessionOptions создаёт опции сессии; вызывающий обязан вызвать Destroy.
func sessionOptions(cfg RuntimeConfig) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("set intra-op threads: %w", err)
		}
	}
	return opts, nil
}

// modelIO читает имена и формы входа и выхода модели с одним входом и одним выходом.
func modelIO(modelPath string) (ort.InputOutputInfo, ort.InputOutputInfo, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return ort.InputOutputInfo{}, ort.InputOutputInfo{}, err
	}
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return ort.InputOutputInfo{}, ort.InputOutputInfo{}, fmt.Errorf("io info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return ort.InputOutputInfo{}, ort.InputOutputInfo{},
			fmt.Errorf("unexpected io (in:%d out:%d)", len(inputs), len(outputs))
	}
	return inputs[0], outputs[0], nil
}

// staticShape подставляет batch=1 вместо динамических размеров первой оси
// и отвергает прочие динамические оси.
func staticShape(dims ort.Shape, fallback ...int64) (ort.Shape, error) {
	shape := make(ort.Shape, len(dims))
	for i, d := range dims {
		switch {
		case d > 0:
			shape[i] = d
		case i == 0:
			shape[i] = 1
		case i-1 < len(fallback) && fallback[i-1] > 0:
			shape[i] = fallback[i-1]
		default:
			return nil, fmt.Errorf("dynamic dimension %d in shape %v", i, dims)
		}
	}
	return shape, nil
}
