package container

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"deepfake-detector/config"
	app "deepfake-detector/internal/application"
	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/domain/port"
	"deepfake-detector/internal/infrastructure/inference"
	"deepfake-detector/internal/infrastructure/metrics"
	"deepfake-detector/internal/infrastructure/storage"
	"deepfake-detector/internal/infrastructure/vision"
)

// Container владеет моделями и сервисами процесса. После New не меняется.
type Container struct {
	UserService      *app.UserService
	DetectionService *app.DetectionService
	Metrics          *metrics.Recorder
	UploadDir        string

	closers []io.Closer
	onnx    bool
}

// New загружает модели и собирает сервисы. Ошибка загрузки модели
// оборачивается в entity.ErrModelUnavailable.
func New(cfg *config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}

	c := &Container{Metrics: recorder, UploadDir: cfg.UploadDir}

	rt := inference.RuntimeConfig{LibraryPath: cfg.ONNXLibraryPath, NumThreads: cfg.ONNXThreads}
	if err := inference.InitEnvironment(rt); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
	}
	c.onnx = true

	classifier, err := inference.NewClassifier(cfg.ClassifierModelPath, rt)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
	}
	c.closers = append(c.closers, classifier)
	logger.Info("classifier loaded", "path", cfg.ClassifierModelPath)

	detector, annotator, err := c.loadDetector(cfg, rt)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
	}
	logger.Info("detector loaded", "path", cfg.DetectorModelPath, "backend", cfg.DetectorBackend)

	store, err := storage.NewFileResultStore(cfg.UploadDir, cfg.ResultURLPrefix)
	if err != nil {
		c.Close()
		return nil, err
	}

	detection, err := app.NewDetectionService(app.DetectionDeps{
		Decoder:       vision.NewDecoder(),
		Classifier:    classifier,
		Detector:      detector,
		Annotator:     annotator,
		Store:         store,
		Fingerprinter: vision.NewFingerprinter(),
		Metrics:       recorder,
	}, cfg.InferenceTimeout, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.DetectionService = detection
	c.UserService = app.NewUserService(storage.NewMemoryUserRepository())
	return c, nil
}

func (c *Container) loadDetector(cfg *config.Config, rt inference.RuntimeConfig) (port.RegionDetector, port.Annotator, error) {
	yolo := vision.DefaultYOLOConfig()

	if cfg.DetectorBackend == config.BackendGoCV {
		detector, err := vision.NewGoCVDetector(cfg.DetectorModelPath, yolo)
		if err != nil {
			return nil, nil, err
		}
		c.closers = append(c.closers, detector)

		annotator, err := vision.NewGoCVAnnotator(cfg.DetectorClasses)
		if err != nil {
			return nil, nil, err
		}
		return detector, annotator, nil
	}

	detector, err := inference.NewDetector(cfg.DetectorModelPath, yolo, rt)
	if err != nil {
		return nil, nil, err
	}
	c.closers = append(c.closers, detector)
	return detector, vision.NewAnnotator(cfg.DetectorClasses), nil
}

// Close освобождает сессии моделей и окружение ONNX Runtime.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil

	if c.onnx {
		if err := inference.DestroyEnvironment(); err != nil {
			errs = append(errs, err)
		}
		c.onnx = false
	}
	return errors.Join(errs...)
}
