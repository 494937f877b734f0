package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/domain/port"
	"deepfake-detector/internal/domain/service"
)

var (
	imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".gif": true}
	videoExtensions = map[string]bool{".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true}
)

// DetectionDeps содержит зависимости конвейера детекции.
type DetectionDeps struct {
	Decoder       port.ImageDecoder
	Classifier    port.Classifier
	Detector      port.RegionDetector
	Annotator     port.Annotator
	Store         port.ResultStore
	Fingerprinter port.Fingerprinter   // необязательно
	Metrics       port.MetricsRecorder // необязательно
}

// DetectionService проводит изображение через весь конвейер:
// декодирование, нормализация, классификатор и детектор параллельно,
// слияние, аннотация и сохранение.
type DetectionService struct {
	deps    DetectionDeps
	timeout time.Duration
	logger  *slog.Logger
}

// NewDetectionService создаёт сервис детекции. timeout ограничивает весь запрос; 0 отключает ограничение.
func NewDetectionService(deps DetectionDeps, timeout time.Duration, logger *slog.Logger) (*DetectionService, error) {
	switch {
	case deps.Decoder == nil:
		return nil, errors.New("decoder is not configured")
	case deps.Classifier == nil:
		return nil, fmt.Errorf("%w: classifier is not configured", entity.ErrModelUnavailable)
	case deps.Detector == nil:
		return nil, fmt.Errorf("%w: detector is not configured", entity.ErrModelUnavailable)
	case deps.Annotator == nil:
		return nil, errors.New("annotator is not configured")
	case deps.Store == nil:
		return nil, errors.New("result store is not configured")
	}
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DetectionService{deps: deps, timeout: timeout, logger: logger}, nil
}

// CheckMediaType проверяет расширение файла. Пустое имя не проверяется.
// Видео пока не поддерживается и возвращает ErrNotImplemented.
func CheckMediaType(filename string) error {
	if filename == "" {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case videoExtensions[ext]:
		return fmt.Errorf("%w: video processing", entity.ErrNotImplemented)
	case imageExtensions[ext]:
		return nil
	default:
		return fmt.Errorf("%w: %q", entity.ErrUnsupportedMedia, ext)
	}
}

type detectionOutcome struct {
	result *entity.DetectionResult
	err    error
}

// Detect выполняет детекцию. Любая ошибка этапа прерывает запрос;
// частичные результаты не возвращаются.
func (s *DetectionService) Detect(ctx context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error) {
	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID, "filename", req.Filename)
	started := time.Now()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan detectionOutcome, 1)
	go func() {
		result, err := s.run(ctx, requestID, req, logger)
		done <- detectionOutcome{result: result, err: err}
	}()

	var outcome detectionOutcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		outcome.err = ctx.Err()
	}

	if errors.Is(outcome.err, context.DeadlineExceeded) {
		outcome.err = fmt.Errorf("%w after %s", entity.ErrTimeout, s.timeout)
	}
	if outcome.err != nil {
		s.deps.Metrics.RecordFailure(ErrorKind(outcome.err))
		logger.Warn("detection failed", "error", outcome.err, "elapsed", time.Since(started))
		return nil, outcome.err
	}

	s.deps.Metrics.ObserveStage("total", time.Since(started))
	logger.Info("detection finished",
		"label", outcome.result.Verdict.Label,
		"confidence", outcome.result.Verdict.Confidence,
		"score", outcome.result.Score,
		"regions", len(outcome.result.Regions),
		"fingerprint", outcome.result.Fingerprint,
		"elapsed", time.Since(started),
	)
	return outcome.result, nil
}

func (s *DetectionService) run(ctx context.Context, requestID string, req entity.DetectionRequest, logger *slog.Logger) (*entity.DetectionResult, error) {
	if len(req.ImageData) == 0 {
		return nil, fmt.Errorf("%w: empty payload", entity.ErrUndecodable)
	}
	if err := CheckMediaType(req.Filename); err != nil {
		return nil, err
	}

	var raw *entity.RawImage
	if err := s.stage("decode", func() error {
		var err error
		raw, err = s.deps.Decoder.Decode(req.ImageData)
		return err
	}); err != nil {
		return nil, err
	}
	logger.Debug("image decoded", "width", raw.Width, "height", raw.Height, "channels", raw.Channels)

	var tensor *entity.NormalizedTensor
	if err := s.stage("preprocess", func() error {
		var err error
		tensor, err = service.Normalize(raw)
		return err
	}); err != nil {
		return nil, err
	}

	var fingerprint string
	if s.deps.Fingerprinter != nil {
		fp, err := s.deps.Fingerprinter.Fingerprint(raw)
		if err != nil {
			logger.Debug("fingerprint failed", "error", err)
		}
		fingerprint = fp
	}

	// Классификатор и детектор не зависят друг от друга.
	var (
		score   float64
		regions []entity.Region
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.stage("classify", func() error {
			var err error
			score, err = s.deps.Classifier.Score(gctx, tensor)
			if err != nil {
				return fmt.Errorf("classifier: %w", err)
			}
			return nil
		})
	})
	g.Go(func() error {
		return s.stage("detect", func() error {
			var err error
			regions, err = s.deps.Detector.Detect(gctx, raw)
			if err != nil {
				return fmt.Errorf("detector: %w", err)
			}
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Инференс не прерывается по контексту; после таймаута результат не учитывается.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if regions == nil {
		regions = []entity.Region{}
	}

	verdict := service.Fuse(score, regions)
	s.deps.Metrics.RecordVerdict(verdict, len(regions))

	var resultPath string
	if err := s.stage("annotate", func() error {
		annotated, err := s.deps.Annotator.Annotate(raw, regions)
		if err != nil {
			return fmt.Errorf("%w: annotate: %v", entity.ErrIOFailure, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		resultPath, err = s.deps.Store.Save(ctx, req.Filename, annotated)
		return err
	}); err != nil {
		return nil, err
	}

	return &entity.DetectionResult{
		RequestID:   requestID,
		Verdict:     verdict,
		Score:       score,
		Regions:     regions,
		ResultPath:  resultPath,
		Message:     verdict.Message(),
		Fingerprint: fingerprint,
	}, nil
}

func (s *DetectionService) stage(name string, fn func() error) error {
	started := time.Now()
	err := fn()
	s.deps.Metrics.ObserveStage(name, time.Since(started))
	return err
}

// ErrorKind возвращает короткое имя вида ошибки для метрик и логов.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, entity.ErrUnsupportedShape):
		return "unsupported_shape"
	case errors.Is(err, entity.ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, entity.ErrIOFailure):
		return "io_failure"
	case errors.Is(err, entity.ErrUndecodable):
		return "undecodable"
	case errors.Is(err, entity.ErrUnsupportedMedia):
		return "unsupported_media"
	case errors.Is(err, entity.ErrNotImplemented):
		return "not_implemented"
	case errors.Is(err, entity.ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveStage(string, time.Duration) {}
func (noopMetrics) RecordVerdict(entity.Verdict, int) {}
func (noopMetrics) RecordFailure(string) {}
