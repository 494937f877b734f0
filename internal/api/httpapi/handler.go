package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"deepfake-detector/internal/domain/entity"
)

// Detector: сервис детекции, который обслуживает /detect.
type Detector interface {
	Detect(ctx context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error)
}

type Options struct {
	MaxUploadBytes int64
	UploadDir      string
	StaticPrefix   string       // префикс URL для UploadDir, по умолчанию /static/uploads
	Metrics        http.Handler // обработчик /metrics; nil: маршрут не регистрируется
}

type Handler struct {
	detector Detector
	opts     Options
	logger   *slog.Logger
}

func NewHandler(detector Detector, opts Options, logger *slog.Logger) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.StaticPrefix == "" {
		opts.StaticPrefix = "/static/uploads"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{detector: detector, opts: opts, logger: logger}
}

type detectResponse struct {
	IsDeepfake bool    `json:"is_deepfake"`
	Confidence float64 `json:"confidence"`
	ResultPath string  `json:"result_path"`
	Message    string  `json:"message"`
}

// Routes собирает маршруты сервиса с CORS и журналированием запросов.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /detect", h.Detect)
	mux.HandleFunc("GET /health", h.Health)
	if h.opts.Metrics != nil {
		mux.Handle("GET /metrics", h.opts.Metrics)
	}
	if h.opts.UploadDir != "" {
		prefix := h.opts.StaticPrefix + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(h.opts.UploadDir))))
	}

	return loggingMiddleware(h.logger)(enableCORS(mux))
}

// Detect обрабатывает POST /detect с файлом в поле "file".
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondError(w, "No selected file", http.StatusBadRequest)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	result, err := h.detector.Detect(r.Context(), entity.DetectionRequest{
		Filename:  header.Filename,
		ImageData: imageData,
	})
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("detection failed", "filename", header.Filename, "error", err)
		}
		respondError(w, err.Error(), status)
		return
	}

	respondJSON(w, detectResponse{
		IsDeepfake: result.Verdict.IsDeepfake,
		Confidence: result.Verdict.Confidence,
		ResultPath: result.ResultPath,
		Message:    result.Message,
	}, http.StatusOK)
}

// Health проверка здоровья сервиса
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// StatusFor сопоставляет ошибку конвейера HTTP-статусу.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrUndecodable):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, entity.ErrUnsupportedShape):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, entity.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, entity.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
