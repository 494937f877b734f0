package port

import (
	"time"

	"deepfake-detector/internal/domain/entity"
)

// MetricsRecorder собирает метрики конвейера
type MetricsRecorder interface {
	ObserveStage(stage string, d time.Duration)
	RecordVerdict(v entity.Verdict, regions int)
	RecordFailure(kind string)
}
