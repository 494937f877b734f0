package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"deepfake-detector/internal/domain/entity"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.RecordVerdict(entity.Verdict{IsDeepfake: true, Label: entity.LabelDeepfake}, 2)
	r.RecordVerdict(entity.Verdict{Label: entity.LabelAuthentic}, 0)
	r.RecordVerdict(entity.Verdict{IsDeepfake: true, Label: entity.LabelDeepfake}, 1)
	r.RecordFailure("timeout")

	require.Equal(t, 2.0, testutil.ToFloat64(r.verdicts.WithLabelValues("DEEPFAKE")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.verdicts.WithLabelValues("AUTHENTIC")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("timeout")))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveStage("classify", 15*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "deepfake_detector_stage_duration_seconds"))
}
