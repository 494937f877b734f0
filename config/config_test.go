package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	require.Equal(t, ":8000", cfg.HTTPAddr)
	require.Empty(t, cfg.TelegramToken)
	require.Equal(t, "models/cnn_model.onnx", cfg.ClassifierModelPath)
	require.Equal(t, "models/yolov8_model.onnx", cfg.DetectorModelPath)
	require.Equal(t, BackendONNX, cfg.DetectorBackend)
	require.Equal(t, []string{"deepfake"}, cfg.DetectorClasses)
	require.Equal(t, "static/uploads", cfg.UploadDir)
	require.Equal(t, "/static/uploads", cfg.ResultURLPrefix)
	require.Equal(t, 30*time.Second, cfg.InferenceTimeout)
	require.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"HTTP_ADDR":         "127.0.0.1:9000",
		"TELEGRAM_TOKEN":    "token",
		"DETECTOR_BACKEND":  "GoCV",
		"DETECTOR_CLASSES":  "face, deepfake ,",
		"INFERENCE_TIMEOUT": "2s",
		"MAX_UPLOAD_BYTES":  "512KB",
		"ONNX_THREADS":      "4",
		"LOG_FORMAT":        "json",
	}))
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	require.Equal(t, "token", cfg.TelegramToken)
	require.Equal(t, BackendGoCV, cfg.DetectorBackend)
	require.Equal(t, []string{"face", "deepfake"}, cfg.DetectorClasses)
	require.Equal(t, 2*time.Second, cfg.InferenceTimeout)
	require.Equal(t, int64(512<<10), cfg.MaxUploadBytes)
	require.Equal(t, 4, cfg.ONNXThreads)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"timeout":  {"INFERENCE_TIMEOUT": "soon"},
		"negative": {"INFERENCE_TIMEOUT": "-1s"},
		"size":     {"MAX_UPLOAD_BYTES": "lots"},
		"zero":     {"MAX_UPLOAD_BYTES": "0"},
		"overflow": {"MAX_UPLOAD_BYTES": "99999999999GB"},
		"backend":  {"DETECTOR_BACKEND": "tensorrt"},
		"threads":  {"ONNX_THREADS": "-2"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envOf(env))
			require.Error(t, err)
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"1024": 1024,
		"10b":  10,
		"2KB":  2048,
		"50MB": 50 << 20,
		"1 GB": 1 << 30,
	}
	for in, want := range tests {
		got, err := ParseSize(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestParseSize_Overflow(t *testing.T) {
	_, err := ParseSize("99999999999GB")
	require.Error(t, err)

	got, err := ParseSize("8589934591GB")
	require.NoError(t, err)
	require.Equal(t, int64(8589934591)<<30, got)
}
