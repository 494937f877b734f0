package telegram

import (
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"deepfake-detector/internal/domain/entity"
)

func TestImageInput(t *testing.T) {
	msg := &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}}
	in, ok := imageInput(msg)
	require.True(t, ok)
	require.Equal(t, "large", in.fileID)
	require.Equal(t, "photo.jpg", in.filename)
	require.False(t, in.video)

	msg = &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "image/png"}}
	in, ok = imageInput(msg)
	require.True(t, ok)
	require.Equal(t, "document.png", in.filename)

	msg = &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "clip", FileName: "clip.mov", MimeType: "video/quicktime"}}
	in, ok = imageInput(msg)
	require.True(t, ok)
	require.True(t, in.video)

	msg = &tgbotapi.Message{Video: &tgbotapi.Video{FileID: "v"}}
	in, ok = imageInput(msg)
	require.True(t, ok)
	require.True(t, in.video)

	_, ok = imageInput(&tgbotapi.Message{Text: "hello"})
	require.False(t, ok)
}

func TestFormatResult(t *testing.T) {
	text := FormatResult(&entity.DetectionResult{
		Verdict: entity.Verdict{IsDeepfake: true, Confidence: 0.5, Label: entity.LabelDeepfake},
		Score:   0.25,
		Regions: []entity.Region{{Width: 1, Height: 1}},
		Message: "Deepfake detected",
	})
	require.Contains(t, text, "🚨 Deepfake detected")
	require.Contains(t, text, "50.0%")
	require.Contains(t, text, "0.250")
	require.Contains(t, text, "Подозрительных областей: 1")

	text = FormatResult(&entity.DetectionResult{Message: "Authentic media"})
	require.Contains(t, text, "✅ Authentic media")
}

func TestErrorReply(t *testing.T) {
	require.Equal(t, msgVideo, ErrorReply(fmt.Errorf("x: %w", entity.ErrNotImplemented)))
	require.Equal(t, msgUnsupported, ErrorReply(entity.ErrUnsupportedMedia))
	require.Equal(t, msgUnsupported, ErrorReply(entity.ErrUnsupportedShape))
	require.Equal(t, msgUndecodable, ErrorReply(entity.ErrUndecodable))
	require.Equal(t, msgTimeout, ErrorReply(entity.ErrTimeout))
	require.Equal(t, msgProcessingError, ErrorReply(entity.ErrModelUnavailable))
}

func TestLocalResultPath(t *testing.T) {
	b := &Bot{uploadDir: "static/uploads"}
	require.Equal(t, "static/uploads/result_a.png", b.localResultPath("/static/uploads/result_a.png"))
	require.Empty(t, b.localResultPath(""))
	require.Empty(t, (&Bot{}).localResultPath("/x/y.png"))
}
