package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "deepfake-detector/internal/application"
	"deepfake-detector/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для проверки изображений на дипфейки.

📸 Отправьте мне фото лица, и я проверю, не сгенерировано ли оно.

📋 Команды:
/check — начать проверку
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото или изображение файлом (PNG, JPEG, WebP, GIF)
2️⃣ Бот прогонит его через классификатор и детектор
3️⃣ Вы получите вердикт и фото с подсвеченными областями

💡 Файлом изображение приходит без сжатия, так точнее.

📋 Команды:
/check — начать проверку
/cancel — отменить операцию`

	msgAwaitingImage   = "📸 Отправьте изображение для проверки."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendImage       = "📸 Пожалуйста, отправьте изображение для проверки."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgBusy            = "⏳ Предыдущее изображение ещё обрабатывается, подождите."
	msgVideo           = "🎬 Проверка видео пока не поддерживается. Отправьте изображение."
	msgUnsupported     = "⚠️ Этот формат не поддерживается. Отправьте PNG, JPEG, WebP или GIF."
	msgUndecodable     = "⚠️ Не удалось прочитать изображение. Попробуйте другой файл."
	msgTimeout         = "⌛ Проверка заняла слишком много времени. Попробуйте позже."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте позже."
)

// Detector: сервис детекции, которым пользуется бот.
type Detector interface {
	Detect(ctx context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api       *tgbotapi.BotAPI
	users     *app.UserService
	detector  Detector
	uploadDir string
	maxBytes  int64
	logger    *slog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, detector Detector, uploadDir string, maxBytes int64, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("telegram bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:       api,
		users:     users,
		detector:  detector,
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
		logger:    logger,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	input, ok := imageInput(msg)
	if !ok {
		b.sendMessage(msg.Chat.ID, msgSendImage)
		return
	}
	if input.video {
		b.sendMessage(msg.Chat.ID, msgVideo)
		return
	}

	b.handleImage(ctx, msg, input)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	var (
		text = msgUnknownCommand
		err  error
	)

	switch msg.Command() {
	case "start":
		_, err = b.users.Cancel(ctx, msg.From.ID, msg.Chat.ID)
		text = msgStart
	case "help":
		text = msgHelp
	case "check":
		_, err = b.users.BeginCheck(ctx, msg.From.ID, msg.Chat.ID)
		text = msgAwaitingImage
	case "cancel":
		_, err = b.users.Cancel(ctx, msg.From.ID, msg.Chat.ID)
		text = msgCancelled
	}

	if err != nil {
		b.logger.Error("user state update failed", "user_id", msg.From.ID, "error", err)
	}
	b.sendMessage(msg.Chat.ID, text)
}

type input struct {
	fileID   string
	filename string
	video    bool
}

// imageInput выбирает файл из сообщения: фото наибольшего размера или документ.
func imageInput(msg *tgbotapi.Message) (input, bool) {
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		return input{fileID: photo.FileID, filename: "photo.jpg"}, true
	}
	if msg.Video != nil {
		return input{fileID: msg.Video.FileID, filename: "video.mp4", video: true}, true
	}
	if doc := msg.Document; doc != nil {
		name := doc.FileName
		if name == "" {
			name = "document" + extensionFor(doc.MimeType)
		}
		return input{
			fileID:   doc.FileID,
			filename: name,
			video:    strings.HasPrefix(doc.MimeType, "video/"),
		}, true
	}
	return input{}, false
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, in input) {
	_, started, err := b.users.StartProcessing(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("user state update failed", "user_id", msg.From.ID, "error", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}
	if !started {
		b.sendMessage(msg.Chat.ID, msgBusy)
		return
	}

	completed := false
	defer func() {
		if err := b.users.FinishProcessing(ctx, msg.From.ID, completed); err != nil {
			b.logger.Error("user state update failed", "user_id", msg.From.ID, "error", err)
		}
	}()

	b.sendMessage(msg.Chat.ID, msgProcessing)

	imageData, err := b.downloadFile(ctx, in.fileID)
	if err != nil {
		b.logger.Warn("telegram download failed", "user_id", msg.From.ID, "error", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	result, err := b.detector.Detect(ctx, entity.DetectionRequest{Filename: in.filename, ImageData: imageData})
	if err != nil {
		b.sendMessage(msg.Chat.ID, ErrorReply(err))
		return
	}
	completed = true

	text := FormatResult(result)
	if localPath := b.localResultPath(result.ResultPath); localPath != "" {
		photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FilePath(localPath))
		photo.Caption = text
		_, err := b.api.Send(photo)
		if err == nil {
			return
		}
		b.logger.Warn("telegram send photo failed", "error", err)
	}
	b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) localResultPath(resultPath string) string {
	if b.uploadDir == "" || resultPath == "" {
		return ""
	}
	return filepath.Join(b.uploadDir, path.Base(resultPath))
}

// FormatResult собирает текст ответа с вердиктом.
func FormatResult(r *entity.DetectionResult) string {
	icon := "✅"
	if r.Verdict.IsDeepfake {
		icon = "🚨"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", icon, r.Message)
	fmt.Fprintf(&sb, "Уверенность: %.1f%%\n", r.Verdict.Confidence*100)
	fmt.Fprintf(&sb, "Оценка классификатора: %.3f\n", r.Score)
	fmt.Fprintf(&sb, "Подозрительных областей: %d", len(r.Regions))
	return sb.String()
}

// ErrorReply подбирает сообщение пользователю по ошибке детекции.
func ErrorReply(err error) string {
	switch {
	case errors.Is(err, entity.ErrNotImplemented):
		return msgVideo
	case errors.Is(err, entity.ErrUnsupportedMedia), errors.Is(err, entity.ErrUnsupportedShape):
		return msgUnsupported
	case errors.Is(err, entity.ErrUndecodable):
		return msgUndecodable
	case errors.Is(err, entity.ErrTimeout):
		return msgTimeout
	default:
		return msgProcessingError
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if b.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, b.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if b.maxBytes > 0 && int64(len(data)) > b.maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", b.maxBytes)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("telegram send failed", "chat_id", chatID, "error", err)
	}
}
