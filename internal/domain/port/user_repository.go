package port

import (
	"context"

	"deepfake-detector/internal/domain/entity"
)

// UserRepository интерфейс хранилища пользователей бота
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет состояние пользователя
	Save(ctx context.Context, user *entity.User) error

	// UpdateState обновляет состояние пользователя
	UpdateState(ctx context.Context, userID int64, state entity.UserState) error

	// TryStartProcessing атомарно переводит пользователя в обработку.
	// Возвращает false, если пользователь уже занят.
	TryStartProcessing(ctx context.Context, userID, chatID int64) (*entity.User, bool, error)

	// CompleteCheck возвращает пользователя в меню и увеличивает счётчик проверок
	CompleteCheck(ctx context.Context, userID int64) error
}
