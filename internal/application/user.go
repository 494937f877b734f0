package app

import (
	"context"

	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingImage)
}

// StartProcessing переводит пользователя в обработку. Возвращает false,
// если предыдущее изображение ещё обрабатывается.
func (s *UserService) StartProcessing(ctx context.Context, userID, chatID int64) (*entity.User, bool, error) {
	return s.repo.TryStartProcessing(ctx, userID, chatID)
}

// FinishProcessing возвращает пользователя в главное меню после проверки.
func (s *UserService) FinishProcessing(ctx context.Context, userID int64, completed bool) error {
	if completed {
		return s.repo.CompleteCheck(ctx, userID)
	}
	return s.repo.UpdateState(ctx, userID, entity.StateMainMenu)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
