package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/infrastructure/storage"
)

func TestUserService_BeginCheckAndCancel(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.BeginCheck(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingImage, user.State)

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestUserService_SetState(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.SetState(ctx, 2, 20, entity.StateAwaitingImage)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingImage, user.State)
}

func TestUserService_ProcessingLifecycle(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, ok, err := svc.StartProcessing(ctx, 3, 30)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entity.StateProcessing, user.State)

	_, ok, err = svc.StartProcessing(ctx, 3, 30)
	require.NoError(t, err)
	require.False(t, ok, "second image while busy must be rejected")

	require.NoError(t, svc.FinishProcessing(ctx, 3, true))
	user, err = svc.Get(ctx, 3, 30)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.Equal(t, 1, user.Checks)

	_, ok, err = svc.StartProcessing(ctx, 3, 30)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, svc.FinishProcessing(ctx, 3, false))
	user, err = svc.Get(ctx, 3, 30)
	require.NoError(t, err)
	require.Equal(t, 1, user.Checks)
}

// slowRepository замедляет чтение, чтобы параллельные запросы пересекались.
type slowRepository struct {
	*storage.MemoryUserRepository
}

func (r slowRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	time.Sleep(time.Millisecond)
	return r.MemoryUserRepository.Get(ctx, userID, chatID)
}

func TestUserService_StartProcessingIsExclusive(t *testing.T) {
	svc := NewUserService(slowRepository{storage.NewMemoryUserRepository()})
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		started atomic.Int32
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := svc.StartProcessing(ctx, 1, 1)
			assert.NoError(t, err)
			if ok {
				started.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), started.Load())
}
