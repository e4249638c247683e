package suite

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"storyslip/internal/config"
	"storyslip/internal/domain/models"
	users "storyslip/internal/services/user_service"
	"storyslip/internal/storage"

	"github.com/google/uuid"
)

type Suite struct {
	*testing.T
	Cfg         *config.Config
	UserService *users.UserService
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()
	t.Parallel()

	cfg := config.MustLoadPath(configPath())

	ctx, cancelCtx := context.WithTimeout(context.Background(), time.Duration(time.Hour))

	userService := users.NewUserService(
		slog.New(slog.NewTextHandler(os.Stderr, nil)),
		newMemoryUserRepo(),
		cfg.TokenSecret,
		cfg.TokenTTL,
	)

	t.Cleanup(func() {
		t.Helper()
		cancelCtx()
	})

	return ctx, &Suite{
		T:           t,
		Cfg:         cfg,
		UserService: userService,
	}
}

func configPath() string {
	const key = "CONFIG_PATH"

	if v := os.Getenv(key); v != "" {
		return v
	}

	return "../config/local.yaml"
}

// memoryUserRepo держит пользователей в памяти, чтобы e2e-сценарии
// регистрации и логина не требовали поднятой БД.
type memoryUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]models.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byEmail: make(map[string]models.User)}
}

func (r *memoryUserRepo) SaveUser(ctx context.Context, user models.User) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return uuid.Nil, storage.ErrUserExists
	}

	user.CreatedAt = time.Now()
	r.byEmail[user.Email] = user

	return user.ID, nil
}

func (r *memoryUserRepo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byEmail[email]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return user, nil
}

func (r *memoryUserRepo) GetUserById(ctx context.Context, userID uuid.UUID) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.byEmail {
		if user.ID == userID {
			return user, nil
		}
	}

	return models.User{}, storage.ErrUserNotFound
}
