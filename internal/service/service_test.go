package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-gin-user-admin/internal/core/cache"
	"go-gin-user-admin/internal/core/database"
	"go-gin-user-admin/internal/domain"
	"go-gin-user-admin/internal/repo"
	"go-gin-user-admin/pkg/utils"
)

type mockRepo struct{ mock.Mock }

var _ domain.UserRepository = (*mockRepo)(nil)

func (m *mockRepo) user(args mock.Arguments) (*domain.User, error) {
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockRepo) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *mockRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *mockRepo) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	us, _ := args.Get(0).([]domain.User)
	return us, args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      "file:" + utils.NewID() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return db
}

func newUserRepo(t *testing.T) (*repo.UserRepo, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return repo.NewUserRepo(db), db
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c
}
