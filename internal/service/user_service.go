package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-gin-user-admin/internal/core/cache"
	"go-gin-user-admin/internal/domain"
)

// bcrypt 只接受前 72 字节
const maxPasswordBytes = 72

func checkPasswordLen(pw string) error {
	if len(pw) > maxPasswordBytes {
		return domain.Invalid("password must be at most 72 bytes")
	}
	return nil
}

type CreateUserInput struct {
	Name     string      `json:"name" validate:"required,max=128"`
	Email    string      `json:"email" validate:"required,email,max=191"`
	Role     domain.Role `json:"role" validate:"omitempty,oneof=admin user"`
	Password string      `json:"password" validate:"required"`
}

// UpdateUserInput nil 字段保持不变；空密码表示不修改密码
type UpdateUserInput struct {
	Name     *string      `json:"name"`
	Email    *string      `json:"email"`
	Role     *domain.Role `json:"role"`
	Password *string      `json:"password"`
}

type UserService struct {
	repo     domain.UserRepository
	log      *zap.Logger
	cache    *cache.Cache
	cacheTTL time.Duration
}

type UserOption func(*UserService)

// WithCache 开启 Get 的读穿缓存
func WithCache(c *cache.Cache, ttl time.Duration) UserOption {
	return func(s *UserService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func NewUserService(repo domain.UserRepository, log *zap.Logger, opts ...UserOption) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &UserService{repo: repo, log: log, cacheTTL: time.Minute}
	for _, o := range opts {
		o(s)
	}
	return s
}

func userKey(id string) string { return "user:" + id }

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return cache.GetOrLoadJSON(s.cache, ctx, userKey(id), s.cacheTTL, func(ctx context.Context) (*domain.User, error) {
		return s.repo.FindByID(ctx, id)
	})
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = domain.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := checkPasswordLen(in.Password); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}

	// 快速路径；唯一索引才是最终裁决
	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrConflict
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	u := &domain.User{Name: in.Name, Email: in.Email, Role: in.Role, Password: in.Password}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("uid", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateVar("name", name, "required,max=128"); err != nil {
			return nil, err
		}
		u.Name = name
	}
	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if err := validateVar("email", email, "required,email,max=191"); err != nil {
			return nil, err
		}
		if email != u.Email {
			other, err := s.repo.FindByEmail(ctx, email)
			switch {
			case err == nil && other.ID != u.ID:
				return nil, domain.ErrConflict
			case err != nil && !errors.Is(err, domain.ErrNotFound):
				return nil, err
			}
		}
		u.Email = email
	}
	if in.Role != nil && *in.Role != "" {
		if !in.Role.Valid() {
			return nil, domain.Invalid("role must be one of: admin, user")
		}
		u.Role = *in.Role
	}
	if in.Password != nil && *in.Password != "" {
		if err := checkPasswordLen(*in.Password); err != nil {
			return nil, err
		}
		u.Password = *in.Password
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.cache.Del(ctx, userKey(id))
	s.log.Info("user updated", zap.String("uid", u.ID))
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Del(ctx, userKey(id))
	s.log.Info("user deleted", zap.String("uid", id))
	return nil
}

// EnsureUser 邮箱不存在时创建账号，用于启动时初始化管理员
func (s *UserService) EnsureUser(ctx context.Context, in CreateUserInput) (bool, error) {
	_, err := s.repo.FindByEmail(ctx, in.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("ensure user: %w", err)
	}
	if _, err := s.Create(ctx, in); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("ensure user: %w", err)
	}
	return true, nil
}
