package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-gin-user-admin/internal/core/auth"
	"go-gin-user-admin/internal/domain"
	"go-gin-user-admin/pkg/utils"
)

// Revoker 令牌黑名单（redis 实现，可为空实现）
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AuthService struct {
	users   domain.UserRepository
	jwt     *auth.JWTer
	revoker Revoker
	log     *zap.Logger
}

func NewAuthService(users domain.UserRepository, jwter *auth.JWTer, revoker Revoker, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, jwt: jwter, revoker: revoker, log: log}
}

// Login 未知邮箱与密码错误返回同一个错误，避免枚举用户
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Invalid("email and password are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Debug("login rejected", zap.String("reason", "unknown email"))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		s.log.Debug("login rejected", zap.String("reason", "password mismatch"), zap.String("uid", u.ID))
		return nil, domain.ErrInvalidCredentials
	}

	tok, _, err := s.jwt.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s.log.Info("user logged in", zap.String("uid", u.ID))
	return &LoginResult{Token: tok, User: u}, nil
}

// VerifyToken 校验签名、过期与黑名单，错误均包裹 domain.ErrUnauthenticated
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	c, err := s.jwt.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, c.ID)
		if err != nil {
			// 黑名单不可用时放行，令牌本身仍然有效
			s.log.Warn("revocation check failed", zap.Error(err))
		} else if revoked {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, auth.ErrTokenRevoked)
		}
	}
	return c, nil
}

// WhoAmI 令牌签发后用户可能已被删除
func (s *AuthService) WhoAmI(ctx context.Context, uid string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Logout 将当前令牌拉黑到过期为止
func (s *AuthService) Logout(ctx context.Context, c *auth.Claims) error {
	if s.revoker == nil || c == nil || c.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(c.ExpiresAt.Time)
	if err := s.revoker.Revoke(ctx, c.ID, ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info("user logged out", zap.String("uid", c.UID))
	return nil
}
