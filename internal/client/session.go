package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSession 尚未登录
var ErrNoSession = errors.New("not signed in")

type SessionStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileSession 令牌保存在 0600 权限的文件中
type FileSession struct {
	Path string
}

// DefaultSessionPath 用户配置目录下的 user-admin/session
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session path: %w", err)
	}
	return filepath.Join(dir, "user-admin", "session"), nil
}

func (s FileSession) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", ErrNoSession
	}
	return tok, nil
}

func (s FileSession) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s FileSession) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
