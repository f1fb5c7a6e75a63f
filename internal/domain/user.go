package domain

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"go-gin-user-admin/pkg/utils"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleUser }

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Role         Role      `gorm:"size:16;not null;default:user" json:"role"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Password 明文，仅在写库前由 BeforeSave 转成哈希
	Password string `gorm:"-" json:"-"`
}

func (User) TableName() string { return "users" }

func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// BeforeSave 统一规范化字段并哈希密码（Create/Save 都会触发）
func (u *User) BeforeSave(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Password != "" {
		h, err := utils.HashPassword(u.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = h
		u.Password = ""
	}
	return nil
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}
