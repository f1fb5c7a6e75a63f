package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"go-gin-user-admin/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

var _ domain.UserRepository = (*UserRepo)(nil)

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", domain.NormalizeEmail(email))
}

func (r *UserRepo) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// List 按插入顺序
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0)
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update 只更新已存在的行；Save 在 0 行受影响时会回退为插入
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	res := r.db.WithContext(ctx).Model(u).Select("*").Omit("created_at").Updates(u)
	if res.Error != nil {
		if isDupKey(res.Error) {
			return domain.ErrConflict
		}
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// mysql 对未变化的行返回 0，需再确认行是否存在
		var n int64
		if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", u.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if n == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

// Delete 硬删除，无软删
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// isDupKey 唯一约束冲突：优先 gorm 翻译后的错误，再按驱动文本兜底
func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
