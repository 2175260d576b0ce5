package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"AginMusic/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	SetEnabled(ctx context.Context, username string, enabled bool) error
	ListUsers(ctx context.Context) ([]model.User, error)
}

// gormUserRepository implements UserRepository on top of GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new gormUserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// CreateUser adds a new user to the database.
func (r *gormUserRepository) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return 0, fmt.Errorf("failed to create user %s: %w", user.Username, err)
	}
	return user.ID, nil
}

// GetUserByUsername retrieves a user by their username. It returns nil, nil
// when no such user exists.
func (r *gormUserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user %s: %w", username, err)
	}
	return &user, nil
}

// SetEnabled 启用或禁用账号
func (r *gormUserRepository) SetEnabled(ctx context.Context, username string, enabled bool) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ?", username).
		Update("enabled", enabled)
	if res.Error != nil {
		return fmt.Errorf("failed to update user %s: %w", username, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s not found", username)
	}
	return nil
}

// ListUsers 按用户名排序列出所有账号
func (r *gormUserRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
