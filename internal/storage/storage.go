// storage содержит контракт хранилища учётных записей и сентинельные ошибки,
// на которые маппятся ошибки конкретных реализаций (postgres).
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/inwren/auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserUpdate — частичное обновление пользователя.
// Обновляются только поля с непустыми указателями; updated_at сдвигается всегда.
type UserUpdate struct {
	Email       *string
	FullName    *string
	Tier        *string
	IsActive    *bool
	IsSuperuser *bool
}

// UserStorage выполняет операции над учётными записями.
type UserStorage interface {
	// SaveUser создаёт нового пользователя; возвращает запись с серверными полями.
	SaveUser(ctx context.Context, user *models.User) (*models.User, error)
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// ListUsers возвращает страницу пользователей в порядке created_at.
	ListUsers(ctx context.Context, offset, limit int) ([]models.User, error)
	// UpdateUser выполняет частичное обновление полей из update.
	UpdateUser(ctx context.Context, id uuid.UUID, update UserUpdate) (*models.User, error)
	// UpdatePasswordHash заменяет хэш пароля.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	// SetRefreshTokenHash безусловно перезаписывает слот refresh-токена
	// (nil — очистить слот). Используется при логине.
	SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error
	// RotateRefreshTokenHash атомарно заменяет слот refresh-токена при условии,
	// что текущее значение равно oldHash (compare-and-swap). Возвращает false,
	// если слот уже изменён конкурентной ротацией или очищен.
	RotateRefreshTokenHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error)
	// SetLastLogin фиксирует момент успешного входа.
	SetLastLogin(ctx context.Context, id uuid.UUID) error
	// ConfirmAvatarUpload фиксирует avatar_key/avatar_url в записи пользователя.
	ConfirmAvatarUpload(ctx context.Context, id uuid.UUID, key, publicURL string) (*models.User, error)
	// DeleteUser физически удаляет запись (административная операция).
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	Close()
}
