package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/inwren/auth-service/internal/events"
	"github.com/inwren/auth-service/internal/models"
	"github.com/inwren/auth-service/internal/pkg/log"
	"github.com/inwren/auth-service/internal/security"
	"github.com/inwren/auth-service/internal/storage"
)

// ProfileUpdate описывает частичное обновление собственного профиля:
// nil-поле означает «не трогать».
type ProfileUpdate struct {
	Email    *string
	FullName *string
}

// UserByID возвращает пользователя по идентификатору.
//
// Ошибки: ErrNotFound.
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "service.users.UserByID"

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		log.From(ctx).Error("user_lookup_failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateProfile применяет частичное обновление собственного профиля.
// Смена email проходит нормализацию и проверку уникальности.
//
// Ошибки: ErrInvalidEmail, ErrEmailTaken, ErrNotFound, ErrInvalidArgument.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	const op = "service.users.UpdateProfile"

	if upd.Email == nil && upd.FullName == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	patch := storage.UserUpdate{FullName: upd.FullName}

	if upd.Email != nil {
		email, err := validateEmail(*upd.Email)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		patch.Email = &email
	}

	user, err := s.storage.UpdateUser(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		case errors.Is(err, storage.ErrAlreadyExists):
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		log.From(ctx).Error("profile_update_failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidateCache(ctx, id)

	return user, nil
}

// ChangePassword меняет пароль после проверки текущего.
// Новый пароль проходит ту же политику, что и при регистрации; совпадение
// со старым отклоняется. Слот refresh-токена очищается: после смены пароля
// прежние refresh-токены недействительны.
//
// Ошибки: ErrIncorrectPassword, ErrWeakPassword, ErrEmptyPassword,
// ErrSamePassword, ErrNotFound.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	const op = "service.users.ChangePassword"

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		log.From(ctx).Error("user_lookup_failed", "op", op, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	if !security.VerifySecret(current, user.PasswordHash) {
		return fmt.Errorf("%s: %w", op, ErrIncorrectPassword)
	}

	if err := validatePassword(next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if next == current {
		return fmt.Errorf("%s: %w", op, ErrSamePassword)
	}

	hash, err := security.HashSecret(next)
	if err != nil {
		log.From(ctx).Error("password_hash_failed", "op", op, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePasswordHash(ctx, id, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		log.From(ctx).Error("password_update_failed", "op", op, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.SetRefreshTokenHash(ctx, id, nil); err != nil {
		log.From(ctx).Warn("refresh_slot_clear_failed", "op", op, "user_id", id.String(), "err", err)
	}

	s.invalidateCache(ctx, id)
	s.publishEvent(ctx, events.UserPasswordChanged, user)

	return nil
}

// DeactivateUser — мягкое отключение собственной учётной записи:
// is_active=false плюс очистка слота refresh-токена, чтобы выданный
// refresh-токен перестал работать немедленно, а не по истечении срока.
//
// Ошибки: ErrNotFound.
func (s *Service) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	const op = "service.users.DeactivateUser"

	inactive := false

	user, err := s.storage.UpdateUser(ctx, id, storage.UserUpdate{IsActive: &inactive})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		log.From(ctx).Error("deactivate_failed", "op", op, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.SetRefreshTokenHash(ctx, id, nil); err != nil {
		log.From(ctx).Warn("refresh_slot_clear_failed", "op", op, "user_id", id.String(), "err", err)
	}

	s.invalidateCache(ctx, id)
	s.publishEvent(ctx, events.UserDeactivated, user)

	return nil
}

// AvatarUploadURL выдаёт presigned PUT для загрузки аватара.
//
// Ошибки: ErrAvatarsDisabled, ErrInvalidArgument.
func (s *Service) AvatarUploadURL(ctx context.Context, id uuid.UUID, contentType string, size int64) (*storage.UploadInfo, error) {
	const op = "service.users.AvatarUploadURL"

	if s.avatars == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrAvatarsDisabled)
	}

	info, err := s.avatars.AvatarUploadURL(ctx, id, strings.TrimSpace(contentType), size)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidArgument) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		log.From(ctx).Error("avatar_presign_failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return info, nil
}

// ConfirmAvatarUpload проверяет загруженный объект и привязывает его к профилю.
//
// Ошибки: ErrAvatarsDisabled, ErrInvalidArgument, ErrNotFound.
func (s *Service) ConfirmAvatarUpload(ctx context.Context, id uuid.UUID, key string) (*models.User, error) {
	const op = "service.users.ConfirmAvatarUpload"

	if s.avatars == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrAvatarsDisabled)
	}

	url, err := s.avatars.CheckAvatarUpload(ctx, id, key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFoundAvatar):
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		case errors.Is(err, storage.ErrInvalidArgument):
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		log.From(ctx).Error("avatar_confirm_failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.ConfirmAvatarUpload(ctx, id, key, url)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		log.From(ctx).Error("avatar_bind_failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidateCache(ctx, id)

	return user, nil
}
