package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/inwren/auth-service/internal/events"
	"github.com/inwren/auth-service/internal/models"
	"github.com/inwren/auth-service/internal/pkg/log"
	"github.com/inwren/auth-service/internal/storage"
)

// Пределы пагинации списка пользователей.
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// AdminUserUpdate — частичное административное обновление: nil-поле не трогается.
// В отличие от ProfileUpdate позволяет менять tier, is_active и is_superuser.
type AdminUserUpdate struct {
	Email       *string
	FullName    *string
	Tier        *string
	IsActive    *bool
	IsSuperuser *bool
}

// ListUsers возвращает страницу пользователей, отсортированную по created_at.
// skip<0 приводится к 0; limit вне (0, maxListLimit] — к дефолту/пределу.
func (s *Service) ListUsers(ctx context.Context, skip, limit int) ([]models.User, error) {
	const op = "service.admin.ListUsers"

	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	users, err := s.storage.ListUsers(ctx, skip, limit)
	if err != nil {
		log.From(ctx).Error("list_users_failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// AdminUpdateUser применяет частичное обновление произвольного пользователя.
// Деактивация (IsActive=false) дополнительно очищает слот refresh-токена,
// как и самостоятельная деактивация.
//
// Ошибки: ErrInvalidArgument, ErrInvalidEmail, ErrEmailTaken, ErrNotFound.
func (s *Service) AdminUpdateUser(ctx context.Context, id uuid.UUID, upd AdminUserUpdate) (*models.User, error) {
	const op = "service.admin.AdminUpdateUser"

	if upd.Email == nil && upd.FullName == nil && upd.Tier == nil &&
		upd.IsActive == nil && upd.IsSuperuser == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	patch := storage.UserUpdate{
		FullName:    upd.FullName,
		Tier:        upd.Tier,
		IsActive:    upd.IsActive,
		IsSuperuser: upd.IsSuperuser,
	}

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

		log.From(ctx).Error("admin_update_failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if upd.IsActive != nil && !*upd.IsActive {
		if err := s.storage.SetRefreshTokenHash(ctx, id, nil); err != nil {
			log.From(ctx).Warn("refresh_slot_clear_failed", "op", op, "user_id", id.String(), "err", err)
		}

		s.publishEvent(ctx, events.UserDeactivated, user)
	}

	s.invalidateCache(ctx, id)

	return user, nil
}

// AdminDeleteUser жёстко удаляет пользователя и возвращает удалённую запись.
//
// Ошибки: ErrNotFound.
func (s *Service) AdminDeleteUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "service.admin.AdminDeleteUser"

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		log.From(ctx).Error("user_lookup_failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		log.From(ctx).Error("admin_delete_failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidateCache(ctx, id)
	s.publishEvent(ctx, events.UserDeleted, user)

	return user, nil
}
