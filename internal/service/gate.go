package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/inwren/auth-service/internal/models"
	"github.com/inwren/auth-service/internal/pkg/log"
	"github.com/inwren/auth-service/internal/storage"
	"github.com/inwren/auth-service/internal/tokens"
)

// Authenticate — authorization gate: декодирует bearer access-токен,
// разбирает sub как идентификатор пользователя и загружает живую запись.
// Чистая per-request функция без побочных эффектов (кэш — только ускоритель).
//
// Ошибки:
//   - ErrInvalidToken — подпись/срок/структура/тип не прошли проверку;
//   - ErrNotFound — токен валиден, но пользователь исчез.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	const op = "service.gate.Authenticate"

	payload, err := s.codec.Decode(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if payload.Type != tokens.TypeAccess {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(payload.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if s.ucache != nil {
		if user, ok, err := s.ucache.Get(ctx, uid); err == nil && ok {
			return user, nil
		} else if err != nil {
			log.From(ctx).Warn("user_cache_get_failed", "user_id", uid.String(), "err", err)
		}
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		log.From(ctx).Error("user_lookup_failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.ucache != nil {
		if err := s.ucache.Set(ctx, user, s.cacheTTL); err != nil {
			log.From(ctx).Warn("user_cache_set_failed", "user_id", uid.String(), "err", err)
		}
	}

	return user, nil
}

// RequireSuperuser — привилегированный предикат: пропускает только superuser.
// Компонуется перед каждой административной операцией.
func (s *Service) RequireSuperuser(user *models.User) error {
	const op = "service.gate.RequireSuperuser"

	if user == nil || !user.IsSuperuser {
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	return nil
}
