package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inwren/auth-service/internal/events"
	"github.com/inwren/auth-service/internal/models"
	"github.com/inwren/auth-service/internal/pkg/log"
	"github.com/inwren/auth-service/internal/pkg/redact"
	"github.com/inwren/auth-service/internal/security"
	"github.com/inwren/auth-service/internal/storage"
	"github.com/inwren/auth-service/internal/tokens"
)

// RegisterInput — параметры регистрации.
type RegisterInput struct {
	Email    string
	Password string
	// Tier — опциональная метка; пустая заменяется дефолтной из конфига.
	Tier string
}

// RegisterUser регистрирует нового пользователя и возвращает созданную запись.
// Пароль сохраняется только в виде Argon2id-хэша.
func (s *Service) RegisterUser(ctx context.Context, input RegisterInput) (*models.User, error) {
	const op = "service.auth.RegisterUser"

	lg := log.From(ctx).With("op", op, "email", redact.Email(input.Email))

	normEmail, err := validateEmail(input.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(input.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := security.HashSecret(input.Password)
	if err != nil {
		lg.Error("password_hash_failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tier := strings.TrimSpace(input.Tier)
	if tier == "" {
		tier = s.cfg.DefaultTier
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        normEmail,
		PasswordHash: hash,
		IsActive:     true,
		Tier:         tier,
	}

	created, err := s.storage.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		lg.Error("save_user_failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publishEvent(ctx, events.UserRegistered, created)

	return created, nil
}

// LoginUser выполняет вход по email+пароль и выпускает пару токенов.
// Порядок проверок фиксирован: поиск -> пароль -> is_active, чтобы ответ
// на несуществующий email и на неверный пароль был неотличим.
func (s *Service) LoginUser(ctx context.Context, email, password string) (*models.TokenPair, error) {
	const op = "service.auth.LoginUser"

	lg := log.From(ctx).With("op", op, "email", redact.Email(email))

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(password) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		lg.Error("user_lookup_failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !security.VerifySecret(password, user.PasswordHash) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrUserInactive)
	}

	pair, err := s.issueTokenPair(ctx, user, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.SetLastLogin(ctx, user.ID); err != nil {
		// Неудача отметки входа не проваливает логин.
		lg.Warn("set_last_login_failed", "err", err)
	}

	return pair, nil
}

// RefreshToken обновляет пару токенов по refresh-токену (ротация).
//
// Порядок проверок:
//  1. декод (подпись/срок/структура/тип) -> ErrInvalidToken;
//  2. пользователь по sub -> ErrNotFound;
//  3. хэш-сравнение со слотом -> ErrTokenRevoked (отклоняет ротированный
//     токен, даже если его собственные подпись и срок ещё валидны);
//  4. CAS-ротация слота; проигравший конкурентную ротацию также получает
//     ErrTokenRevoked (fail-closed).
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "service.auth.RefreshToken"

	lg := log.From(ctx).With("op", op)

	payload, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if payload.Type != tokens.TypeRefresh {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(payload.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("user_lookup_failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.RefreshTokenHash == nil || !security.VerifySecret(refreshToken, *user.RefreshTokenHash) {
		lg.Warn("refresh_revoked", "user_id", user.ID.String())
		return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	pair, err := s.issueTokenPair(ctx, user, user.RefreshTokenHash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// issueTokenPair выпускает новую пару access+refresh токенов и фиксирует
// хэш refresh-токена в слоте пользователя единственной записью в БД.
// При oldHash == nil слот перезаписывается безусловно (логин), иначе —
// атомарным compare-and-swap (ротация).
func (s *Service) issueTokenPair(ctx context.Context, user *models.User, oldHash *string) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	lg := log.From(ctx).With("op", op, "user_id", user.ID.String())

	now := time.Now().UTC()

	accessToken, accessExp, err := s.codec.EncodeAccess(user.ID.String(), map[string]any{
		"email": user.Email,
		"tier":  user.Tier,
	}, now)
	if err != nil {
		lg.Error("access_token_sign_failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.codec.EncodeRefresh(user.ID.String(), now)
	if err != nil {
		lg.Error("refresh_token_sign_failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshHash, err := security.HashSecret(refreshToken)
	if err != nil {
		lg.Error("refresh_hash_failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if oldHash == nil {
		if err := s.storage.SetRefreshTokenHash(ctx, user.ID, &refreshHash); err != nil {
			lg.Error("set_refresh_hash_failed", "err", err)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		rotated, err := s.storage.RotateRefreshTokenHash(ctx, user.ID, *oldHash, refreshHash)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
			}

			lg.Error("rotate_refresh_hash_failed", "err", err)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if !rotated {
			lg.Warn("refresh_rotation_lost_race")
			return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
		}
	}

	s.invalidateCache(ctx, user.ID)

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		TokenType:       "bearer",
		AccessExpiresAt: accessExp,
	}, nil
}

// publishEvent отправляет доменное событие best-effort: ошибка доставки
// логируется и не проваливает операцию.
func (s *Service) publishEvent(ctx context.Context, eventType string, user *models.User) {
	if s.producer == nil {
		return
	}

	if err := s.producer.Publish(ctx, eventType, user.ID, user.Email); err != nil {
		log.From(ctx).Warn("event_publish_failed",
			"type", eventType,
			"user_id", user.ID.String(),
			"err", err,
		)
	}
}

// invalidateCache убирает пользователя из кэша authorization gate.
func (s *Service) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.ucache == nil {
		return
	}

	if err := s.ucache.Invalidate(ctx, id); err != nil {
		log.From(ctx).Warn("user_cache_invalidate_failed", "user_id", id.String(), "err", err)
	}
}

// validateEmail проверяет базовый формат email. Обрезаются только пробельные
// края; регистр сохраняется как введён — email уникален с учётом регистра.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return email, nil
}

// validatePassword проверяет минимальные требования: непустой, длина >= 8.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
