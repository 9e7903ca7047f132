// service содержит бизнес-логику identity-сервиса: регистрацию и
// аутентификацию пользователей, выпуск/ротацию токенов, authorization gate
// и административные операции над учётными записями.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются сентинелами и далее маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"time"

	"github.com/inwren/auth-service/internal/cache"
	"github.com/inwren/auth-service/internal/config"
	"github.com/inwren/auth-service/internal/events"
	"github.com/inwren/auth-service/internal/storage"
	"github.com/inwren/auth-service/internal/tokens"
)

var (
	// ErrInvalidCredentials — пара email/пароль неверна или пользователь не найден.
	// Ответ единый, без раскрытия существования учётной записи. HTTP 401.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrUserInactive — учётная запись деактивирована. Отличим от ErrInvalidCredentials:
	// пароль уже совпал, существование записи и так раскрыто. HTTP 400.
	ErrUserInactive = errors.New("account inactive")

	// ErrIncorrectPassword — текущий пароль при смене не совпал. Запрос уже
	// авторизован access-токеном, скрывать нечего. HTTP 400.
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrInvalidToken — токен не прошёл проверку подписи/срока/структуры.
	// Причина не различается. HTTP 401 (bearer) или 403 (/auth/refresh).
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenRevoked — refresh-токен корректен сам по себе, но его хэш не совпадает
	// с текущим слотом (уже ротирован или отозван). HTTP 401.
	ErrTokenRevoked = errors.New("invalid or revoked refresh token")

	// ErrEmailTaken — e-mail уже занят другим пользователем. HTTP 400.
	ErrEmailTaken = errors.New("email already taken")

	// ErrNotFound — пользователь не найден. HTTP 404.
	ErrNotFound = errors.New("user not found")

	// ErrPermissionDenied — недостаточно привилегий (не superuser). HTTP 403.
	ErrPermissionDenied = errors.New("not enough privileges")

	// ErrInvalidEmail — e-mail некорректного формата. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmptyPassword — пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrWeakPassword — пароль короче минимальной длины (8 символов). HTTP 400.
	ErrWeakPassword = errors.New("password is too short")

	// ErrSamePassword — новый пароль совпадает с текущим. HTTP 400.
	ErrSamePassword = errors.New("new password must differ from the current one")

	// ErrInvalidArgument — некорректные параметры запроса. HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAvatarsDisabled — хранилище аватаров не сконфигурировано. HTTP 501.
	ErrAvatarsDisabled = errors.New("avatar storage is not configured")
)

// Service описывает бизнес-логику identity-сервиса.
type Service struct {
	storage storage.Storage
	codec   *tokens.Codec
	cfg     config.AuthConfig

	ucache   cache.UserCache        // может быть nil, если кэш не сконфигурирован
	cacheTTL time.Duration
	avatars  storage.AvatarsStorage // может быть nil, если S3 не сконфигурирован
	producer *events.Producer       // может быть nil, если Kafka не сконфигурирована
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, codec *tokens.Codec, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		codec:   codec,
		cfg:     cfg,
	}
}

// SetUserCache устанавливает кэш пользователей для authorization gate (опционально).
func (s *Service) SetUserCache(c cache.UserCache, ttl time.Duration) {
	s.ucache = c
	s.cacheTTL = ttl
}

// SetAvatarsStorage устанавливает хранилище аватаров (опционально).
func (s *Service) SetAvatarsStorage(a storage.AvatarsStorage) {
	s.avatars = a
}

// SetEventProducer устанавливает продюсер доменных событий (опционально).
func (s *Service) SetEventProducer(p *events.Producer) {
	s.producer = p
}
