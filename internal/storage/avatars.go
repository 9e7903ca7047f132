package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFoundAvatar — объект (ключ) отсутствует в бакете.
	ErrNotFoundAvatar = errors.New("avatar not found")
	// ErrInvalidArgument — нарушены ограничения загрузки (тип/размер/ключ).
	ErrInvalidArgument = errors.New("invalid argument")
)

// UploadInfo — данные для клиента о presigned PUT загрузке аватара.
type UploadInfo struct {
	// UploadURL — конечная URL для PUT-запроса.
	UploadURL string
	// AvatarKey — ключ будущего объекта в бакете.
	AvatarKey string
	// Expires — время жизни подписи.
	Expires time.Duration
	// RequiredHeader — заголовки, которые клиент обязан передать при PUT.
	RequiredHeader map[string]string
}

// AvatarsStorage — контракт генерации presigned URL и подтверждения загрузки.
type AvatarsStorage interface {
	// AvatarUploadURL генерирует presigned PUT; валидирует contentType и contentLength.
	AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, contentLength int64) (*UploadInfo, error)
	// CheckAvatarUpload проверяет факт загрузки по key (наличие, тип, размер)
	// и возвращает публичный URL, если сконфигурирован PublicBaseURL.
	CheckAvatarUpload(ctx context.Context, userID uuid.UUID, key string) (publicURL string, err error)
}
