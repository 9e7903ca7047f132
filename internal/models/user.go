package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись пользователя.
//
// Описание полей:
//   - PasswordHash — односторонний Argon2id-хэш пароля; наружу не отдаётся;
//   - IsActive — гейт для входа по паролю (деактивированный пользователь не логинится);
//   - IsSuperuser — гейт для административных операций;
//   - Tier — метка классификации пользователя, встраивается в access-токен;
//   - RefreshTokenHash — Argon2id-хэш единственного действующего refresh-токена
//     (nil — токен не выпускался или был отозван); перезаписывается при ротации.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	Tier         string
	FullName     string
	AvatarKey    string
	AvatarURL    string
	// RefreshTokenHash — хэш текущего refresh-токена (single slot на пользователя).
	RefreshTokenHash *string
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
