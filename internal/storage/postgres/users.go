package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inwren/auth-service/internal/models"
	"github.com/inwren/auth-service/internal/storage"
)

// userColumns — единый список колонок таблицы users,
// используемый в SELECT/RETURNING, чтобы гарантировать одинаковый порядок сканирования.
const userColumns = `
id, email, password_hash, is_active, is_superuser, tier, full_name,
avatar_key, avatar_url, refresh_token_hash, last_login_at, created_at, updated_at
`

// scanUser сканирует одну строку users в доменную модель.
func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsSuperuser,
		&user.Tier,
		&user.FullName,
		&user.AvatarKey,
		&user.AvatarURL,
		&user.RefreshTokenHash,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &user, nil
}

// SaveUser создаёт нового пользователя.
// Ошибки: storage.ErrAlreadyExists при конфликте уникальности email.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (id, email, password_hash, is_active, is_superuser, tier, full_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	row := s.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.IsSuperuser,
		user.Tier,
		user.FullName,
	)

	result, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	result, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	result, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// ListUsers возвращает страницу пользователей в порядке создания.
func (s *Storage) ListUsers(ctx context.Context, offset, limit int) ([]models.User, error) {
	const op = "storage.postgres.ListUsers"

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2`

	rows, err := s.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// UpdateUser выполняет частичный апдейт: обновляет только поля с непустыми
// указателями и всегда сдвигает updated_at = now().
// Ошибки: storage.ErrNotFound при отсутствии записи, storage.ErrAlreadyExists
// при конфликте уникальности email.
func (s *Storage) UpdateUser(ctx context.Context, id uuid.UUID, update storage.UserUpdate) (*models.User, error) {
	const op = "storage.postgres.UpdateUser"

	sets := []string{"updated_at = now()"}
	args := []any{id}
	count := 1

	add := func(column string, value any) {
		count++
		sets = append(sets, fmt.Sprintf("%s = $%d", column, count))
		args = append(args, value)
	}

	if update.Email != nil {
		add("email", *update.Email)
	}
	if update.FullName != nil {
		add("full_name", *update.FullName)
	}
	if update.Tier != nil {
		add("tier", *update.Tier)
	}
	if update.IsActive != nil {
		add("is_active", *update.IsActive)
	}
	if update.IsSuperuser != nil {
		add("is_superuser", *update.IsSuperuser)
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + userColumns

	result, err := scanUser(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// UpdatePasswordHash заменяет хэш пароля.
func (s *Storage) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	const op = "storage.postgres.UpdatePasswordHash"

	query := `
		UPDATE users
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SetRefreshTokenHash безусловно перезаписывает слот refresh-токена.
func (s *Storage) SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error {
	const op = "storage.postgres.SetRefreshTokenHash"

	query := `
		UPDATE users
		SET refresh_token_hash = $2, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// RotateRefreshTokenHash атомарно заменяет слот refresh-токена (CAS по oldHash).
// Возвращает:
//
//	(true, nil)  — слот содержал oldHash и заменён на newHash;
//	(false, nil) — слот изменён конкурентной ротацией или очищен (проигравший
//	               при гонке видит именно этот исход);
//	(false, ErrNotFound) — пользователь не найден.
func (s *Storage) RotateRefreshTokenHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error) {
	const op = "storage.postgres.RotateRefreshTokenHash"

	const upd = `
		UPDATE users
		SET refresh_token_hash = $3, updated_at = now()
		WHERE id = $1 AND refresh_token_hash = $2
		RETURNING id
	`

	var updatedID uuid.UUID
	err := s.db.QueryRow(ctx, upd, id, oldHash, newHash).Scan(&updatedID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	const sel = `SELECT 1 FROM users WHERE id = $1`

	var one int
	if err := s.db.QueryRow(ctx, sel, id).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return false, nil
}

// SetLastLogin фиксирует момент успешного входа.
func (s *Storage) SetLastLogin(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.SetLastLogin"

	query := `UPDATE users SET last_login_at = now() WHERE id = $1`

	if _, err := s.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConfirmAvatarUpload фиксирует avatar_key и (опционально) avatar_url.
func (s *Storage) ConfirmAvatarUpload(ctx context.Context, id uuid.UUID, key, publicURL string) (*models.User, error) {
	const op = "storage.postgres.ConfirmAvatarUpload"

	query := `
		UPDATE users
		SET avatar_key = $2, avatar_url = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	result, err := scanUser(s.db.QueryRow(ctx, query, id, key, publicURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// DeleteUser физически удаляет запись пользователя.
func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteUser"

	query := `DELETE FROM users WHERE id = $1`

	cmdTag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
