// cache реализует опциональный Redis-кэш учётных записей для authorization
// gate: каждый защищённый запрос загружает пользователя по sub из токена,
// и короткий TTL снимает эту нагрузку с БД.
//
// Кэш — только ускоритель: источником истины остаётся storage, все мутации
// пользователя инвалидируют ключ. Устаревание ограничено TTL — тот же класс
// допущения, что и неотзываемость access-токена до истечения.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/inwren/auth-service/internal/models"
)

// UserCache — минимальный контракт кэша пользователей.
type UserCache interface {
	// Get возвращает запись и признак её наличия в кэше.
	Get(ctx context.Context, id uuid.UUID) (*models.User, bool, error)
	// Set сохраняет запись с заданным TTL.
	Set(ctx context.Context, user *models.User, ttl time.Duration) error
	// Invalidate удаляет запись (вызывается при любой мутации пользователя).
	Invalidate(ctx context.Context, id uuid.UUID) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:user:".
func NewRedisCache(redisURL, prefix string) (UserCache, error) {
	if prefix == "" {
		prefix = "auth:user:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(id uuid.UUID) string { return c.prefix + id.String() }

func (c *redisCache) Get(ctx context.Context, id uuid.UUID) (*models.User, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, err
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		// Битую запись считаем промахом и затираем.
		_ = c.rdb.Del(ctx, c.key(id)).Err()
		return nil, false, nil
	}

	return &user, true, nil
}

func (c *redisCache) Set(ctx context.Context, user *models.User, ttl time.Duration) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, c.key(user.ID), raw, ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.rdb.Del(ctx, c.key(id)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
