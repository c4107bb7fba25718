package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veilnet/confighub/internal/config"
)

// RedisStore реализация Store поверх redis.
type RedisStore struct {
	db *redis.Client
}

// NewRedis создаёт подключение к redis и проверяет его доступность.
func NewRedis(ctx context.Context, cfg config.RedisConnection) (*RedisStore, error) {
	const op = "kvstore.NewRedis"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RedisStore{db: db}, nil
}

// Get возвращает значение по ключу; redis.Nil трактуется как отсутствие.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "kvstore.RedisStore.Get"
	val, err := s.db.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return val, true, nil
}

// Put сохраняет значение с опциональным сроком жизни.
func (s *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "kvstore.RedisStore.Put"
	if err := s.db.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет запись по ключу.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	const op = "kvstore.RedisStore.Delete"
	if err := s.db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListPrefix сканирует ключи по шаблону prefix* и возвращает живые записи.
// Ключ, исчезнувший между SCAN и GET, молча пропускается.
func (s *RedisStore) ListPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	const op = "kvstore.RedisStore.ListPrefix"
	var entries []Entry

	iter := s.db.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := s.db.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, Entry{Key: key, Value: val})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

// Close закрывает подключение к redis.
func (s *RedisStore) Close() error {
	return s.db.Close()
}
