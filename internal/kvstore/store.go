// Package kvstore определяет контракт key-value хранилища, через которое
// проходит всё состояние сервиса, и две его реализации: redis для
// продакшена и in-memory для тестов и локального запуска. Хранилище
// поддерживает срок жизни записи и листинг по префиксу ключа; записи
// с истёкшим сроком не возвращаются.
package kvstore

import (
	"context"
	"time"
)

// Entry пара ключ-значение из листинга по префиксу.
type Entry struct {
	Key   string
	Value string
}

// Store контракт key-value хранилища с TTL и листингом по префиксу.
type Store interface {
	// Get возвращает значение по ключу и признак его наличия.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put сохраняет значение; ttl == 0 означает запись без срока жизни.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete удаляет запись; отсутствие ключа не является ошибкой.
	Delete(ctx context.Context, key string) error
	// ListPrefix возвращает все живые записи с заданным префиксом ключа.
	ListPrefix(ctx context.Context, prefix string) ([]Entry, error)
}
