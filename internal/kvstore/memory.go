package kvstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	value     string
	expiresAt time.Time // нулевое значение — без срока жизни
}

// MemoryStore реализация Store в памяти процесса. Срок жизни проверяется
// лениво при чтении, как и в redis-реализации. Используется в тестах и
// при локальном запуске без redis.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemory создаёт пустое in-memory хранилище.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// SetClock подменяет источник времени. Нужен в тестах TTL.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) alive(it memoryItem) bool {
	return it.expiresAt.IsZero() || s.now().Before(it.expiresAt)
}

// Get возвращает значение по ключу, если запись жива.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[key]
	if !ok || !s.alive(it) {
		return "", false, nil
	}
	return it.value, true, nil
}

// Put сохраняет значение; ttl == 0 означает запись без срока жизни.
func (s *MemoryStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := memoryItem{value: value}
	if ttl > 0 {
		it.expiresAt = s.now().Add(ttl)
	}
	s.items[key] = it
	return nil
}

// Delete удаляет запись по ключу.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// ListPrefix возвращает живые записи с заданным префиксом,
// отсортированные по ключу.
func (s *MemoryStore) ListPrefix(_ context.Context, prefix string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []Entry
	for key, it := range s.items {
		if strings.HasPrefix(key, prefix) && s.alive(it) {
			entries = append(entries, Entry{Key: key, Value: it.value})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}
