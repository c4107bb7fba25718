// Package keymutex реализует мьютексы, привязанные к строковому ключу.
// Используется для сериализации циклов read-modify-write по конкретному
// ключу хранилища: пулу адресов страны или записи квоты пользователя.
package keymutex

import "sync"

// KeyMutex раздаёт мьютексы по ключам. Мьютекс для ключа создаётся при
// первом обращении и живёт до конца процесса.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New создаёт пустой KeyMutex.
func New() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock захватывает мьютекс ключа key.
func (k *KeyMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock освобождает мьютекс ключа key.
func (k *KeyMutex) Unlock(key string) {
	k.get(key).Unlock()
}
