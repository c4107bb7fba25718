// Package history ведёт журнал выданных артефактов по пользователям.
//
// Журнал хранится в KV под ключом history:<user> как JSON-массив,
// упорядоченный от новых записей к старым. Размер ограничен: при
// добавлении журнал усекается до 50 записей до записи обратно, старые
// записи молча отбрасываются.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/veilnet/confighub/internal/kvstore"
	"github.com/veilnet/confighub/internal/lib/keymutex"
	"github.com/veilnet/confighub/internal/models"
)

// Cap максимальное число записей в журнале пользователя.
const Cap = 50

const historyPrefix = "history:"

// Service журнал выданных артефактов.
type Service struct {
	store kvstore.Store
	locks *keymutex.KeyMutex
	log   *slog.Logger
}

// New создает новый Service.
func New(store kvstore.Store, log *slog.Logger) *Service {
	return &Service{
		store: store,
		locks: keymutex.New(),
		log:   log,
	}
}

func historyKey(userID string) string {
	return historyPrefix + userID
}

func (s *Service) load(ctx context.Context, userID string) ([]models.IssuedArtifact, error) {
	raw, found, err := s.store.Get(ctx, historyKey(userID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var entries []models.IssuedArtifact
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("corrupted history record for user %q: %w", userID, err)
	}
	return entries, nil
}

// Append добавляет запись в начало журнала и усекает его до Cap записей.
func (s *Service) Append(ctx context.Context, userID string, entry models.IssuedArtifact) error {
	const op = "history.Append"

	key := historyKey(userID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	entries, err := s.load(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	entries = append([]models.IssuedArtifact{entry}, entries...)
	if len(entries) > Cap {
		entries = entries[:Cap]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.Put(ctx, key, string(raw), 0); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("history appended",
		slog.String("user_id", userID),
		slog.String("artifact_id", entry.ID),
		slog.Int("size", len(entries)))
	return nil
}

// List возвращает журнал пользователя от новых записей к старым.
func (s *Service) List(ctx context.Context, userID string) ([]models.IssuedArtifact, error) {
	const op = "history.List"
	entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}
