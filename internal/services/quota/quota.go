// Package quota реализует дневной лимит выдач на пользователя.
//
// Счётчик хранится в KV под ключом quota:<user>:<день>:<вид> и живёт
// двое суток, чтобы пережить границу дня. Цикл read-modify-write по
// одному ключу сериализуется через keymutex, поэтому два параллельных
// инкремента одного пользователя не теряют друг друга и потолок
// проверяется до записи. Администратор лимитов не имеет: его инкремент
// ничего не пишет и возвращает сентинел -1.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/veilnet/confighub/internal/kvstore"
	"github.com/veilnet/confighub/internal/lib/day"
	"github.com/veilnet/confighub/internal/lib/keymutex"
	"github.com/veilnet/confighub/internal/models"
)

// Unlimited сентинел остатка для администратора.
const Unlimited = -1

// ErrQuotaExceeded дневной лимит выдач исчерпан.
var ErrQuotaExceeded = errors.New("daily limit reached")

// Service ведёт дневные счётчики выдач.
type Service struct {
	store kvstore.Store
	locks *keymutex.KeyMutex
	limit int
	log   *slog.Logger
	now   func() time.Time
}

// New создает новый Service с дневным лимитом limit на вид артефакта.
func New(store kvstore.Store, limit int, log *slog.Logger) *Service {
	return &Service{
		store: store,
		locks: keymutex.New(),
		limit: limit,
		log:   log,
		now:   time.Now,
	}
}

// SetClock подменяет источник времени. Нужен в тестах границы дня.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) key(userID string, kind models.ArtifactKind) string {
	return fmt.Sprintf("quota:%s:%s:%s", userID, day.Key(s.now()), kind)
}

func (s *Service) count(ctx context.Context, key string) (int, error) {
	raw, found, err := s.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("corrupted quota record %q: %w", key, err)
	}
	return n, nil
}

// Used возвращает число выдач вида kind за сегодня.
func (s *Service) Used(ctx context.Context, userID string, kind models.ArtifactKind) (int, error) {
	const op = "quota.Used"
	n, err := s.count(ctx, s.key(userID, kind))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// Remaining возвращает остаток лимита за сегодня; для администратора
// всегда Unlimited.
func (s *Service) Remaining(ctx context.Context, userID string, isAdmin bool, kind models.ArtifactKind) (int, error) {
	const op = "quota.Remaining"
	if isAdmin {
		return Unlimited, nil
	}
	used, err := s.count(ctx, s.key(userID, kind))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	left := s.limit - used
	if left < 0 {
		left = 0
	}
	return left, nil
}

// Increment увеличивает дневной счётчик и возвращает новое значение.
// Если инкремент превысил бы лимит, запись не выполняется и возвращается
// ErrQuotaExceeded. Для администратора счётчик не ведётся: метод ничего
// не пишет и возвращает Unlimited.
func (s *Service) Increment(ctx context.Context, userID string, isAdmin bool, kind models.ArtifactKind) (int, error) {
	const op = "quota.Increment"
	if isAdmin {
		return Unlimited, nil
	}

	key := s.key(userID, kind)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	used, err := s.count(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if used >= s.limit {
		return 0, ErrQuotaExceeded
	}

	next := used + 1
	if err := s.store.Put(ctx, key, strconv.Itoa(next), day.RecordTTL()); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("quota incremented",
		slog.String("user_id", userID),
		slog.String("kind", string(kind)),
		slog.Int("used", next))
	return next, nil
}

// Usage собирает дневную статистику пользователя по обоим видам артефактов.
func (s *Service) Usage(ctx context.Context, userID string, isAdmin bool) (*models.Usage, error) {
	const op = "quota.Usage"

	wgUsed, err := s.Used(ctx, userID, models.KindWireguard)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	dnsUsed, err := s.Used(ctx, userID, models.KindDNS)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	usage := &models.Usage{
		WireguardUsed: wgUsed,
		DNSUsed:       dnsUsed,
		IsAdmin:       isAdmin,
	}
	if isAdmin {
		usage.WireguardRemaining = Unlimited
		usage.DNSRemaining = Unlimited
		return usage, nil
	}
	usage.WireguardRemaining = max(0, s.limit-wgUsed)
	usage.DNSRemaining = max(0, s.limit-dnsUsed)
	return usage, nil
}
