// Package inventory ведёт учёт пулов адресов по странам.
//
// Запись страны хранится в KV под ключом country:<id>. Каждый адрес в
// пуле — одноразовый ресурс: выдача снимает его с головы пула и пишет
// укороченный пул в той же операции. Цикл read-modify-write по стране
// сериализуется через keymutex, поэтому два параллельных запроса не
// могут получить один и тот же адрес.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veilnet/confighub/internal/kvstore"
	"github.com/veilnet/confighub/internal/lib/keymutex"
	"github.com/veilnet/confighub/internal/models"
)

const countryPrefix = "country:"

var (
	// ErrCountryNotFound страна с таким идентификатором не опубликована.
	ErrCountryNotFound = errors.New("country not found")
	// ErrEmpty в пуле запрошенного семейства не осталось адресов.
	ErrEmpty = errors.New("address pool is empty")
)

// Service управляет записями стран и выдачей адресов из пулов.
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

func countryKey(id string) string {
	return countryPrefix + id
}

func (s *Service) load(ctx context.Context, id string) (*models.Country, error) {
	raw, found, err := s.store.Get(ctx, countryKey(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCountryNotFound
	}
	var c models.Country
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("corrupted country record %q: %w", id, err)
	}
	return &c, nil
}

func (s *Service) save(ctx context.Context, c *models.Country) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	// записи стран бессрочные, восполняются только администратором
	return s.store.Put(ctx, countryKey(c.ID), string(raw), 0)
}

// Get возвращает запись страны по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (*models.Country, error) {
	const op = "inventory.Get"
	c, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCountryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// List возвращает публичные сводки всех опубликованных стран,
// отсортированные по идентификатору.
func (s *Service) List(ctx context.Context) ([]models.CountrySummary, error) {
	const op = "inventory.List"
	entries, err := s.store.ListPrefix(ctx, countryPrefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summaries := make([]models.CountrySummary, 0, len(entries))
	for _, e := range entries {
		var c models.Country
		if err := json.Unmarshal([]byte(e.Value), &c); err != nil {
			return nil, fmt.Errorf("%s: corrupted country record %q: %w", op, e.Key, err)
		}
		summaries = append(summaries, models.CountrySummary{
			ID:       c.ID,
			Name:     c.Name,
			NameEn:   c.NameEn,
			Flag:     c.Flag,
			IPv4Left: len(c.Pool.IPv4),
			IPv6Left: len(c.Pool.IPv6),
		})
	}
	return summaries, nil
}

// Upsert создаёт или полностью замещает запись страны.
func (s *Service) Upsert(ctx context.Context, c models.Country) error {
	const op = "inventory.Upsert"

	key := countryKey(c.ID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if err := s.save(ctx, &c); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("country upserted",
		slog.String("country_id", c.ID),
		slog.Int("ipv4", len(c.Pool.IPv4)),
		slog.Int("ipv6", len(c.Pool.IPv6)))
	return nil
}

// Restock дописывает адреса в хвост пула семейства family и возвращает
// новый размер пула.
func (s *Service) Restock(ctx context.Context, id string, family models.IPFamily, addrs []string) (int, error) {
	const op = "inventory.Restock"

	key := countryKey(id)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	c, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCountryNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var size int
	switch family {
	case models.FamilyV4:
		c.Pool.IPv4 = append(c.Pool.IPv4, addrs...)
		size = len(c.Pool.IPv4)
	case models.FamilyV6:
		c.Pool.IPv6 = append(c.Pool.IPv6, addrs...)
		size = len(c.Pool.IPv6)
	default:
		return 0, fmt.Errorf("%s: unknown ip family %q", op, family)
	}

	if err := s.save(ctx, c); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("country restocked",
		slog.String("country_id", id),
		slog.String("family", string(family)),
		slog.Int("added", len(addrs)),
		slog.Int("pool_size", size))
	return size, nil
}

// Draw снимает до count адресов с головы пула семейства family и
// записывает укороченный пул той же операцией. Если адресов меньше, чем
// запрошено, выдаётся сколько есть; пустой пул — ErrEmpty. Так работает
// выдача двух IPv6-адресов с откатом к одному, когда остался последний.
func (s *Service) Draw(ctx context.Context, id string, family models.IPFamily, count int) ([]string, error) {
	const op = "inventory.Draw"

	key := countryKey(id)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	c, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCountryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var pool []string
	switch family {
	case models.FamilyV4:
		pool = c.Pool.IPv4
	case models.FamilyV6:
		pool = c.Pool.IPv6
	default:
		return nil, fmt.Errorf("%s: unknown ip family %q", op, family)
	}

	if len(pool) == 0 {
		return nil, ErrEmpty
	}
	if count > len(pool) {
		count = len(pool)
	}

	drawn := append([]string(nil), pool[:count]...)
	rest := pool[count:]
	switch family {
	case models.FamilyV4:
		c.Pool.IPv4 = rest
	case models.FamilyV6:
		c.Pool.IPv6 = rest
	}

	if err := s.save(ctx, c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("addresses drawn",
		slog.String("country_id", id),
		slog.String("family", string(family)),
		slog.Int("count", len(drawn)),
		slog.Int("pool_left", len(rest)))
	return drawn, nil
}
