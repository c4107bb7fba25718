// Package session реализует выпуск и проверку сессий пользователей.
//
// Сессия хранится в KV под непрозрачным случайным токеном. Сессии
// администратора и обычных пользователей лежат в разных пространствах
// ключей, поэтому токен одного вида не может быть принят за токен
// другого. Просроченные записи удаляются лениво при проверке.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/veilnet/confighub/internal/kvstore"
	"github.com/veilnet/confighub/internal/lib/sl"
	"github.com/veilnet/confighub/internal/lib/token"
	"github.com/veilnet/confighub/internal/models"
)

const (
	userPrefix  = "session:user:"
	adminPrefix = "session:admin:"
)

// ErrInvalidSession токен отсутствует, просрочен или отозван.
var ErrInvalidSession = errors.New("invalid or expired session")

// Service выпускает и проверяет сессии.
type Service struct {
	store   kvstore.Store
	adminID string
	ttl     time.Duration
	log     *slog.Logger
	now     func() time.Time
}

// New создает новый Service. adminID — идентификатор Telegram-аккаунта
// администратора из конфига, ttl — срок жизни сессии.
func New(store kvstore.Store, adminID string, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		store:   store,
		adminID: adminID,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
	}
}

// SetClock подменяет источник времени. Нужен в тестах истечения сессий.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create выпускает новую сессию для userID и возвращает её токен.
func (s *Service) Create(ctx context.Context, userID string, isAdmin bool) (string, error) {
	const op = "session.Create"

	tok, err := token.NewSession()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	sess := models.Session{
		UserID:    userID,
		IsAdmin:   isAdmin,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	prefix := userPrefix
	if isAdmin {
		prefix = adminPrefix
	}
	if err := s.store.Put(ctx, prefix+tok, string(raw), s.ttl); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("session created",
		slog.String("user_id", userID),
		slog.Bool("is_admin", isAdmin))
	return tok, nil
}

// Validate проверяет токен и возвращает сессию. Для админской сессии
// дополнительно сверяет привязанный идентификатор с текущим конфигом:
// смена администратора отзывает старые админские сессии без ожидания
// их истечения.
func (s *Service) Validate(ctx context.Context, tok string) (*models.Session, error) {
	const op = "session.Validate"

	for _, prefix := range []string{userPrefix, adminPrefix} {
		raw, found, err := s.store.Get(ctx, prefix+tok)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !found {
			continue
		}

		var sess models.Session
		if err := json.Unmarshal([]byte(raw), &sess); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if !s.now().Before(sess.ExpiresAt) {
			if err := s.store.Delete(ctx, prefix+tok); err != nil {
				s.log.Warn("failed to delete expired session", sl.Err(err))
			}
			return nil, ErrInvalidSession
		}

		if prefix == adminPrefix {
			if sess.UserID != s.adminID {
				if err := s.store.Delete(ctx, prefix+tok); err != nil {
					s.log.Warn("failed to delete revoked admin session", sl.Err(err))
				}
				return nil, ErrInvalidSession
			}
			sess.IsAdmin = true
		} else {
			sess.IsAdmin = false
		}
		return &sess, nil
	}
	return nil, ErrInvalidSession
}

// Logout удаляет сессию по токену. Неизвестный токен не является ошибкой.
func (s *Service) Logout(ctx context.Context, tok string) error {
	const op = "session.Logout"
	for _, prefix := range []string{userPrefix, adminPrefix} {
		if err := s.store.Delete(ctx, prefix+tok); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}
