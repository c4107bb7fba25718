// Package otp реализует вход по одноразовому коду через Telegram.
//
// Код — шесть цифр; в KV хранится только sha256-хеш кода с TTL пять
// минут и счётчик неудачных попыток с потолком три. Отправка кода идёт
// через внешний Telegram-коллаборатор и никогда не выполняется под
// блокировками: его медленность или отказ не должны задерживать другие
// запросы.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/veilnet/confighub/internal/kvstore"
	"github.com/veilnet/confighub/internal/lib/sl"
)

const (
	codeTTL     = 5 * time.Minute
	maxAttempts = 3

	codePrefix     = "otp:code:"
	attemptsPrefix = "otp:attempts:"
)

var (
	// ErrDeliveryFailed Telegram не смог доставить сообщение с кодом.
	ErrDeliveryFailed = errors.New("failed to deliver one-time code")
	// ErrNotMember пользователь не состоит в обязательном канале.
	ErrNotMember = errors.New("user is not a channel member")
	// ErrCodeInvalid код не совпал, просрочен или не запрашивался.
	ErrCodeInvalid = errors.New("invalid or expired code")
	// ErrTooManyAttempts попытки ввода кода исчерпаны.
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

// Messenger внешний Telegram-коллаборатор.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text string) error
	IsChannelMember(ctx context.Context, userID string) (bool, error)
}

// SessionCreator выпускает сессию после успешной проверки кода.
type SessionCreator interface {
	Create(ctx context.Context, userID string, isAdmin bool) (string, error)
}

// Service обрабатывает запрос и проверку одноразовых кодов.
type Service struct {
	store    kvstore.Store
	msgr     Messenger
	sessions SessionCreator
	adminID  string
	log      *slog.Logger
}

// New создает новый Service. adminID — идентификатор администратора из
// конфига: его вход даёт админскую сессию.
func New(store kvstore.Store, msgr Messenger, sessions SessionCreator, adminID string, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		msgr:     msgr,
		sessions: sessions,
		adminID:  adminID,
		log:      log,
	}
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Request генерирует код для telegramID, сохраняет его хеш и отправляет
// код пользователю. Предыдущий код и счётчик попыток сбрасываются.
func (s *Service) Request(ctx context.Context, telegramID string) error {
	const op = "otp.Request"

	member, err := s.msgr.IsChannelMember(ctx, telegramID)
	if err != nil {
		s.log.Error("membership check failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, ErrDeliveryFailed)
	}
	if !member {
		return ErrNotMember
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.Put(ctx, codePrefix+telegramID, hashCode(code), codeTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.Delete(ctx, attemptsPrefix+telegramID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// отправка после записи хеша и вне каких-либо блокировок
	if err := s.msgr.SendMessage(ctx, telegramID, "Your sign-in code: "+code); err != nil {
		s.log.Error("code delivery failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, ErrDeliveryFailed)
	}

	s.log.Info("one-time code sent", slog.String("telegram_id", telegramID))
	return nil
}

func (s *Service) attempts(ctx context.Context, telegramID string) (int, error) {
	raw, found, err := s.store.Get(ctx, attemptsPrefix+telegramID)
	if err != nil || !found {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("corrupted attempts record: %w", err)
	}
	return n, nil
}

// Verify сверяет код и при успехе выпускает сессию. Возвращает токен и
// признак администратора.
func (s *Service) Verify(ctx context.Context, telegramID, code string) (string, bool, error) {
	const op = "otp.Verify"

	used, err := s.attempts(ctx, telegramID)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if used >= maxAttempts {
		return "", false, ErrTooManyAttempts
	}

	stored, found, err := s.store.Get(ctx, codePrefix+telegramID)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return "", false, ErrCodeInvalid
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(hashCode(code))) != 1 {
		if err := s.store.Put(ctx, attemptsPrefix+telegramID, strconv.Itoa(used+1), codeTTL); err != nil {
			return "", false, fmt.Errorf("%s: %w", op, err)
		}
		return "", false, ErrCodeInvalid
	}

	if err := s.store.Delete(ctx, codePrefix+telegramID); err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.Delete(ctx, attemptsPrefix+telegramID); err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	isAdmin := telegramID == s.adminID
	tok, err := s.sessions.Create(ctx, telegramID, isAdmin)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("one-time code verified",
		slog.String("telegram_id", telegramID),
		slog.Bool("is_admin", isAdmin))
	return tok, isAdmin, nil
}
