// Package issuance собирает выдачу конфигурации в одну операцию:
// проверка сессии, проверка квоты, списание адресов из пула страны,
// рендеринг артефакта, инкремент квоты и запись в журнал.
//
// Порядок шагов выбран так, чтобы отказ не оставлял частичного
// состояния: до успешного списания адресов ничего не мутируется, квота
// инкрементируется только после него. Проверка квоты и инкремент
// разнесены по времени, поэтому вся последовательность по одному
// пользователю и виду артефакта держится под ключевым мьютексом.
package issuance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veilnet/confighub/internal/lib/keymutex"
	"github.com/veilnet/confighub/internal/lib/token"
	"github.com/veilnet/confighub/internal/metrics"
	"github.com/veilnet/confighub/internal/models"
	"github.com/veilnet/confighub/internal/services/inventory"
	"github.com/veilnet/confighub/internal/services/quota"
)

// SuggestedCaption подпись к списку IPv4 DNS-серверов.
const SuggestedCaption = "These servers can be used as tunnel DNS targets in WireGuard and OpenVPN clients."

// SessionValidator проверяет токен сессии.
type SessionValidator interface {
	Validate(ctx context.Context, tok string) (*models.Session, error)
}

// Quota ведёт дневные счётчики выдач.
type Quota interface {
	Remaining(ctx context.Context, userID string, isAdmin bool, kind models.ArtifactKind) (int, error)
	Increment(ctx context.Context, userID string, isAdmin bool, kind models.ArtifactKind) (int, error)
	Usage(ctx context.Context, userID string, isAdmin bool) (*models.Usage, error)
}

// Inventory выдаёт адреса из пулов стран.
type Inventory interface {
	Draw(ctx context.Context, id string, family models.IPFamily, count int) ([]string, error)
	Get(ctx context.Context, id string) (*models.Country, error)
}

// History журнал выданных артефактов.
type History interface {
	Append(ctx context.Context, userID string, entry models.IssuedArtifact) error
	List(ctx context.Context, userID string) ([]models.IssuedArtifact, error)
}

// Request параметры запроса на выдачу.
type Request struct {
	Kind         models.ArtifactKind
	CountryID    string
	Family       models.IPFamily
	OperatorHint string
	DNSHint      string
}

// Result результат успешной выдачи: артефакт и остатки для отображения.
type Result struct {
	Artifact         models.IssuedArtifact
	CountryName      string
	IPv4Left         int
	IPv6Left         int
	QuotaRemaining   int
	SuggestedCaption string
}

// Service движок выдачи конфигураций.
type Service struct {
	log        *slog.Logger
	sessions   SessionValidator
	quota      Quota
	inventory  Inventory
	history    History
	locks      *keymutex.KeyMutex
	defaultDNS string
	now        func() time.Time
}

// New создает новый Service. defaultDNS — внешний DNS-сервер, который
// подставляется в конфиг, если клиент не передал свой.
func New(log *slog.Logger, sessions SessionValidator, q Quota, inv Inventory, hist History, defaultDNS string) *Service {
	return &Service{
		log:        log,
		sessions:   sessions,
		quota:      q,
		inventory:  inv,
		history:    hist,
		locks:      keymutex.New(),
		defaultDNS: defaultDNS,
		now:        time.Now,
	}
}

// SetClock подменяет источник времени. Нужен в тестах.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// addressCount сколько адресов потребляет артефакт: IPv6 выдаётся парой,
// откат к одному адресу делает Draw.
func addressCount(family models.IPFamily) int {
	if family == models.FamilyV6 {
		return 2
	}
	return 1
}

// Issue выполняет выдачу артефакта по токену сессии. Каждый успешный
// вызов потребляет новые адреса и инкрементирует квоту: повтор после
// успеха выдаёт второй артефакт, повтор после отказа безопасен.
func (s *Service) Issue(ctx context.Context, sessionToken string, req Request) (*Result, error) {
	const op = "issuance.Issue"

	sess, err := s.sessions.Validate(ctx, sessionToken)
	if err != nil {
		metrics.RejectedTotal.WithLabelValues("unauthenticated").Inc()
		return nil, err
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", sess.UserID),
		slog.String("kind", string(req.Kind)),
		slog.String("country_id", req.CountryID),
		slog.String("family", string(req.Family)))

	// последовательность проверка квоты — списание — инкремент держится
	// под мьютексом пользователя и вида, иначе две параллельные выдачи
	// прошли бы одну и ту же проверку
	lockKey := fmt.Sprintf("issue:%s:%s", sess.UserID, req.Kind)
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	remaining, err := s.quota.Remaining(ctx, sess.UserID, sess.IsAdmin, req.Kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if remaining == 0 {
		log.Info("issue rejected: quota exceeded")
		metrics.RejectedTotal.WithLabelValues("quota_exceeded").Inc()
		return nil, quota.ErrQuotaExceeded
	}

	addrs, err := s.inventory.Draw(ctx, req.CountryID, req.Family, addressCount(req.Family))
	if err != nil {
		metrics.RejectedTotal.WithLabelValues(drawRejectReason(err)).Inc()
		return nil, err
	}

	quotaLeft := quota.Unlimited
	if newUsed, err := s.quota.Increment(ctx, sess.UserID, sess.IsAdmin, req.Kind); err != nil {
		// под мьютексом сюда попасть нельзя; адреса уже списаны
		return nil, fmt.Errorf("%s: quota increment after draw: %w", op, err)
	} else if newUsed != quota.Unlimited {
		quotaLeft = remaining - 1
	}

	text, caption, err := s.render(req, addrs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	artifact := models.IssuedArtifact{
		ID:                uuid.New().String(),
		UserID:            sess.UserID,
		Kind:              req.Kind,
		CountryID:         req.CountryID,
		Family:            req.Family,
		ConsumedAddresses: addrs,
		Text:              text,
		CreatedAt:         s.now(),
	}
	if err := s.history.Append(ctx, sess.UserID, artifact); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	country, err := s.inventory.Get(ctx, req.CountryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.IssuedTotal.WithLabelValues(string(req.Kind), string(req.Family)).Inc()
	log.Info("artifact issued",
		slog.String("artifact_id", artifact.ID),
		slog.Int("addresses", len(addrs)))

	return &Result{
		Artifact:         artifact,
		CountryName:      country.Name,
		IPv4Left:         len(country.Pool.IPv4),
		IPv6Left:         len(country.Pool.IPv6),
		QuotaRemaining:   quotaLeft,
		SuggestedCaption: caption,
	}, nil
}

func drawRejectReason(err error) string {
	if errors.Is(err, inventory.ErrCountryNotFound) {
		return "not_found"
	}
	return "out_of_stock"
}

// render строит текст артефакта. Для wireguard — interface-блок с
// заглушкой приватного ключа; для dns — список адресов по строкам и
// подпись для IPv4.
func (s *Service) render(req Request, addrs []string) (text, caption string, err error) {
	switch req.Kind {
	case models.KindWireguard:
		text, err = s.renderWireguard(req, addrs)
		return text, "", err
	case models.KindDNS:
		if req.Family == models.FamilyV4 {
			caption = SuggestedCaption
		}
		return strings.Join(addrs, "\n"), caption, nil
	default:
		return "", "", fmt.Errorf("unknown artifact kind %q", req.Kind)
	}
}

func (s *Service) renderWireguard(req Request, addrs []string) (string, error) {
	key, err := token.NewWireguardKey()
	if err != nil {
		return "", err
	}

	mask := "/32"
	if req.Family == models.FamilyV6 {
		mask = "/128"
	}
	cidrs := make([]string, len(addrs))
	for i, addr := range addrs {
		cidrs[i] = addr + mask
	}

	externalDNS := req.DNSHint
	if externalDNS == "" {
		externalDNS = s.defaultDNS
	}
	dnsLine := strings.Join(append(append([]string(nil), addrs...), externalDNS), ", ")

	var b strings.Builder
	if req.OperatorHint != "" {
		fmt.Fprintf(&b, "# %s\n", req.OperatorHint)
	}
	b.WriteString("[Interface]\n")
	fmt.Fprintf(&b, "PrivateKey = %s\n", key)
	fmt.Fprintf(&b, "Address = %s\n", strings.Join(cidrs, ", "))
	fmt.Fprintf(&b, "DNS = %s\n", dnsLine)
	return b.String(), nil
}

// Usage возвращает дневную статистику лимитов по токену сессии.
func (s *Service) Usage(ctx context.Context, sessionToken string) (*models.Usage, error) {
	const op = "issuance.Usage"
	sess, err := s.sessions.Validate(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	usage, err := s.quota.Usage(ctx, sess.UserID, sess.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return usage, nil
}

// History возвращает журнал выдач по токену сессии, новые записи первыми.
func (s *Service) History(ctx context.Context, sessionToken string) ([]models.IssuedArtifact, error) {
	const op = "issuance.History"
	sess, err := s.sessions.Validate(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.List(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}
