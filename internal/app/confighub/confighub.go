package confighub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/veilnet/confighub/internal/config"
	"github.com/veilnet/confighub/internal/kvstore"
	"github.com/veilnet/confighub/internal/services/history"
	"github.com/veilnet/confighub/internal/services/inventory"
	"github.com/veilnet/confighub/internal/services/issuance"
	"github.com/veilnet/confighub/internal/services/otp"
	"github.com/veilnet/confighub/internal/services/quota"
	"github.com/veilnet/confighub/internal/services/session"
	"github.com/veilnet/confighub/internal/telegram"
)

// App HTTP-приложение сервиса выдачи конфигураций.
type App struct {
	server *http.Server
	logger *slog.Logger
	store  *kvstore.RedisStore
}

// New собирает приложение: подключает redis, создает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := kvstore.NewRedis(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	tgClient := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChannelID, cfg.Telegram.APIURL)

	sessionService := session.New(store, cfg.Auth.AdminTelegramID, cfg.Auth.SessionTTL, logger)
	otpService := otp.New(store, tgClient, sessionService, cfg.Auth.AdminTelegramID, logger)
	quotaService := quota.New(store, cfg.Issuance.DailyLimit, logger)
	inventoryService := inventory.New(store, logger)
	historyService := history.New(store, logger)
	issuanceService := issuance.New(logger, sessionService, quotaService, inventoryService, historyService, cfg.Issuance.DefaultDNS)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, store, cfg.Env,
		otpService, sessionService, inventoryService, issuanceService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		store:  store,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.store.Close(); closeErr != nil {
			a.logger.Error("failed to close store", slog.Any("err", closeErr))
		}
		return err
	}
}
