// Package confighub собирает сервис выдачи конфигураций: хранилище,
// сервисы и маршруты HTTP.
package confighub

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	logouthandler "github.com/veilnet/confighub/internal/http/handlers/auth/logout"
	requesthandler "github.com/veilnet/confighub/internal/http/handlers/auth/request"
	verifyhandler "github.com/veilnet/confighub/internal/http/handlers/auth/verify"

	"github.com/veilnet/confighub/internal/http/handlers/admin/countryupsert"
	"github.com/veilnet/confighub/internal/http/handlers/admin/restock"
	"github.com/veilnet/confighub/internal/http/handlers/countries"
	"github.com/veilnet/confighub/internal/http/handlers/health"
	historyhandler "github.com/veilnet/confighub/internal/http/handlers/history"
	dnshandler "github.com/veilnet/confighub/internal/http/handlers/issue/dns"
	wireguardhandler "github.com/veilnet/confighub/internal/http/handlers/issue/wireguard"
	usagehandler "github.com/veilnet/confighub/internal/http/handlers/usage"
	"github.com/veilnet/confighub/internal/http/middlewarectx"
	"github.com/veilnet/confighub/internal/kvstore"
	"github.com/veilnet/confighub/internal/services/inventory"
	"github.com/veilnet/confighub/internal/services/issuance"
	"github.com/veilnet/confighub/internal/services/otp"
	"github.com/veilnet/confighub/internal/services/session"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, store kvstore.Store, env string,
	otpService *otp.Service, sessionService *session.Service,
	inventoryService *inventory.Service, issuanceService *issuance.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/request", requesthandler.New(logger, otpService).ServeHTTP)
		r.Post("/auth/verify", verifyhandler.New(logger, otpService).ServeHTTP)
		r.Get("/countries", countries.New(logger, inventoryService).ServeHTTP)

		// Группа с Bearer-токеном: валидность сессии проверяют сами сервисы
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.TokenMiddleware(logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, rate.Limit(5), 10))
			r.Post("/auth/logout", logouthandler.New(logger, sessionService).ServeHTTP)
			r.Post("/issue/wireguard", wireguardhandler.New(logger, issuanceService).ServeHTTP)
			r.Post("/issue/dns", dnshandler.New(logger, issuanceService).ServeHTTP)
			r.Get("/usage", usagehandler.New(logger, issuanceService).ServeHTTP)
			r.Get("/history", historyhandler.New(logger, issuanceService).ServeHTTP)
		})

		// Административная группа: сессия обязана принадлежать администратору
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.TokenMiddleware(logger))
			r.Use(middlewarectx.AdminMiddleware(sessionService, logger))
			r.Put("/admin/countries/{id}", countryupsert.New(logger, inventoryService).ServeHTTP)
			r.Post("/admin/countries/{id}/restock", restock.New(logger, inventoryService).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, store, env).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
