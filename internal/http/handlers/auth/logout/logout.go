// Package logout реализует HTTP-обработчик завершения сессии.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/veilnet/confighub/internal/http/middlewarectx"
	"github.com/veilnet/confighub/internal/http/response"
	"github.com/veilnet/confighub/internal/lib/sl"
)

// Handler управляет HTTP-запросами на завершение сессии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс завершения сессии.
type Service interface {
	Logout(ctx context.Context, tok string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Завершить сессию
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tok, ok := r.Context().Value(middlewarectx.Token).(string)
	if !ok || tok == "" {
		log.Error("session token not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.CodeUnauthenticated, "unauthorized"))
		return
	}

	if err := h.service.Logout(r.Context(), tok); err != nil {
		log.Error("failed to logout", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.CodeInternal, "could not logout"))
		return
	}

	log.Info("session destroyed")
	render.JSON(w, r, response.OK())
}
