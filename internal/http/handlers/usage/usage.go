// Package usage реализует HTTP-обработчик дневной статистики лимитов.
package usage

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/veilnet/confighub/internal/http/middlewarectx"
	"github.com/veilnet/confighub/internal/http/response"
	"github.com/veilnet/confighub/internal/lib/sl"
	"github.com/veilnet/confighub/internal/models"
	"github.com/veilnet/confighub/internal/services/session"
)

// Handler управляет HTTP-запросами статистики лимитов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения статистики.
type Service interface {
	Usage(ctx context.Context, sessionToken string) (*models.Usage, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Дневная статистика лимитов
// @Tags Usage
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.Usage
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Router /usage [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.usage"
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

	usage, err := h.service.Usage(r.Context(), tok)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			log.Info("usage rejected: invalid session")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(response.CodeUnauthenticated, "invalid or expired session"))
			return
		}
		log.Error("failed to get usage", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.CodeInternal, "could not get usage"))
		return
	}

	render.JSON(w, r, response.OKWithData(usage))
}
