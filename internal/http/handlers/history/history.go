// Package history реализует HTTP-обработчик журнала выдач пользователя.
package history

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

// Handler управляет HTTP-запросами журнала выдач.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения журнала.
type Service interface {
	History(ctx context.Context, sessionToken string) ([]models.IssuedArtifact, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Журнал выдач
// @Description Возвращает до 50 последних выдач пользователя, новые первыми.
// @Tags History
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Router /history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.history"
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

	entries, err := h.service.History(r.Context(), tok)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			log.Info("history rejected: invalid session")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(response.CodeUnauthenticated, "invalid or expired session"))
			return
		}
		log.Error("failed to list history", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.CodeInternal, "could not list history"))
		return
	}

	log.Info("history listed", slog.Int("count", len(entries)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"entries": entries,
	}))
}
