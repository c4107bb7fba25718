// Package countries реализует HTTP-обработчик списка доступных стран.
package countries

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/veilnet/confighub/internal/http/response"
	"github.com/veilnet/confighub/internal/lib/sl"
	"github.com/veilnet/confighub/internal/models"
)

// Handler управляет HTTP-запросами списка стран.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения каталога стран.
type Service interface {
	List(ctx context.Context) ([]models.CountrySummary, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список стран
// @Description Возвращает все страны каталога с остатками адресов по семействам.
// @Tags Countries
// @Produce  json
// @Success 200 {object} map[string]any
// @Router /countries [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.countries"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	list, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list countries", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.CodeInternal, "could not list countries"))
		return
	}

	log.Info("countries listed", slog.Int("count", len(list)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"countries": list,
	}))
}
