// Package health реализует HTTP-обработчик проверки живости сервиса.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/veilnet/confighub/internal/http/response"
	"github.com/veilnet/confighub/internal/kvstore"
	"github.com/veilnet/confighub/internal/lib/sl"
)

// Handler отвечает на запросы проверки живости.
type Handler struct {
	log   *slog.Logger
	store kvstore.Store
	env   string
}

// New создает новый Handler.
func New(log *slog.Logger, store kvstore.Store, env string) *Handler {
	return &Handler{log: log, store: store, env: env}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Description Проверяет доступность хранилища и возвращает окружение сервиса.
// @Tags Health
// @Produce  json
// @Success 200 {object} map[string]any
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	if _, _, err := h.store.Get(r.Context(), "health:probe"); err != nil {
		h.log.Error("store is unreachable", slog.String("op", op), sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error(response.CodeInternal, "store is unreachable"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"env": h.env,
	}))
}
