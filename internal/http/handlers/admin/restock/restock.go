// Package restock реализует HTTP-обработчик пополнения пула адресов.
package restock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/veilnet/confighub/internal/http/response"
	"github.com/veilnet/confighub/internal/lib/sl"
	"github.com/veilnet/confighub/internal/models"
	"github.com/veilnet/confighub/internal/services/inventory"
)

// Handler управляет HTTP-запросами пополнения пулов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс пополнения пула страны.
type Service interface {
	Restock(ctx context.Context, id string, family models.IPFamily, addrs []string) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Request тело запроса пополнения. Адреса дописываются в хвост пула.
type Request struct {
	IPFamily  string   `json:"ip_family" validate:"required,oneof=v4 v6"`
	Addresses []string `json:"addresses" validate:"required,min=1"`
}

// ServeHTTP godoc
// @Summary Пополнение пула
// @Description Дописывает адреса в хвост пула выбранного семейства.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Идентификатор страны"
// @Param request body Request true "Семейство и адреса"
// @Success 200 {object} map[string]any
// @Failure 404 {object} response.ErrorResponse "Страна не найдена"
// @Router /admin/countries/{id}/restock [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.restock"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Error("country id missing in path")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeValidation, "country id is required"))
		return
	}

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			log.Error("request body is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.CodeValidation, "empty request"))
			return
		}
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeValidation, "failed to decode request"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		errors.As(err, &validateErr)
		log.Error("invalid request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(validateErr))
		return
	}

	size, err := h.service.Restock(r.Context(), id, models.IPFamily(req.IPFamily), req.Addresses)
	if err != nil {
		if errors.Is(err, inventory.ErrCountryNotFound) {
			log.Info("restock rejected: country not found", slog.String("country_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(response.CodeNotFound, "country not found"))
			return
		}
		log.Error("failed to restock country", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.CodeInternal, "could not restock country"))
		return
	}

	log.Info("country restocked",
		slog.String("country_id", id),
		slog.String("family", req.IPFamily),
		slog.Int("added", len(req.Addresses)),
		slog.Int("pool_size", size))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":        id,
		"ip_family": req.IPFamily,
		"pool_size": size,
	}))
}
