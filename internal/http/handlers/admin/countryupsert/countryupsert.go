// Package countryupsert реализует HTTP-обработчик публикации страны.
package countryupsert

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
)

// Handler управляет HTTP-запросами создания и замены записи страны.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс публикации страны в каталоге.
type Service interface {
	Upsert(ctx context.Context, c models.Country) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Request тело запроса публикации страны. Пулы задаются целиком и
// замещают текущие.
type Request struct {
	Name   string   `json:"name" validate:"required"`
	NameEn string   `json:"name_en"`
	Flag   string   `json:"flag"`
	IPv4   []string `json:"ipv4"`
	IPv6   []string `json:"ipv6"`
}

// ServeHTTP godoc
// @Summary Публикация страны
// @Description Создаёт или полностью замещает запись страны вместе с пулами адресов.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Идентификатор страны"
// @Param request body Request true "Данные страны"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Router /admin/countries/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.countryupsert"
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

	country := models.Country{
		ID:     id,
		Name:   req.Name,
		NameEn: req.NameEn,
		Flag:   req.Flag,
		Pool: models.AddressPool{
			IPv4: req.IPv4,
			IPv6: req.IPv6,
		},
	}

	if err := h.service.Upsert(r.Context(), country); err != nil {
		log.Error("failed to upsert country", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.CodeInternal, "could not save country"))
		return
	}

	log.Info("country upserted", slog.String("country_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":        id,
		"ipv4_left": len(req.IPv4),
		"ipv6_left": len(req.IPv6),
	}))
}
