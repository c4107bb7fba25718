// Package request реализует HTTP-обработчик запроса одноразового кода.
//
// Handler принимает идентификатор Telegram-аккаунта, проверяет членство
// в канале и отправляет пользователю шестизначный код через бота.
package request

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/veilnet/confighub/internal/http/response"
	"github.com/veilnet/confighub/internal/lib/sl"
	"github.com/veilnet/confighub/internal/services/otp"
)

// Handler управляет HTTP-запросами на отправку одноразового кода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс запроса одноразового кода.
type Service interface {
	Request(ctx context.Context, telegramID string) error
}

// Request тело запроса.
type Request struct {
	TelegramID string `json:"telegram_id" validate:"required,numeric"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запросить одноразовый код
// @Description Отправляет шестизначный код входа в Telegram. Требует членства в канале.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор Telegram-аккаунта"
// @Success 200 {object} response.Response "Код отправлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Пользователь не в канале"
// @Failure 502 {object} response.ErrorResponse "Telegram не доставил сообщение"
// @Router /auth/request [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.request"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeValidation, "invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.Request(r.Context(), req.TelegramID); err != nil {
		switch {
		case errors.Is(err, otp.ErrNotMember):
			log.Info("code request rejected: not a channel member")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(response.CodeNotMember, "join the channel before requesting a code"))
		case errors.Is(err, otp.ErrDeliveryFailed):
			log.Error("code delivery failed", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error(response.CodeDeliveryFailed, "could not send the code, start the bot first"))
		default:
			log.Error("failed to request code", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.CodeInternal, "could not request code"))
		}
		return
	}

	log.Info("one-time code requested")
	render.JSON(w, r, response.OK())
}
