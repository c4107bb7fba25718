// Package verify реализует HTTP-обработчик проверки одноразового кода.
//
// Handler принимает идентификатор Telegram-аккаунта и шестизначный код,
// сверяет код и при успехе возвращает токен сессии.
package verify

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

// Handler управляет HTTP-запросами на проверку одноразового кода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс проверки одноразового кода.
type Service interface {
	Verify(ctx context.Context, telegramID, code string) (string, bool, error)
}

// Request тело запроса.
type Request struct {
	TelegramID string `json:"telegram_id" validate:"required,numeric"`
	Code       string `json:"code" validate:"required,len=6,numeric"`
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
// @Summary Проверить одноразовый код
// @Description Сверяет код из Telegram и возвращает токен сессии.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор и код"
// @Success 200 {object} map[string]any "Токен сессии"
// @Failure 401 {object} response.ErrorResponse "Неверный или просроченный код"
// @Failure 429 {object} response.ErrorResponse "Попытки исчерпаны"
// @Router /auth/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"
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

	token, isAdmin, err := h.service.Verify(r.Context(), req.TelegramID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrTooManyAttempts):
			log.Info("verification rejected: attempts exhausted")
			w.WriteHeader(http.StatusTooManyRequests)
			render.JSON(w, r, response.Error(response.CodeTooManyRequests, "too many attempts, request a new code"))
		case errors.Is(err, otp.ErrCodeInvalid):
			log.Info("verification rejected: invalid code")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(response.CodeUnauthenticated, "invalid or expired code"))
		default:
			log.Error("failed to verify code", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.CodeInternal, "could not verify code"))
		}
		return
	}

	log.Info("session issued", slog.Bool("is_admin", isAdmin))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":    token,
		"is_admin": isAdmin,
	}))
}
