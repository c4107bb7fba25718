// Package dns реализует HTTP-обработчик выдачи списка DNS-серверов.
package dns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/veilnet/confighub/internal/http/middlewarectx"
	"github.com/veilnet/confighub/internal/http/response"
	"github.com/veilnet/confighub/internal/lib/sl"
	"github.com/veilnet/confighub/internal/models"
	"github.com/veilnet/confighub/internal/services/inventory"
	"github.com/veilnet/confighub/internal/services/issuance"
	"github.com/veilnet/confighub/internal/services/quota"
	"github.com/veilnet/confighub/internal/services/session"
)

// Handler управляет HTTP-запросами на выдачу DNS-серверов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс движка выдачи.
type Service interface {
	Issue(ctx context.Context, sessionToken string, req issuance.Request) (*issuance.Result, error)
}

// Request тело запроса.
type Request struct {
	CountryID string `json:"country_id" validate:"required"`
	IPFamily  string `json:"ip_family" validate:"required,oneof=v4 v6"`
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
// @Summary Выдать список DNS-серверов
// @Description Списывает адреса из пула страны и возвращает их списком. Каждый вызов расходует дневной лимит.
// @Tags Issue
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Параметры выдачи"
// @Success 200 {object} map[string]any "Адреса и остатки"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 404 {object} response.ErrorResponse "Страна не найдена"
// @Failure 400 {object} response.ErrorResponse "Пул адресов пуст"
// @Failure 429 {object} response.ErrorResponse "Дневной лимит исчерпан"
// @Router /issue/dns [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.issue.dns"
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

	tok, ok := r.Context().Value(middlewarectx.Token).(string)
	if !ok || tok == "" {
		log.Error("session token not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.CodeUnauthenticated, "unauthorized"))
		return
	}

	res, err := h.service.Issue(r.Context(), tok, issuance.Request{
		Kind:      models.KindDNS,
		CountryID: req.CountryID,
		Family:    models.IPFamily(req.IPFamily),
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidSession):
			log.Info("issue rejected: invalid session")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(response.CodeUnauthenticated, "invalid or expired session"))
		case errors.Is(err, quota.ErrQuotaExceeded):
			log.Info("issue rejected: quota exceeded")
			w.WriteHeader(http.StatusTooManyRequests)
			render.JSON(w, r, response.Error(response.CodeQuotaExceeded, "daily limit reached, try again tomorrow"))
		case errors.Is(err, inventory.ErrCountryNotFound):
			log.Info("issue rejected: unknown country")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(response.CodeNotFound, "country not found"))
		case errors.Is(err, inventory.ErrEmpty):
			log.Info("issue rejected: pool is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.CodeOutOfStock,
				fmt.Sprintf("no ip%s addresses left for this country, try another one", req.IPFamily)))
		default:
			log.Error("failed to issue dns list", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.CodeInternal, "could not issue dns list"))
		}
		return
	}

	data := map[string]any{
		"addresses":       strings.Split(res.Artifact.Text, "\n"),
		"country_name":    res.CountryName,
		"ipv4_left":       res.IPv4Left,
		"ipv6_left":       res.IPv6Left,
		"quota_remaining": res.QuotaRemaining,
	}
	if res.SuggestedCaption != "" {
		data["suggested_caption"] = res.SuggestedCaption
	}

	log.Info("dns list issued", slog.String("artifact_id", res.Artifact.ID))
	render.JSON(w, r, response.OKWithData(data))
}
