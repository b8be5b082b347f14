// Package paymentverify реализует HTTP-обработчик подтверждения платежа.
//
// Handler принимает подтверждённый шлюзом платёж, записывает его в леджер и
// применяет эффект к текущему аккаунту. Повтор подтверждения с тем же
// reference идемпотентен и отвечает успехом без повторного применения.
package paymentverify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/http/middlewarectx"
	"github.com/abdullaevmar/device-registry/internal/http/response"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/metrics"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// Handler обрабатывает HTTP-запросы на подтверждение платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики применения платежа.
type Service interface {
	Apply(ctx context.Context, accountUID string, req models.DummyPayment) (*models.Account, error)
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
// @Summary Подтвердить платёж
// @Description Записывает платёж в леджер и применяет его эффект: повышение тарифа, продление подписки или послабление квоты. Повтор с тем же reference идемпотентен.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyPayment true "Данные платежа"
// @Success 200 {object} map[string]any "Платёж применён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или неизвестный тип платежа"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации или недостаточная сумма"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPayment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	accountUID, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || accountUID == "" {
		log.Error("account uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	account, err := h.service.Apply(r.Context(), accountUID, req)
	if err != nil {
		switch {
		case errors.Is(err, entitlement.ErrDuplicateReference):
			// Повтор подтверждения — успех без повторного применения.
			log.Info("duplicate payment reference", slog.String("reference", req.Reference))
			render.JSON(w, r, response.OKWithData(map[string]any{
				"reference": req.Reference,
				"message":   "payment already recorded",
			}))
		case errors.Is(err, entitlement.ErrInsufficientAmount):
			log.Error("payment amount is below the fee", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("payment amount is below the required fee"))
		case errors.Is(err, entitlement.ErrUnknownPaymentType):
			log.Error("unknown payment type", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown payment type"))
		default:
			log.Error("failed to apply payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to apply payment"))
		}
		return
	}

	metrics.PaymentsApplied.WithLabelValues(req.Type).Inc()

	log.Info("payment applied",
		slog.String("reference", req.Reference), slog.String("type", req.Type))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"tier":         account.Tier,
		"subscription": account.Subscription,
		"usage":        account.Usage,
	}))
}
