// Package transfercreate реализует HTTP-обработчик инициирования передачи
// владения устройством.
//
// Передача — квотируемое действие: маршрут охраняется шлюзом допуска, а после
// успешного создания использование фиксируется через Confirm.
package transfercreate

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
	"github.com/abdullaevmar/device-registry/internal/models"
	transferservice "github.com/abdullaevmar/device-registry/internal/services/transfer"
	"github.com/abdullaevmar/device-registry/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы на инициирование передачи.
type Handler struct {
	log      *slog.Logger
	service  Service
	gate     UsageConfirmer
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики инициирования передачи.
type Service interface {
	Initiate(ctx context.Context, fromUID string, req models.DummyTransfer) (int, error)
}

// UsageConfirmer фиксирует успешное выполнение квотируемого действия.
type UsageConfirmer interface {
	Confirm(ctx context.Context, accountUID string, action entitlement.Action) error
}

// New создает новый Handler с переданными логгером, сервисом и шлюзом допуска.
func New(log *slog.Logger, service Service, gate UsageConfirmer) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		gate:     gate,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Инициировать передачу устройства
// @Description Создает передачу владения устройством получателю по email. Действие учитывается месячной квотой.
// @Tags Transfers
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyTransfer true "Данные передачи"
// @Success 200 {object} map[string]any "Передача создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.Response "Квота исчерпана, требуется оплата"
// @Failure 403 {object} response.ErrorResponse "Устройство принадлежит другому аккаунту"
// @Failure 404 {object} response.ErrorResponse "Устройство не найдено"
// @Failure 409 {object} response.ErrorResponse "Устройство помечено украденным или утерянным"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /transfers [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transfer.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyTransfer
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

	fromUID, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || fromUID == "" {
		log.Error("account uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := h.service.Initiate(r.Context(), fromUID, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("device not found", slog.String("device_uid", req.DeviceUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("device not found"))
		case errors.Is(err, transferservice.ErrNotOwner):
			log.Error("transfer initiator is not the owner", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("device belongs to another account"))
		case errors.Is(err, transferservice.ErrDeviceFlagged):
			log.Error("device is flagged", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("device is flagged and cannot be transferred"))
		default:
			log.Error("failed to initiate transfer", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to initiate transfer"))
		}
		return
	}

	// Действие выполнено, фиксируем использование.
	if err := h.gate.Confirm(r.Context(), fromUID, entitlement.ActionTransfer); err != nil {
		log.Error("failed to confirm transfer usage", sl.Err(err))
	}

	log.Info("transfer initiated", slog.Int("transfer_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"transfer_id": id,
	}))
}
