// Package devicelookup реализует HTTP-обработчик поиска устройства по
// серийному номеру или IMEI.
//
// Поиск — квотируемое действие: маршрут охраняется шлюзом допуска, а после
// успешного ответа использование фиксируется через Confirm.
package devicelookup

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/http/middlewarectx"
	"github.com/abdullaevmar/device-registry/internal/http/response"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/models"
	"github.com/abdullaevmar/device-registry/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы на поиск устройства.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики устройств
	gate    UsageConfirmer
}

// Service описывает интерфейс бизнес-логики поиска устройства.
type Service interface {
	Lookup(ctx context.Context, identifier string) (*models.Device, error)
}

// UsageConfirmer фиксирует успешное выполнение квотируемого действия.
type UsageConfirmer interface {
	Confirm(ctx context.Context, accountUID string, action entitlement.Action) error
}

// New создает новый Handler с переданными логгером, сервисом и шлюзом допуска.
func New(log *slog.Logger, service Service, gate UsageConfirmer) *Handler {
	return &Handler{
		log:     log,
		service: service,
		gate:    gate,
	}
}

// ServeHTTP godoc
// @Summary Поиск устройства
// @Description Ищет устройство по серийному номеру или IMEI и возвращает его статус. Действие учитывается месячной квотой.
// @Tags Devices
// @Produce  json
// @Security BearerAuth
// @Param identifier path string true "Серийный номер или IMEI"
// @Success 200 {object} map[string]any "Устройство найдено"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.Response "Квота исчерпана, требуется оплата"
// @Failure 404 {object} response.ErrorResponse "Устройство не найдено"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /devices/lookup/{identifier} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.lookup"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		log.Error("missing identifier in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing identifier"))
		return
	}

	accountUID, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || accountUID == "" {
		log.Error("account uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	device, err := h.service.Lookup(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("device not found", slog.String("identifier", identifier))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("device not found"))
			return
		}
		log.Error("failed to lookup device", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to lookup device"))
		return
	}

	// Действие выполнено, фиксируем использование. Ответ уже не откатить,
	// поэтому ошибка фиксации только логируется.
	if err := h.gate.Confirm(r.Context(), accountUID, entitlement.ActionLookup); err != nil {
		log.Error("failed to confirm lookup usage", sl.Err(err))
	}

	log.Info("device lookup success",
		slog.String("device_uid", device.UID), slog.String("status", device.Status))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"device": device,
	}))
}
