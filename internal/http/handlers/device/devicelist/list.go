// Package devicelist реализует HTTP-обработчик списка устройств текущего аккаунта.
package devicelist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/abdullaevmar/device-registry/internal/http/middlewarectx"
	"github.com/abdullaevmar/device-registry/internal/http/response"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// Handler обрабатывает HTTP-запросы на список устройств.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка устройств.
type Service interface {
	List(ctx context.Context, ownerUID string) ([]*models.Device, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список устройств
// @Description Возвращает устройства, зарегистрированные на текущий аккаунт.
// @Tags Devices
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Список устройств"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /devices [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ownerUID, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || ownerUID == "" {
		log.Error("account uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	devices, err := h.service.List(r.Context(), ownerUID)
	if err != nil {
		log.Error("failed to list devices", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list devices"))
		return
	}

	log.Info("devices listed", slog.Int("count", len(devices)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"devices": devices,
	}))
}
