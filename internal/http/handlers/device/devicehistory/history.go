// Package devicehistory реализует HTTP-обработчик следа устройства.
package devicehistory

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/abdullaevmar/device-registry/internal/http/response"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// Handler обрабатывает HTTP-запросы на чтение следа устройства.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики следа устройства.
type Service interface {
	History(ctx context.Context, deviceUID string) ([]*models.HistoryEntry, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary След устройства
// @Description Возвращает хронологию действий над устройством: регистрации, смены статусов, передачи.
// @Tags Devices
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID устройства"
// @Success 200 {object} map[string]any "След устройства"
// @Failure 400 {object} response.ErrorResponse "Не указан UID устройства"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /devices/{uid}/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.history"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	deviceUID := chi.URLParam(r, "uid")
	if deviceUID == "" {
		log.Error("missing device uid in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing device uid"))
		return
	}

	entries, err := h.service.History(r.Context(), deviceUID)
	if err != nil {
		log.Error("failed to read device history", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read device history"))
		return
	}

	log.Info("device history listed",
		slog.String("device_uid", deviceUID), slog.Int("count", len(entries)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"history": entries,
	}))
}
