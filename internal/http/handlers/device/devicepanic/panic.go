// Package devicepanic реализует HTTP-обработчик тревожной кнопки.
//
// Тревога немедленно помечает устройство украденным и публикует уведомление
// для администраторов. Тело запроса необязательно и может содержать контакты
// заявителя.
package devicepanic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/abdullaevmar/device-registry/internal/http/middlewarectx"
	"github.com/abdullaevmar/device-registry/internal/http/response"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/models"
	"github.com/abdullaevmar/device-registry/internal/storage/repository"
)

// Request — необязательные данные тревоги.
type Request struct {
	ReporterInfo string `json:"reporter_info,omitempty"`
}

// Handler обрабатывает HTTP-запросы тревожной кнопки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики тревоги.
type Service interface {
	Panic(ctx context.Context, deviceUID, actorUID, reporterInfo string) (*models.PanicAlert, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Тревожная кнопка
// @Description Помечает устройство украденным и публикует тревогу для администраторов.
// @Tags Devices
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID устройства"
// @Param request body Request false "Контакты заявителя"
// @Success 200 {object} map[string]any "Тревога зафиксирована"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Устройство не найдено"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /devices/{uid}/panic [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.panic"

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

	// Тело запроса необязательно.
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	actorUID, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || actorUID == "" {
		log.Error("account uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	alert, err := h.service.Panic(r.Context(), deviceUID, actorUID, req.ReporterInfo)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("device not found", slog.String("device_uid", deviceUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("device not found"))
			return
		}
		log.Error("failed to process panic alert", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process panic alert"))
		return
	}

	log.Info("panic alert accepted",
		slog.String("device_uid", deviceUID), slog.String("alert_uid", alert.AlertUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"alert": alert,
	}))
}
