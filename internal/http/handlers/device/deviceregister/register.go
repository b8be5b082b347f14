// Package deviceregister реализует HTTP-обработчик регистрации устройства.
//
// Handler принимает JSON с данными устройства, валидирует их и регистрирует
// устройство на аккаунт из контекста запроса.
package deviceregister

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/abdullaevmar/device-registry/internal/http/middlewarectx"
	"github.com/abdullaevmar/device-registry/internal/http/response"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/models"
	"github.com/abdullaevmar/device-registry/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы на регистрацию устройства.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики устройств
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики регистрации устройства.
type Service interface {
	Register(ctx context.Context, ownerUID string, req models.DummyDevice) (string, error)
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
// @Summary Регистрация устройства
// @Description Регистрирует устройство на текущий аккаунт. Серийный номер и IMEI должны быть уникальны.
// @Tags Devices
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyDevice true "Данные устройства"
// @Success 200 {object} map[string]any "Устройство зарегистрировано"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Серийный номер или IMEI уже зарегистрированы"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /devices [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyDevice
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

	ownerUID, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || ownerUID == "" {
		log.Error("account uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	deviceUID, err := h.service.Register(r.Context(), ownerUID, req)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			log.Error("device already registered", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("serial number or imei already registered"))
			return
		}
		log.Error("failed to register device", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register device"))
		return
	}

	log.Info("device registered", slog.String("device_uid", deviceUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"device_uid": deviceUID,
	}))
}
