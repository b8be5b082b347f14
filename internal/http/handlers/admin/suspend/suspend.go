// Package suspend реализует HTTP-обработчик блокировки аккаунта администратором.
//
// Заблокированный аккаунт получает отказ на все операции с устройствами до
// снятия блокировки.
package suspend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/abdullaevmar/device-registry/internal/http/response"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/storage/repository"
)

// Request — тело запроса блокировки.
type Request struct {
	Suspended *bool `json:"suspended" validate:"required"`
}

// Handler обрабатывает HTTP-запросы на блокировку аккаунта.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики блокировки.
type Service interface {
	SetSuspended(ctx context.Context, accountUID string, suspended bool) error
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
// @Summary Блокировка аккаунта
// @Description Блокирует или разблокирует аккаунт. Только для администраторов.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID аккаунта"
// @Param request body Request true "Флаг блокировки"
// @Success 200 {object} response.Response "Блокировка обновлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Аккаунт не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/accounts/{uid}/suspend [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.suspend"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	accountUID := chi.URLParam(r, "uid")
	if accountUID == "" {
		log.Error("missing account uid in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing account uid"))
		return
	}

	var req Request
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

	if err := h.service.SetSuspended(r.Context(), accountUID, *req.Suspended); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("account not found", slog.String("account_uid", accountUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
			return
		}
		log.Error("failed to update suspension", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update suspension"))
		return
	}

	log.Info("account suspension updated",
		slog.String("account_uid", accountUID), slog.Bool("suspended", *req.Suspended))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"account_uid": accountUID,
		"suspended":   *req.Suspended,
	}))
}
