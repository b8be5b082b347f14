// Package transferaccept реализует HTTP-обработчик принятия передачи владения.
//
// Принятие — квотируемое действие: маршрут охраняется шлюзом допуска, который
// кладёт загруженный аккаунт в контекст, а после успешного завершения
// использование фиксируется через Confirm.
package transferaccept

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/http/middlewarectx"
	"github.com/abdullaevmar/device-registry/internal/http/response"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/models"
	transferservice "github.com/abdullaevmar/device-registry/internal/services/transfer"
	"github.com/abdullaevmar/device-registry/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы на принятие передачи.
type Handler struct {
	log     *slog.Logger
	service Service
	gate    UsageConfirmer
}

// Service описывает интерфейс бизнес-логики принятия передачи.
type Service interface {
	Accept(ctx context.Context, id int, accountUID, email string) error
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
// @Summary Принять передачу
// @Description Завершает передачу: владелец устройства переназначается на текущий аккаунт. Действие учитывается месячной квотой.
// @Tags Transfers
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID передачи"
// @Success 200 {object} response.Response "Передача завершена"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.Response "Квота исчерпана, требуется оплата"
// @Failure 403 {object} response.ErrorResponse "Передача адресована другому аккаунту"
// @Failure 404 {object} response.ErrorResponse "Передача не найдена или уже завершена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /transfers/{id}/accept [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transfer.accept"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid transfer id"))
		return
	}

	account, ok := r.Context().Value(middlewarectx.Account).(*models.Account)
	if !ok || account == nil {
		log.Error("account not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.Accept(r.Context(), id, account.UID, account.Email); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("transfer not found or not pending", slog.Int("transfer_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("transfer not found or already resolved"))
		case errors.Is(err, transferservice.ErrNotRecipient):
			log.Error("transfer addressed to another account", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("transfer is addressed to another account"))
		default:
			log.Error("failed to accept transfer", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to accept transfer"))
		}
		return
	}

	// Действие выполнено, фиксируем использование.
	if err := h.gate.Confirm(r.Context(), account.UID, entitlement.ActionAcceptance); err != nil {
		log.Error("failed to confirm acceptance usage", sl.Err(err))
	}

	log.Info("transfer accepted", slog.Int("transfer_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"transfer_id": id,
		"status":      models.TransferCompleted,
	}))
}
