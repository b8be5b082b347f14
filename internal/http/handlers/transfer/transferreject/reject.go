// Package transferreject реализует HTTP-обработчик отклонения передачи владения.
package transferreject

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/abdullaevmar/device-registry/internal/http/middlewarectx"
	"github.com/abdullaevmar/device-registry/internal/http/response"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/models"
	transferservice "github.com/abdullaevmar/device-registry/internal/services/transfer"
	"github.com/abdullaevmar/device-registry/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы на отклонение передачи.
type Handler struct {
	log      *slog.Logger
	service  Service
	accounts AccountProvider
}

// Service описывает интерфейс бизнес-логики отклонения передачи.
type Service interface {
	Reject(ctx context.Context, id int, email string) error
}

// AccountProvider загружает аккаунт по UID.
type AccountProvider interface {
	GetAccount(ctx context.Context, accountUID string) (*models.Account, error)
}

// New создает новый Handler с переданными логгером, сервисом и хранилищем аккаунтов.
func New(log *slog.Logger, service Service, accounts AccountProvider) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		accounts: accounts,
	}
}

// ServeHTTP godoc
// @Summary Отклонить передачу
// @Description Отклоняет ожидающую передачу, адресованную текущему аккаунту. Квотой не учитывается.
// @Tags Transfers
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID передачи"
// @Success 200 {object} response.Response "Передача отклонена"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Передача адресована другому аккаунту"
// @Failure 404 {object} response.ErrorResponse "Передача не найдена или уже завершена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /transfers/{id}/reject [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transfer.reject"

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

	accountUID, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || accountUID == "" {
		log.Error("account uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), accountUID)
	if err != nil {
		log.Error("failed to load account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to load account"))
		return
	}

	if err := h.service.Reject(r.Context(), id, account.Email); err != nil {
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
			log.Error("failed to reject transfer", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to reject transfer"))
		}
		return
	}

	log.Info("transfer rejected", slog.Int("transfer_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"transfer_id": id,
		"status":      models.TransferRejected,
	}))
}
