// Package transferpending реализует HTTP-обработчик списка входящих передач.
//
// Получатель передачи адресуется email-адресом, поэтому обработчик сначала
// загружает аккаунт из хранилища по UID из контекста.
package transferpending

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

// Handler обрабатывает HTTP-запросы на список входящих передач.
type Handler struct {
	log      *slog.Logger
	service  Service
	accounts AccountProvider
}

// Service описывает интерфейс бизнес-логики входящих передач.
type Service interface {
	Pending(ctx context.Context, email string) ([]*models.Transfer, error)
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
// @Summary Входящие передачи
// @Description Возвращает ожидающие передачи, адресованные текущему аккаунту.
// @Tags Transfers
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Список передач"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /transfers/pending [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transfer.pending"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	transfers, err := h.service.Pending(r.Context(), account.Email)
	if err != nil {
		log.Error("failed to list pending transfers", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list pending transfers"))
		return
	}

	log.Info("pending transfers listed", slog.Int("count", len(transfers)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"transfers": transfers,
	}))
}
