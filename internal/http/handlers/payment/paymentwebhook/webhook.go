// Package paymentwebhook реализует HTTP-обработчик webhook-уведомлений
// платёжного шлюза.
//
// Подлинность уведомления проверяется HMAC-SHA256 подписью тела запроса в
// заголовке X-Api-Signature. UID аккаунта и тип платежа шлюз передаёт в
// metadata объекта платежа.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/metrics"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// События платёжного шлюза.
const (
	PaymentSucceeded = "payment.succeeded"
	PaymentCanceled  = "payment.canceled"
	PaymentRefunded  = "payment.refunded"
)

// Service описывает интерфейс бизнес-логики применения платежа.
type Service interface {
	Apply(ctx context.Context, accountUID string, req models.DummyPayment) (*models.Account, error)
}

// Handler обрабатывает webhook-уведомления платёжного шлюза.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый Handler с переданными логгером, сервисом и секретом подписи.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Payload — тело webhook-уведомления платёжного шлюза.
type Payload struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`     // payment ID, служит reference
		Status string `json:"status"` // статус платежа
		Amount struct {
			Value    string `json:"value"`    // сумма в строке, например "10000.00"
			Currency string `json:"currency"` // валюта
		} `json:"amount"`
		Metadata map[string]string `json:"metadata"` // account_uid, payment_type
	} `json:"object"`
}

// Проверка подписи webhook (X-Api-Signature).
func (h *Handler) verifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(h.webhookSecret, body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch strings.ToLower(payload.Event) {
	case PaymentSucceeded:
		if err := h.applyPayment(r.Context(), log, &payload); err != nil {
			log.Error("failed to process webhook event", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	case PaymentCanceled, PaymentRefunded:
		log.Info("payment not applied",
			slog.String("event", payload.Event), slog.String("payment_id", payload.Object.ID))
	default:
		log.Info("ignored webhook event", slog.String("event", payload.Event))
	}

	log.Info("webhook processed successfully",
		slog.String("event", payload.Event), slog.String("payment_id", payload.Object.ID))
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) applyPayment(ctx context.Context, log *slog.Logger, payload *Payload) error {
	accountUID := payload.Object.Metadata["account_uid"]
	paymentType := payload.Object.Metadata["payment_type"]
	if accountUID == "" || paymentType == "" {
		return errors.New("webhook metadata is missing account_uid or payment_type")
	}

	value, err := strconv.ParseFloat(payload.Object.Amount.Value, 64)
	if err != nil {
		return err
	}

	req := models.DummyPayment{
		Reference: payload.Object.ID,
		Amount:    int64(math.Round(value)),
		Type:      paymentType,
	}

	if _, err := h.service.Apply(ctx, accountUID, req); err != nil {
		// Повторная доставка того же уведомления — успех.
		if errors.Is(err, entitlement.ErrDuplicateReference) {
			log.Info("duplicate webhook delivery", slog.String("reference", req.Reference))
			return nil
		}
		return err
	}

	metrics.PaymentsApplied.WithLabelValues(paymentType).Inc()
	return nil
}
