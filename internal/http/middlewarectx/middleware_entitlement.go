package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/http/response"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/metrics"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// AccountProvider загружает аккаунт для проверки прав на операцию.
type AccountProvider interface {
	GetAccount(ctx context.Context, accountUID string) (*models.Account, error)
}

// Evaluator выносит решение о допуске аккаунта к действию.
type Evaluator interface {
	Evaluate(ctx context.Context, account *models.Account, action entitlement.Action, now time.Time) (entitlement.Decision, error)
}

// EntitlementMiddleware создает middleware, которое проверяет право аккаунта
// на действие перед выполнением операции с устройством.
//
// Вердикт require_payment возвращается клиенту как 402 Payment Required
// вместе с суммой и типом требуемого платежа; deny — как 403 Forbidden.
// При allow загруженный аккаунт кладётся в контекст под ключом Account,
// чтобы обработчик не читал его из базы повторно.
func EntitlementMiddleware(log *slog.Logger, accounts AccountProvider, gate Evaluator, action entitlement.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.EntitlementMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("action", string(action)),
			)

			accountUID, ok := r.Context().Value(AccountUID).(string)
			if !ok || accountUID == "" {
				log.Error("account identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("account identification missing"))
				return
			}

			account, err := accounts.GetAccount(r.Context(), accountUID)
			if err != nil {
				log.Error("failed to load account", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			decision, err := gate.Evaluate(r.Context(), account, action, time.Now().UTC())
			if err != nil {
				log.Error("failed to evaluate entitlement", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}
			metrics.EntitlementDecisions.WithLabelValues(string(action), string(decision.Verdict)).Inc()

			switch decision.Verdict {
			case entitlement.VerdictRequirePayment:
				log.Info("payment required", slog.String("reason", decision.Reason))
				w.WriteHeader(http.StatusPaymentRequired)
				render.JSON(w, r, response.Response{
					Status: response.StatusError,
					Error:  "payment required",
					Data:   decision,
				})
				return
			case entitlement.VerdictDeny:
				log.Info("access denied", slog.String("reason", decision.Reason))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Response{
					Status: response.StatusError,
					Error:  "access denied",
					Data:   decision,
				})
				return
			}

			ctx := context.WithValue(r.Context(), Account, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
