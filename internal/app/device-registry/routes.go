// Package deviceregistry предоставляет маршруты для основного приложения.
package deviceregistry

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	adminaccounts "github.com/abdullaevmar/device-registry/internal/http/handlers/admin/accounts"
	adminstats "github.com/abdullaevmar/device-registry/internal/http/handlers/admin/stats"
	adminsuspend "github.com/abdullaevmar/device-registry/internal/http/handlers/admin/suspend"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/auth/login"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/auth/register"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/device/devicehistory"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/device/devicelist"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/device/devicelookup"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/device/devicepanic"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/device/deviceregister"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/device/devicestatus"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/health"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/payment/paymentlist"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/payment/paymentverify"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/payment/paymentwebhook"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/transfer/transferaccept"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/transfer/transfercreate"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/transfer/transferpending"
	"github.com/abdullaevmar/device-registry/internal/http/handlers/transfer/transferreject"
	"github.com/abdullaevmar/device-registry/internal/http/middlewarectx"
	adminservice "github.com/abdullaevmar/device-registry/internal/services/admin"
	authservice "github.com/abdullaevmar/device-registry/internal/services/auth"
	deviceservice "github.com/abdullaevmar/device-registry/internal/services/device"
	paymentservice "github.com/abdullaevmar/device-registry/internal/services/payment"
	transferservice "github.com/abdullaevmar/device-registry/internal/services/transfer"
)

// Services — зависимости HTTP-слоя, собранные приложением.
type Services struct {
	Auth     *authservice.AuthService
	Device   *deviceservice.DeviceService
	Transfer *transferservice.TransferService
	Payment  *paymentservice.PaymentService
	Admin    *adminservice.AdminService
	Gate     *entitlement.Gate
	Accounts middlewarectx.AccountProvider
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services, webhookSecret string) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/devices", deviceregister.New(logger, s.Device).ServeHTTP)
			r.Get("/devices", devicelist.New(logger, s.Device).ServeHTTP)
			r.Put("/devices/{uid}/status", devicestatus.New(logger, s.Device).ServeHTTP)
			r.Post("/devices/{uid}/panic", devicepanic.New(logger, s.Device).ServeHTTP)
			r.Get("/devices/{uid}/history", devicehistory.New(logger, s.Device).ServeHTTP)

			// Квотируемые действия проходят через шлюз допуска
			r.With(middlewarectx.EntitlementMiddleware(logger, s.Accounts, s.Gate, entitlement.ActionLookup)).
				Get("/devices/lookup/{identifier}", devicelookup.New(logger, s.Device, s.Gate).ServeHTTP)
			r.With(middlewarectx.EntitlementMiddleware(logger, s.Accounts, s.Gate, entitlement.ActionTransfer)).
				Post("/transfers", transfercreate.New(logger, s.Transfer, s.Gate).ServeHTTP)
			r.With(middlewarectx.EntitlementMiddleware(logger, s.Accounts, s.Gate, entitlement.ActionAcceptance)).
				Post("/transfers/{id}/accept", transferaccept.New(logger, s.Transfer, s.Gate).ServeHTTP)

			r.Get("/transfers/pending", transferpending.New(logger, s.Transfer, s.Accounts).ServeHTTP)
			r.Post("/transfers/{id}/reject", transferreject.New(logger, s.Transfer, s.Accounts).ServeHTTP)

			r.Post("/payments/verify", paymentverify.New(logger, s.Payment).ServeHTTP)
			r.Get("/payments/list", paymentlist.New(logger, s.Payment).ServeHTTP)

			// Административные маршруты
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))
				r.Get("/admin/stats", adminstats.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/accounts", adminaccounts.New(logger, s.Admin).ServeHTTP)
				r.Put("/admin/accounts/{uid}/suspend", adminsuspend.New(logger, s.Admin).ServeHTTP)
			})
		})

		// Webhook endpoint (без аутентификации, подпись проверяется в обработчике)
		r.Post("/payments/webhook", paymentwebhook.New(logger, s.Payment, webhookSecret).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
