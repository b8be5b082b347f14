// Package deviceregistry собирает и запускает основной HTTP-сервис реестра
// устройств: хранилище, кеш, очередь уведомлений, шлюз допуска и маршруты.
package deviceregistry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/abdullaevmar/device-registry/internal/cache"
	"github.com/abdullaevmar/device-registry/internal/config"
	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/lib/jwt"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/migrations"
	"github.com/abdullaevmar/device-registry/internal/rabbitmq"
	adminservice "github.com/abdullaevmar/device-registry/internal/services/admin"
	authservice "github.com/abdullaevmar/device-registry/internal/services/auth"
	deviceservice "github.com/abdullaevmar/device-registry/internal/services/device"
	paymentservice "github.com/abdullaevmar/device-registry/internal/services/payment"
	transferservice "github.com/abdullaevmar/device-registry/internal/services/transfer"
	"github.com/abdullaevmar/device-registry/internal/storage/repository"
)

// App представляет приложение реестра устройств.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New собирает приложение: подключения, миграции, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Очередь уведомлений необязательна для работы API: без неё тревоги
	// остаются в следе устройства, но письма администраторам не уходят.
	var conn *amqp.Connection
	var ch *amqp.Channel
	conn, err = rabbitmq.Connect(cfg.RabbitConnectionString, cfg.RabbitRetries, cfg.RabbitRetryDelay)
	if err != nil {
		logger.Warn("rabbitmq is unavailable, panic alerts will not be published", sl.Err(err))
	} else {
		ch, err = rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			logger.Warn("failed to setup rabbitmq channel", sl.Err(err))
			_ = conn.Close()
			conn = nil
		}
	}

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	gate := entitlement.NewGate(db, logger)

	authService := authservice.NewAuthService(db, jwtMaker)
	deviceService := deviceservice.NewDeviceService(db, cacheRedis, ch, logger)
	transferService := transferservice.NewTransferService(db, cacheRedis, logger)
	paymentService := paymentservice.NewPaymentService(db, db, logger)
	adminService := adminservice.NewAdminService(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:     authService,
		Device:   deviceService,
		Transfer: transferService,
		Payment:  paymentService,
		Admin:    adminService,
		Gate:     gate,
		Accounts: db,
	}, cfg.PaymentWebhookSecret)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.ch != nil {
			_ = a.ch.Close()
		}
		if a.conn != nil {
			_ = a.conn.Close()
		}
		a.db.DB.Close()
		return err
	}
}
