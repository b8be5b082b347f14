// Package services находит подписки, истекающие завтра, и публикует
// напоминания в очередь уведомлений.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/abdullaevmar/device-registry/internal/lib/rabbitmq"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// SubscriptionRepository находит аккаунты с истекающими подписками.
type SubscriptionRepository interface {
	FindSubscriptionsExpiringTomorrow(ctx context.Context) ([]*models.AccountInfo, error)
}

type SchedulerService struct {
	repo SubscriptionRepository
	log  *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SubscriptionRepository, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo: repo,
		log:  log,
	}
}

// FindExpiringSubscriptions раз в 12 часов публикует напоминания об истекающих подписках.
func (s *SchedulerService) FindExpiringSubscriptions(ctx context.Context, channel *amqp.Channel) {
	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		s.RunOnce(ctx, channel)
	}
}

// RunOnce выполняет один проход поиска и публикации напоминаний.
func (s *SchedulerService) RunOnce(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting service to find expiring subscriptions")
	accountsInfo, err := s.repo.FindSubscriptionsExpiringTomorrow(ctx)
	if err != nil {
		s.log.Error("failed to find accounts", sl.Err(err))
		return
	}
	for _, accountInfo := range accountsInfo {
		if channel == nil {
			s.log.Warn("notification channel is not configured, reminder not published",
				slog.String("username", accountInfo.Username))
			continue
		}
		err = rabbitmq.PublishMessage(channel, "notifications", "expiring", accountInfo)
		if err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}
