package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdullaevmar/device-registry/internal/lib/period"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// UsageRepository описывает атомарные операции хранилища над счётчиками
// использования. Реализация обязана использовать атомарные UPDATE, а не
// чтение-изменение-запись: одновременные Confirm и перенос периода не должны
// терять инкременты или сбрасывать счётчики дважды.
type UsageRepository interface {
	// RolloverUsage сбрасывает счётчики и устанавливает новый ключ периода.
	// Идемпотентна: повторный вызов с тем же ключом ничего не меняет.
	RolloverUsage(ctx context.Context, accountUID, periodKey string) error
	// IncrementUsage атомарно увеличивает счётчик действия на единицу.
	IncrementUsage(ctx context.Context, accountUID string, action Action) error
}

// Gate шлюз допуска платных действий. Работает в два этапа: Evaluate выносит
// решение (только чтение, не считая ленивого переноса периода), Confirm
// фиксирует использование после того, как охраняемое действие реально выполнено.
type Gate struct {
	repo UsageRepository
	log  *slog.Logger
}

// NewGate создает новый экземпляр Gate.
func NewGate(repo UsageRepository, log *slog.Logger) *Gate {
	return &Gate{
		repo: repo,
		log:  log,
	}
}

// Evaluate решает, может ли аккаунт выполнить действие action в момент now.
//
// Если ключ периода аккаунта отстал от текущего месяца, счётчики сбрасываются
// через идемпотентный RolloverUsage до любых проверок. Само решение выносит
// чистая функция Decide.
func (g *Gate) Evaluate(ctx context.Context, account *models.Account, action Action, now time.Time) (Decision, error) {
	const op = "entitlement.Evaluate"

	if _, err := ParseAction(string(action)); err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	currentKey := period.Key(now)
	if account.Usage.PeriodKey != currentKey {
		if err := g.repo.RolloverUsage(ctx, account.UID, currentKey); err != nil {
			return Decision{}, fmt.Errorf("%s: %w", op, err)
		}
		account.Usage = models.Usage{PeriodKey: currentKey}
		g.log.Info("usage period rolled over",
			slog.String("account_uid", account.UID),
			slog.String("period_key", currentKey))
	}

	return Decide(account, action, now), nil
}

// Confirm фиксирует одно успешное выполнение действия. Вызывается только после
// того, как охраняемая операция выполнена надёжно, и никогда — на путях
// RequirePayment или Deny.
func (g *Gate) Confirm(ctx context.Context, accountUID string, action Action) error {
	const op = "entitlement.Confirm"

	if _, err := ParseAction(string(action)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := g.repo.IncrementUsage(ctx, accountUID, action); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Decide чистая функция решения: зависит только от тарифа, счётчиков, подписки
// и момента now. Порядок проверок фиксирован: блокировка аккаунта, истёкшая
// подписка (закрывает все действия тарифа, не только упёршееся в лимит),
// затем месячный лимит конкретного действия.
func Decide(account *models.Account, action Action, now time.Time) Decision {
	if account.Suspended {
		return deny(ReasonSuspended)
	}

	p := PolicyFor(account.Tier)

	if p.RequiresSubscription && !IsActive(account.Tier, account.Subscription, now) {
		return requirePayment(p.RenewalFee, p.RenewalPaymentType, ReasonSubscriptionExpired)
	}

	if p.Unlimited[action] {
		return allow()
	}
	if usageCount(account.Usage, action) < p.PerActionLimit {
		return allow()
	}
	if p.OveragePurchase {
		return requirePayment(FeeDeviceOverage, PaymentTypeDeviceOverage, ReasonLimitReached)
	}
	return deny(ReasonLimitReached)
}

func usageCount(usage models.Usage, action Action) int {
	switch action {
	case ActionLookup:
		return usage.Lookups
	case ActionTransfer:
		return usage.Transfers
	case ActionAcceptance:
		return usage.Acceptances
	}
	return 0
}
