package entitlement

import (
	"time"

	"github.com/abdullaevmar/device-registry/internal/lib/period"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// IsActive сообщает, действует ли подписка тарифа на момент now.
// Тарифы без обязательной подписки считаются всегда активными.
func IsActive(tier string, sub models.Subscription, now time.Time) bool {
	if !PolicyFor(tier).RequiresSubscription {
		return true
	}
	return sub.Status == models.SubscriptionActive &&
		sub.ExpiresAt != nil && sub.ExpiresAt.After(now)
}

// Renew возвращает новую запись подписки после оплаты: статус active,
// срок действия — ровно один расчётный период от момента оплаты. Остаток
// предыдущего периода не переносится, даже если подписка ещё действовала.
func Renew(sub models.Subscription, paidAt time.Time) models.Subscription {
	expiresAt := period.AddMonth(paidAt)
	return models.Subscription{
		Status:     models.SubscriptionActive,
		Plan:       sub.Plan,
		ExpiresAt:  &expiresAt,
		LastPaidAt: &paidAt,
	}
}
