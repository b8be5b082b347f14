package entitlement

import "github.com/abdullaevmar/device-registry/internal/models"

// Фиксированная тарифная сетка, часть контракта с платёжным шлюзом.
const (
	FeeVendorSubscription     int64 = 10000 // ежемесячная подписка vendor
	FeeTechnicianSubscription int64 = 5000  // ежемесячная подписка technician
	FeeDeviceOverage          int64 = 1000  // единица сверхлимитного использования для basic
)

// Типы платежей, принимаемые леджером.
const (
	PaymentTypeVendorActivation       = "vendor_activation"
	PaymentTypeVendorSubscription     = "vendor_subscription"
	PaymentTypeTechnicianSubscription = "technician_subscription"
	PaymentTypeDeviceOverage          = "device_overage"
)

// Policy политика квот одного тарифа: какие действия безлимитны, месячный
// лимит на каждое из остальных, требуется ли оплачиваемая подписка и можно ли
// докупать использование сверх лимита.
type Policy struct {
	Unlimited            map[Action]bool
	PerActionLimit       int
	RequiresSubscription bool
	RenewalFee           int64
	RenewalPaymentType   string
	OveragePurchase      bool
}

// policies единственный источник правды по тарифам. Лимиты действуют на каждый
// счётчик независимо, без общего пула.
var policies = map[string]Policy{
	models.TierBasic: {
		PerActionLimit:  3,
		OveragePurchase: true,
	},
	models.TierVendor: {
		Unlimited:            map[Action]bool{ActionLookup: true},
		PerActionLimit:       200,
		RequiresSubscription: true,
		RenewalFee:           FeeVendorSubscription,
		RenewalPaymentType:   PaymentTypeVendorSubscription,
	},
	models.TierTechnician: {
		Unlimited:            map[Action]bool{ActionLookup: true},
		PerActionLimit:       100,
		RequiresSubscription: true,
		RenewalFee:           FeeTechnicianSubscription,
		RenewalPaymentType:   PaymentTypeTechnicianSubscription,
	},
	models.TierEnterpriseAdmin: {
		Unlimited: map[Action]bool{ActionLookup: true, ActionTransfer: true, ActionAcceptance: true},
	},
	models.TierStoreManager: {
		Unlimited: map[Action]bool{ActionLookup: true, ActionTransfer: true, ActionAcceptance: true},
	},
	models.TierAdmin: {
		Unlimited: map[Action]bool{ActionLookup: true, ActionTransfer: true, ActionAcceptance: true},
	},
}

// PolicyFor возвращает политику тарифа. Неизвестный тариф получает политику
// basic — самый строгий вариант.
func PolicyFor(tier string) Policy {
	if p, ok := policies[tier]; ok {
		return p
	}
	return policies[models.TierBasic]
}
