// Package models содержит доменные структуры реестра устройств: аккаунты,
// устройства, передачи владения и платежи, а также вспомогательные типы
// для приёма данных из JSON-запросов.
package models

import "time"

// Тарифы (роли) аккаунтов. Тариф определяет политику квот и необходимость
// оплачиваемой подписки.
const (
	TierBasic           = "basic"
	TierVendor          = "vendor"
	TierTechnician      = "technician"
	TierEnterpriseAdmin = "enterprise_admin"
	TierStoreManager    = "store_manager"
	TierAdmin           = "admin"
)

// Статусы подписки.
const (
	SubscriptionActive      = "active"
	SubscriptionInactive    = "inactive"
	SubscriptionGracePeriod = "grace_period"
)

// Usage счётчики использования аккаунта за текущий календарный месяц.
// PeriodKey — ключ месяца вида "2024-06"; счётчики сбрасываются в ноль
// ровно один раз при переходе в новый период.
type Usage struct {
	PeriodKey   string `json:"period_key"`
	Lookups     int    `json:"lookups"`
	Transfers   int    `json:"transfers"`
	Acceptances int    `json:"acceptances"`
}

// Subscription оплачиваемая подписка аккаунта (тарифы vendor и technician).
// Для остальных тарифов поля остаются пустыми.
type Subscription struct {
	Status     string     `json:"status"`
	Plan       string     `json:"plan,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastPaidAt *time.Time `json:"last_paid_at,omitempty"`
}

// Account представляет зарегистрированный аккаунт реестра.
type Account struct {
	UID          string       `json:"uid"`
	Email        string       `json:"email"`
	Username     string       `json:"username"`
	NIN          string       `json:"nin"` // Национальный идентификационный номер
	PasswordHash string       `json:"-"`
	Tier         string       `json:"tier"`
	Suspended    bool         `json:"suspended"`
	Usage        Usage        `json:"usage"`
	Subscription Subscription `json:"subscription"`
	CreatedAt    time.Time    `json:"created_at"`
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum"`
	NIN      string `json:"nin" validate:"required,numeric"`
	Password string `json:"password" validate:"required,min=8"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Username string `json:"username" validate:"required,alphanum"`
	Password string `json:"password" validate:"required"`
}

// AccountInfo краткая информация об аккаунте для почтовых уведомлений.
type AccountInfo struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Tier      string    `json:"tier"`
	ExpiresAt time.Time `json:"expires_at"`
}
