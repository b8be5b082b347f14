package models

import "time"

// Статусы платежа в леджере.
const (
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// Payment подтверждённый внешним шлюзом платёж. Reference уникален в рамках
// аккаунта и служит ключом идемпотентности при повторных подтверждениях.
type Payment struct {
	ID          int       `json:"id"`
	AccountUID  string    `json:"account_uid"`
	Reference   string    `json:"reference"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	PaidAt      time.Time `json:"paid_at"`
}

// DummyPayment используется для приёма подтверждения платежа из JSON-запроса.
type DummyPayment struct {
	Reference string `json:"reference" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Type      string `json:"type" validate:"required"`
}
