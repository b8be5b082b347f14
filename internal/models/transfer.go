package models

import "time"

// Статусы передачи владения.
const (
	TransferPending   = "pending"
	TransferCompleted = "completed"
	TransferRejected  = "rejected"
)

// Transfer представляет передачу владения устройством между аккаунтами.
// Получатель задаётся email-адресом и может быть ещё не зарегистрирован
// на момент инициирования.
type Transfer struct {
	ID          int        `json:"id"`
	DeviceUID   string     `json:"device_uid"`
	FromUID     string     `json:"from_uid"`
	ToEmail     string     `json:"to_email"`
	ToUID       *string    `json:"to_uid,omitempty"`
	Status      string     `json:"status"`
	InitiatedAt time.Time  `json:"initiated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DummyTransfer используется для приёма данных инициирования передачи из JSON-запроса.
type DummyTransfer struct {
	DeviceUID string `json:"device_uid" validate:"required,uuid"`
	ToEmail   string `json:"to_email" validate:"required,email"`
}
