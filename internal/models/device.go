package models

import "time"

// Статусы устройства в реестре.
const (
	DeviceActive      = "active"
	DeviceStolen      = "stolen"
	DeviceLost        = "lost"
	DeviceMissing     = "missing"
	DeviceTransferred = "transferred"
)

// Device представляет зарегистрированное в реестре устройство.
// Серийный номер уникален; IMEI уникален, если задан.
type Device struct {
	UID          string    `json:"uid"`
	SerialNumber string    `json:"serial_number"`
	IMEI         *string   `json:"imei,omitempty"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	Color        string    `json:"color,omitempty"`
	Status       string    `json:"status"`
	OwnerUID     string    `json:"owner_uid"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryEntry запись следа устройства: кто и что с ним сделал.
// След только дописывается, записи не изменяются и не удаляются.
type HistoryEntry struct {
	ID        int       `json:"id"`
	DeviceUID string    `json:"device_uid"`
	ActorUID  string    `json:"actor_uid"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DummyDevice используется для приёма данных регистрации устройства из JSON-запроса.
type DummyDevice struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	IMEI         string `json:"imei,omitempty" validate:"omitempty,numeric"`
	Brand        string `json:"brand" validate:"required"`
	Model        string `json:"model" validate:"required"`
	Color        string `json:"color,omitempty"`
	Details      string `json:"details,omitempty"`
}

// DummyStatus используется для приёма смены статуса устройства из JSON-запроса.
type DummyStatus struct {
	Status string `json:"status" validate:"required,oneof=active stolen lost missing"`
}

// PanicAlert событие тревоги по устройству, публикуемое для уведомления администраторов.
type PanicAlert struct {
	AlertUID     string    `json:"alert_uid"`
	DeviceUID    string    `json:"device_uid"`
	ReporterInfo string    `json:"reporter_info,omitempty"`
	ReportedAt   time.Time `json:"reported_at"`
}
