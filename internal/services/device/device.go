// Package services содержит бизнес-логику работы с устройствами реестра:
// регистрация, поиск с кешированием, смена статуса и тревоги.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/abdullaevmar/device-registry/internal/cache"
	"github.com/abdullaevmar/device-registry/internal/lib/rabbitmq"
	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// DeviceRepository определяет методы для работы с устройствами в хранилище.
type DeviceRepository interface {
	// CreateDevice регистрирует устройство вместе с первой записью следа.
	CreateDevice(ctx context.Context, device models.Device, details string) (string, error)
	// GetDevice возвращает устройство по UID.
	GetDevice(ctx context.Context, deviceUID string) (*models.Device, error)
	// FindDeviceBySerialOrIMEI ищет устройство по серийному номеру или IMEI.
	FindDeviceBySerialOrIMEI(ctx context.Context, identifier string) (*models.Device, error)
	// UpdateDeviceStatus меняет статус устройства и дописывает след.
	UpdateDeviceStatus(ctx context.Context, deviceUID, actorUID, status, details string) error
	// ListDevicesByOwner возвращает устройства владельца.
	ListDevicesByOwner(ctx context.Context, ownerUID string) ([]*models.Device, error)
	// ListHistory возвращает след устройства.
	ListHistory(ctx context.Context, deviceUID string) ([]*models.HistoryEntry, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// DeviceService реализует бизнес-логику работы с устройствами, включая кеширование поиска.
type DeviceService struct {
	repo    DeviceRepository
	cache   Cache
	channel *amqp.Channel
	log     *slog.Logger
}

// NewDeviceService создает новый экземпляр DeviceService.
func NewDeviceService(repo DeviceRepository, cache Cache, channel *amqp.Channel, log *slog.Logger) *DeviceService {
	return &DeviceService{
		repo:    repo,
		cache:   cache,
		channel: channel,
		log:     log,
	}
}

// Register регистрирует новое устройство на владельца.
func (s *DeviceService) Register(ctx context.Context, ownerUID string, req models.DummyDevice) (string, error) {
	device := models.Device{
		SerialNumber: req.SerialNumber,
		Brand:        req.Brand,
		Model:        req.Model,
		Color:        req.Color,
		Status:       models.DeviceActive,
		OwnerUID:     ownerUID,
	}
	if req.IMEI != "" {
		device.IMEI = &req.IMEI
	}

	deviceUID, err := s.repo.CreateDevice(ctx, device, req.Details)
	if err != nil {
		return "", err
	}
	s.log.Info("registered new device", slog.String("device_uid", deviceUID))
	return deviceUID, nil
}

// Lookup ищет устройство по серийному номеру или IMEI с кешированием результата.
func (s *DeviceService) Lookup(ctx context.Context, identifier string) (*models.Device, error) {
	cacheKey := cache.DeviceKey(identifier)

	var cached models.Device
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read device from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return &cached, nil
	}

	device, err := s.repo.FindDeviceBySerialOrIMEI(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, device, 10*time.Minute); err != nil {
		s.log.Warn("failed to cache device", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return device, nil
}

// List возвращает устройства владельца.
func (s *DeviceService) List(ctx context.Context, ownerUID string) ([]*models.Device, error) {
	return s.repo.ListDevicesByOwner(ctx, ownerUID)
}

// History возвращает след устройства.
func (s *DeviceService) History(ctx context.Context, deviceUID string) ([]*models.HistoryEntry, error) {
	return s.repo.ListHistory(ctx, deviceUID)
}

// UpdateStatus меняет статус устройства и инвалидирует кеш поиска.
func (s *DeviceService) UpdateStatus(ctx context.Context, deviceUID, actorUID, status, details string) error {
	device, err := s.repo.GetDevice(ctx, deviceUID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateDeviceStatus(ctx, deviceUID, actorUID, status, details); err != nil {
		return err
	}
	s.log.Info("device status updated",
		slog.String("device_uid", deviceUID), slog.String("status", status))

	s.invalidateLookup(device)
	return nil
}

// Panic помечает устройство украденным и публикует тревогу для администраторов.
func (s *DeviceService) Panic(ctx context.Context, deviceUID, actorUID, reporterInfo string) (*models.PanicAlert, error) {
	if err := s.UpdateStatus(ctx, deviceUID, actorUID, models.DeviceStolen, "panic alert"); err != nil {
		return nil, err
	}

	alert := &models.PanicAlert{
		AlertUID:     uuid.New().String(),
		DeviceUID:    deviceUID,
		ReporterInfo: reporterInfo,
		ReportedAt:   time.Now().UTC(),
	}

	if s.channel == nil {
		s.log.Warn("notification channel is not configured, alert not published",
			slog.String("alert_uid", alert.AlertUID))
		return alert, nil
	}
	if err := rabbitmq.PublishMessage(s.channel, "notifications", "alert", alert); err != nil {
		s.log.Error("failed to publish panic alert", sl.Err(err))
	}
	return alert, nil
}

func (s *DeviceService) invalidateLookup(device *models.Device) {
	keys := []string{cache.DeviceKey(device.SerialNumber)}
	if device.IMEI != nil {
		keys = append(keys, cache.DeviceKey(*device.IMEI))
	}
	for _, key := range keys {
		if err := s.cache.Invalidate(key); err != nil {
			s.log.Warn("failed to invalidate device cache", slog.String("key", key), slog.Any("err", err))
		}
	}
}
