// Package services содержит бизнес-логику передачи владения устройствами.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abdullaevmar/device-registry/internal/cache"
	"github.com/abdullaevmar/device-registry/internal/models"
)

var (
	// ErrNotOwner инициатор не владеет устройством.
	ErrNotOwner = errors.New("account does not own this device")
	// ErrNotRecipient передача адресована другому аккаунту.
	ErrNotRecipient = errors.New("transfer is addressed to another account")
	// ErrDeviceFlagged устройство помечено украденным или утерянным.
	ErrDeviceFlagged = errors.New("device is flagged and cannot be transferred")
)

// TransferRepository определяет методы для работы с передачами в хранилище.
type TransferRepository interface {
	// CreateTransfer сохраняет новую передачу и возвращает её ID.
	CreateTransfer(ctx context.Context, transfer models.Transfer) (int, error)
	// GetTransfer возвращает передачу по ID.
	GetTransfer(ctx context.Context, id int) (*models.Transfer, error)
	// ListPendingForAccount возвращает ожидающие передачи для email получателя.
	ListPendingForAccount(ctx context.Context, email string) ([]*models.Transfer, error)
	// CompleteTransfer завершает передачу и переназначает владельца устройства.
	CompleteTransfer(ctx context.Context, id int, newOwnerUID string) error
	// RejectTransfer отклоняет ожидающую передачу.
	RejectTransfer(ctx context.Context, id int) error
	// GetDevice возвращает устройство по UID.
	GetDevice(ctx context.Context, deviceUID string) (*models.Device, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// TransferService реализует бизнес-логику передачи владения.
type TransferService struct {
	repo  TransferRepository
	cache Cache
	log   *slog.Logger
}

// NewTransferService создает новый экземпляр TransferService.
func NewTransferService(repo TransferRepository, cache Cache, log *slog.Logger) *TransferService {
	return &TransferService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Initiate создает передачу устройства получателю, заданному email.
// Получатель может быть ещё не зарегистрирован.
func (s *TransferService) Initiate(ctx context.Context, fromUID string, req models.DummyTransfer) (int, error) {
	device, err := s.repo.GetDevice(ctx, req.DeviceUID)
	if err != nil {
		return 0, err
	}
	if device.OwnerUID != fromUID {
		return 0, ErrNotOwner
	}
	if device.Status == models.DeviceStolen || device.Status == models.DeviceLost {
		return 0, ErrDeviceFlagged
	}

	id, err := s.repo.CreateTransfer(ctx, models.Transfer{
		DeviceUID: req.DeviceUID,
		FromUID:   fromUID,
		ToEmail:   req.ToEmail,
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("transfer initiated",
		slog.Int("transfer_id", id), slog.String("device_uid", req.DeviceUID))
	return id, nil
}

// Pending возвращает ожидающие передачи, адресованные аккаунту.
func (s *TransferService) Pending(ctx context.Context, email string) ([]*models.Transfer, error) {
	return s.repo.ListPendingForAccount(ctx, email)
}

// Accept завершает передачу: получатель подтверждается по email,
// владелец устройства переназначается, кеш поиска инвалидируется.
func (s *TransferService) Accept(ctx context.Context, id int, accountUID, email string) error {
	transfer, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	if transfer.ToEmail != email {
		return ErrNotRecipient
	}

	if err := s.repo.CompleteTransfer(ctx, id, accountUID); err != nil {
		return err
	}
	s.log.Info("transfer completed",
		slog.Int("transfer_id", id), slog.String("new_owner_uid", accountUID))

	if device, err := s.repo.GetDevice(ctx, transfer.DeviceUID); err == nil {
		s.invalidateLookup(device)
	}
	return nil
}

// Reject отклоняет передачу, адресованную аккаунту.
func (s *TransferService) Reject(ctx context.Context, id int, email string) error {
	transfer, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	if transfer.ToEmail != email {
		return ErrNotRecipient
	}
	return s.repo.RejectTransfer(ctx, id)
}

func (s *TransferService) invalidateLookup(device *models.Device) {
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
