// Package services содержит административную логику платформы.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/abdullaevmar/device-registry/internal/models"
	"github.com/abdullaevmar/device-registry/internal/storage/repository"
)

// AdminRepository определяет методы хранилища для административных операций.
type AdminRepository interface {
	// GetPlatformStats собирает агрегированные счётчики платформы.
	GetPlatformStats(ctx context.Context) (*repository.PlatformStats, error)
	// SumRevenueSince возвращает выручку начиная с указанного момента.
	SumRevenueSince(ctx context.Context, since time.Time) (int64, error)
	// ListAccounts возвращает аккаунты с пагинацией.
	ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error)
	// SetSuspended блокирует или разблокирует аккаунт.
	SetSuspended(ctx context.Context, accountUID string, suspended bool) error
}

// Stats агрегированные показатели платформы вместе с выручкой.
type Stats struct {
	*repository.PlatformStats
	RevenueTotal     int64 `json:"revenue_total"`
	RevenueLast30Day int64 `json:"revenue_last_30_days"`
}

// AdminService реализует операции панели администратора.
type AdminService struct {
	repo AdminRepository
	log  *slog.Logger
}

// NewAdminService создает новый экземпляр AdminService.
func NewAdminService(repo AdminRepository, log *slog.Logger) *AdminService {
	return &AdminService{repo: repo, log: log}
}

// Stats возвращает счётчики платформы и суммы выручки из леджера.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	platform, err := s.repo.GetPlatformStats(ctx)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.SumRevenueSince(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	last30, err := s.repo.SumRevenueSince(ctx, time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	return &Stats{
		PlatformStats:    platform,
		RevenueTotal:     total,
		RevenueLast30Day: last30,
	}, nil
}

// ListAccounts возвращает аккаунты с пагинацией.
func (s *AdminService) ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListAccounts(ctx, limit, offset)
}

// SetSuspended блокирует или разблокирует аккаунт.
// Заблокированный аккаунт получает отказ на все операции с устройствами.
func (s *AdminService) SetSuspended(ctx context.Context, accountUID string, suspended bool) error {
	if err := s.repo.SetSuspended(ctx, accountUID, suspended); err != nil {
		return err
	}
	s.log.Info("account suspension updated",
		slog.String("account_uid", accountUID), slog.Bool("suspended", suspended))
	return nil
}
