package repository

import (
	"context"
	"fmt"

	"github.com/abdullaevmar/device-registry/internal/models"
)

// PlatformStats агрегированные показатели платформы для панели администратора.
type PlatformStats struct {
	TotalAccounts     int64            `json:"total_accounts"`
	SuspendedAccounts int64            `json:"suspended_accounts"`
	TotalDevices      int64            `json:"total_devices"`
	FlaggedDevices    int64            `json:"flagged_devices"`
	PendingTransfers  int64            `json:"pending_transfers"`
	AccountsByTier    map[string]int64 `json:"accounts_by_tier"`
	DevicesByStatus   map[string]int64 `json:"devices_by_status"`
}

// GetPlatformStats собирает агрегированные счётчики по аккаунтам,
// устройствам и передачам.
func (s *Storage) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	const op = "storage.GetPlatformStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	stats := &PlatformStats{
		AccountsByTier:  make(map[string]int64),
		DevicesByStatus: make(map[string]int64),
	}

	query := `SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM accounts WHERE suspended),
			(SELECT COUNT(*) FROM devices),
			(SELECT COUNT(*) FROM devices WHERE status IN ($1, $2, $3)),
			(SELECT COUNT(*) FROM transfers WHERE status = $4)`
	err := s.DB.QueryRowContext(ctx, query,
		models.DeviceStolen, models.DeviceLost, models.DeviceMissing, models.TransferPending).
		Scan(&stats.TotalAccounts, &stats.SuspendedAccounts, &stats.TotalDevices,
			&stats.FlaggedDevices, &stats.PendingTransfers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tierRows, err := s.DB.QueryContext(ctx, `SELECT tier, COUNT(*) FROM accounts GROUP BY tier`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tierRows.Close()
	}()
	for tierRows.Next() {
		var tier string
		var count int64
		if err := tierRows.Scan(&tier, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats.AccountsByTier[tier] = count
	}
	if err := tierRows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	statusRows, err := s.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM devices GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = statusRows.Close()
	}()
	for statusRows.Next() {
		var status string
		var count int64
		if err := statusRows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats.DevicesByStatus[status] = count
	}
	if err := statusRows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}
