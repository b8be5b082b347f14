package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abdullaevmar/device-registry/internal/models"
)

const deviceColumns = `uid, serial_number, imei, brand, model, color, status, owner_uid, created_at`

// CreateDevice регистрирует устройство и первую запись его следа в одной транзакции.
func (s *Storage) CreateDevice(ctx context.Context, device models.Device, details string) (string, error) {
	const op = "storage.CreateDevice"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO devices (serial_number, imei, brand, model, color, status, owner_uid)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING uid`
	var newUID string
	err = tx.QueryRowContext(ctx, query,
		device.SerialNumber, device.IMEI, device.Brand, device.Model, device.Color,
		device.Status, device.OwnerUID).Scan(&newUID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	historyQuery := `INSERT INTO device_history (device_uid, actor_uid, action, details)
			  VALUES ($1, $2, $3, $4)`
	if _, err = tx.ExecContext(ctx, historyQuery, newUID, device.OwnerUID, "registered", details); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetDevice возвращает устройство по его UID.
func (s *Storage) GetDevice(ctx context.Context, deviceUID string) (*models.Device, error) {
	const op = "storage.GetDevice"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE uid = $1`
	device, err := scanDevice(s.DB.QueryRowContext(ctx, query, deviceUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return device, nil
}

// FindDeviceBySerialOrIMEI ищет устройство по серийному номеру или IMEI.
func (s *Storage) FindDeviceBySerialOrIMEI(ctx context.Context, identifier string) (*models.Device, error) {
	const op = "storage.FindDeviceBySerialOrIMEI"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE serial_number = $1 OR imei = $1`
	device, err := scanDevice(s.DB.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return device, nil
}

// UpdateDeviceStatus меняет статус устройства и дописывает след в одной транзакции.
func (s *Storage) UpdateDeviceStatus(ctx context.Context, deviceUID, actorUID, status, details string) error {
	const op = "storage.UpdateDeviceStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `UPDATE devices SET status = $2 WHERE uid = $1`, deviceUID, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	historyQuery := `INSERT INTO device_history (device_uid, actor_uid, action, details)
			  VALUES ($1, $2, $3, $4)`
	if _, err = tx.ExecContext(ctx, historyQuery, deviceUID, actorUID, "status_"+status, details); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListDevicesByOwner возвращает устройства владельца, новые первыми.
func (s *Storage) ListDevicesByOwner(ctx context.Context, ownerUID string) ([]*models.Device, error) {
	const op = "storage.ListDevicesByOwner"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + deviceColumns + `
			  FROM devices
			  WHERE owner_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListHistory возвращает след устройства в хронологическом порядке.
func (s *Storage) ListHistory(ctx context.Context, deviceUID string) ([]*models.HistoryEntry, error) {
	const op = "storage.ListHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, device_uid, actor_uid, action, details, created_at
			  FROM device_history
			  WHERE device_uid = $1
			  ORDER BY created_at ASC, id ASC`
	rows, err := s.DB.QueryContext(ctx, query, deviceUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.DeviceUID, &entry.ActorUID, &entry.Action,
			&entry.Details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AddHistory дописывает запись следа устройства.
func (s *Storage) AddHistory(ctx context.Context, entry models.HistoryEntry) error {
	const op = "storage.AddHistory"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO device_history (device_uid, actor_uid, action, details)
			  VALUES ($1, $2, $3, $4)`
	if _, err := s.DB.ExecContext(ctx, query, entry.DeviceUID, entry.ActorUID, entry.Action, entry.Details); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanDevice(row rowScanner) (*models.Device, error) {
	d := &models.Device{}
	var imei sql.NullString
	var color sql.NullString

	if err := row.Scan(&d.UID, &d.SerialNumber, &imei, &d.Brand, &d.Model, &color,
		&d.Status, &d.OwnerUID, &d.CreatedAt); err != nil {
		return nil, err
	}

	if imei.Valid {
		d.IMEI = &imei.String
	}
	if color.Valid {
		d.Color = color.String
	}
	return d, nil
}
