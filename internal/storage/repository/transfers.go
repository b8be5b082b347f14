package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abdullaevmar/device-registry/internal/models"
)

const transferColumns = `id, device_uid, from_uid, to_email, to_uid, status, initiated_at, completed_at`

// CreateTransfer инициирует передачу владения устройством и возвращает её ID.
func (s *Storage) CreateTransfer(ctx context.Context, transfer models.Transfer) (int, error) {
	const op = "storage.CreateTransfer"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO transfers (device_uid, from_uid, to_email, status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var id int
	err := s.DB.QueryRowContext(ctx, query,
		transfer.DeviceUID, transfer.FromUID, transfer.ToEmail, models.TransferPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetTransfer возвращает передачу по её ID.
func (s *Storage) GetTransfer(ctx context.Context, id int) (*models.Transfer, error) {
	const op = "storage.GetTransfer"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`
	transfer, err := scanTransfer(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return transfer, nil
}

// ListPendingForAccount возвращает ожидающие передачи, адресованные аккаунту:
// получатель сопоставляется по email, потому что мог быть не зарегистрирован
// на момент инициирования.
func (s *Storage) ListPendingForAccount(ctx context.Context, email string) ([]*models.Transfer, error) {
	const op = "storage.ListPendingForAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + transferColumns + `
			  FROM transfers
			  WHERE to_email = $1 AND status = $2
			  ORDER BY initiated_at ASC`
	rows, err := s.DB.QueryContext(ctx, query, email, models.TransferPending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Transfer
	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CompleteTransfer завершает передачу: помечает её выполненной, переназначает
// владельца устройства и дописывает след — всё в одной транзакции. Условие
// status = 'pending' не даёт завершить передачу дважды.
func (s *Storage) CompleteTransfer(ctx context.Context, id int, newOwnerUID string) error {
	const op = "storage.CompleteTransfer"
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

	query := `UPDATE transfers
			  SET status = $2, to_uid = $3, completed_at = NOW()
			  WHERE id = $1 AND status = $4
			  RETURNING device_uid, from_uid`
	var deviceUID, fromUID string
	err = tx.QueryRowContext(ctx, query, id, models.TransferCompleted, newOwnerUID,
		models.TransferPending).Scan(&deviceUID, &fromUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	deviceQuery := `UPDATE devices SET owner_uid = $2, status = $3 WHERE uid = $1`
	if _, err = tx.ExecContext(ctx, deviceQuery, deviceUID, newOwnerUID, models.DeviceActive); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	historyQuery := `INSERT INTO device_history (device_uid, actor_uid, action, details)
			  VALUES ($1, $2, $3, $4)`
	if _, err = tx.ExecContext(ctx, historyQuery, deviceUID, newOwnerUID, "ownership_accepted",
		fmt.Sprintf("transferred from %s", fromUID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RejectTransfer отклоняет ожидающую передачу.
func (s *Storage) RejectTransfer(ctx context.Context, id int) error {
	const op = "storage.RejectTransfer"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE transfers
			  SET status = $2, completed_at = NOW()
			  WHERE id = $1 AND status = $3`
	result, err := s.DB.ExecContext(ctx, query, id, models.TransferRejected, models.TransferPending)
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
	return nil
}

func scanTransfer(row rowScanner) (*models.Transfer, error) {
	t := &models.Transfer{}
	var toUID sql.NullString
	var completedAt sql.NullTime

	if err := row.Scan(&t.ID, &t.DeviceUID, &t.FromUID, &t.ToEmail, &toUID, &t.Status,
		&t.InitiatedAt, &completedAt); err != nil {
		return nil, err
	}

	if toUID.Valid {
		t.ToUID = &toUID.String
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return t, nil
}
