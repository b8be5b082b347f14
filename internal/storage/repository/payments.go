package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// Код PostgreSQL для нарушения уникального ограничения.
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// InsertPayment записывает платёж в леджер и возвращает его ID.
// Повторная ссылка платежа для того же аккаунта нарушает уникальное
// ограничение и возвращает entitlement.ErrDuplicateReference.
func (s *Storage) InsertPayment(ctx context.Context, payment models.Payment) (int, error) {
	const op = "storage.InsertPayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (account_uid, reference, amount, type, status, description, paid_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var id int
	err := s.DB.QueryRowContext(ctx, query,
		payment.AccountUID, payment.Reference, payment.Amount, payment.Type,
		payment.Status, payment.Description, payment.PaidAt).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, entitlement.ErrDuplicateReference)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// SetPaymentStatus обновляет статус уже записанного платежа.
func (s *Storage) SetPaymentStatus(ctx context.Context, id int, status string) error {
	const op = "storage.SetPaymentStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `UPDATE payments SET status = $2 WHERE id = $1`, id, status)
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

// ListPayments возвращает платежи аккаунта, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, accountUID string) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_uid, reference, amount, type, status, description, paid_at
			  FROM payments
			  WHERE account_uid = $1
			  ORDER BY paid_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, accountUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.AccountUID, &p.Reference, &p.Amount, &p.Type,
			&p.Status, &p.Description, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SumRevenueSince возвращает сумму успешных платежей начиная с указанного момента.
func (s *Storage) SumRevenueSince(ctx context.Context, since time.Time) (int64, error) {
	const op = "storage.SumRevenueSince"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COALESCE(SUM(amount), 0)
			  FROM payments
			  WHERE status = $1 AND paid_at >= $2`
	var total int64
	if err := s.DB.QueryRowContext(ctx, query, models.PaymentSuccess, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}
