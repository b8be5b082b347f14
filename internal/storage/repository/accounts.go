package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/models"
)

const accountColumns = `uid, email, username, nin, password_hash, tier, suspended,
	usage_period, usage_lookups, usage_transfers, usage_acceptances,
	subscription_status, subscription_plan, subscription_expires_at, subscription_last_paid_at,
	created_at`

// RegisterAccount сохраняет новый аккаунт и возвращает его UID.
func (s *Storage) RegisterAccount(ctx context.Context, account models.Account) (string, error) {
	const op = "storage.RegisterAccount"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO accounts (email, username, nin, password_hash, tier, usage_period,
			      subscription_status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING uid`
	var newUID string
	err := s.DB.QueryRowContext(ctx, query,
		account.Email, account.Username, account.NIN, account.PasswordHash, account.Tier,
		account.Usage.PeriodKey, account.Subscription.Status).Scan(&newUID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetAccount возвращает аккаунт по его UID.
func (s *Storage) GetAccount(ctx context.Context, accountUID string) (*models.Account, error) {
	const op = "storage.GetAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE uid = $1`
	return s.scanAccount(s.DB.QueryRowContext(ctx, query, accountUID), op)
}

// GetAccountByUsername возвращает аккаунт по имени пользователя.
func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	const op = "storage.GetAccountByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return s.scanAccount(s.DB.QueryRowContext(ctx, query, username), op)
}

// GetAccountByEmail возвращает аккаунт по email.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return s.scanAccount(s.DB.QueryRowContext(ctx, query, email), op)
}

// RolloverUsage сбрасывает счётчики и устанавливает новый ключ периода.
// Условие usage_period <> $2 делает операцию идемпотентной: параллельный
// перенос того же периода не сбросит счётчики второй раз.
func (s *Storage) RolloverUsage(ctx context.Context, accountUID, periodKey string) error {
	const op = "storage.RolloverUsage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET usage_period = $2,
			      usage_lookups = 0,
			      usage_transfers = 0,
			      usage_acceptances = 0
			  WHERE uid = $1 AND usage_period <> $2`
	if _, err := s.DB.ExecContext(ctx, query, accountUID, periodKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IncrementUsage атомарно увеличивает счётчик действия на единицу.
func (s *Storage) IncrementUsage(ctx context.Context, accountUID string, action entitlement.Action) error {
	const op = "storage.IncrementUsage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	column, err := usageColumn(action)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`UPDATE accounts SET %s = %s + 1 WHERE uid = $1`, column, column)
	result, err := s.DB.ExecContext(ctx, query, accountUID)
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

// RelieveUsage атомарно уменьшает каждый из трёх счётчиков на единицу
// с нижней границей ноль и возвращает новые значения.
func (s *Storage) RelieveUsage(ctx context.Context, accountUID string) (models.Usage, error) {
	const op = "storage.RelieveUsage"
	select {
	case <-ctx.Done():
		return models.Usage{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET usage_lookups = GREATEST(usage_lookups - 1, 0),
			      usage_transfers = GREATEST(usage_transfers - 1, 0),
			      usage_acceptances = GREATEST(usage_acceptances - 1, 0)
			  WHERE uid = $1
			  RETURNING usage_period, usage_lookups, usage_transfers, usage_acceptances`
	var usage models.Usage
	err := s.DB.QueryRowContext(ctx, query, accountUID).Scan(
		&usage.PeriodKey, &usage.Lookups, &usage.Transfers, &usage.Acceptances)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Usage{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return models.Usage{}, fmt.Errorf("%s: %w", op, err)
	}
	return usage, nil
}

// UpdateTierAndSubscription записывает новый тариф и подписку аккаунта.
func (s *Storage) UpdateTierAndSubscription(ctx context.Context, accountUID, tier string, sub models.Subscription) error {
	const op = "storage.UpdateTierAndSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET tier = $2,
			      subscription_status = $3,
			      subscription_plan = $4,
			      subscription_expires_at = $5,
			      subscription_last_paid_at = $6
			  WHERE uid = $1`
	result, err := s.DB.ExecContext(ctx, query,
		accountUID, tier, sub.Status, nullString(sub.Plan), sub.ExpiresAt, sub.LastPaidAt)
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

// SetSuspended включает или снимает блокировку аккаунта.
func (s *Storage) SetSuspended(ctx context.Context, accountUID string, suspended bool) error {
	const op = "storage.SetSuspended"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts SET suspended = $2 WHERE uid = $1`
	result, err := s.DB.ExecContext(ctx, query, accountUID, suspended)
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

// ListAccounts возвращает список аккаунтов с пагинацией.
func (s *Storage) ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	const op = "storage.ListAccounts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Account
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindSubscriptionsExpiringTomorrow находит аккаунты с подпиской, истекающей завтра.
func (s *Storage) FindSubscriptionsExpiringTomorrow(ctx context.Context) ([]*models.AccountInfo, error) {
	const op = "storage.FindSubscriptionsExpiringTomorrow"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT email, username, tier, subscription_expires_at
			  FROM accounts
			  WHERE subscription_status = 'active'
			    AND subscription_expires_at::DATE = CURRENT_DATE + INTERVAL '1 day'`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.AccountInfo
	for rows.Next() {
		var info models.AccountInfo
		if err := rows.Scan(&info.Email, &info.Username, &info.Tier, &info.ExpiresAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Storage) scanAccount(row *sql.Row, op string) (*models.Account, error) {
	account, err := scanAccountRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

func scanAccountRow(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var plan sql.NullString
	var expiresAt, lastPaidAt sql.NullTime

	if err := row.Scan(&a.UID, &a.Email, &a.Username, &a.NIN, &a.PasswordHash, &a.Tier,
		&a.Suspended, &a.Usage.PeriodKey, &a.Usage.Lookups, &a.Usage.Transfers,
		&a.Usage.Acceptances, &a.Subscription.Status, &plan, &expiresAt, &lastPaidAt,
		&a.CreatedAt); err != nil {
		return nil, err
	}

	if plan.Valid {
		a.Subscription.Plan = plan.String
	}
	if expiresAt.Valid {
		a.Subscription.ExpiresAt = &expiresAt.Time
	}
	if lastPaidAt.Valid {
		a.Subscription.LastPaidAt = &lastPaidAt.Time
	}
	return a, nil
}

func usageColumn(action entitlement.Action) (string, error) {
	switch action {
	case entitlement.ActionLookup:
		return "usage_lookups", nil
	case entitlement.ActionTransfer:
		return "usage_transfers", nil
	case entitlement.ActionAcceptance:
		return "usage_acceptances", nil
	}
	return "", fmt.Errorf("%w: %q", entitlement.ErrUnknownAction, action)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
