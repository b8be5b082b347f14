// Package services содержит бизнес-логику обработки платежей:
// активация и продление подписок, покупка сверхлимита, леджер.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/models"
)

// AccountRepository возвращает аккаунты для применения платежей.
type AccountRepository interface {
	GetAccount(ctx context.Context, accountUID string) (*models.Account, error)
}

// PaymentRepository определяет методы леджера в хранилище.
type PaymentRepository interface {
	entitlement.LedgerRepository
	// ListPayments возвращает платежи аккаунта.
	ListPayments(ctx context.Context, accountUID string) ([]*models.Payment, error)
}

// PaymentService применяет платежи к аккаунтам через Ledger.
type PaymentService struct {
	accounts AccountRepository
	ledger   *entitlement.Ledger
	payments PaymentRepository
	log      *slog.Logger
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(accounts AccountRepository, payments PaymentRepository, log *slog.Logger) *PaymentService {
	return &PaymentService{
		accounts: accounts,
		ledger:   entitlement.NewLedger(payments, log),
		payments: payments,
		log:      log,
	}
}

// Apply проверяет платёж и применяет его эффект к аккаунту:
// запись в леджер, затем смена тарифа, продление подписки или
// списание сверхлимита — в зависимости от типа платежа.
func (s *PaymentService) Apply(ctx context.Context, accountUID string, req models.DummyPayment) (*models.Account, error) {
	account, err := s.accounts.GetAccount(ctx, accountUID)
	if err != nil {
		return nil, err
	}

	payment := models.Payment{
		Reference: req.Reference,
		Amount:    req.Amount,
		Type:      req.Type,
		PaidAt:    time.Now().UTC(),
	}

	updated, err := s.ledger.ApplyPayment(ctx, account, payment)
	if err != nil {
		return nil, err
	}
	s.log.Info("payment applied",
		slog.String("account_uid", accountUID),
		slog.String("reference", req.Reference),
		slog.String("type", req.Type))
	return updated, nil
}

// List возвращает платежи аккаунта.
func (s *PaymentService) List(ctx context.Context, accountUID string) ([]*models.Payment, error) {
	return s.payments.ListPayments(ctx, accountUID)
}
