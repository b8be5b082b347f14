package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abdullaevmar/device-registry/internal/models"
)

// Ошибки леджера платежей.
var (
	// ErrDuplicateReference платёж с таким reference уже записан для аккаунта.
	// Повтор подтверждения — ожидаемая ситуация, вызывающая сторона трактует
	// её как успех.
	ErrDuplicateReference = errors.New("payment reference already recorded")
	// ErrInsufficientAmount сумма платежа ниже тарифа для его типа.
	ErrInsufficientAmount = errors.New("payment amount is below the required fee")
	// ErrUnknownPaymentType неизвестный тип платежа, ошибка программиста.
	ErrUnknownPaymentType = errors.New("unknown payment type")
)

// LedgerRepository описывает операции хранилища для леджера платежей.
// Уникальность (account_uid, reference) обязана обеспечиваться ограничением
// на уровне БД: только так закрывается гонка двух одновременных подтверждений
// одного платежа.
type LedgerRepository interface {
	// InsertPayment дописывает платёж в леджер; при конфликте reference
	// возвращает ErrDuplicateReference.
	InsertPayment(ctx context.Context, payment models.Payment) (int, error)
	// SetPaymentStatus помечает запись леджера итогом применения эффектов.
	SetPaymentStatus(ctx context.Context, id int, status string) error
	// UpdateTierAndSubscription записывает новый тариф и подписку аккаунта.
	UpdateTierAndSubscription(ctx context.Context, accountUID, tier string, sub models.Subscription) error
	// RelieveUsage атомарно уменьшает каждый из трёх счётчиков на единицу
	// с нижней границей ноль и возвращает новые значения.
	RelieveUsage(ctx context.Context, accountUID string) (models.Usage, error)
}

// Ledger превращает подтверждённый внешним шлюзом платёж в изменения состояния
// аккаунта. Запись в леджер выполняется до применения эффектов и служит
// долговременным ключом идемпотентности; леджер никогда сам не повторяет
// охраняемое действие, это обязанность вызывающего слоя.
type Ledger struct {
	repo LedgerRepository
	log  *slog.Logger
}

// NewLedger создает новый экземпляр Ledger.
func NewLedger(repo LedgerRepository, log *slog.Logger) *Ledger {
	return &Ledger{
		repo: repo,
		log:  log,
	}
}

// ApplyPayment записывает платёж и применяет его эффект к аккаунту:
// повышение тарифа с продлением подписки либо сверхлимитное послабление
// счётчиков. Возвращает обновлённый аккаунт; сохранять его и перезапускать
// исходное действие — обязанность вызывающего.
func (l *Ledger) ApplyPayment(ctx context.Context, account *models.Account, payment models.Payment) (*models.Account, error) {
	const op = "entitlement.ApplyPayment"
	log := l.log.With(
		slog.String("op", op),
		slog.String("account_uid", account.UID),
		slog.String("reference", payment.Reference),
	)

	switch payment.Type {
	case PaymentTypeVendorActivation, PaymentTypeVendorSubscription,
		PaymentTypeTechnicianSubscription, PaymentTypeDeviceOverage:
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownPaymentType, payment.Type)
	}

	payment.AccountUID = account.UID
	payment.Status = models.PaymentSuccess
	id, err := l.repo.InsertPayment(ctx, payment)
	if err != nil {
		if errors.Is(err, ErrDuplicateReference) {
			log.Info("duplicate payment reference, nothing applied")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated := *account
	switch payment.Type {
	case PaymentTypeVendorActivation, PaymentTypeVendorSubscription:
		if payment.Amount < FeeVendorSubscription {
			return nil, l.rejectInsufficient(ctx, log, id, payment.Amount, FeeVendorSubscription)
		}
		updated.Tier = models.TierVendor
		updated.Subscription = Renew(account.Subscription, payment.PaidAt)
		if err := l.repo.UpdateTierAndSubscription(ctx, account.UID, updated.Tier, updated.Subscription); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

	case PaymentTypeTechnicianSubscription:
		if payment.Amount < FeeTechnicianSubscription {
			return nil, l.rejectInsufficient(ctx, log, id, payment.Amount, FeeTechnicianSubscription)
		}
		updated.Tier = models.TierTechnician
		updated.Subscription = Renew(account.Subscription, payment.PaidAt)
		if err := l.repo.UpdateTierAndSubscription(ctx, account.UID, updated.Tier, updated.Subscription); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

	case PaymentTypeDeviceOverage:
		// Один платёж 1000 даёт по единице послабления каждому из трёх
		// счётчиков, а не только вызвавшему промпт.
		usage, err := l.repo.RelieveUsage(ctx, account.UID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updated.Usage = usage
	}

	log.Info("payment applied",
		slog.String("type", payment.Type),
		slog.Int64("amount", payment.Amount))
	return &updated, nil
}

func (l *Ledger) rejectInsufficient(ctx context.Context, log *slog.Logger, id int, got, want int64) error {
	if err := l.repo.SetPaymentStatus(ctx, id, models.PaymentFailed); err != nil {
		log.Error("failed to mark payment as failed", slog.Any("err", err))
	}
	log.Info("payment rejected: insufficient amount",
		slog.Int64("got", got), slog.Int64("want", want))
	return fmt.Errorf("%w: got %d, want at least %d", ErrInsufficientAmount, got, want)
}
