package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/models"
)

func TestRolloverUsage_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	accountUID := factory.CreateAccount(t, models.TierBasic, "2024-05")
	_, err := storage.DB.Exec(`UPDATE accounts
		SET usage_lookups = 3, usage_transfers = 2, usage_acceptances = 1 WHERE uid = $1`, accountUID)
	require.NoError(t, err)

	require.NoError(t, storage.RolloverUsage(ctx, accountUID, "2024-06"))
	usage := factory.ReadUsage(t, accountUID)
	assert.Equal(t, models.Usage{PeriodKey: "2024-06"}, usage)

	// Инкремент после переноса и повторный перенос того же периода:
	// счётчики не сбрасываются второй раз.
	require.NoError(t, storage.IncrementUsage(ctx, accountUID, entitlement.ActionLookup))
	require.NoError(t, storage.RolloverUsage(ctx, accountUID, "2024-06"))

	usage = factory.ReadUsage(t, accountUID)
	assert.Equal(t, models.Usage{PeriodKey: "2024-06", Lookups: 1}, usage)
}

func TestIncrementUsage_PerAction(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	accountUID := factory.CreateAccount(t, models.TierBasic, "2024-06")

	require.NoError(t, storage.IncrementUsage(ctx, accountUID, entitlement.ActionLookup))
	require.NoError(t, storage.IncrementUsage(ctx, accountUID, entitlement.ActionLookup))
	require.NoError(t, storage.IncrementUsage(ctx, accountUID, entitlement.ActionTransfer))

	usage := factory.ReadUsage(t, accountUID)
	assert.Equal(t, models.Usage{PeriodKey: "2024-06", Lookups: 2, Transfers: 1}, usage)

	err := storage.IncrementUsage(ctx, "00000000-0000-0000-0000-000000000000", entitlement.ActionLookup)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRelieveUsage_FloorsAtZero(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	accountUID := factory.CreateAccount(t, models.TierBasic, "2024-06")
	_, err := storage.DB.Exec(`UPDATE accounts
		SET usage_lookups = 0, usage_transfers = 3, usage_acceptances = 1 WHERE uid = $1`, accountUID)
	require.NoError(t, err)

	usage, err := storage.RelieveUsage(ctx, accountUID)
	require.NoError(t, err)
	assert.Equal(t, models.Usage{PeriodKey: "2024-06", Lookups: 0, Transfers: 2, Acceptances: 0}, usage)
}

func TestInsertPayment_DuplicateReference(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	accountUID := factory.CreateAccount(t, models.TierBasic, "2024-06")
	payment := models.Payment{
		AccountUID: accountUID,
		Reference:  "PSK-REF-1",
		Amount:     1000,
		Type:       entitlement.PaymentTypeDeviceOverage,
		Status:     models.PaymentSuccess,
		PaidAt:     time.Now().UTC(),
	}

	id, err := storage.InsertPayment(ctx, payment)
	require.NoError(t, err)
	require.Greater(t, id, 0)

	_, err = storage.InsertPayment(ctx, payment)
	require.ErrorIs(t, err, entitlement.ErrDuplicateReference)

	// Та же ссылка у другого аккаунта — не конфликт.
	otherUID := factory.CreateAccount(t, models.TierBasic, "2024-06")
	payment.AccountUID = otherUID
	_, err = storage.InsertPayment(ctx, payment)
	require.NoError(t, err)
}

func TestUpdateTierAndSubscription(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	accountUID := factory.CreateAccount(t, models.TierBasic, "2024-06")

	paidAt := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	expiresAt := paidAt.AddDate(0, 1, 0)
	err := storage.UpdateTierAndSubscription(ctx, accountUID, models.TierVendor, models.Subscription{
		Status:     models.SubscriptionActive,
		ExpiresAt:  &expiresAt,
		LastPaidAt: &paidAt,
	})
	require.NoError(t, err)

	account, err := storage.GetAccount(ctx, accountUID)
	require.NoError(t, err)
	assert.Equal(t, models.TierVendor, account.Tier)
	assert.Equal(t, models.SubscriptionActive, account.Subscription.Status)
	require.NotNil(t, account.Subscription.ExpiresAt)
	assert.True(t, account.Subscription.ExpiresAt.Equal(expiresAt))
}

func TestCompleteTransfer_ReassignsOwner(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	fromUID := factory.CreateAccount(t, models.TierBasic, "2024-06")
	toUID := factory.CreateAccount(t, models.TierBasic, "2024-06")
	deviceUID := factory.CreateDevice(t, fromUID)

	toAccount, err := storage.GetAccount(ctx, toUID)
	require.NoError(t, err)

	id, err := storage.CreateTransfer(ctx, models.Transfer{
		DeviceUID: deviceUID,
		FromUID:   fromUID,
		ToEmail:   toAccount.Email,
	})
	require.NoError(t, err)

	pending, err := storage.ListPendingForAccount(ctx, toAccount.Email)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)

	require.NoError(t, storage.CompleteTransfer(ctx, id, toUID))

	device, err := storage.GetDevice(ctx, deviceUID)
	require.NoError(t, err)
	assert.Equal(t, toUID, device.OwnerUID)

	// Повторное завершение невозможно.
	err = storage.CompleteTransfer(ctx, id, toUID)
	require.ErrorIs(t, err, ErrNotFound)

	history, err := storage.ListHistory(ctx, deviceUID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "ownership_accepted", history[len(history)-1].Action)
}

func TestFindDeviceBySerialOrIMEI(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	ownerUID := factory.CreateAccount(t, models.TierBasic, "2024-06")
	imei := "356938035643809"
	uid, err := storage.CreateDevice(ctx, models.Device{
		SerialNumber: "SN-LOOKUP-1",
		IMEI:         &imei,
		Brand:        "Samsung",
		Model:        "Galaxy S24",
		Status:       models.DeviceActive,
		OwnerUID:     ownerUID,
	}, "initial registration")
	require.NoError(t, err)

	bySerial, err := storage.FindDeviceBySerialOrIMEI(ctx, "SN-LOOKUP-1")
	require.NoError(t, err)
	assert.Equal(t, uid, bySerial.UID)

	byIMEI, err := storage.FindDeviceBySerialOrIMEI(ctx, imei)
	require.NoError(t, err)
	assert.Equal(t, uid, byIMEI.UID)

	_, err = storage.FindDeviceBySerialOrIMEI(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)

	// Дубликат серийного номера отклоняется.
	_, err = storage.CreateDevice(ctx, models.Device{
		SerialNumber: "SN-LOOKUP-1",
		Brand:        "Samsung",
		Model:        "Galaxy S24",
		Status:       models.DeviceActive,
		OwnerUID:     ownerUID,
	}, "")
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetAccountByEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	accountUID := factory.CreateAccount(t, models.TierVendor, "2024-06")
	account, err := storage.GetAccount(ctx, accountUID)
	require.NoError(t, err)

	byEmail, err := storage.GetAccountByEmail(ctx, account.Email)
	require.NoError(t, err)
	assert.Equal(t, accountUID, byEmail.UID)
	assert.Equal(t, models.TierVendor, byEmail.Tier)

	_, err = storage.GetAccountByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddHistory_AppendsToTrail(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	ownerUID := factory.CreateAccount(t, models.TierBasic, "2024-06")
	deviceUID := factory.CreateDevice(t, ownerUID)

	require.NoError(t, storage.AddHistory(ctx, models.HistoryEntry{
		DeviceUID: deviceUID,
		ActorUID:  ownerUID,
		Action:    "inspection",
		Details:   "checked in at service center",
	}))

	entries, err := storage.ListHistory(ctx, deviceUID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "registered", entries[0].Action)
	assert.Equal(t, "inspection", entries[1].Action)
	assert.Equal(t, "checked in at service center", entries[1].Details)
}
