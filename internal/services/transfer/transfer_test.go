package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/abdullaevmar/device-registry/internal/models"
)

type TransferRepoMock struct {
	mock.Mock
}

func (m *TransferRepoMock) CreateTransfer(ctx context.Context, transfer models.Transfer) (int, error) {
	args := m.Called(ctx, transfer)
	return args.Int(0), args.Error(1)
}

func (m *TransferRepoMock) GetTransfer(ctx context.Context, id int) (*models.Transfer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transfer), args.Error(1)
}

func (m *TransferRepoMock) ListPendingForAccount(ctx context.Context, email string) ([]*models.Transfer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transfer), args.Error(1)
}

func (m *TransferRepoMock) CompleteTransfer(ctx context.Context, id int, newOwnerUID string) error {
	return m.Called(ctx, id, newOwnerUID).Error(0)
}

func (m *TransferRepoMock) RejectTransfer(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *TransferRepoMock) GetDevice(ctx context.Context, deviceUID string) (*models.Device, error) {
	args := m.Called(ctx, deviceUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestTransferService_Initiate(t *testing.T) {
	req := models.DummyTransfer{DeviceUID: "dev-1", ToEmail: "new@example.com"}

	t.Run("success", func(t *testing.T) {
		repo := new(TransferRepoMock)
		svc := NewTransferService(repo, new(CacheMock), newNoopLogger())

		repo.On("GetDevice", mock.Anything, "dev-1").
			Return(&models.Device{UID: "dev-1", OwnerUID: "acc-1", Status: models.DeviceActive}, nil).Once()
		repo.On("CreateTransfer", mock.Anything, mock.MatchedBy(func(tr models.Transfer) bool {
			return tr.DeviceUID == "dev-1" && tr.FromUID == "acc-1" && tr.ToEmail == "new@example.com"
		})).Return(42, nil).Once()

		id, err := svc.Initiate(context.Background(), "acc-1", req)
		require.NoError(t, err)
		assert.Equal(t, 42, id)
		repo.AssertExpectations(t)
	})

	t.Run("not owner", func(t *testing.T) {
		repo := new(TransferRepoMock)
		svc := NewTransferService(repo, new(CacheMock), newNoopLogger())

		repo.On("GetDevice", mock.Anything, "dev-1").
			Return(&models.Device{UID: "dev-1", OwnerUID: "someone-else", Status: models.DeviceActive}, nil).Once()

		_, err := svc.Initiate(context.Background(), "acc-1", req)
		require.ErrorIs(t, err, ErrNotOwner)
		repo.AssertNotCalled(t, "CreateTransfer")
	})

	t.Run("flagged device", func(t *testing.T) {
		repo := new(TransferRepoMock)
		svc := NewTransferService(repo, new(CacheMock), newNoopLogger())

		repo.On("GetDevice", mock.Anything, "dev-1").
			Return(&models.Device{UID: "dev-1", OwnerUID: "acc-1", Status: models.DeviceStolen}, nil).Once()

		_, err := svc.Initiate(context.Background(), "acc-1", req)
		require.ErrorIs(t, err, ErrDeviceFlagged)
		repo.AssertNotCalled(t, "CreateTransfer")
	})
}

func TestTransferService_Accept(t *testing.T) {
	transfer := &models.Transfer{
		ID:        42,
		DeviceUID: "dev-1",
		FromUID:   "acc-1",
		ToEmail:   "new@example.com",
		Status:    models.TransferPending,
	}

	t.Run("success reassigns owner and clears cache", func(t *testing.T) {
		repo := new(TransferRepoMock)
		cacheMock := new(CacheMock)
		svc := NewTransferService(repo, cacheMock, newNoopLogger())

		repo.On("GetTransfer", mock.Anything, 42).Return(transfer, nil).Once()
		repo.On("CompleteTransfer", mock.Anything, 42, "acc-2").Return(nil).Once()
		repo.On("GetDevice", mock.Anything, "dev-1").
			Return(&models.Device{UID: "dev-1", SerialNumber: "SN-1"}, nil).Once()
		cacheMock.On("Invalidate", mock.Anything).Return(nil)

		err := svc.Accept(context.Background(), 42, "acc-2", "new@example.com")
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("wrong recipient", func(t *testing.T) {
		repo := new(TransferRepoMock)
		svc := NewTransferService(repo, new(CacheMock), newNoopLogger())

		repo.On("GetTransfer", mock.Anything, 42).Return(transfer, nil).Once()

		err := svc.Accept(context.Background(), 42, "acc-3", "intruder@example.com")
		require.ErrorIs(t, err, ErrNotRecipient)
		repo.AssertNotCalled(t, "CompleteTransfer")
	})
}

func TestTransferService_Reject(t *testing.T) {
	transfer := &models.Transfer{ID: 7, ToEmail: "new@example.com", Status: models.TransferPending}

	repo := new(TransferRepoMock)
	svc := NewTransferService(repo, new(CacheMock), newNoopLogger())

	repo.On("GetTransfer", mock.Anything, 7).Return(transfer, nil).Twice()
	repo.On("RejectTransfer", mock.Anything, 7).Return(nil).Once()

	require.NoError(t, svc.Reject(context.Background(), 7, "new@example.com"))

	err := svc.Reject(context.Background(), 7, "intruder@example.com")
	require.ErrorIs(t, err, ErrNotRecipient)
	repo.AssertExpectations(t)
}
