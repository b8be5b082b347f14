package transfercreate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/http/middlewarectx"
	"github.com/abdullaevmar/device-registry/internal/models"
	transferservice "github.com/abdullaevmar/device-registry/internal/services/transfer"
)

// MockService реализует интерфейс transfercreate.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Initiate(ctx context.Context, fromUID string, req models.DummyTransfer) (int, error) {
	args := m.Called(ctx, fromUID, req)
	return args.Int(0), args.Error(1)
}

// MockGate реализует интерфейс transfercreate.UsageConfirmer
type MockGate struct {
	mock.Mock
}

func (m *MockGate) Confirm(ctx context.Context, accountUID string, action entitlement.Action) error {
	return m.Called(ctx, accountUID, action).Error(0)
}

func TestCreateTransferHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	const body = `{"device_uid":"8b9e7a90-3f55-4f2e-9b61-1c7d2a62a001","to_email":"buyer@example.com"}`
	wantReq := models.DummyTransfer{
		DeviceUID: "8b9e7a90-3f55-4f2e-9b61-1c7d2a62a001",
		ToEmail:   "buyer@example.com",
	}

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*MockService, *MockGate)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная передача фиксирует использование",
			body: body,
			setupMocks: func(s *MockService, g *MockGate) {
				s.On("Initiate", mock.Anything, "acc-1", wantReq).Return(42, nil)
				g.On("Confirm", mock.Anything, "acc-1", entitlement.ActionTransfer).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"transfer_id":42`,
		},
		{
			name:           "невалидный email получателя",
			body:           `{"device_uid":"8b9e7a90-3f55-4f2e-9b61-1c7d2a62a001","to_email":"not-an-email"}`,
			setupMocks:     func(_ *MockService, _ *MockGate) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field ToEmail must be a valid email`,
		},
		{
			name: "инициатор не владелец",
			body: body,
			setupMocks: func(s *MockService, _ *MockGate) {
				s.On("Initiate", mock.Anything, "acc-1", wantReq).
					Return(0, transferservice.ErrNotOwner)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"device belongs to another account"`,
		},
		{
			name: "устройство помечено украденным",
			body: body,
			setupMocks: func(s *MockService, _ *MockGate) {
				s.On("Initiate", mock.Anything, "acc-1", wantReq).
					Return(0, transferservice.ErrDeviceFlagged)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"device is flagged and cannot be transferred"`,
		},
		{
			name: "ошибка сервиса",
			body: body,
			setupMocks: func(s *MockService, _ *MockGate) {
				s.On("Initiate", mock.Anything, "acc-1", wantReq).
					Return(0, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to initiate transfer"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			mockGate := new(MockGate)
			tt.setupMocks(mockService, mockGate)

			handler := New(logger, mockService, mockGate)

			req := httptest.NewRequest(http.MethodPost, "/transfers", strings.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.AccountUID, "acc-1"))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
			mockGate.AssertExpectations(t)
		})
	}
}
