package devicelookup

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/http/middlewarectx"
	"github.com/abdullaevmar/device-registry/internal/models"
	"github.com/abdullaevmar/device-registry/internal/storage/repository"
)

// MockService реализует интерфейс devicelookup.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Lookup(ctx context.Context, identifier string) (*models.Device, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

// MockGate реализует интерфейс devicelookup.UsageConfirmer
type MockGate struct {
	mock.Mock
}

func (m *MockGate) Confirm(ctx context.Context, accountUID string, action entitlement.Action) error {
	return m.Called(ctx, accountUID, action).Error(0)
}

func TestLookupHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	device := &models.Device{
		UID:          "dev-1",
		SerialNumber: "SN-001",
		Brand:        "TechBrand",
		Model:        "X100",
		Status:       models.DeviceStolen,
		OwnerUID:     "owner-1",
	}

	tests := []struct {
		name           string
		identifier     string
		accountUID     string
		setupMocks     func(*MockService, *MockGate)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:       "найденное устройство фиксирует использование",
			identifier: "SN-001",
			accountUID: "acc-1",
			setupMocks: func(s *MockService, g *MockGate) {
				s.On("Lookup", mock.Anything, "SN-001").Return(device, nil)
				g.On("Confirm", mock.Anything, "acc-1", entitlement.ActionLookup).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"stolen"`,
		},
		{
			name:       "устройство не найдено, использование не фиксируется",
			identifier: "SN-404",
			accountUID: "acc-1",
			setupMocks: func(s *MockService, _ *MockGate) {
				s.On("Lookup", mock.Anything, "SN-404").Return(nil, repository.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"device not found"`,
		},
		{
			name:           "нет аккаунта в контексте",
			identifier:     "SN-001",
			accountUID:     "",
			setupMocks:     func(_ *MockService, _ *MockGate) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			name:       "ошибка сервиса",
			identifier: "SN-001",
			accountUID: "acc-1",
			setupMocks: func(s *MockService, _ *MockGate) {
				s.On("Lookup", mock.Anything, "SN-001").Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to lookup device"`,
		},
		{
			name:       "ошибка фиксации не ломает ответ",
			identifier: "SN-001",
			accountUID: "acc-1",
			setupMocks: func(s *MockService, g *MockGate) {
				s.On("Lookup", mock.Anything, "SN-001").Return(device, nil)
				g.On("Confirm", mock.Anything, "acc-1", entitlement.ActionLookup).
					Return(errors.New("db error"))
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"serial_number":"SN-001"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			mockGate := new(MockGate)
			tt.setupMocks(mockService, mockGate)

			handler := New(logger, mockService, mockGate)

			req := httptest.NewRequest(http.MethodGet, "/devices/lookup/"+tt.identifier, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("identifier", tt.identifier)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			if tt.accountUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.AccountUID, tt.accountUID)
			}
			req = req.WithContext(ctx)

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
