package paymentwebhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/models"
)

const testSecret = "webhook-secret"

// MockService реализует интерфейс paymentwebhook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Apply(ctx context.Context, accountUID string, req models.DummyPayment) (*models.Account, error) {
	args := m.Called(ctx, accountUID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	succeededBody := []byte(`{
		"event": "payment.succeeded",
		"object": {
			"id": "pay-abc-1",
			"status": "succeeded",
			"amount": {"value": "10000.00", "currency": "NGN"},
			"metadata": {"account_uid": "acc-1", "payment_type": "vendor_activation"}
		}
	}`)
	wantReq := models.DummyPayment{
		Reference: "pay-abc-1",
		Amount:    10000,
		Type:      "vendor_activation",
	}

	tests := []struct {
		name           string
		body           []byte
		signature      string
		setupMock      func(*MockService)
		expectedStatus int
	}{
		{
			name:      "успешный платёж применяется",
			body:      succeededBody,
			signature: sign(succeededBody),
			setupMock: func(m *MockService) {
				m.On("Apply", mock.Anything, "acc-1", wantReq).
					Return(&models.Account{UID: "acc-1", Tier: models.TierVendor}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:      "повторная доставка идемпотентна",
			body:      succeededBody,
			signature: sign(succeededBody),
			setupMock: func(m *MockService) {
				m.On("Apply", mock.Anything, "acc-1", wantReq).
					Return(nil, entitlement.ErrDuplicateReference)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "неверная подпись",
			body:           succeededBody,
			signature:      "bm90LXRoZS1yaWdodC1zaWduYXR1cmU=",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "подпись отсутствует",
			body:           succeededBody,
			signature:      "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "отменённый платёж не применяется",
			body: []byte(`{"event":"payment.canceled","object":{"id":"pay-abc-2"}}`),
			signature: sign([]byte(
				`{"event":"payment.canceled","object":{"id":"pay-abc-2"}}`)),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusOK,
		},
		{
			name: "нет metadata",
			body: []byte(`{"event":"payment.succeeded","object":{"id":"pay-abc-3","amount":{"value":"100.00"}}}`),
			signature: sign([]byte(
				`{"event":"payment.succeeded","object":{"id":"pay-abc-3","amount":{"value":"100.00"}}}`)),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, testSecret)

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set("X-Api-Signature", tt.signature)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}
