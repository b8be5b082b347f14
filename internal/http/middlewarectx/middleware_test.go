package middlewarectx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/abdullaevmar/device-registry/internal/entitlement"
	"github.com/abdullaevmar/device-registry/internal/models"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) ValidateToken(ctx context.Context, token string) (*models.Account, string, bool, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Bool(2), args.Error(3)
	}
	return args.Get(0).(*models.Account), args.String(1), args.Bool(2), args.Error(3)
}

type AccountProviderMock struct {
	mock.Mock
}

func (m *AccountProviderMock) GetAccount(ctx context.Context, accountUID string) (*models.Account, error) {
	args := m.Called(ctx, accountUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

type EvaluatorMock struct {
	mock.Mock
}

func (m *EvaluatorMock) Evaluate(ctx context.Context, account *models.Account, action entitlement.Action, now time.Time) (entitlement.Decision, error) {
	args := m.Called(ctx, account, action, now)
	return args.Get(0).(entitlement.Decision), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	account := &models.Account{UID: "acc-1", Username: "testuser"}

	tests := []struct {
		name       string
		authHeader string
		setupMocks func(s *AuthServiceMock)
		wantStatus int
		wantNext   bool
	}{
		{
			name:       "missing header",
			authHeader: "",
			setupMocks: func(_ *AuthServiceMock) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad-token",
			setupMocks: func(s *AuthServiceMock) {
				s.On("ValidateToken", mock.Anything, "bad-token").
					Return(nil, "", false, errors.New("token is invalid")).Once()
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token populates context",
			authHeader: "Bearer good-token",
			setupMocks: func(s *AuthServiceMock) {
				s.On("ValidateToken", mock.Anything, "good-token").
					Return(account, models.TierVendor, true, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AuthServiceMock)
			tt.setupMocks(svc)

			var nextCalled bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				assert.Equal(t, "testuser", r.Context().Value(User))
				assert.Equal(t, models.TierVendor, r.Context().Value(Role))
				assert.Equal(t, "acc-1", r.Context().Value(AccountUID))
			})

			req := httptest.NewRequest(http.MethodGet, "/devices", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			JWTMiddleware(svc, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantNext, nextCalled)
			svc.AssertExpectations(t)
		})
	}
}

func TestEntitlementMiddleware(t *testing.T) {
	account := &models.Account{UID: "acc-1", Tier: models.TierBasic}

	tests := []struct {
		name       string
		decision   entitlement.Decision
		wantStatus int
		wantNext   bool
	}{
		{
			name:       "allow passes account to handler",
			decision:   entitlement.Decision{Verdict: entitlement.VerdictAllow},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name: "require payment returns 402 with amount",
			decision: entitlement.Decision{
				Verdict:     entitlement.VerdictRequirePayment,
				Amount:      1000,
				PaymentType: entitlement.PaymentTypeDeviceOverage,
				Reason:      entitlement.ReasonLimitReached,
			},
			wantStatus: http.StatusPaymentRequired,
		},
		{
			name: "deny returns 403",
			decision: entitlement.Decision{
				Verdict: entitlement.VerdictDeny,
				Reason:  entitlement.ReasonSuspended,
			},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := new(AccountProviderMock)
			gate := new(EvaluatorMock)
			accounts.On("GetAccount", mock.Anything, "acc-1").Return(account, nil).Once()
			gate.On("Evaluate", mock.Anything, account, entitlement.ActionTransfer, mock.Anything).
				Return(tt.decision, nil).Once()

			var nextCalled bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				got, ok := r.Context().Value(Account).(*models.Account)
				require.True(t, ok)
				assert.Equal(t, account, got)
			})

			req := httptest.NewRequest(http.MethodPost, "/transfers", nil)
			req = req.WithContext(context.WithValue(req.Context(), AccountUID, "acc-1"))
			rec := httptest.NewRecorder()

			mw := EntitlementMiddleware(newNoopLogger(), accounts, gate, entitlement.ActionTransfer)
			mw(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantNext, nextCalled)
			accounts.AssertExpectations(t)
			gate.AssertExpectations(t)

			if tt.wantStatus == http.StatusPaymentRequired {
				assert.Contains(t, rec.Body.String(), `"amount":1000`)
				assert.Contains(t, rec.Body.String(), entitlement.PaymentTypeDeviceOverage)
			}
		})
	}
}

func TestEntitlementMiddleware_MissingAccountUID(t *testing.T) {
	accounts := new(AccountProviderMock)
	gate := new(EvaluatorMock)

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next should not be called")
	})

	req := httptest.NewRequest(http.MethodPost, "/transfers", nil)
	rec := httptest.NewRecorder()

	mw := EntitlementMiddleware(newNoopLogger(), accounts, gate, entitlement.ActionTransfer)
	mw(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	accounts.AssertNotCalled(t, "GetAccount")
}
