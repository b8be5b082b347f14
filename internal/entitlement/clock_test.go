package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdullaevmar/device-registry/internal/models"
)

func TestIsActive(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -1)

	tests := []struct {
		name string
		tier string
		sub  models.Subscription
		want bool
	}{
		{
			name: "basic tier never requires subscription",
			tier: models.TierBasic,
			sub:  models.Subscription{Status: models.SubscriptionInactive},
			want: true,
		},
		{
			name: "admin tier always active",
			tier: models.TierAdmin,
			sub:  models.Subscription{},
			want: true,
		},
		{
			name: "vendor active and not expired",
			tier: models.TierVendor,
			sub:  models.Subscription{Status: models.SubscriptionActive, ExpiresAt: &future},
			want: true,
		},
		{
			name: "vendor active but expired yesterday",
			tier: models.TierVendor,
			sub:  models.Subscription{Status: models.SubscriptionActive, ExpiresAt: &past},
			want: false,
		},
		{
			name: "vendor expires exactly now",
			tier: models.TierVendor,
			sub:  models.Subscription{Status: models.SubscriptionActive, ExpiresAt: &now},
			want: false,
		},
		{
			name: "technician inactive status",
			tier: models.TierTechnician,
			sub:  models.Subscription{Status: models.SubscriptionInactive, ExpiresAt: &future},
			want: false,
		},
		{
			name: "vendor without expiry date",
			tier: models.TierVendor,
			sub:  models.Subscription{Status: models.SubscriptionActive},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsActive(tt.tier, tt.sub, now))
		})
	}
}

func TestRenew_FromPaymentInstant(t *testing.T) {
	paidAt := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  models.Subscription
	}{
		{
			name: "fresh subscription",
			sub:  models.Subscription{Status: models.SubscriptionInactive},
		},
		{
			name: "lapsed long ago does not stack unused time",
			sub: models.Subscription{
				Status:    models.SubscriptionActive,
				ExpiresAt: ptrTime(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
			},
		},
		{
			name: "still active does not stack remaining time",
			sub: models.Subscription{
				Status:    models.SubscriptionActive,
				ExpiresAt: ptrTime(paidAt.AddDate(0, 0, 20)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renewed := Renew(tt.sub, paidAt)

			require.NotNil(t, renewed.ExpiresAt)
			require.NotNil(t, renewed.LastPaidAt)
			assert.Equal(t, models.SubscriptionActive, renewed.Status)
			assert.Equal(t, paidAt, *renewed.LastPaidAt)
			assert.Equal(t, paidAt.AddDate(0, 1, 0), *renewed.ExpiresAt)
			assert.False(t, renewed.ExpiresAt.Before(*renewed.LastPaidAt))
		})
	}
}

func TestRenew_KeepsPlan(t *testing.T) {
	paidAt := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	renewed := Renew(models.Subscription{Plan: "monthly"}, paidAt)
	assert.Equal(t, "monthly", renewed.Plan)
}

func ptrTime(t time.Time) *time.Time { return &t }
