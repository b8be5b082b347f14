package period

import (
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{
			name: "middle of month",
			now:  time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC),
			want: "2024-06",
		},
		{
			name: "first second of month",
			now:  time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			want: "2024-07",
		},
		{
			name: "last second of month",
			now:  time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC),
			want: "2024-06",
		},
		{
			name: "non-utc time normalized to utc",
			now:  time.Date(2024, 7, 1, 0, 30, 0, 0, time.FixedZone("UTC+2", 2*3600)),
			want: "2024-06",
		},
		{
			name: "year transition",
			now:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			want: "2025-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.now); got != tt.want {
				t.Errorf("Key(%v) = %q, want %q", tt.now, got, tt.want)
			}
		})
	}
}

func TestAddMonth(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want time.Time
	}{
		{
			name: "regular month",
			t:    time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
			want: time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "december rolls to january",
			t:    time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "january 31 normalizes",
			t:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddMonth(tt.t); !got.Equal(tt.want) {
				t.Errorf("AddMonth(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestStartOfMonth(t *testing.T) {
	got := StartOfMonth(time.Date(2024, 6, 15, 18, 45, 3, 0, time.UTC))
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfMonth = %v, want %v", got, want)
	}
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(time.Date(2024, 6, 15, 18, 45, 3, 0, time.UTC))
	want := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
}
