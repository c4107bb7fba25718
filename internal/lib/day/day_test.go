package day

import (
	"testing"
	"time"
)

func TestKey_TableTests(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "utc midnight",
			in:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			want: "2025-03-10",
		},
		{
			name: "end of utc day",
			in:   time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC),
			want: "2025-03-10",
		},
		{
			name: "timezone east of utc rolls back to previous day",
			in:   time.Date(2025, 3, 11, 1, 30, 0, 0, time.FixedZone("MSK", 3*3600)),
			want: "2025-03-10",
		},
		{
			name: "timezone west of utc rolls forward to next day",
			in:   time.Date(2025, 3, 10, 22, 0, 0, 0, time.FixedZone("PST", -8*3600)),
			want: "2025-03-11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.in); got != tt.want {
				t.Errorf("Key() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUntilReset(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Duration
	}{
		{
			name: "one hour before midnight",
			in:   time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC),
			want: time.Hour,
		},
		{
			name: "start of day",
			in:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			want: 24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UntilReset(tt.in); got != tt.want {
				t.Errorf("UntilReset() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordTTL_OutlivesDayBoundary(t *testing.T) {
	if RecordTTL() <= 24*time.Hour {
		t.Errorf("RecordTTL() = %v, must be longer than a full day", RecordTTL())
	}
}
