package schedule

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name   string
		aStart time.Time
		aEnd   time.Time
		bStart time.Time
		bEnd   time.Time
		want   bool
	}{
		{"identical", at(9, 0), at(10, 0), at(9, 0), at(10, 0), true},
		{"contained", at(9, 0), at(10, 0), at(9, 15), at(9, 45), true},
		{"containing", at(9, 15), at(9, 45), at(9, 0), at(10, 0), true},
		{"front overlap", at(9, 0), at(10, 0), at(9, 30), at(10, 30), true},
		{"tail overlap", at(9, 30), at(10, 30), at(9, 0), at(10, 0), true},
		{"touching ends", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"touching starts", at(10, 0), at(11, 0), at(9, 0), at(10, 0), false},
		{"disjoint before", at(8, 0), at(8, 30), at(9, 0), at(10, 0), false},
		{"disjoint after", at(11, 0), at(12, 0), at(9, 0), at(10, 0), false},
		{"one minute shared", at(9, 59), at(10, 30), at(9, 0), at(10, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Fatalf("Overlaps(%s-%s, %s-%s) = %v, want %v",
					tt.aStart.Format("15:04"), tt.aEnd.Format("15:04"),
					tt.bStart.Format("15:04"), tt.bEnd.Format("15:04"),
					got, tt.want)
			}
		})
	}
}

func TestSlotDurationMinutes(t *testing.T) {
	slot := Slot{StartsAt: at(9, 0), EndsAt: at(10, 30)}
	if got := slot.DurationMinutes(); got != 90 {
		t.Fatalf("DurationMinutes = %d, want 90", got)
	}
}
