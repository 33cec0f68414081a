package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSlotsMorningSession(t *testing.T) {
	day := DaySchedule{
		Morning: &Window{Start: "09:00", End: "10:00"},
	}

	got := ComputeSlots(day)

	assert.Equal(t, []Slot{
		{Start: "09:00", End: "09:30"},
		{Start: "09:30", End: "10:00"},
	}, got)
}

func TestComputeSlotsSkipsBookedRange(t *testing.T) {
	day := DaySchedule{
		Morning: &Window{Start: "09:00", End: "10:00"},
		Booked:  []Range{{Start: "09:00", End: "09:30"}},
	}

	got := ComputeSlots(day)

	assert.Equal(t, []Slot{{Start: "09:30", End: "10:00"}}, got)
}

func TestComputeSlotsPartialOverlapBlocks(t *testing.T) {
	// A booking from 09:15 to 09:45 intersects both half-hour candidates.
	day := DaySchedule{
		Morning: &Window{Start: "09:00", End: "10:00"},
		Booked:  []Range{{Start: "09:15", End: "09:45"}},
	}

	got := ComputeSlots(day)

	assert.Empty(t, got)
}

func TestComputeSlotsAdjacentBookingDoesNotBlock(t *testing.T) {
	// Half-open intervals: a booking ending exactly at 09:30 leaves the
	// 09:30 slot free.
	day := DaySchedule{
		Morning: &Window{Start: "09:30", End: "10:00"},
		Booked:  []Range{{Start: "09:00", End: "09:30"}},
	}

	got := ComputeSlots(day)

	assert.Equal(t, []Slot{{Start: "09:30", End: "10:00"}}, got)
}

func TestComputeSlotsSessionOrder(t *testing.T) {
	day := DaySchedule{
		Evening:   &Window{Start: "18:00", End: "18:30"},
		Morning:   &Window{Start: "08:00", End: "08:30"},
		Afternoon: &Window{Start: "13:00", End: "13:30"},
	}

	got := ComputeSlots(day)

	assert.Equal(t, []Slot{
		{Start: "08:00", End: "08:30"},
		{Start: "13:00", End: "13:30"},
		{Start: "18:00", End: "18:30"},
	}, got)
}

func TestComputeSlotsShortSession(t *testing.T) {
	day := DaySchedule{
		Morning: &Window{Start: "09:00", End: "09:20"},
	}

	got := ComputeSlots(day)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestComputeSlotsCustomDuration(t *testing.T) {
	day := DaySchedule{
		Morning:     &Window{Start: "09:00", End: "09:45"},
		SlotMinutes: 15,
	}

	got := ComputeSlots(day)

	assert.Equal(t, []Slot{
		{Start: "09:00", End: "09:15"},
		{Start: "09:15", End: "09:30"},
		{Start: "09:30", End: "09:45"},
	}, got)
}

func TestComputeSlotsSkipsIncompleteSessions(t *testing.T) {
	day := DaySchedule{
		Morning:   &Window{Start: "09:00"},
		Afternoon: nil,
		Evening:   &Window{Start: "bogus", End: "19:00"},
	}

	got := ComputeSlots(day)

	assert.Empty(t, got)
}

func TestComputeSlotsIgnoresMalformedBookedRange(t *testing.T) {
	day := DaySchedule{
		Morning: &Window{Start: "09:00", End: "09:30"},
		Booked:  []Range{{Start: "??", End: "09:30"}},
	}

	got := ComputeSlots(day)

	assert.Equal(t, []Slot{{Start: "09:00", End: "09:30"}}, got)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9", 0, true},
		{"aa:bb", 0, true},
	}
	for _, tt := range tests {
		got, err := parseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
