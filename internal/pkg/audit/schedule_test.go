package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidPeriod(t *testing.T) {
	assert.False(t, ValidPeriod(0, false))
	assert.True(t, ValidPeriod(1, false))
	assert.True(t, ValidPeriod(24, false))
	assert.False(t, ValidPeriod(25, false))
	assert.True(t, ValidPeriod(60, true))
	assert.False(t, ValidPeriod(61, true))
}

func TestOffsets(t *testing.T) {
	assert.Equal(t, []int{0, 5, 10, 15, 20}, Offsets(5, 24))
	assert.Equal(t, []int{0, 8, 16}, Offsets(8, 24))
	assert.Equal(t, []int{0}, Offsets(24, 24))
	assert.Equal(t, []int{0, 15, 30, 45}, Offsets(15, 60))
	assert.Nil(t, Offsets(0, 24))
}

func TestNextFire(t *testing.T) {
	at := func(d, h, m, s int) time.Time { return time.Date(2024, 3, d, h, m, s, 0, time.UTC) }

	tests := []struct {
		name     string
		now      time.Time
		offsets  []int
		testMode bool
		want     time.Time
	}{
		{"next hour offset", at(10, 10, 30, 0), Offsets(6, 24), false, at(10, 12, 0, 0)},
		{"exact offset is skipped", at(10, 12, 0, 0), Offsets(6, 24), false, at(10, 18, 0, 0)},
		{"rolls over to next day", at(10, 23, 30, 0), Offsets(12, 24), false, at(11, 0, 0, 0)},
		{"daily", at(10, 0, 0, 1), Offsets(24, 24), false, at(11, 0, 0, 0)},
		{"minutes in test mode", at(10, 10, 7, 30), Offsets(15, 60), true, at(10, 10, 15, 0)},
		{"rolls over to next hour", at(10, 10, 47, 30), Offsets(15, 60), true, at(10, 11, 0, 0)},
		{"no offsets", at(10, 10, 0, 0), nil, false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextFire(tt.now, tt.offsets, tt.testMode))
		})
	}
}
