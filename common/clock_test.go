package common

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeOfDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 50, 0, 0, time.UTC)
	tests := []struct {
		name               string
		hour, min, sec, ms int
		want               time.Time
	}{
		{"same hour", 23, 49, 30, 250, time.Date(2024, 3, 10, 23, 49, 30, 250e6, time.UTC)},
		{"just past midnight", 0, 1, 0, 0, time.Date(2024, 3, 11, 0, 1, 0, 0, time.UTC)},
		{"earlier today", 4, 0, 0, 0, time.Date(2024, 3, 10, 4, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeOfDay(now, tt.hour, tt.min, tt.sec, tt.ms))
		})
	}

	early := time.Date(2024, 3, 11, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC), TimeOfDay(early, 23, 59, 59, 0))
}

func TestSecondsOfDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 10, 14, 30, 5, 0, time.UTC), SecondsOfDay(now, 14*3600+30*60+5))
}

func TestDayOfYear(t *testing.T) {
	jan := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2023, DayOfYear(jan, 12, 31, 23, 0, 0).Year())
	assert.Equal(t, 2024, DayOfYear(jan, 1, 1, 0, 0, 0).Year())

	dec := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 2025, DayOfYear(dec, 1, 1, 0, 10, 0).Year())
	assert.Equal(t, 2024, DayOfYear(dec, 4, 1, 0, 0, 0).Year())
}

func TestOptional(t *testing.T) {
	var o Optional[float64]
	assert.True(t, math.IsNaN(OrNaN(o)))
	o.Set(3)
	assert.Equal(t, 3.0, OrNaN(o))
	o.Clear()
	assert.False(t, o.Known)
}
