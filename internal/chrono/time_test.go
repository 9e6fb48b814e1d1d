package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardTimeLocation(t *testing.T) {
	now := NewStandardTime().Now()
	require.Equal(t, "Europe/Warsaw", now.Location().String())
}

func TestSteppedTime(t *testing.T) {
	start := time.Date(2024, time.March, 1, 12, 0, 0, 0, Warsaw())
	clock := &SteppedTime{Start: start, Step: time.Second}

	require.Equal(t, start, clock.Now())
	require.Equal(t, start.Add(time.Second), clock.Now())
	require.Equal(t, start.Add(2*time.Second), clock.Now())
}
