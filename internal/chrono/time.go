package chrono

import (
	"time"
)

var warsaw *time.Location

func init() {
	var err error
	warsaw, err = time.LoadLocation("Europe/Warsaw")
	if err != nil {
		panic(err)
	}
}

// Warsaw returns a [*time.Location] for Europe/Warsaw, the timezone the listing site renders in.
func Warsaw() *time.Location {
	return warsaw
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in Europe/Warsaw.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().In(warsaw)
}

// SteppedTime is a TimeAPI for tests, every call to Now returns the start time
// advanced by step times the number of previous calls.
type SteppedTime struct {
	Start time.Time
	Step  time.Duration

	calls int64
}

func (s *SteppedTime) Now() time.Time {
	t := s.Start.Add(time.Duration(s.calls) * s.Step)
	s.calls++
	return t
}
