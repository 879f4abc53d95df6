package timegrid

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

// At builds a Clock from hour and minute.
func At(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock accepts exactly "HH:MM".
func ParseClock(s string) (Clock, error) {
	if len(s) != len("15:04") {
		return 0, fmt.Errorf("invalid time string: %q", s)
	}
	tt, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time string: %q", s)
	}
	return At(tt.Hour(), tt.Minute()), nil
}

// ParseStoredClock reads a Postgres time column rendered as text
// ("09:00:00", "09:00:00.000000"). Seconds must be zero.
func ParseStoredClock(s string) (Clock, error) {
	if len(s) == len("15:04") {
		return ParseClock(s)
	}
	tt, err := time.Parse("15:04:05.999999", s)
	if err != nil {
		return 0, fmt.Errorf("invalid stored time: %q", s)
	}
	if tt.Second() != 0 || tt.Nanosecond() != 0 {
		return 0, fmt.Errorf("stored time %q is not on a minute", s)
	}
	return At(tt.Hour(), tt.Minute()), nil
}

// MustClock is ParseClock for static tables.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Hour() int { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Add returns the clock shifted by d, truncated to whole minutes.
func (c Clock) Add(d time.Duration) Clock {
	return c + Clock(d/time.Minute)
}

// Sub returns the duration between two clocks.
func (c Clock) Sub(o Clock) time.Duration {
	return time.Duration(c-o) * time.Minute
}

// On places the clock on the given date in loc.
func (c Clock) On(d Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour(), c.Minute(), 0, 0, loc)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
