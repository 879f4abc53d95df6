package timegrid

import (
	"fmt"
	"strings"
	"time"
)

// Day is a teaching day. Sundays are not modeled.
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Days returns all teaching days in week order.
func Days() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

// DayOf maps a timestamp to its teaching day; ok is false on Sunday.
func DayOf(t time.Time) (Day, bool) {
	return FromWeekday(t.Weekday())
}

func FromWeekday(wd time.Weekday) (Day, bool) {
	if wd == time.Sunday {
		return 0, false
	}
	return Day(wd), true
}

func (d Day) Weekday() time.Weekday {
	return time.Weekday(d)
}

func (d Day) Valid() bool {
	return d >= Monday && d <= Saturday
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// ParseDay accepts full or three-letter English names, any case.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	for d := Monday; d <= Saturday; d++ {
		name := dayNames[d]
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

func (d Day) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid day %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
