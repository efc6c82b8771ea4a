// Package rtclock converts kernel ticks to wall-clock durations,
// broken-down calendar times, and formatted uptime strings. It
// depends on rtos only through its public Config surface.
package rtclock

import (
	"fmt"
	"time"

	"github.com/kineticos/rtos"
)

// Clock converts between kernel ticks and wall-clock time for a given
// Config's tick rate. It holds no kernel reference; callers pass the
// tick counts they want converted.
type Clock struct {
	tickDur time.Duration
}

// New derives a Clock from a kernel Config's tick rate.
func New(cfg rtos.Config) Clock {
	hz := cfg.SysHz
	if hz == 0 {
		hz = 1000
	}
	return Clock{tickDur: time.Second / time.Duration(hz)}
}

// Duration converts a tick count to a time.Duration.
func (c Clock) Duration(ticks uint64) time.Duration {
	return time.Duration(ticks) * c.tickDur
}

// Ticks converts a time.Duration to whole ticks, rounded up, minimum
// one tick for any positive duration.
func (c Clock) Ticks(d time.Duration) uint64 {
	if d <= 0 || c.tickDur <= 0 {
		return 0
	}
	n := d / c.tickDur
	if d%c.tickDur != 0 {
		n++
	}
	if n == 0 {
		n = 1
	}
	return uint64(n)
}

// Time returns the wall-clock time for a tick count, anchored at the
// epoch the kernel booted.
func (c Clock) Time(epoch time.Time, sysTicks uint64) time.Time {
	return epoch.Add(c.Duration(sysTicks))
}

// Calendar is a broken-down wall-clock time, for callers that track
// kernel ticks and only need calendar fields at the edge (a log
// stamp, a shell report).
type Calendar struct {
	Year  int
	Month time.Month
	Day   int
	Hour  int
	Min   int
	Sec   int
	Milli int
}

// CalendarAt breaks the wall-clock time for a tick count, anchored at
// epoch, into calendar fields in epoch's location.
func (c Clock) CalendarAt(epoch time.Time, sysTicks uint64) Calendar {
	t := c.Time(epoch, sysTicks)
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return Calendar{
		Year: y, Month: mo, Day: d,
		Hour: h, Min: mi, Sec: s,
		Milli: t.Nanosecond() / int(time.Millisecond),
	}
}

// Unix converts the calendar fields back to a Unix timestamp in
// seconds, interpreted in the local time zone.
func (cal Calendar) Unix() int64 {
	return time.Date(cal.Year, cal.Month, cal.Day,
		cal.Hour, cal.Min, cal.Sec,
		cal.Milli*int(time.Millisecond), time.Local).Unix()
}

// String formats the calendar as "2006-01-02 15:04:05.000".
func (cal Calendar) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%03d",
		cal.Year, int(cal.Month), cal.Day, cal.Hour, cal.Min, cal.Sec, cal.Milli)
}

// Uptime formats a tick counter as an hh:mm:ss.mmm uptime string.
func (c Clock) Uptime(sysTicks uint64) string {
	d := c.Duration(sysTicks)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
