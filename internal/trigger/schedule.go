// Package trigger installs the single-line trigger table that ties a cron
// schedule to the scraping script invocation.
//
// The table holds exactly one record:
//
//	<schedule> /bin/sh -c 'cd <workdir> && <interpreter> <script> "<p1>" "<p2>" "<p3>" "<p4>" >> <log> 2>&1'
//
// Installing is atomic (temp file, fsync, rename) and idempotent: the same
// configuration always produces a byte-identical table.
package trigger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule is returned for any expression that is not a valid
// five-field cron schedule.
var ErrInvalidSchedule = errors.New("invalid cron schedule")

// scheduleFields is the number of whitespace-separated fields in a schedule.
const scheduleFields = 5

// parser accepts minute, hour, day of month, month and day of week.
// Descriptors (@daily, @every) and seconds are rejected.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks expr against the standard five-field cron syntax.
func ValidateSchedule(expr string) error {
	_, err := ParseSchedule(expr, time.Local)
	return err
}

// ParseSchedule parses expr into a schedule evaluated in loc.
func ParseSchedule(expr string, loc *time.Location) (cron.Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != scheduleFields {
		return nil, fmt.Errorf("%w: %q: expected %d fields, found %d", ErrInvalidSchedule, expr, scheduleFields, len(fields))
	}

	sched, err := parser.Parse(strings.Join(fields, " "))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, expr, err)
	}

	if spec, ok := sched.(*cron.SpecSchedule); ok && loc != nil {
		spec.Location = loc
	}
	return sched, nil
}

// NormalizeSchedule collapses the whitespace between schedule fields to a
// single space and trims the ends.
func NormalizeSchedule(expr string) string {
	return strings.Join(strings.Fields(expr), " ")
}

// NextRuns returns the next n activation times after from.
func NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	sched, err := ParseSchedule(expr, from.Location())
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, n)
	next := from
	for range n {
		next = sched.Next(next)
		if next.IsZero() {
			break
		}
		times = append(times, next)
	}
	return times, nil
}
