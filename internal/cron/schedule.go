package cron

import (
	"time"

	robfigcron "github.com/robfig/cron/v3"
)

const maxLookaheadYears = 5

var standardParser = robfigcron.NewParser(robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow)

// Expr is a parsed cron expression: the materialized field sets (for
// introspection) plus the underlying schedule used for next-fire
// computation.
type Expr struct {
	Raw      string
	Fields   Fields
	schedule robfigcron.Schedule
}

// Parse validates and parses a 5-field cron expression.
func Parse(expr string) (*Expr, error) {
	fields, err := ParseFields(expr)
	if err != nil {
		return nil, err
	}
	sched, err := standardParser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return &Expr{Raw: expr, Fields: fields, schedule: sched}, nil
}

// Matches reports whether the given wall-clock fields satisfy the
// expression's day rule: if both day-of-month and day-of-week are
// constrained (not "any"), a match in either suffices; otherwise whichever
// field is constrained decides.
func (e *Expr) Matches(month, day, weekday, hour, minute int) bool {
	if !e.Fields.Minute.contains(minute) {
		return false
	}
	if !e.Fields.Hour.contains(hour) {
		return false
	}
	if !e.Fields.Month.contains(month) {
		return false
	}
	domOK := e.Fields.DayOfMonth.contains(day)
	dowOK := e.Fields.DayOfWeek.contains(weekday)
	switch {
	case e.Fields.DayOfMonth.Any && e.Fields.DayOfWeek.Any:
		return true
	case e.Fields.DayOfMonth.Any:
		return dowOK
	case e.Fields.DayOfWeek.Any:
		return domOK
	default:
		return domOK || dowOK
	}
}

// NextFire computes the next fire time strictly after `after`. Without a
// timezone, computation happens in UTC; with one, `loc` must be a valid IANA
// location and the result honors DST (spring-forward times are skipped,
// fall-back times are matched once per underlying UTC instant, exactly as
// Go's time.Date normalizes wall-clock construction in a zone). Returns
// (zero, false) if no fire time is found within 5 years of lookahead.
func (e *Expr) NextFire(after time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	cursor := after.In(loc)
	yearLimit := cursor.Year() + maxLookaheadYears

	next := e.schedule.Next(cursor)
	if next.IsZero() || next.Year() > yearLimit {
		return time.Time{}, false
	}
	return next.In(loc), true
}
