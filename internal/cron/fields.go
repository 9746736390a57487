// Package cron parses 5-field cron expressions and computes DST-correct
// next-fire times, delegating the actual field
// arithmetic to github.com/robfig/cron/v3 (grounded on its use as the
// standard 5-field parser in the agent-kernel engine this pack retrieved).
package cron

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field is one materialized cron field: a sorted unique set of permitted
// values, plus whether that set equals the full range (as it does for "*"
// and for any list or range that covers every value).
type Field struct {
	Values []int
	Any    bool
}

func (f Field) contains(v int) bool {
	for _, x := range f.Values {
		if x == v {
			return true
		}
	}
	return false
}

// Fields is the five materialized fields of a parsed expression.
type Fields struct {
	Minute     Field
	Hour       Field
	DayOfMonth Field
	Month      Field
	DayOfWeek  Field
}

// ParseFields materializes the five cron fields without computing a
// schedule, for introspection.
func ParseFields(expr string) (Fields, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return Fields{}, fmt.Errorf("cron: expected 5 fields, got %d in %q", len(parts), expr)
	}
	minute, err := parseField(parts[0], 0, 59)
	if err != nil {
		return Fields{}, fmt.Errorf("cron: minute field: %w", err)
	}
	hour, err := parseField(parts[1], 0, 23)
	if err != nil {
		return Fields{}, fmt.Errorf("cron: hour field: %w", err)
	}
	dom, err := parseField(parts[2], 1, 31)
	if err != nil {
		return Fields{}, fmt.Errorf("cron: day-of-month field: %w", err)
	}
	month, err := parseField(parts[3], 1, 12)
	if err != nil {
		return Fields{}, fmt.Errorf("cron: month field: %w", err)
	}
	dow, err := parseDayOfWeek(parts[4])
	if err != nil {
		return Fields{}, fmt.Errorf("cron: day-of-week field: %w", err)
	}
	return Fields{Minute: minute, Hour: hour, DayOfMonth: dom, Month: month, DayOfWeek: dow}, nil
}

func fullRange(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, v)
	}
	return out
}

func parseField(spec string, lo, hi int) (Field, error) {
	if spec == "*" {
		return Field{Values: fullRange(lo, hi), Any: true}, nil
	}

	set := map[int]bool{}
	for _, part := range strings.Split(spec, ",") {
		if err := parseRangePart(part, lo, hi, set); err != nil {
			return Field{}, err
		}
	}

	values := make([]int, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Ints(values)
	return Field{Values: values, Any: rangeEqualsFull(values, lo, hi)}, nil
}

func rangeEqualsFull(values []int, lo, hi int) bool {
	if len(values) != hi-lo+1 {
		return false
	}
	for i, v := range values {
		if v != lo+i {
			return false
		}
	}
	return true
}

func parseRangePart(part string, lo, hi int, set map[int]bool) error {
	step := 1
	rangeSpec := part
	if idx := strings.Index(part, "/"); idx >= 0 {
		rangeSpec = part[:idx]
		n, err := strconv.Atoi(part[idx+1:])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid step in %q", part)
		}
		step = n
	}

	start, end := lo, hi
	if rangeSpec != "*" {
		if dashIdx := strings.Index(rangeSpec, "-"); dashIdx >= 0 {
			a, err := strconv.Atoi(rangeSpec[:dashIdx])
			if err != nil {
				return fmt.Errorf("invalid range start in %q", part)
			}
			b, err := strconv.Atoi(rangeSpec[dashIdx+1:])
			if err != nil {
				return fmt.Errorf("invalid range end in %q", part)
			}
			start, end = a, b
		} else {
			v, err := strconv.Atoi(rangeSpec)
			if err != nil {
				return fmt.Errorf("invalid value in %q", part)
			}
			start, end = v, v
		}
	}

	if start < lo || end > hi || start > end {
		return fmt.Errorf("value out of range in %q (expected %d-%d)", part, lo, hi)
	}
	for v := start; v <= end; v += step {
		set[v] = true
	}
	return nil
}

// parseDayOfWeek handles the 0-7 range where 7 is an alias for 0 (Sunday).
func parseDayOfWeek(spec string) (Field, error) {
	f, err := parseField(spec, 0, 7)
	if err != nil {
		return Field{}, err
	}
	set := map[int]bool{}
	for _, v := range f.Values {
		if v == 7 {
			v = 0
		}
		set[v] = true
	}
	values := make([]int, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Ints(values)
	return Field{Values: values, Any: rangeEqualsFull(values, 0, 6) || f.Any}, nil
}
