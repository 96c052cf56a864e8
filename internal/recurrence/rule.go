// Package recurrence expands the small RRULE subset accepted for bookings:
// FREQ=DAILY|WEEKLY with COUNT and an optional INTERVAL.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
)

const MaxOccurrences = 12

type Frequency string

const (
	Daily  Frequency = "DAILY"
	Weekly Frequency = "WEEKLY"
)

type Rule struct {
	Freq     Frequency
	Count    int
	Interval int
}

func invalid(msg string) error {
	return domain.NewValidationError("recurrence_rule", msg)
}

// Parse accepts an empty string as "no recurrence" and returns a nil rule.
func Parse(raw string) (*Rule, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "RRULE:"))
	if raw == "" {
		return nil, nil
	}

	rule := &Rule{Interval: 1}
	for _, part := range strings.Split(raw, ";") {
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, invalid(fmt.Sprintf("malformed part %q", part))
		}
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "FREQ":
			rule.Freq = Frequency(strings.ToUpper(strings.TrimSpace(value)))
		case "COUNT":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, invalid("COUNT must be a number")
			}
			rule.Count = n
		case "INTERVAL":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 1 {
				return nil, invalid("INTERVAL must be a positive number")
			}
			rule.Interval = n
		default:
			return nil, invalid(fmt.Sprintf("unsupported part %q", key))
		}
	}

	if rule.Freq != Daily && rule.Freq != Weekly {
		return nil, invalid("FREQ must be DAILY or WEEKLY")
	}
	if rule.Count < 1 || rule.Count > MaxOccurrences {
		return nil, invalid(fmt.Sprintf("COUNT must be between 1 and %d", MaxOccurrences))
	}
	return rule, nil
}

func (r *Rule) String() string {
	if r == nil {
		return ""
	}
	if r.Interval > 1 {
		return fmt.Sprintf("FREQ=%s;INTERVAL=%d;COUNT=%d", r.Freq, r.Interval, r.Count)
	}
	return fmt.Sprintf("FREQ=%s;COUNT=%d", r.Freq, r.Count)
}

// Expand returns the occurrences of first under rule, first included.
// Steps are taken in loc so weekly slots keep their wall-clock time across
// DST changes.
func Expand(first domain.Interval, rule *Rule, loc *time.Location) []domain.Interval {
	if rule == nil {
		return []domain.Interval{first}
	}
	if loc == nil {
		loc = time.UTC
	}
	days := rule.Interval
	if rule.Freq == Weekly {
		days *= 7
	}

	start := first.Start.In(loc)
	duration := first.Duration()
	out := make([]domain.Interval, 0, rule.Count)
	for i := 0; i < rule.Count; i++ {
		s := start.AddDate(0, 0, i*days).UTC()
		out = append(out, domain.Interval{Start: s, End: s.Add(duration)})
	}
	return out
}

// ExpandString parses raw and expands it in one step.
func ExpandString(first domain.Interval, raw string, loc *time.Location) ([]domain.Interval, *Rule, error) {
	rule, err := Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	return Expand(first, rule, loc), rule, nil
}
