// Package availability evaluates weekly opening hours and free booking slots.
package availability

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// span is a window expressed in minutes after local midnight.
type span struct {
	start int
	end   int
}

// Schedule is a parsed weekly schedule. The zero value has no windows and
// is treated as "always open" by callers that check Empty first.
type Schedule struct {
	days map[time.Weekday][]span
}

// ParseSchedule decodes the stored JSON form.
func ParseSchedule(raw []byte) (Schedule, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Schedule{}, nil
	}
	var weekly domain.WeeklySchedule
	if err := json.Unmarshal(raw, &weekly); err != nil {
		return Schedule{}, fmt.Errorf("decode schedule: %w", err)
	}
	return FromWeekly(weekly)
}

// FromWeekly validates and converts a domain schedule.
func FromWeekly(weekly domain.WeeklySchedule) (Schedule, error) {
	s := Schedule{days: make(map[time.Weekday][]span)}
	for day, windows := range weekly {
		wd, ok := weekdays[strings.ToLower(strings.TrimSpace(day))]
		if !ok {
			return Schedule{}, domain.NewValidationError("availability_schedule", fmt.Sprintf("unknown weekday %q", day))
		}
		for _, w := range windows {
			start, err := parseClock(w.Start)
			if err != nil {
				return Schedule{}, err
			}
			end, err := parseClock(w.End)
			if err != nil {
				return Schedule{}, err
			}
			if end <= start {
				return Schedule{}, domain.NewValidationError("availability_schedule", fmt.Sprintf("%s window %s-%s ends before it starts", day, w.Start, w.End))
			}
			s.days[wd] = append(s.days[wd], span{start: start, end: end})
		}
	}
	for wd := range s.days {
		spans := s.days[wd]
		sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	}
	return s, nil
}

func parseClock(v string) (int, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 {
		return 0, domain.NewValidationError("availability_schedule", fmt.Sprintf("invalid time %q", v))
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, domain.NewValidationError("availability_schedule", fmt.Sprintf("invalid time %q", v))
	}
	return h*60 + m, nil
}

func (s Schedule) Empty() bool { return len(s.days) == 0 }

func minuteOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }

// IsOpen reports whether t (already in campus local time) falls in a window.
func (s Schedule) IsOpen(t time.Time) bool {
	m := minuteOfDay(t)
	for _, sp := range s.days[t.Weekday()] {
		if m >= sp.start && m < sp.end {
			return true
		}
	}
	return false
}

// Contains reports whether [start, end) sits inside a single window on
// start's day. Both times must be in campus local time.
func (s Schedule) Contains(start, end time.Time) bool {
	if !end.After(start) {
		return false
	}
	from := minuteOfDay(start)
	to, ok := endMinute(start, end)
	if !ok {
		return false
	}
	for _, sp := range s.days[start.Weekday()] {
		if from >= sp.start && to <= sp.end {
			return true
		}
	}
	return false
}

// endMinute reads end on start's wall clock. An end at the following local
// midnight counts as minute 1440.
func endMinute(start, end time.Time) (int, bool) {
	end = end.In(start.Location())
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy == ey && sm == em && sd == ed {
		return minuteOfDay(end), true
	}
	next := time.Date(sy, sm, sd+1, 0, 0, 0, 0, start.Location())
	if end.Equal(next) {
		return 24 * 60, true
	}
	return 0, false
}

// ClosingTime returns the latest window end on t's day if it is after t.
func (s Schedule) ClosingTime(t time.Time) (time.Time, bool) {
	latest := -1
	for _, sp := range s.days[t.Weekday()] {
		if sp.end > latest {
			latest = sp.end
		}
	}
	if latest < 0 {
		return time.Time{}, false
	}
	closing := time.Date(t.Year(), t.Month(), t.Day(), latest/60, latest%60, 0, 0, t.Location())
	if !closing.After(t) {
		return time.Time{}, false
	}
	return closing, true
}
