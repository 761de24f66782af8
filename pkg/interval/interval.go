// Package interval resolves natural-language and ISO-8601 temporal
// expressions into concrete half-open UTC time ranges.
package interval

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/m-mizutani/goerr/v2"
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

var relativePattern = regexp.MustCompile(`^(?:past|last)\s+(\d+)\s+(hour|day|week|month)s?$`)

// Resolve parses a temporal expression into a half-open UTC interval.
// Calendar arithmetic runs in loc; the result is converted to UTC.
// Unsupported or ambiguous expressions fail with ErrUnparseableInterval.
func Resolve(expr string, loc *time.Location, now time.Time) (model.Interval, error) {
	if loc == nil {
		loc = time.UTC
	}
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return model.Interval{}, goerr.Wrap(model.ErrUnparseableInterval, "empty expression")
	}

	if strings.Contains(trimmed, "/") {
		return resolveISO(trimmed, loc, now)
	}
	return resolveNatural(trimmed, loc, now)
}

func resolveNatural(expr string, loc *time.Location, now time.Time) (model.Interval, error) {
	local := now.In(loc)
	midnight := startOfDay(local)
	lower := strings.ToLower(expr)

	switch lower {
	case "today":
		return interval(midnight, local)
	case "yesterday":
		return interval(midnight.AddDate(0, 0, -1), midnight)
	case "this week":
		return interval(startOfWeek(local), local)
	case "last week":
		ws := startOfWeek(local)
		return interval(ws.AddDate(0, 0, -7), ws)
	case "this month":
		return interval(startOfMonth(local), local)
	case "last month":
		ms := startOfMonth(local)
		return interval(ms.AddDate(0, -1, 0), ms)
	}

	// Weekday names resolve to the most recent completed occurrence: local
	// midnight to midnight of that day, never today.
	if wd, ok := weekdays[lower]; ok {
		day := midnight.AddDate(0, 0, -1)
		for day.Weekday() != wd {
			day = day.AddDate(0, 0, -1)
		}
		return interval(day, day.AddDate(0, 0, 1))
	}

	if m := relativePattern.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return model.Interval{}, goerr.Wrap(model.ErrUnparseableInterval, "invalid amount", goerr.V("expression", expr))
		}
		var start time.Time
		switch m[2] {
		case "hour":
			start = now.Add(-time.Duration(n) * time.Hour)
		case "day":
			start = now.AddDate(0, 0, -n)
		case "week":
			start = now.AddDate(0, 0, -7*n)
		case "month":
			start = now.AddDate(0, -n, 0)
		}
		return interval(start, now)
	}

	return model.Interval{}, goerr.Wrap(model.ErrUnparseableInterval,
		"unsupported expression",
		goerr.V("expression", expr),
		goerr.V("hint", "supported: 'today', 'yesterday', weekday names, 'past N hours', ISO-8601 intervals like '2024-01-01/2024-01-31' or 'P3H/'"))
}

func resolveISO(expr string, loc *time.Location, now time.Time) (model.Interval, error) {
	parts := strings.Split(expr, "/")
	if len(parts) != 2 {
		return model.Interval{}, goerr.Wrap(model.ErrUnparseableInterval, "invalid ISO interval", goerr.V("expression", expr))
	}
	left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

	switch {
	case isDuration(left):
		d, err := parseDuration(left)
		if err != nil {
			return model.Interval{}, err
		}
		if right == "" {
			// "P3H/": the duration ending now.
			return interval(d.subFrom(now), now)
		}
		end, _, err := parseTimestamp(right, loc)
		if err != nil {
			return model.Interval{}, err
		}
		return interval(d.subFrom(end), end)

	case isDuration(right):
		if left == "" {
			// "/P3H" has no defined anchor.
			return model.Interval{}, goerr.Wrap(model.ErrUnparseableInterval,
				"open-ended left bound with duration is not supported", goerr.V("expression", expr))
		}
		start, _, err := parseTimestamp(left, loc)
		if err != nil {
			return model.Interval{}, err
		}
		d, err := parseDuration(right)
		if err != nil {
			return model.Interval{}, err
		}
		return interval(start, d.addTo(start))

	default:
		start, _, err := parseTimestamp(left, loc)
		if err != nil {
			return model.Interval{}, err
		}
		end, dateOnly, err := parseTimestamp(right, loc)
		if err != nil {
			return model.Interval{}, err
		}
		if dateOnly {
			// A date-only right bound means the whole of that day.
			end = end.AddDate(0, 0, 1)
		}
		return interval(start, end)
	}
}

func interval(start, end time.Time) (model.Interval, error) {
	if !start.Before(end) {
		return model.Interval{}, goerr.Wrap(model.ErrUnparseableInterval,
			"interval start is not before end",
			goerr.V("start", start), goerr.V("end", end))
	}
	return model.Interval{Start: start.UTC(), End: end.UTC()}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns local midnight of the most recent Monday.
func startOfWeek(t time.Time) time.Time {
	midnight := startOfDay(t)
	offset := (int(t.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	for _, layout := range timestampLayouts {
		parsed, perr := time.ParseInLocation(layout, s, loc)
		if perr == nil {
			return parsed, layout == "2006-01-02", nil
		}
	}
	return time.Time{}, false, goerr.Wrap(model.ErrUnparseableInterval, "invalid timestamp", goerr.V("value", s))
}

// duration is a calendar-aware ISO-8601 duration. Months and years shift by
// calendar arithmetic; everything else is a fixed clock offset.
type duration struct {
	years  int
	months int
	days   int
	clock  time.Duration
}

func (d duration) addTo(t time.Time) time.Time {
	return t.AddDate(d.years, d.months, d.days).Add(d.clock)
}

func (d duration) subFrom(t time.Time) time.Time {
	return t.AddDate(-d.years, -d.months, -d.days).Add(-d.clock)
}

func isDuration(s string) bool {
	return len(s) > 1 && (s[0] == 'P' || s[0] == 'p')
}

var durationSegment = regexp.MustCompile(`^(\d+)([YMWDHS])`)

// parseDuration accepts ISO-8601 durations and the common shorthand that
// omits the T separator before time units ("P3H"). The M designator means
// months until a time unit or T has been seen, minutes after.
func parseDuration(s string) (duration, error) {
	orig := s
	var d duration
	rest := strings.ToUpper(s[1:])
	seenTime := false
	matched := false

	for rest != "" {
		if rest[0] == 'T' {
			seenTime = true
			rest = rest[1:]
			continue
		}
		m := durationSegment.FindStringSubmatch(rest)
		if m == nil {
			return duration{}, goerr.Wrap(model.ErrUnparseableInterval, "invalid duration", goerr.V("value", orig))
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return duration{}, goerr.Wrap(model.ErrUnparseableInterval, "invalid duration amount", goerr.V("value", orig))
		}
		switch m[2] {
		case "Y":
			d.years += n
		case "W":
			d.days += 7 * n
		case "D":
			d.days += n
		case "H":
			seenTime = true
			d.clock += time.Duration(n) * time.Hour
		case "S":
			seenTime = true
			d.clock += time.Duration(n) * time.Second
		case "M":
			if seenTime {
				d.clock += time.Duration(n) * time.Minute
			} else {
				d.months += n
			}
		}
		matched = true
		rest = rest[len(m[0]):]
	}

	if !matched {
		return duration{}, goerr.Wrap(model.ErrUnparseableInterval, "empty duration", goerr.V("value", orig))
	}
	return d, nil
}
