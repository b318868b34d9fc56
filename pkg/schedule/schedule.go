// Package schedule derives installment due dates from a disbursement date
// and tenor. Dates coming off the spreadsheet gateway arrive in whatever
// shape the sheet happens to hold (ISO strings, dd/mm/yyyy strings, parsed
// timestamps), so parsing always resolves to calendar-day precision at
// local midnight and never fails.
package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Year-first wins over day-first; both are anchored so they are
	// mutually exclusive on the same input. Which interpretation is
	// correct for a given sheet depends on that sheet's locale
	// convention, so the precedence here must stay aligned with how the
	// ledger sheets are actually filled in.
	reYearFirst = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	reDayFirst  = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4})`)
)

var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate resolves a heterogeneous date value to local midnight.
// Accepts time.Time, ISO-like strings (year first), dd/mm/yyyy-style
// strings (day first), or anything the fallback layouts recognize.
// Unparseable input resolves to today; the result is always valid.
func ParseDate(value any) time.Time {
	var s string
	switch v := value.(type) {
	case nil:
		return Today()
	case time.Time:
		if v.IsZero() {
			return Today()
		}
		// Lock in the calendar fields before any timezone
		// reinterpretation, same as serializing the value out of the
		// sheet would.
		s = v.UTC().Format(time.RFC3339Nano)
	case string:
		s = strings.TrimSpace(v)
	default:
		return Today()
	}
	if s == "" {
		return Today()
	}

	if m := reYearFirst.FindStringSubmatch(s); m != nil {
		return localDate(m[1], m[2], m[3])
	}
	if m := reDayFirst.FindStringSubmatch(s); m != nil {
		return localDate(m[3], m[2], m[1])
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Midnight(t)
		}
	}
	return Today()
}

// NextWorkingDay advances one calendar day, then keeps advancing while the
// result lands on a Saturday or Sunday.
func NextWorkingDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Interval returns the working-day gap between successive due dates for a
// given tenor: tenor 4 bills weekly (5 working days), tenor 20 and up
// bills daily, anything else is spread across the nominal 20-working-day
// billing cycle.
func Interval(tenor int) int {
	switch {
	case tenor == 4:
		return 5
	case tenor >= 20:
		return 1
	default:
		iv := 20 / tenor
		if iv < 1 {
			iv = 1
		}
		return iv
	}
}

// Generate produces the ordered due dates for a loan: exactly tenor dates,
// strictly increasing, all on working days, the first strictly after the
// disbursement date (billing never starts same-day). tenor <= 0 yields an
// empty schedule.
func Generate(disbursement any, tenor int) []time.Time {
	if tenor <= 0 {
		return nil
	}
	current := NextWorkingDay(ParseDate(disbursement))
	interval := Interval(tenor)

	out := make([]time.Time, 0, tenor)
	for i := 1; i <= tenor; i++ {
		out = append(out, current)
		for j := 0; j < interval; j++ {
			current = NextWorkingDay(current)
		}
	}
	return out
}

// Midnight truncates a time to its local calendar day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// Today is midnight of the current local day.
func Today() time.Time {
	return Midnight(time.Now())
}

func localDate(year, month, day string) time.Time {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
}
