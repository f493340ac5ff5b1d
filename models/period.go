package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PeriodLayout is the canonical fiscal-month name form, e.g. "Jan 2025".
// Anything else entering the core is a bug; all inputs normalize to it.
const PeriodLayout = "Jan 2006"

// Period is a fiscal month as NetSuite's accountingperiod table describes it
type Period struct {
	ID         int64     `json:"id"`
	Name       string    `json:"periodname"`
	StartDate  time.Time `json:"startdate"`
	EndDate    time.Time `json:"enddate"`
	FiscalYear int       `json:"fiscalyear"`
	IsYear     bool      `json:"isyear"`
	IsQuarter  bool      `json:"isquarter"`
}

// excelEpoch is day zero of spreadsheet date serials (the 1900 date system
// with its fictitious Feb 29 1900 already absorbed).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// NormalizePeriod converts any representation the add-in sends into the
// canonical "Mon YYYY" form. Accepted inputs: the canonical form itself, full
// English month names, ISO dates, and spreadsheet date serials.
func NormalizePeriod(v interface{}) (string, error) {
	switch p := v.(type) {
	case nil:
		return "", NewAppError(ErrValidation, "missing period")
	case string:
		return normalizePeriodString(p)
	case json.Number:
		if f, err := p.Float64(); err == nil {
			return normalizePeriodSerial(f)
		}
		return normalizePeriodString(p.String())
	case float64:
		return normalizePeriodSerial(p)
	case int:
		return normalizePeriodSerial(float64(p))
	default:
		return "", NewAppError(ErrValidation, "unsupported period value %v", v)
	}
}

func normalizePeriodString(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewAppError(ErrValidation, "missing period")
	}

	// Already canonical, or a recognizable month-name variant.
	for _, layout := range []string{PeriodLayout, "January 2006", "Jan-2006", "Jan-06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(PeriodLayout), nil
		}
	}

	// ISO dates, with or without a time component.
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "01/02/2006", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(PeriodLayout), nil
		}
	}

	// A bare number in a string is a spreadsheet date serial.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return normalizePeriodSerial(f)
	}

	return "", NewAppError(ErrValidation, "unparseable period %q", s)
}

func normalizePeriodSerial(serial float64) (string, error) {
	// Serials below ~1900 would be years before 1905; nothing the add-in
	// legitimately sends. Treat out-of-range numbers as bad input.
	if serial < 1000 || serial > 200000 {
		return "", NewAppError(ErrValidation, "date serial %v out of range", serial)
	}
	t := excelEpoch.AddDate(0, 0, int(serial))
	return t.Format(PeriodLayout), nil
}

// PeriodStart returns midnight on the first day of the period's month
func PeriodStart(name string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, name)
	if err != nil {
		return time.Time{}, NewAppError(ErrValidation, "invalid period %q", name)
	}
	return t, nil
}

// PeriodEndDate returns the last day of the period's month
func PeriodEndDate(name string) (time.Time, error) {
	t, err := PeriodStart(name)
	if err != nil {
		return time.Time{}, err
	}
	return t.AddDate(0, 1, -1), nil
}

// FiscalYearOf returns the fiscal year a period belongs to
func FiscalYearOf(name string) (int, error) {
	t, err := PeriodStart(name)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}

// PeriodRange expands an inclusive from/to pair into every month between.
// A reversed pair is accepted and swapped.
func PeriodRange(from, to string) ([]string, error) {
	start, err := PeriodStart(from)
	if err != nil {
		return nil, err
	}
	end, err := PeriodStart(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		start, end = end, start
	}
	var out []string
	for t := start; !t.After(end); t = t.AddDate(0, 1, 0) {
		out = append(out, t.Format(PeriodLayout))
	}
	return out, nil
}

// MonthsOfYear returns the twelve period names of a calendar fiscal year
func MonthsOfYear(year int) []string {
	out := make([]string, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, time.Date(year, m, 1, 0, 0, 0, 0, time.UTC).Format(PeriodLayout))
	}
	return out
}

// LatestPeriod returns the chronologically latest of the given period names.
// The cumulative balance-sheet bound depends on this, not on input order.
func LatestPeriod(names []string) (string, error) {
	if len(names) == 0 {
		return "", NewAppError(ErrValidation, "no periods given")
	}
	latest, err := PeriodStart(names[0])
	if err != nil {
		return "", err
	}
	out := names[0]
	for _, name := range names[1:] {
		t, err := PeriodStart(name)
		if err != nil {
			return "", err
		}
		if t.After(latest) {
			latest = t
			out = name
		}
	}
	return out, nil
}

// SortPeriods orders period names chronologically in place.
// Unparseable names sort first; callers normalize before sorting.
func SortPeriods(names []string) {
	sort.Slice(names, func(i, j int) bool {
		ti, erri := PeriodStart(names[i])
		tj, errj := PeriodStart(names[j])
		if erri != nil || errj != nil {
			return erri != nil && errj == nil
		}
		return ti.Before(tj)
	})
}

// PeriodColumnSuffix renders the "YYYY_MM" suffix of a pivot column alias
func PeriodColumnSuffix(name string) (string, error) {
	t, err := PeriodStart(name)
	if err != nil {
		return "", err
	}
	return t.Format("2006_01"), nil
}

// PeriodMonthKey renders the "YYYY-MM" form matched against TO_CHAR(startdate)
func PeriodMonthKey(name string) (string, error) {
	t, err := PeriodStart(name)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01"), nil
}

// PriorYearEnd returns the last day of the fiscal year before the period's
func PriorYearEnd(name string) (time.Time, error) {
	year, err := FiscalYearOf(name)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year-1, time.December, 31, 0, 0, 0, 0, time.UTC), nil
}

// FiscalYearStart returns the first day of the period's fiscal year
func FiscalYearStart(name string) (time.Time, error) {
	year, err := FiscalYearOf(name)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil
}

// SQLDate formats a time for embedding in a SuiteQL date literal
func SQLDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// GroupPeriodsByYear splits normalized period names by fiscal year
func GroupPeriodsByYear(names []string) (map[int][]string, error) {
	out := make(map[int][]string)
	for _, name := range names {
		year, err := FiscalYearOf(name)
		if err != nil {
			return nil, err
		}
		out[year] = append(out[year], name)
	}
	for _, group := range out {
		SortPeriods(group)
	}
	return out, nil
}
