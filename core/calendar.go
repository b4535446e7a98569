package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Months are the billing month names, as stored in fee_payments.month_name.
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// AcademicYearStartMonth is the first month of an academic year (April 1st - March 31st).
const AcademicYearStartMonth = time.April

// MonthIndex returns the position (1..12) of month in Months, or 0 if unknown.
// Matching is case-insensitive and accepts the 3-letter abbreviation ("mar").
func MonthIndex(month string) int {
	month = strings.TrimSpace(month)
	for i, m := range Months {
		if strings.EqualFold(m, month) || (len(month) == 3 && strings.EqualFold(m[:3], month)) {
			return i + 1
		}
	}
	return 0
}

// NormalizeMonth returns the canonical spelling of month ("march" -> "March").
func NormalizeMonth(month string) (string, bool) {
	idx := MonthIndex(month)
	if idx == 0 {
		return month, false
	}
	return Months[idx-1], true
}

func MonthName(m time.Month) string {
	return Months[m-1]
}

// AcademicYearOf returns the academic year name ("2025-2026") that t falls in.
func AcademicYearOf(t time.Time) string {
	start := t.Year()
	if t.Month() < AcademicYearStartMonth {
		start--
	}
	return fmt.Sprintf("%d-%d", start, start+1)
}

func parseAcademicYear(name string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(name), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid academic year %q", name)
	}
	first, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid academic year %q", name)
	}
	second, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid academic year %q", name)
	}
	return first, second, nil
}

// AcademicYearValid reports whether name is "YYYY-YYYY" with consecutive years.
func AcademicYearValid(name string) bool {
	first, second, err := parseAcademicYear(name)
	return err == nil && second == first+1
}

// AcademicYearBounds returns the first and last day (UTC) of the academic year name.
func AcademicYearBounds(name string) (time.Time, time.Time, error) {
	first, second, err := parseAcademicYear(name)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if second != first+1 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid academic year %q", name)
	}
	start := time.Date(first, AcademicYearStartMonth, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(second, AcademicYearStartMonth, 0, 0, 0, 0, 0, time.UTC) // March 31st
	return start, end, nil
}
