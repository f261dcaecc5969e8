package models

import "strings"

// Month is one of the twelve short month codes a budget is keyed by.
type Month string

const (
	MonthJanuary   Month = "JAN"
	MonthFebruary  Month = "FEB"
	MonthMarch     Month = "MAR"
	MonthApril     Month = "APR"
	MonthMay       Month = "MAY"
	MonthJune      Month = "JUN"
	MonthJuly      Month = "JUL"
	MonthAugust    Month = "AUG"
	MonthSeptember Month = "SEP"
	MonthOctober   Month = "OCT"
	MonthNovember  Month = "NOV"
	MonthDecember  Month = "DEC"
)

// Months lists the codes in calendar order; a code's position is its index.
var Months = [12]Month{
	MonthJanuary, MonthFebruary, MonthMarch, MonthApril, MonthMay, MonthJune,
	MonthJuly, MonthAugust, MonthSeptember, MonthOctober, MonthNovember, MonthDecember,
}

var monthNames = map[Month]string{
	MonthJanuary: "January", MonthFebruary: "February", MonthMarch: "March",
	MonthApril: "April", MonthMay: "May", MonthJune: "June",
	MonthJuly: "July", MonthAugust: "August", MonthSeptember: "September",
	MonthOctober: "October", MonthNovember: "November", MonthDecember: "December",
}

// ParseMonth accepts a month code in any letter case.
func ParseMonth(s string) (Month, bool) {
	m := Month(strings.ToUpper(strings.TrimSpace(s)))
	return m, m.Valid()
}

// Valid reports whether m is one of the twelve codes.
func (m Month) Valid() bool {
	return m.Index() >= 0
}

// Index returns the zero-based calendar position of m, or -1.
func (m Month) Index() int {
	for i, code := range Months {
		if code == m {
			return i
		}
	}
	return -1
}

// Name returns the full English month name.
func (m Month) Name() string {
	return monthNames[m]
}

// MonthFromIndex returns the code for a zero-based month index.
func MonthFromIndex(idx int) (Month, bool) {
	if idx < 0 || idx >= len(Months) {
		return "", false
	}
	return Months[idx], true
}

// PreviousMonth returns the index and year of the month before (monthIdx, year),
// wrapping from January to December of the previous year.
func PreviousMonth(monthIdx, year int) (int, int) {
	monthIdx--
	if monthIdx < 0 {
		monthIdx = 11
		year--
	}
	return monthIdx, year
}
