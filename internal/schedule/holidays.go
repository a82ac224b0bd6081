package schedule

import "time"

// Ghana public holidays. Fixed-date holidays recur every year; the movable
// ones (Easter, Eid) are listed per year and need a new table annually.

type holidayDef struct {
	name        string
	month       time.Month
	day         int
	isRecurring bool
}

var ghanaHolidays = map[int][]holidayDef{
	2024: {
		{"New Year's Day", time.January, 1, true},
		{"Constitution Day", time.January, 7, true},
		{"Independence Day", time.March, 6, true},
		{"Good Friday", time.March, 29, false},
		{"Easter Saturday", time.March, 30, false},
		{"Easter Monday", time.April, 1, false},
		{"May Day", time.May, 1, true},
		{"Eid al-Fitr", time.April, 10, false},
		{"Eid al-Adha", time.June, 17, false},
		{"Founders' Day", time.August, 4, true},
		{"Kwame Nkrumah Memorial Day", time.September, 21, true},
		{"Farmers' Day", time.December, 6, true},
		{"Christmas Day", time.December, 25, true},
		{"Boxing Day", time.December, 26, true},
	},
	2025: {
		{"New Year's Day", time.January, 1, true},
		{"Constitution Day", time.January, 7, true},
		{"Independence Day", time.March, 6, true},
		{"Good Friday", time.April, 18, false},
		{"Easter Saturday", time.April, 19, false},
		{"Easter Monday", time.April, 21, false},
		{"May Day", time.May, 1, true},
		{"Eid al-Fitr", time.March, 31, false},
		{"Eid al-Adha", time.June, 7, false},
		{"Founders' Day", time.August, 4, true},
		{"Kwame Nkrumah Memorial Day", time.September, 21, true},
		{"Farmers' Day", time.December, 5, true},
		{"Christmas Day", time.December, 25, true},
		{"Boxing Day", time.December, 26, true},
	},
	2026: {
		{"New Year's Day", time.January, 1, true},
		{"Constitution Day", time.January, 7, true},
		{"Independence Day", time.March, 6, true},
		{"Good Friday", time.April, 3, false},
		{"Easter Saturday", time.April, 4, false},
		{"Easter Monday", time.April, 6, false},
		{"May Day", time.May, 1, true},
		{"Eid al-Fitr", time.March, 20, false},
		{"Eid al-Adha", time.May, 27, false},
		{"Founders' Day", time.August, 4, true},
		{"Kwame Nkrumah Memorial Day", time.September, 21, true},
		{"Farmers' Day", time.December, 4, true},
		{"Christmas Day", time.December, 25, true},
		{"Boxing Day", time.December, 26, true},
	},
}

const latestHolidayYear = 2026

// BuiltinHolidays returns the holiday set for a year. Years without a table
// fall back to the latest known year, which keeps the recurring holidays
// correct even when the movable dates are stale.
func BuiltinHolidays(year int) []Holiday {
	defs, ok := ghanaHolidays[year]
	if !ok {
		defs = ghanaHolidays[latestHolidayYear]
	}

	out := make([]Holiday, 0, len(defs))
	for _, d := range defs {
		out = append(out, Holiday{
			Name:        d.name,
			Date:        time.Date(year, d.month, d.day, 0, 0, 0, 0, time.Local),
			IsRecurring: d.isRecurring,
		})
	}
	return out
}

// MatchHoliday finds the holiday covering date, if any: either an exact date
// match or a recurring holiday on the same month and day.
func MatchHoliday(date time.Time, holidays []Holiday) *Holiday {
	for i := range holidays {
		h := &holidays[i]
		sameMonthDay := h.Date.Month() == date.Month() && h.Date.Day() == date.Day()
		if !sameMonthDay {
			continue
		}
		if h.IsRecurring || h.Date.Year() == date.Year() {
			return h
		}
	}
	return nil
}
