package schedule

// ResolveAvailability merges the three availability sources for one clinician
// and one date into a single verdict. Precedence, highest first:
//
//  1. A facility holiday closes the day no matter what, including over an
//     exception that claims availability.
//  2. An exception for the exact date: unavailable exceptions close the day;
//     available ones with custom hours open it with those hours.
//  3. The active weekly template for the date's weekday. No template means
//     the clinician does not work that day.
//
// Pure function over already-fetched rows. Callers must re-resolve rather
// than cache across a booking commit, since exceptions and templates can
// change in between.
func ResolveAvailability(holiday *Holiday, exc *Exception, tmpl *WeeklyTemplate) Availability {
	if holiday != nil {
		return Availability{
			IsAvailable: false,
			IsHoliday:   true,
			HolidayName: holiday.Name,
		}
	}

	if exc != nil {
		if !exc.IsAvailable {
			return Availability{
				IsAvailable: false,
				Exception:   exc,
			}
		}
		if exc.CustomStart != nil && exc.CustomEnd != nil {
			return Availability{
				IsAvailable: true,
				Exception:   exc,
				WorkingHours: &WorkingHours{
					Start:       *exc.CustomStart,
					End:         *exc.CustomEnd,
					SlotMinutes: DefaultSlotMinutes,
				},
			}
		}
		// Available exception without custom hours falls through to the
		// weekly template.
	}

	if tmpl == nil {
		return Availability{IsAvailable: false}
	}

	alloc := tmpl.Allocation
	return Availability{
		IsAvailable: true,
		WorkingHours: &WorkingHours{
			Start:       tmpl.StartTime,
			End:         tmpl.EndTime,
			SlotMinutes: tmpl.SlotMinutes,
			Location:    tmpl.Location,
		},
		Allocation: &alloc,
	}
}
