package booking

import (
	"fmt"
	"strings"
	"time"

	"campusbook/models"
)

const (
	// DefaultStartGrace tolerates the latency between resolving a window and the backend seeing it.
	DefaultStartGrace     = 60 * time.Second
	DefaultMaxMonthsAhead = 3
	MinMultiDaySpanDays   = 2

	dateLayout = "2006-01-02"
)

var timeLayouts = []string{"15:04", "15:04:05"}

// WindowRules are the tunable bounds of a bookable window.
type WindowRules struct {
	StartGrace     time.Duration
	MaxMonthsAhead int
}

func DefaultWindowRules() WindowRules {
	return WindowRules{StartGrace: DefaultStartGrace, MaxMonthsAhead: DefaultMaxMonthsAhead}
}

// ResolveWindow turns the draft's raw date and time fields into absolute instants in loc.
// A single-day end time shares the selected start date; a multi-day end date is
// selected independently. It has no side effects.
func ResolveWindow(d models.Draft, now time.Time, loc *time.Location, rules WindowRules) (models.ResolvedWindow, error) {
	if loc == nil {
		loc = time.Local
	}
	mode := d.DurationMode
	if mode == "" {
		mode = models.SingleDay
	}
	if mode != models.SingleDay && mode != models.MultiDay {
		return models.ResolvedWindow{}, newWindowError(MissingField, "durationMode", "Choose single-day or multi-day booking.")
	}

	startDate := strings.TrimSpace(d.StartDate)
	startTime := strings.TrimSpace(d.StartTime)
	endTime := strings.TrimSpace(d.EndTime)
	endDate := strings.TrimSpace(d.EndDate)

	switch {
	case startDate == "":
		return models.ResolvedWindow{}, newWindowError(MissingField, "startDate", "Start date is required.")
	case startTime == "":
		return models.ResolvedWindow{}, newWindowError(MissingField, "startTime", "Start time is required.")
	case mode == models.MultiDay && endDate == "":
		return models.ResolvedWindow{}, newWindowError(MissingField, "endDate", "End date is required for multi-day bookings.")
	case endTime == "":
		return models.ResolvedWindow{}, newWindowError(MissingField, "endTime", "End time is required.")
	}

	start, err := parseLocal(startDate, startTime, loc)
	if err != nil {
		return models.ResolvedWindow{}, newWindowError(UnparsableDateTime, "startDate", fmt.Sprintf("Start date/time %q %q is not valid.", startDate, startTime))
	}

	var endDay string
	switch mode {
	case models.SingleDay:
		endDay = startDate
	case models.MultiDay:
		endDay = endDate
	}
	end, err := parseLocal(endDay, endTime, loc)
	if err != nil {
		field := "endTime"
		if mode == models.MultiDay {
			field = "endDate"
		}
		return models.ResolvedWindow{}, newWindowError(UnparsableDateTime, field, fmt.Sprintf("End date/time %q %q is not valid.", endDay, endTime))
	}

	if !end.After(start) {
		return models.ResolvedWindow{}, newWindowError(EndBeforeOrEqualStart, "endTime", "End time must be after the start time.")
	}

	span := calendarDaysBetween(start, end)
	if mode == models.SingleDay && (span != 0 || (endDate != "" && endDate != startDate)) {
		return models.ResolvedWindow{}, newWindowError(SingleDaySpanCrossesMidnight, "endDate", "A single-day booking must start and end on the same date. Switch to multi-day for longer bookings.")
	}
	if mode == models.MultiDay && span < MinMultiDaySpanDays {
		return models.ResolvedWindow{}, newWindowError(MultiDaySpanTooShort, "endDate", fmt.Sprintf("A multi-day booking must span at least %d days.", MinMultiDaySpanDays))
	}

	if !start.After(now.Add(-rules.StartGrace)) {
		return models.ResolvedWindow{}, newWindowError(StartNotFuture, "startTime", "Start time must be in the future.")
	}
	if start.After(now.AddDate(0, rules.MaxMonthsAhead, 0)) {
		return models.ResolvedWindow{}, newWindowError(StartTooFarAhead, "startDate", fmt.Sprintf("Bookings can be made at most %d months in advance.", rules.MaxMonthsAhead))
	}

	return models.ResolvedWindow{
		Start:             start,
		End:               end,
		Mode:              mode,
		IsSameCalendarDay: span == 0,
		SpanDays:          span,
	}, nil
}

func parseLocal(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range timeLayouts {
		tod, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		t := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, loc)
		// Wall clock times skipped by a DST jump do not exist.
		if t.Hour() != tod.Hour() || t.Minute() != tod.Minute() {
			return time.Time{}, fmt.Errorf("time %s %s does not exist in %s", date, clock, loc)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", clock)
}

// calendarDaysBetween counts date boundaries between a and b in a's location.
func calendarDaysBetween(a, b time.Time) int {
	b = b.In(a.Location())
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
