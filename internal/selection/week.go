package selection

import "time"

// Week is a Monday-to-Sunday calendar week.
type Week struct {
	Start time.Time
}

// WeekOf returns the week containing t, anchored at midnight in t's location.
func WeekOf(t time.Time) Week {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(d.Weekday()) + 6) % 7
	return Week{Start: d.AddDate(0, 0, -offset)}
}

// Next returns the following week.
func (w Week) Next() Week { return Week{Start: w.Start.AddDate(0, 0, 7)} }

// Prev returns the preceding week.
func (w Week) Prev() Week { return Week{Start: w.Start.AddDate(0, 0, -7)} }

// End returns the Sunday of the week.
func (w Week) End() time.Time { return w.Start.AddDate(0, 0, 6) }

// Dates returns the 7 days of the week in order.
func (w Week) Dates() []time.Time {
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = w.Start.AddDate(0, 0, i)
	}
	return dates
}

// Label renders the week as "Mar 10 - Mar 16, 2025".
func (w Week) Label() string {
	return w.Start.Format("Jan 2") + " - " + w.End().Format("Jan 2, 2006")
}
