package views

import (
	"fmt"
	"time"
)

// RelativeLabel renders how long ago t was, in the app's Danish shorthand:
// under a minute "Nu", under an hour minutes, under a day hours, else days.
func RelativeLabel(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Nu"
	case d < time.Hour:
		return fmt.Sprintf("%d min", int(d.Minutes()))
	case d < 24*time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1 time"
		}
		return fmt.Sprintf("%d timer", hours)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 dag"
		}
		return fmt.Sprintf("%d dage", days)
	}
}

var danishMonths = [...]string{
	"januar", "februar", "marts", "april", "maj", "juni",
	"juli", "august", "september", "oktober", "november", "december",
}

// DateLabel renders the calendar-date heading for a message group: "I dag",
// "I går", or the absolute Danish date.
func DateLabel(now, t time.Time) string {
	if sameDay(now, t) {
		return "I dag"
	}
	if sameDay(now.AddDate(0, 0, -1), t) {
		return "I går"
	}
	ty, tm, td := t.Date()
	return fmt.Sprintf("%d. %s %d", td, danishMonths[tm-1], ty)
}

// sameDay reports whether the two times fall on the same calendar date.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
