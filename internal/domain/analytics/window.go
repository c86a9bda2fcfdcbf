// Package analytics provides the sales aggregation engine: pure, synchronous
// roll-ups over an already-fetched, role-scoped order set.
package analytics

import (
	"time"

	"ventra/internal/core/apperror"
)

// Preset names a relative date window.
type Preset string

const (
	PresetToday       Preset = "today"
	PresetYesterday   Preset = "yesterday"
	PresetLast7Days   Preset = "last7days"
	PresetLast30Days  Preset = "last30days"
	PresetThisQuarter Preset = "thisQuarter"
	PresetLastQuarter Preset = "lastQuarter"
	PresetCustom      Preset = "custom"
)

// Window is a date range, inclusive on both ends.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// ResolveWindow computes the window for a preset relative to now.
// For PresetCustom, day names the single calendar day to cover.
func ResolveWindow(preset Preset, now time.Time, day *time.Time) (Window, error) {
	switch preset {
	case PresetToday:
		return dayWindow(now), nil
	case PresetYesterday:
		return dayWindow(now.AddDate(0, 0, -1)), nil
	case PresetLast7Days:
		w := dayWindow(now)
		w.From = startOfDay(now.AddDate(0, 0, -6))
		return w, nil
	case PresetLast30Days:
		w := dayWindow(now)
		w.From = startOfDay(now.AddDate(0, 0, -29))
		return w, nil
	case PresetThisQuarter:
		from := startOfQuarter(now)
		return Window{From: from, To: endOfDay(lastDayOfQuarter(from))}, nil
	case PresetLastQuarter:
		from := startOfQuarter(now).AddDate(0, -3, 0)
		return Window{From: from, To: endOfDay(lastDayOfQuarter(from))}, nil
	case PresetCustom:
		if day == nil {
			return Window{}, apperror.NewValidation("custom preset requires a day")
		}
		return dayWindow(*day), nil
	default:
		return Window{}, apperror.NewValidation("unknown date preset").WithDetail("preset", string(preset))
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func dayWindow(t time.Time) Window {
	return Window{From: startOfDay(t), To: endOfDay(t)}
}

func startOfQuarter(t time.Time) time.Time {
	y, m, _ := t.Date()
	qm := time.Month(((int(m)-1)/3)*3 + 1)
	return time.Date(y, qm, 1, 0, 0, 0, 0, t.Location())
}

func lastDayOfQuarter(quarterStart time.Time) time.Time {
	return quarterStart.AddDate(0, 3, -1)
}
