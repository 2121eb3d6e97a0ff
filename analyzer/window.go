package analyzer

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"

	// The direct-data API serves at most 14 days per request and nothing
	// older than 365 days.
	maxWindowDays   = 14
	maxLookbackDays = 365
)

// Window is the (since, until) date pair bounding one manifest request.
// It is read-only after validation.
type Window struct {
	Since time.Time
	Until time.Time
}

// ResolveWindow parses the optional since/until overrides and applies the
// defaults: until is yesterday and since is 14 days before until. The
// returned window has already been validated, so a bad range never costs
// a network call.
func ResolveWindow(since, until string, now time.Time) (Window, error) {
	var w Window
	var err error

	if until == "" {
		w.Until = truncateToDay(now).AddDate(0, 0, -1)
	} else if w.Until, err = time.Parse(dateLayout, until); err != nil {
		return Window{}, fmt.Errorf("parse until date: %w", err)
	}

	if since == "" {
		w.Since = w.Until.AddDate(0, 0, -maxWindowDays)
	} else if w.Since, err = time.Parse(dateLayout, since); err != nil {
		return Window{}, fmt.Errorf("parse since date: %w", err)
	}

	if err := w.Validate(now); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate enforces the API's date-range rules.
func (w Window) Validate(now time.Time) error {
	if w.Since.After(w.Until) {
		return fmt.Errorf("invalid date range: since %s is after until %s", w.SinceString(), w.UntilString())
	}
	if days := int(w.Until.Sub(w.Since).Hours() / 24); days > maxWindowDays {
		return fmt.Errorf("invalid date range: %d days exceeds the %d day limit", days, maxWindowDays)
	}
	if back := now.Sub(w.Since); back > maxLookbackDays*24*time.Hour {
		return fmt.Errorf("invalid date range: since %s is more than %d days in the past", w.SinceString(), maxLookbackDays)
	}
	return nil
}

// SinceString formats the window start as a calendar date.
func (w Window) SinceString() string { return w.Since.Format(dateLayout) }

// UntilString formats the window end as a calendar date.
func (w Window) UntilString() string { return w.Until.Format(dateLayout) }

// Days is the span of the window in whole days.
func (w Window) Days() int { return int(w.Until.Sub(w.Since).Hours() / 24) }

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
