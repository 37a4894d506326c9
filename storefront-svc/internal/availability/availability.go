// Package availability decides whether a restaurant may accept orders at a
// given instant from its configured opening hours and manual override.
package availability

import (
	"fmt"
	"time"

	"qr-storefront/storefront-svc/internal/domain"
)

var clockLayouts = []string{"15:04:05", "15:04"}

// ConfigurationError reports an opening or closing time that is not a valid
// 24-hour clock value.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Evaluate reports whether the restaurant is accepting orders at now.
//
// The manual override wins over the clock and carries no reopening time.
// Otherwise the window runs from the opening time to the closing time on
// now's calendar date, in now's location; a closing time at or before the
// opening time rolls over to the following day, so an overnight window
// opened yesterday keeps counting until it closes today. Both ends are
// inclusive.
// A closed result carries the configured opening time verbatim.
func Evaluate(r domain.RestaurantAvailabilityInput, now time.Time) (domain.AvailabilityResult, error) {
	if !r.IsAvailable {
		return domain.AvailabilityResult{Available: false}, nil
	}

	openAt, err := parseClock("opening_time", r.OpeningTime)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}
	closeAt, err := parseClock("closing_time", r.ClosingTime)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}

	opens, closes, overnight := window(now, openAt, closeAt)
	if within(now, opens, closes) {
		return domain.AvailabilityResult{Available: true}, nil
	}

	// An overnight window that opened yesterday may still be running.
	if overnight && within(now, opens.AddDate(0, 0, -1), closes.AddDate(0, 0, -1)) {
		return domain.AvailabilityResult{Available: true}, nil
	}

	return domain.AvailabilityResult{
		Available:    false,
		NextOpenTime: r.OpeningTime,
	}, nil
}

func window(now, openAt, closeAt time.Time) (opens, closes time.Time, overnight bool) {
	y, m, d := now.Date()
	loc := now.Location()

	opens = time.Date(y, m, d, openAt.Hour(), openAt.Minute(), 0, 0, loc)
	closes = time.Date(y, m, d, closeAt.Hour(), closeAt.Minute(), 0, 0, loc)
	if !closes.After(opens) {
		closes = closes.AddDate(0, 0, 1)
		overnight = true
	}
	return opens, closes, overnight
}

func within(now, opens, closes time.Time) bool {
	return !now.Before(opens) && !now.After(closes)
}

func parseClock(field, value string) (time.Time, error) {
	var err error
	for _, layout := range clockLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ConfigurationError{Field: field, Value: value, Err: err}
}
