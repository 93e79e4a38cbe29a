package driver

import "time"

// cardExpiry returns the instant a card expiring month/year stops being
// valid: the start of the following month.
func cardExpiry(month, year int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
