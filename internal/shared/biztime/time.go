// Package biztime provides time utilities for the service.
// All storage and transport use UTC; implicit Local timezone is prohibited.
package biztime

import "time"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}
