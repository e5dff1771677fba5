// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowPtr returns a pointer to the current time in UTC
func UTCNowPtr() *time.Time {
	now := UTCNow()
	return &now
}

// LocalDay formats now in the given location as a YYYY-MM-DD key. Quota rows
// are scoped per agent per local calendar day.
func LocalDay(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01-02")
}
