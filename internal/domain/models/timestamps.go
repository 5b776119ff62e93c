package models

import "time"

// TimestampLayout is the ISO-8601 form used for createdAt / lastLogin
// (millisecond precision, UTC, trailing Z). Values in this form sort
// lexicographically in time order, which $max and $sort rely on.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t in TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
