package timeutil

import "time"

// tashkent is the fixed UTC+5 offset the FastPay gateway requires for signing
// timestamps. A fixed zone is used instead of the IANA database so signing
// does not depend on host tzdata; Uzbekistan has no daylight saving.
var tashkent = time.FixedZone("UZT", 5*60*60)

// Now returns the current time in UTC. Always use this instead of time.Now()
// so stored timestamps are timezone-consistent.
func Now() time.Time {
	return time.Now().UTC()
}

// NowTashkent returns the current time in the gateway signing zone (UTC+5).
func NowTashkent() time.Time {
	return time.Now().In(tashkent)
}

// ToUTC converts a time.Time to UTC if it isn't already
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// StartOfDay returns the start of the day (midnight) in UTC
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in UTC
func EndOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 23, 59, 59, 999999999, time.UTC)
}
