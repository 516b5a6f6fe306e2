// Package dates implements the calendar-day key used for all daily
// accounting. A day key is a YYYY-MM-DD string computed under a single
// configured time zone, never the server's local zone.
package dates

import (
	"fmt"
	"regexp"
	"time"
)

const keyLayout = "2006-01-02"

var keyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Clock produces day keys in a fixed time zone.
type Clock struct {
	loc *time.Location
}

// NewClock creates a Clock for the named IANA zone, e.g. "Europe/Berlin".
// An empty name means UTC.
func NewClock(zone string) (*Clock, error) {
	if zone == "" {
		return &Clock{loc: time.UTC}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	return &Clock{loc: loc}, nil
}

// Today returns the current day key.
func (c *Clock) Today() string {
	return c.Key(time.Now())
}

// Key returns the day key for an instant.
func (c *Clock) Key(t time.Time) string {
	return t.In(c.loc).Format(keyLayout)
}

// PrevDay returns the day key immediately before key, or "" when key is
// malformed. The empty key matches nothing, so backward walks over day keys
// always terminate.
func (c *Clock) PrevDay(key string) string {
	t, err := time.ParseInLocation(keyLayout, key, c.loc)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(keyLayout)
}

// Valid reports whether key is a well-formed YYYY-MM-DD day key.
func Valid(key string) bool {
	if !keyPattern.MatchString(key) {
		return false
	}
	_, err := time.Parse(keyLayout, key)
	return err == nil
}
