package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatSessionInterval renders the wall-clock delta between a job's due
// time and its completion as an H:M:S interval, e.g. "2:05:30".
func FormatSessionInterval(due, completed time.Time) string {
	d := completed.Sub(due)
	if d < 0 {
		d = -d
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// SessionTimeText re-expresses an H:M:S interval for customer- and
// translator-facing session-ended notices: "2:05:30" becomes "2 tim 5 min".
func SessionTimeText(interval string) string {
	parts := strings.Split(interval, ":")
	if len(parts) < 2 {
		return interval
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return fmt.Sprintf("%d tim %d min", h, m)
}

// ConvertToHoursMins renders a duration in minutes for SMS text,
// e.g. 90 -> "01h 30min", 45 -> "45min", 60 -> "1h".
func ConvertToHoursMins(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	if minutes == 60 {
		return "1h"
	}
	return fmt.Sprintf("%02dh %02dmin", minutes/60, minutes%60)
}

// WillExpireAt computes the instant an unaccepted booking expires,
// relative to its due time and creation time.
func WillExpireAt(due, createdAt time.Time) time.Time {
	diff := due.Sub(createdAt)
	switch {
	case diff <= 90*time.Minute:
		return due
	case diff <= 24*time.Hour:
		return createdAt.Add(90 * time.Minute)
	case diff <= 72*time.Hour:
		return createdAt.Add(16 * time.Hour)
	default:
		return due.Add(-48 * time.Hour)
	}
}
