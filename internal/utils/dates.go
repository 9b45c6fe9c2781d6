package utils

import "time"

const dateLayout = "Jan 2, 2006"

// FormatDateRange renders the capture-time span of an album in a
// human-readable form: "Jan 2, 2006" for a single date,
// "Jan 2, 2006 - Mar 4, 2006" for a range, "Unknown" when no member photo
// carried a valid timestamp.
func FormatDateRange(timestamps []time.Time) string {
	if len(timestamps) == 0 {
		return "Unknown"
	}

	min, max := timestamps[0], timestamps[0]
	for _, t := range timestamps[1:] {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}

	first := min.Format(dateLayout)
	last := max.Format(dateLayout)
	if first == last {
		return first
	}
	return first + " - " + last
}

// MonthTitle is the deterministic title of a time-based scrapbook,
// e.g. "January 2026".
func MonthTitle(t time.Time) string {
	return t.Month().String() + " " + t.Format("2006")
}

// MonthBounds returns the half-open [start, end) interval of the month
// containing t, in t's location.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
