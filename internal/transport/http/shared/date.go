package shared

import "time"

// ParseDate reads the wire format for date fields: plain YYYY-MM-DD first,
// since that is what clients send for dob and date_joined, with full RFC3339
// accepted as a fallback.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}
