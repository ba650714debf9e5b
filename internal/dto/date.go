package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date accepts either a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
// A bare date is taken as midnight UTC. Empty strings and null leave it zero.
type Date struct {
	time.Time
}

// DateError reports a value that is neither accepted form.
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("date %s must be YYYY-MM-DD or RFC 3339", e.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &DateError{Value: string(data)}
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	d.Time = parsed
	return nil
}

// ParseDate parses raw in either accepted form; blank input yields the zero time.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, &DateError{Value: fmt.Sprintf("%q", raw)}
}
