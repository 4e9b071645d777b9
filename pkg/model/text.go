package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Text is a display field kept exactly as the backend sent it.
// JSON strings decode to their contents, numbers and booleans to their
// literal form and null to the empty string.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("model: cannot use %s as display text", data)
	default:
		*t = Text(data)
	}
	return nil
}

// String returns the text.
func (t Text) String() string { return string(t) }

// OrDash returns the text, or "-" when it is empty.
func (t Text) OrDash() string {
	if t == "" {
		return "-"
	}
	return string(t)
}

// Count is an aggregate counter. SQL aggregates arrive as numbers, as
// numeric strings (DECIMAL sums) or as null over empty tables.
type Count int64

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	if raw == "" {
		*c = 0
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("model: invalid count %q: %w", raw, err)
	}
	*c = Count(n)
	return nil
}

// String returns the decimal representation of the count.
func (c Count) String() string { return strconv.FormatInt(int64(c), 10) }
