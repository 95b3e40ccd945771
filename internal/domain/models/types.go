package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is an opaque identifier assigned by the API. The API may send it as a
// JSON number or a JSON string; both decode to the same textual form.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the id is absent, which marks create mode.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())

	return nil
}

// Flag is a boolean the API may encode as true/false, 1/0 or "1"/"0".
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)

	switch strings.ToLower(s) {
	case "", "null", "0", "false", "off", "no":
		*f = false
	case "1", "true", "on", "yes":
		*f = true
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid flag %s", data)
		}
		*f = n != 0
	}

	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time accepts RFC 3339 as well as the SQLite "YYYY-MM-DD HH:MM:SS" form.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		t.Time = time.Unix(int64(secs), 0).UTC()
		return nil
	}

	return fmt.Errorf("invalid time %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.Time.Format(time.RFC3339))
}

// MutationResult is the body returned by create, update and delete calls.
type MutationResult struct {
	Success bool     `json:"success"`
	ID      ID       `json:"id,omitempty"`
	Images  []string `json:"images,omitempty"`
	File    string   `json:"file,omitempty"`
	URL     string   `json:"url,omitempty"`
	Error   string   `json:"error,omitempty"`
}
