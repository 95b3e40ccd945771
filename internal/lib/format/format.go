// Package format holds the small text helpers shared by the controllers,
// the drop-zone and the page renderers.
package format

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// Escape makes text safe for interpolation into HTML element content and
// quoted attribute values.
func Escape(text string) string {
	return html.EscapeString(text)
}

// FileSize formats a byte count with 1024-based units rounded to two decimals:
// 0 -> "0 Bytes", 1024 -> "1 KB", 1536 -> "1.5 KB". Anything past GB stays in GB.
func FileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	i := 0
	for n := bytes; n >= 1024 && i < len(sizeUnits)-1; n /= 1024 {
		i++
	}

	v := float64(bytes) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100

	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// Date renders t the way the public pages do ("Jan 2, 2006").
// The zero time renders as an empty string.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format("Jan 2, 2006")
}

// Ago renders t relative to now ("3 days ago").
func Ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return humanize.Time(t)
}

// Index renders a 1-based position as a zero padded three digit counter.
func Index(i int) string {
	return fmt.Sprintf("%03d", i)
}

// Tags splits a comma separated field into trimmed, non-empty tags,
// preserving input order: "a, b ,, c" -> [a b c].
func Tags(raw string) []string {
	tags := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// JoinTags is the inverse of Tags used when a form is populated for editing.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// ReadingTime parses the leading integer of raw ("5", "5 min").
// Anything unparseable or negative yields 0.
func ReadingTime(raw string) int {
	raw = strings.TrimSpace(raw)

	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	n, err := strconv.Atoi(raw[:end])
	if err != nil || n < 0 {
		return 0
	}

	return n
}
