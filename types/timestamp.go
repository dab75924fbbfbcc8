package types

import (
	"encoding/json"
	"time"
)

// TimestampLayout renders record timestamps in UTC with exactly three
// fractional digits, e.g. 2024-05-01T12:00:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp formats t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON keeps millisecond precision for zero fractions, which
// time.Time's RFC 3339 encoding drops.
func (v Visitor) MarshalJSON() ([]byte, error) {
	type visitor Visitor
	return json.Marshal(struct {
		visitor
		Timestamp string `json:"timestamp"`
	}{visitor(v), FormatTimestamp(v.Timestamp)})
}

func (v VisitorView) MarshalJSON() ([]byte, error) {
	type view VisitorView
	return json.Marshal(struct {
		view
		Timestamp string `json:"timestamp"`
	}{view(v), FormatTimestamp(v.Timestamp)})
}

func (f Feedback) MarshalJSON() ([]byte, error) {
	type feedback Feedback
	return json.Marshal(struct {
		feedback
		Timestamp string `json:"timestamp"`
	}{feedback(f), FormatTimestamp(f.Timestamp)})
}
