package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Event is the canonical calendar record produced by extraction. The
// extraction contract guarantees presence of every required field, using the
// empty string (or false) as the "unknown" sentinel rather than omission.
type Event struct {
	Title      string   `json:"title"`
	Date       string   `json:"date"`       // YYYY-MM-DD, first occurrence
	StartTime  string   `json:"start_time"` // HH:MM, 24-hour, wall clock
	EndTime    string   `json:"end_time"`
	Location   string   `json:"location"`
	Notes      string   `json:"notes"`
	Recurrence string   `json:"recurrence"` // RRULE body, e.g. FREQ=WEEKLY;BYDAY=MO
	Attendees  []string `json:"attendees"`
	AllDay     bool     `json:"all_day"`
	CalendarID string   `json:"calendar_id,omitempty"`
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// response mirrors the extraction collaborator's output envelope.
type response struct {
	Events []Event `json:"events"`
}

// DecodeResponse parses the collaborator's JSON output into validated events.
//
// A body that does not parse as the expected JSON object shape is a hard
// failure. A valid object without an "events" array is not: "no events found"
// is a legitimate outcome and yields an empty, non-nil list.
func DecodeResponse(data []byte) ([]Event, error) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("extraction response is not valid JSON: %w", err)
	}

	events := resp.Events
	if events == nil {
		return []Event{}, nil
	}

	for i := range events {
		events[i].Normalize()
		if err := events[i].Validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return events, nil
}

// Normalize fills sentinel values for fields the decoder may have left nil.
func (e *Event) Normalize() {
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	e.Recurrence = strings.TrimSpace(e.Recurrence)
}

// Validate checks the value shapes of a normalized event. Empty strings are
// acceptable for optional fields; malformed dates and times are not.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("missing title")
	}
	if _, err := time.Parse(dateLayout, e.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", e.Date, err)
	}
	if err := validTime(e.StartTime); err != nil {
		return fmt.Errorf("invalid start_time: %w", err)
	}
	if err := validTime(e.EndTime); err != nil {
		return fmt.Errorf("invalid end_time: %w", err)
	}
	if e.Recurrence != "" {
		if _, err := rrule.StrToRRule(e.Recurrence); err != nil {
			return fmt.Errorf("invalid recurrence %q: %w", e.Recurrence, err)
		}
	}
	return nil
}

func validTime(v string) error {
	if v == "" {
		// Unknown-time sentinel; still present per the extraction contract.
		return nil
	}
	if _, err := time.Parse(timeLayout, v); err != nil {
		return fmt.Errorf("%q is not a HH:MM time: %w", v, err)
	}
	return nil
}
