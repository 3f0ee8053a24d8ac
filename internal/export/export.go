// Package export renders extracted events into calendar interchange formats:
// provider deep-link URLs and an installable iCalendar document.
//
// All date/time values are wall-clock representations in the fixed target
// timezone the extraction was instructed to use; no UTC conversion or DST
// arithmetic happens here.
package export

import (
	"net/url"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"datepull/internal/event"
)

const (
	googleBaseURL  = "https://www.google.com/calendar/render?action=TEMPLATE"
	outlookBaseURL = "https://outlook.office.com/calendar/0/deeplink/compose?rru=addevent"
	yahooBaseURL   = "https://calendar.yahoo.com/?v=60&view=d&type=20"

	productID = "-//DatePull//DatePull//EN"
	uidDomain = "datepull.ai"
)

// Links bundles one deep link per supported provider for a single event.
type Links struct {
	Google  string `json:"google"`
	Outlook string `json:"outlook"`
	Yahoo   string `json:"yahoo"`
}

// BuildLinks returns the deep links for one event.
func BuildLinks(e event.Event, timezone string) Links {
	return Links{
		Google:  GoogleCalendarURL(e, timezone),
		Outlook: OutlookCalendarURL(e),
		Yahoo:   YahooCalendarURL(e),
	}
}

// compactDateTime renders YYYYMMDDTHHMMSS, the digits-only form used by
// Google, Yahoo and the iCalendar fields.
func compactDateTime(date, clock string) string {
	return strings.ReplaceAll(date, "-", "") + "T" + strings.ReplaceAll(clock, ":", "") + "00"
}

// canonicalDateTime renders YYYY-MM-DDTHH:MM:SS, the form Outlook expects.
func canonicalDateTime(date, clock string) string {
	return date + "T" + clock + ":00"
}

// GoogleCalendarURL builds a Google Calendar event-template link. Google is
// the only provider whose link format carries the recurrence rule.
func GoogleCalendarURL(e event.Event, timezone string) string {
	params := url.Values{}
	params.Set("text", e.Title)
	params.Set("dates", compactDateTime(e.Date, e.StartTime)+"/"+compactDateTime(e.Date, e.EndTime))
	params.Set("details", e.Notes)
	params.Set("location", e.Location)
	params.Set("ctz", timezone)
	if e.Recurrence != "" {
		params.Set("recur", "RRULE:"+e.Recurrence)
	}
	return googleBaseURL + "&" + params.Encode()
}

// OutlookCalendarURL builds an Outlook deeplink-compose link.
func OutlookCalendarURL(e event.Event) string {
	params := url.Values{}
	params.Set("subject", e.Title)
	params.Set("startdt", canonicalDateTime(e.Date, e.StartTime))
	params.Set("enddt", canonicalDateTime(e.Date, e.EndTime))
	params.Set("body", e.Notes)
	params.Set("location", e.Location)
	params.Set("path", "/calendar/action/compose")
	return outlookBaseURL + "&" + params.Encode()
}

// YahooCalendarURL builds a Yahoo Calendar link. Yahoo uses the same compact
// datetime form as Google and has no recurrence parameter.
func YahooCalendarURL(e event.Event) string {
	params := url.Values{}
	params.Set("title", e.Title)
	params.Set("st", compactDateTime(e.Date, e.StartTime))
	params.Set("et", compactDateTime(e.Date, e.EndTime))
	params.Set("desc", e.Notes)
	params.Set("in_loc", e.Location)
	return yahooBaseURL + "&" + params.Encode()
}

// ICS serializes the whole event list into one iCalendar document.
//
// Every export generates fresh UIDs; identifiers are deliberately not stable
// across calls. Output uses CRLF line separators as the format mandates.
func ICS(events []event.Event, timezone string) string {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")

	now := time.Now().UTC()

	for _, e := range events {
		ve := cal.AddEvent(uuid.NewString() + "@" + uidDomain)
		ve.SetDtStampTime(now)

		tzid := &ics.KeyValues{Key: "TZID", Value: []string{timezone}}
		ve.SetProperty(ics.ComponentPropertyDtStart, compactDateTime(e.Date, e.StartTime), tzid)
		ve.SetProperty(ics.ComponentPropertyDtEnd, compactDateTime(e.Date, e.EndTime), tzid)

		if e.Recurrence != "" {
			ve.AddRrule(e.Recurrence)
		}

		// Raw SetProperty keeps value escaping under our control: the only
		// transformation the format needs here is folding embedded newlines
		// in notes into the literal \n escape.
		ve.SetProperty(ics.ComponentPropertySummary, e.Title)
		if e.Location != "" {
			ve.SetProperty(ics.ComponentPropertyLocation, e.Location)
		}
		if e.Notes != "" {
			ve.SetProperty(ics.ComponentPropertyDescription, strings.ReplaceAll(e.Notes, "\n", `\n`))
		}
	}

	return cal.Serialize()
}
