package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "famcal/internal/log"
)

// ParsedEvent is the normalized representation of one VEVENT as produced
// by the parser. Recurrence expansion operates on this type.
type ParsedEvent struct {
	UID string // may be empty; not every feed sets UID

	Summary     string
	Description string

	Start  time.Time
	End    time.Time
	AllDay bool

	// OrganizerEmail / OrganizerName carry the raw ORGANIZER property
	// (mailto: prefix stripped, CN parameter preferred for the name).
	OrganizerEmail string
	OrganizerName  string

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID in the event's own timezone
	IsOverride bool       // true if this VEVENT overrides one recurring instance
}

// Parse parses a single ICS payload into a list of ParsedEvent.
//
// An unparseable payload is fatal: the whole refresh run fails rather
// than publishing partial results. A single malformed VEVENT is logged
// and skipped so the rest of the feed still renders.
func Parse(body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty feed body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]ParsedEvent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics: skipping malformed vevent", "err", perr.Error(), "uid", uidOf(ve))
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}

	// DTSTART / DTEND via the library's timezone-aware helpers. A VEVENT
	// without DTSTART is kept; the expander emits nothing for it. A
	// DTSTART that is present but unparseable makes the event malformed.
	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	start, err := ve.GetStartAt()
	if err != nil && dtStartProp != nil {
		return out, err
	}
	end, _ := ve.GetEndAt()
	out.Start = start
	out.End = end

	// All-day: DTSTART with VALUE=DATE or a date-only value.
	if dtStartProp != nil {
		if params := dtStartProp.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
		}
		if !strings.Contains(dtStartProp.Value, "T") {
			out.AllDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyOrganizer); p != nil {
		out.OrganizerEmail = stripMailto(p.Value)
		out.OrganizerName = out.OrganizerEmail
		if params := p.ICalParameters; params != nil {
			if cns, ok := params["CN"]; ok && len(cns) > 0 && cns[0] != "" {
				out.OrganizerName = cns[0]
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	// EXDATE may appear multiple times, each with a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	// RECURRENCE-ID marks an override of one recurring instance.
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

func uidOf(ve *ical.VEvent) string {
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		return p.Value
	}
	return ""
}

// stripMailto removes a leading mailto: scheme marker, case-insensitively.
func stripMailto(v string) string {
	if len(v) >= 7 && strings.EqualFold(v[:7], "mailto:") {
		return v[7:]
	}
	return v
}

// parseICSTime parses a basic ICS date/date-time value. Used for
// EXDATE/RECURRENCE-ID where full parameter context is not needed; the
// expander aligns locations before comparing.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g. 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		const layout = "20060102T150405Z"
		return time.Parse(layout, v)
	}

	// Floating local date-time, e.g. 20250101T090000
	if strings.Contains(v, "T") {
		const layout = "20060102T150405"
		return time.ParseInLocation(layout, v, time.Local)
	}

	// Date-only (all-day), e.g. 20250101
	const layoutDate = "20060102"
	return time.ParseInLocation(layoutDate, v, time.Local)
}
