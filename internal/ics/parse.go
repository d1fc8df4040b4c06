package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "linetoday/internal/log"
	"linetoday/internal/model"
)

// Parse parses a single ICS payload into a list of model.Event.
//
//   - All timestamps are normalized into loc before they leave this package.
//     Naive date-times (no TZID, no trailing Z) are interpreted as already
//     being in loc, matching how the export tool writes them.
//   - All-day events are detected from the DTSTART value format
//     (VALUE=DATE or a date-only value).
//   - A VEVENT that cannot be parsed is skipped with a warning; it never
//     aborts the remaining entries.
func Parse(body []byte, loc *time.Location) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0)
	skipped := 0

	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp, loc)
		if perr != nil {
			skipped++
			appLog.Warn("skipping malformed vevent", "err", perr, "uid", uidOf(comp))
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "event_count", len(events), "skipped", skipped)
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (model.Event, error) {
	var out model.Event

	out.UID = uidOf(ve)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = strings.TrimSpace(unescapeText(p.Value))
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Memo = strings.TrimSpace(unescapeText(p.Value))
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}

	start, startDateOnly, err := propTime(dtStart, loc)
	if err != nil {
		return out, err
	}
	out.Start = start

	endDateOnly := false
	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil && dtEnd.Value != "" {
		end, dateOnly, err := propTime(dtEnd, loc)
		if err != nil {
			return out, err
		}
		out.End = end
		endDateOnly = dateOnly
	}

	// Treat the event as all-day when either end of the span is a bare date.
	out.AllDay = startDateOnly || endDateOnly

	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE may appear multiple times, each with a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, _, err := parseTimeValue(part, paramLocation(p.ICalParameters, loc)); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	// RECURRENCE-ID marks this VEVENT as an override for one instance of
	// a recurring event.
	if rid := ve.GetProperty("RECURRENCE-ID"); rid != nil && rid.Value != "" {
		if t, _, err := parseTimeValue(rid.Value, paramLocation(rid.ICalParameters, loc)); err == nil {
			rt := t.In(loc)
			out.Recurrence = &rt
			out.IsOverride = true
		}
	}

	out.Links = extractLinks(ve, out.Memo)

	return out, nil
}

func uidOf(ve *ical.VEvent) string {
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		return p.Value
	}
	return ""
}

// propTime resolves a DTSTART/DTEND property into a time in loc, honoring
// VALUE=DATE, a trailing Z and TZID, in that order of specificity.
func propTime(p *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			t, _, err := parseTimeValue(p.Value, loc)
			return t, true, err
		}
	}
	parseLoc := paramLocation(p.ICalParameters, loc)
	t, dateOnly, err := parseTimeValue(p.Value, parseLoc)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.In(loc), dateOnly, nil
}

// parseTimeValue parses a basic ICS date/date-time string. The returned
// bool reports whether the value was date-only.
func parseTimeValue(v string, loc *time.Location) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, errors.New("empty time value")
	}

	// UTC form, e.g. 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		return t, false, err
	}

	// Naive date-time, e.g. 20250101T090000, interpreted in loc.
	if strings.Contains(v, "T") {
		t, err := time.ParseInLocation("20060102T150405", v, loc)
		return t, false, err
	}

	// Date-only, e.g. 20250101: midnight in loc.
	t, err := time.ParseInLocation("20060102", v, loc)
	return t, true, err
}

func paramLocation(params map[string][]string, loc *time.Location) *time.Location {
	if params != nil {
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
			if l, err := time.LoadLocation(tzs[0]); err == nil {
				return l
			}
		}
	}
	return loc
}

// extractLinks collects the URL property and any http(s) links embedded in
// the memo text, deduplicated in appearance order.
func extractLinks(ve *ical.VEvent, memo string) []string {
	var links []string
	seen := make(map[string]bool)

	add := func(u string) {
		u = strings.TrimRight(strings.TrimSpace(u), ".,;)")
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		links = append(links, u)
	}

	if p := ve.GetProperty("URL"); p != nil && p.Value != "" {
		add(p.Value)
	}
	for _, tok := range strings.Fields(memo) {
		if strings.HasPrefix(tok, "http://") || strings.HasPrefix(tok, "https://") {
			add(tok)
		}
	}
	return links
}

// unescapeText undoes RFC 5545 TEXT escaping (\\n, \\, \; and \,).
func unescapeText(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case '\\', ',', ';':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
