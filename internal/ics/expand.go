package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "linetoday/internal/log"
	"linetoday/internal/model"
)

// maxOccurrencesPerEvent caps recurrence expansion for a single event so a
// pathological rule (e.g. secondly frequency) cannot flood one day's digest.
const maxOccurrencesPerEvent = 200

// DayWindow returns the half-open [00:00, 24:00) window of day's calendar
// date, in day's own location.
func DayWindow(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	return start, start.Add(24 * time.Hour)
}

// NormalizedSpan returns a usable [start, end) span for an event, fixing up
// a missing or inverted DTEND: all-day events get a full day, timed events
// get one hour. The returned bool reports whether an adjustment was made.
func NormalizedSpan(ev model.Event) (time.Time, time.Time, bool) {
	start := ev.Start
	end := ev.End
	if !end.IsZero() && end.After(start) {
		return start, end, false
	}
	if ev.AllDay {
		return start, start.Add(24 * time.Hour), true
	}
	return start, start.Add(time.Hour), true
}

// overrideState tracks a RECURRENCE-ID override and whether a base
// occurrence consumed it during expansion.
type overrideState struct {
	ev   model.Event
	used bool
}

// ExpandDay expands events into the concrete occurrences that intersect
// day's [00:00, 24:00) window. One-off events pass through when their span
// overlaps; RRULE events are expanded with EXDATE removal, and an instance
// matched by a RECURRENCE-ID override takes the override's span and fields
// instead of surfacing twice. Output order is unspecified; the digest layer
// owns sorting.
func ExpandDay(events []model.Event, day time.Time) []model.Occurrence {
	winStart, winEnd := DayWindow(day)
	loc := day.Location()

	overrides := make(map[string][]*overrideState)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overrides[ev.UID] = append(overrides[ev.UID], &overrideState{ev: ev})
		}
	}

	out := make([]model.Occurrence, 0)
	for _, ev := range events {
		if ev.IsOverride {
			continue
		}
		ovs := overrides[ev.UID]
		start, end, _ := NormalizedSpan(ev)

		if ev.RawRRule == "" {
			if ov := matchOverride(ovs, start); ov != nil {
				ov.used = true
				ev = ov.ev
				start, end, _ = NormalizedSpan(ov.ev)
			}
			if overlaps(start, end, winStart, winEnd) {
				out = append(out, makeOccurrence(ev, start, end, loc))
			}
			continue
		}

		out = append(out, expandRecurring(ev, ovs, start, end, winStart, winEnd, loc)...)
	}

	// A rescheduled instance can land in the window while its base
	// occurrence sits on another day and was never expanded above.
	for _, ovs := range overrides {
		for _, ov := range ovs {
			if ov.used {
				continue
			}
			s, e, _ := NormalizedSpan(ov.ev)
			if overlaps(s, e, winStart, winEnd) {
				out = append(out, makeOccurrence(ov.ev, s, e, loc))
			}
		}
	}
	return out
}

func expandRecurring(ev model.Event, ovs []*overrideState, start, end, winStart, winEnd time.Time, loc *time.Location) []model.Occurrence {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Warn("skipping unparsable RRULE", "err", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(start.Location()))
	}

	dur := end.Sub(start)

	// Widen the query by the duration so an instance that started before
	// midnight but runs into the window is still found.
	from := winStart.Add(-dur).In(start.Location())
	to := winEnd.In(start.Location())
	times := set.Between(from, to, true)

	if len(times) > maxOccurrencesPerEvent {
		appLog.Warn("recurrence expansion capped", "uid", ev.UID, "cap", maxOccurrencesPerEvent)
		times = times[:maxOccurrencesPerEvent]
	}

	var out []model.Occurrence
	for _, occStart := range times {
		var occEnd time.Time
		if ev.AllDay {
			local := occStart.In(loc)
			occStart = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
			occEnd = occStart.Add(24 * time.Hour)
		} else {
			occEnd = occStart.Add(dur)
		}

		occEv := ev
		if ov := matchOverride(ovs, occStart); ov != nil {
			ov.used = true
			occEv = ov.ev
			occStart, occEnd, _ = NormalizedSpan(ov.ev)
		}

		if !overlaps(occStart, occEnd, winStart, winEnd) {
			continue
		}
		out = append(out, makeOccurrence(occEv, occStart, occEnd, loc))
	}
	return out
}

// matchOverride finds the override whose RECURRENCE-ID equals the base
// occurrence start.
func matchOverride(ovs []*overrideState, start time.Time) *overrideState {
	for _, ov := range ovs {
		if ov.ev.Recurrence != nil && ov.ev.Recurrence.Equal(start) {
			return ov
		}
	}
	return nil
}

func makeOccurrence(ev model.Event, start, end time.Time, loc *time.Location) model.Occurrence {
	return model.Occurrence{
		UID:     ev.UID,
		Summary: ev.Summary,
		Memo:    ev.Memo,
		Links:   ev.Links,
		AllDay:  ev.AllDay,
		Start:   start.In(loc),
		End:     end.In(loc),
	}
}

// overlaps reports whether [aStart, aEnd) intersects [bStart, bEnd).
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aEnd.After(bStart) && aStart.Before(bEnd)
}
