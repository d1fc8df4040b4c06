package model

import "time"

// Event represents a single parsed VEVENT before recurrence expansion.
// Values are immutable once produced by the parser.
type Event struct {
	UID     string
	Summary string

	// Memo is the free-text DESCRIPTION of the event, unescaped.
	Memo string
	// Links are URLs attached to the event (URL property plus any
	// http(s) links found in the memo), in appearance order.
	Links []string

	// Start / End as declared, already normalized into the canonical
	// timezone. End may be zero when the event declares no DTEND.
	Start time.Time
	End   time.Time

	// AllDay is true when DTSTART (or DTEND) carries a date only.
	AllDay bool

	// RawRRule holds the RRULE value verbatim; empty for one-off events.
	RawRRule string
	// ExDates lists recurrence exceptions.
	ExDates []time.Time

	// Recurrence is the RECURRENCE-ID of the instance this event
	// overrides; nil for base events.
	Recurrence *time.Time
	// IsOverride is true when this VEVENT reschedules a single instance
	// of a recurring event rather than defining one.
	IsOverride bool
}

// Occurrence is one concrete instance of an event after recurrence
// expansion and zero-length normalization, in the canonical timezone.
type Occurrence struct {
	UID     string
	Summary string
	Memo    string
	Links   []string

	AllDay bool

	// Start / End span the occurrence; End is always after Start.
	Start time.Time
	End   time.Time
}
