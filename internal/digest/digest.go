// Package digest selects the occurrences that belong to one calendar day
// and renders them into the notification text. Everything here is a pure
// function: identical input and options produce byte-identical output.
package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"linetoday/internal/ics"
	"linetoday/internal/model"
)

// Options are the display toggles for Format.
type Options struct {
	// ShowMemo includes a memo line under each event that has one.
	ShowMemo bool
	// ShowLinks includes one line per event URL.
	ShowLinks bool
	// ShowEndTime renders "HH:MM-HH:MM" (clipped to the day); when false
	// only the clipped start time is rendered.
	ShowEndTime bool
	// MemoMaxLength caps the memo line in runes; longer memos render as
	// exactly MemoMaxLength runes followed by "…".
	MemoMaxLength int
}

var weekdaysJP = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// FilterToday keeps the occurrences whose [start, end) span intersects
// day's [00:00, 24:00) window, ordered by clipped display start ascending.
// All-day entries sort before timed entries sharing a start, and equal
// starts fall back to title order so the result is stable across runs.
func FilterToday(occs []model.Occurrence, day time.Time) []model.Occurrence {
	winStart, winEnd := ics.DayWindow(day)

	kept := make([]model.Occurrence, 0, len(occs))
	for _, o := range occs {
		if o.End.After(winStart) && o.Start.Before(winEnd) {
			kept = append(kept, o)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		si, _ := clipToWindow(kept[i], winStart, winEnd)
		sj, _ := clipToWindow(kept[j], winStart, winEnd)
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		if kept[i].AllDay != kept[j].AllDay {
			return kept[i].AllDay
		}
		return kept[i].Summary < kept[j].Summary
	})
	return kept
}

// Format renders the filtered occurrences into the digest text.
//
// Shape:
//
//	本日の予定 2025-01-15（水）2件
//	終日  チーム合宿
//	14:00-15:00  レビュー
//	  持ち物: ノートPC
//	  https://example.com/agenda
//
// An empty day renders the header followed by 本日の予定はありません。
func Format(occs []model.Occurrence, day time.Time, opts Options) string {
	winStart, winEnd := ics.DayWindow(day)

	header := fmt.Sprintf("本日の予定 %s（%s）%d件",
		day.Format("2006-01-02"), weekdaysJP[int(day.Weekday())], len(occs))

	if len(occs) == 0 {
		return header + "\n本日の予定はありません。"
	}

	var b strings.Builder
	b.WriteString(header)
	for _, o := range occs {
		b.WriteByte('\n')
		b.WriteString(markerLine(o, winStart, winEnd, opts.ShowEndTime))
		if opts.ShowMemo && o.Memo != "" {
			b.WriteString("\n  ")
			b.WriteString(Truncate(flatten(o.Memo), opts.MemoMaxLength))
		}
		if opts.ShowLinks {
			for _, link := range o.Links {
				b.WriteString("\n  ")
				b.WriteString(link)
			}
		}
	}
	return b.String()
}

// Preview renders a short "HH:MM:title / ..." summary of the first n
// occurrences, for operator logs. Start times are clipped to day's window,
// matching the marker lines.
func Preview(occs []model.Occurrence, day time.Time, n int) string {
	winStart, winEnd := ics.DayWindow(day)
	if n > len(occs) {
		n = len(occs)
	}
	parts := make([]string, 0, n)
	for _, o := range occs[:n] {
		token := "終日"
		if !o.AllDay {
			s, _ := clipToWindow(o, winStart, winEnd)
			token = s.Format("15:04")
		}
		parts = append(parts, token+":"+title(o))
	}
	return strings.Join(parts, " / ")
}

// Truncate caps s at max runes, appending "…" when anything was cut.
// A non-positive max leaves s untouched.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

func markerLine(o model.Occurrence, winStart, winEnd time.Time, showEnd bool) string {
	if o.AllDay {
		return "終日  " + title(o)
	}
	s, e := clipToWindow(o, winStart, winEnd)
	when := s.Format("15:04")
	if showEnd {
		when += "-" + e.Format("15:04")
	}
	return when + "  " + title(o)
}

func title(o model.Occurrence) string {
	if o.Summary == "" {
		return "(無題)"
	}
	return o.Summary
}

// clipToWindow bounds an occurrence to the day window for display; an
// event running past midnight shows 00:00 as its clipped edge.
func clipToWindow(o model.Occurrence, winStart, winEnd time.Time) (time.Time, time.Time) {
	s, e := o.Start, o.End
	if s.Before(winStart) {
		s = winStart
	}
	if e.After(winEnd) {
		e = winEnd
	}
	return s, e
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
