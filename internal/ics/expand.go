package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "famcal/internal/log"
	"famcal/internal/model"
)

// defaultMaxPerSeries caps how many instants one series may generate.
// RRULEs without UNTIL/COUNT are infinite; the cap keeps expansion from
// hanging the pipeline. Skipped pre-window instants count too.
const defaultMaxPerSeries = 1000

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone all occurrences are converted to.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// WindowStart / WindowEnd define the inclusive time window.
	WindowStart time.Time
	WindowEnd   time.Time

	// MaxPerSeries overrides defaultMaxPerSeries when positive.
	MaxPerSeries int
}

// Expand turns parsed VEVENTs into concrete occurrences within the
// window, sorted by start. It handles:
//
//   - single non-recurring events
//   - RRULE recurrence, iterated from the series' own DTSTART so that
//     BYDAY/BYSETPOS semantics evaluate in the series' epoch
//   - EXDATE exclusions and RECURRENCE-ID overrides
//   - all-day semantics
func Expand(events []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, error) {
	if cfg.WindowEnd.Before(cfg.WindowStart) {
		return nil, errors.New("expand: WindowEnd is before WindowStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxPerSeries <= 0 {
		cfg.MaxPerSeries = defaultMaxPerSeries
	}

	// Group base events and their instance overrides by UID.
	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	out := make([]model.Occurrence, 0, len(events))
	for uid, baseEvents := range baseByUID {
		overrides := overridesByUID[uid]
		for _, ev := range baseEvents {
			if ev.RawRRule == "" {
				out = append(out, expandSingle(ev, overrides, cfg)...)
				continue
			}
			occ, hitCap := expandRecurring(ev, overrides, cfg)
			if hitCap {
				appLog.Warn("expand: series truncated at occurrence cap",
					"uid", uid, "cap", cfg.MaxPerSeries)
			}
			out = append(out, occ...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Occurrence {
	if ev.Start.IsZero() {
		return nil
	}

	start := ev.Start
	end := ev.End
	if o, ok := findOverrideForStart(overrides, start); ok {
		start = o.Start
		end = o.End
		ev = o
	}

	return []model.Occurrence{makeOccurrence(ev, start, end, cfg.DisplayLocation)}
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	out := make([]model.Occurrence, 0)

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		// Malformed rule: skip the series, keep the run alive.
		appLog.Warn("expand: unparseable RRULE, skipping series",
			"uid", ev.UID, "rrule", ev.RawRRule, "err", err.Error())
		return out, false
	}

	// Anchor the rule at the series' DTSTART, not the window start:
	// recurrence rules are evaluated in their own epoch.
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	windowStart := cfg.WindowStart.In(ev.Start.Location())
	windowEnd := cfg.WindowEnd.In(ev.Start.Location())
	duration := ev.End.Sub(ev.Start)

	hitCap := false
	generated := 0
	next := set.Iterator()
	for {
		occStart, ok := next()
		if !ok {
			break
		}
		if occStart.After(windowEnd) {
			break
		}
		generated++
		if occStart.Before(windowStart) {
			if generated >= cfg.MaxPerSeries {
				hitCap = true
				break
			}
			continue
		}

		var occEnd time.Time
		if ev.AllDay {
			// All-day: [date 00:00, next day 00:00) in the event's zone.
			occStart = time.Date(occStart.Year(), occStart.Month(), occStart.Day(),
				0, 0, 0, 0, occStart.Location())
			occEnd = occStart.Add(24 * time.Hour)
		} else if !ev.End.IsZero() {
			occEnd = occStart.Add(duration)
		}

		instEv := ev
		instStart := occStart
		instEnd := occEnd
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			instEv = o
			instStart = o.Start
			instEnd = o.End
		}

		out = append(out, makeOccurrence(instEv, instStart, instEnd, cfg.DisplayLocation))

		if generated >= cfg.MaxPerSeries {
			hitCap = true
			break
		}
	}

	return out, hitCap
}

// findOverrideForStart finds an override whose RECURRENCE-ID matches the
// given instance start with exact time equality.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(start.Location()).Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeOccurrence converts a (possibly overridden) ParsedEvent plus a
// concrete start/end into a model.Occurrence in the display timezone.
// The instance key combines UID and the raw start instant so that two
// occurrences sharing a calendar date still get distinct identifiers.
func makeOccurrence(ev ParsedEvent, start, end time.Time, displayLoc *time.Location) model.Occurrence {
	startLocal := start.In(displayLoc)
	occ := model.Occurrence{
		UID:            ev.UID,
		InstanceKey:    ev.UID + "/" + startLocal.Format(time.RFC3339),
		Summary:        ev.Summary,
		Description:    ev.Description,
		AllDay:         ev.AllDay,
		Start:          startLocal,
		OrganizerName:  ev.OrganizerName,
		OrganizerEmail: ev.OrganizerEmail,
	}
	if !end.IsZero() {
		occ.End = end.In(displayLoc)
	}
	return occ
}
