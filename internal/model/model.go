package model

import "time"

// Occurrence represents a single concrete instance of a calendar event
// after recurrence expansion, in the configured display timezone.
type Occurrence struct {
	UID string // iCalendar UID of the source VEVENT

	// InstanceKey uniquely identifies this occurrence across expansions of
	// the same series: UID plus the RFC3339 start instant.
	InstanceKey string

	Summary     string
	Description string

	AllDay bool

	Start time.Time
	End   time.Time

	// Organizer carries the raw ORGANIZER property data, if the source
	// event had one. Resolution happens in internal/member.
	OrganizerName  string
	OrganizerEmail string
}

// AttributionSource records which step of the resolution chain produced
// an organizer attribution.
type AttributionSource string

const (
	SourceProperty    AttributionSource = "explicit-property"
	SourceTitlePrefix AttributionSource = "title-prefix"
	SourceDefault     AttributionSource = "default"
)

// Attribution is the resolved household member for one occurrence.
type Attribution struct {
	Name     string            `json:"name"`
	Email    string            `json:"email,omitempty"`
	Source   AttributionSource `json:"source"`
	Color    string            `json:"color"`
	Initials string            `json:"initials"`

	// Prefix is the exact matched title prefix (e.g. "mom: ") when
	// Source is SourceTitlePrefix; empty otherwise. The normalizer strips
	// it from the display title.
	Prefix string `json:"-"`
}

// EventInstance is the terminal, display-ready record published to the
// display layer.
type EventInstance struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end,omitzero"`
	AllDay      bool        `json:"all_day"`
	Color       string      `json:"color"`
	BorderColor string      `json:"border_color"`
	TextColor   string      `json:"text_color"`
	Organizer   Attribution `json:"organizer"`
}

// State is the coarse display status of the refresh lifecycle.
type State string

const (
	StateLoading State = "loading" // first run still in flight, nothing published yet
	StateReady   State = "ready"   // a published set exists
	StateError   State = "error"   // last run failed and there is no prior data
)

// Snapshot is what the display layer sees: the currently published event
// set plus refresh status. A failed refresh with prior data keeps
// StateReady and raises Stale instead of surfacing an error screen.
type Snapshot struct {
	Events      []EventInstance `json:"events"`
	State       State           `json:"state"`
	Error       string          `json:"error,omitempty"`
	Stale       bool            `json:"stale"`
	Refreshing  bool            `json:"refreshing"`
	LastSuccess time.Time       `json:"last_success,omitzero"`
	WindowStart time.Time       `json:"window_start,omitzero"`
	WindowEnd   time.Time       `json:"window_end,omitzero"`
}
