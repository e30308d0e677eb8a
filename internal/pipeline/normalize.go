package pipeline

import (
	"strings"

	"famcal/internal/model"
)

// PlaceholderTitle is shown for events whose source title is empty.
const PlaceholderTitle = "(no title)"

// textColor is the fixed high-contrast text color used on every event
// chip, independent of the organizer's background color.
const textColor = "#ffffff"

// Normalize assembles the display-ready event instance from an expanded
// occurrence and its resolved organizer. Pure: timing fields are copied
// verbatim, and only a title-prefix resolution mutates the title (by
// stripping exactly the matched prefix).
func Normalize(occ model.Occurrence, attr model.Attribution) model.EventInstance {
	title := occ.Summary
	if attr.Source == model.SourceTitlePrefix && attr.Prefix != "" {
		title = strings.TrimPrefix(title, attr.Prefix)
	}
	if strings.TrimSpace(title) == "" {
		title = PlaceholderTitle
	}

	return model.EventInstance{
		ID:          occ.InstanceKey,
		Title:       title,
		Description: occ.Description,
		Start:       occ.Start,
		End:         occ.End,
		AllDay:      occ.AllDay,
		Color:       attr.Color,
		BorderColor: attr.Color,
		TextColor:   textColor,
		Organizer:   attr,
	}
}
