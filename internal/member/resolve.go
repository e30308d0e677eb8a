package member

import (
	"strings"

	"famcal/internal/model"
)

// Resolve attributes one occurrence to a household member. The chain is
// ordered and first-match-wins:
//
//  1. explicit ORGANIZER property
//  2. title prefix ("mom: dentist") against configured member names
//  3. the reserved fallback entry
//
// Resolution is a pure function with no failure path: malformed or
// unknown organizer data falls through to the next step or the fallback.
func (d *Directory) Resolve(occ model.Occurrence) model.Attribution {
	if name, email, ok := organizerProperty(occ); ok {
		color, initials := d.Lookup(name)
		return model.Attribution{
			Name:     name,
			Email:    email,
			Source:   model.SourceProperty,
			Color:    color,
			Initials: initials,
		}
	}

	if d.prefixRe != nil {
		if m := d.prefixRe.FindStringSubmatch(occ.Summary); m != nil {
			name := d.canonicalName(m[1])
			color, initials := d.Lookup(name)
			return model.Attribution{
				Name:     name,
				Source:   model.SourceTitlePrefix,
				Color:    color,
				Initials: initials,
				Prefix:   m[0],
			}
		}
	}

	color, initials := d.Lookup(d.fallback.Name)
	return model.Attribution{
		Name:     d.fallback.Name,
		Source:   model.SourceDefault,
		Color:    color,
		Initials: initials,
	}
}

// organizerProperty extracts a usable identity from the raw ORGANIZER
// data carried on the occurrence.
func organizerProperty(occ model.Occurrence) (name, email string, ok bool) {
	name = strings.TrimSpace(occ.OrganizerName)
	email = strings.TrimSpace(occ.OrganizerEmail)
	if name == "" {
		name = email
	}
	if name == "" {
		return "", "", false
	}
	return name, email, true
}
