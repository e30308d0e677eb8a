package member

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"famcal/internal/config"
)

// DefaultName is the reserved directory entry used for events that no
// resolution step could attribute.
const DefaultName = "Family"

// defaultColor is used when neither the member nor the default entry
// configures one.
const defaultColor = "#6b7280"

// Directory is the read-only household member directory: name to
// color/initials, plus a matcher for title-prefix attribution compiled
// once at construction. Safe for unsynchronized concurrent reads.
type Directory struct {
	members  []config.Member
	byName   map[string]config.Member // keyed by lower-cased name
	fallback config.Member
	prefixRe *regexp.Regexp // nil when no members are configured
}

// NewDirectory builds a Directory from the configured member list. A
// configured "Family" entry customizes the fallback; otherwise a built-in
// one is used. Order is preserved for display.
func NewDirectory(members []config.Member) *Directory {
	d := &Directory{
		byName:   make(map[string]config.Member, len(members)+1),
		fallback: config.Member{Name: DefaultName, Color: defaultColor},
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		if m.Name == "" {
			continue
		}
		if strings.EqualFold(m.Name, DefaultName) {
			if m.Color != "" {
				d.fallback.Color = m.Color
			}
			if m.Initials != "" {
				d.fallback.Initials = m.Initials
			}
			continue
		}
		d.members = append(d.members, m)
		d.byName[strings.ToLower(m.Name)] = m
		names = append(names, regexp.QuoteMeta(m.Name))
	}
	d.byName[strings.ToLower(DefaultName)] = d.fallback

	if len(names) > 0 {
		d.prefixRe = regexp.MustCompile(`(?i)^(` + strings.Join(names, "|") + `):\s*`)
	}

	return d
}

// Members returns the configured entries followed by the fallback entry,
// with colors and initials filled in.
func (d *Directory) Members() []config.Member {
	out := make([]config.Member, 0, len(d.members)+1)
	for _, m := range d.members {
		color, initials := d.Lookup(m.Name)
		out = append(out, config.Member{Name: m.Name, Color: color, Initials: initials})
	}
	color, initials := d.Lookup(d.fallback.Name)
	out = append(out, config.Member{Name: d.fallback.Name, Color: color, Initials: initials})
	return out
}

// Default returns the reserved fallback entry.
func (d *Directory) Default() config.Member {
	return d.fallback
}

// Lookup returns the display color and initials for a resolved name.
// Unknown names get the fallback color; missing initials become the
// name's first letter, upper-cased.
func (d *Directory) Lookup(name string) (color, initials string) {
	m, ok := d.byName[strings.ToLower(name)]
	if !ok {
		m = config.Member{Name: name}
	}

	color = m.Color
	if color == "" {
		color = d.fallback.Color
	}

	initials = m.Initials
	if initials == "" && name != "" {
		r, _ := utf8.DecodeRuneInString(name)
		initials = string(unicode.ToUpper(r))
	}
	return color, initials
}

// canonicalName maps a case-insensitive match back to the configured
// spelling, so "mom:" resolves to "Mom".
func (d *Directory) canonicalName(name string) string {
	if m, ok := d.byName[strings.ToLower(name)]; ok {
		return m.Name
	}
	return capitalize(name)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
