package member

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"famcal/internal/config"
	"famcal/internal/model"
)

func testDirectory() *Directory {
	return NewDirectory([]config.Member{
		{Name: "Mom", Color: "#e11d48", Initials: "M"},
		{Name: "Dad", Color: "#2563eb"},
		{Name: "Zoe", Color: "#16a34a", Initials: "Z"},
	})
}

func TestResolve(t *testing.T) {
	dir := testDirectory()

	t.Run("explicit organizer property wins", func(t *testing.T) {
		attr := dir.Resolve(model.Occurrence{
			Summary:        "mom: dentist", // matching prefix must lose to the property
			OrganizerName:  "Dad",
			OrganizerEmail: "dad@example.com",
		})

		assert.Equal(t, model.SourceProperty, attr.Source)
		assert.Equal(t, "Dad", attr.Name)
		assert.Equal(t, "dad@example.com", attr.Email)
		assert.Equal(t, "#2563eb", attr.Color)
		assert.Empty(t, attr.Prefix)
	})

	t.Run("organizer with only an address uses the address as name", func(t *testing.T) {
		attr := dir.Resolve(model.Occurrence{
			Summary:        "Parent-teacher night",
			OrganizerEmail: "teacher@school.example",
		})

		assert.Equal(t, model.SourceProperty, attr.Source)
		assert.Equal(t, "teacher@school.example", attr.Name)
		// Unknown member: fallback color, first-letter initials.
		assert.Equal(t, dir.Default().Color, attr.Color)
		assert.Equal(t, "T", attr.Initials)
	})

	t.Run("title prefix matches case-insensitively and canonicalizes", func(t *testing.T) {
		attr := dir.Resolve(model.Occurrence{Summary: "mom: dentist"})

		assert.Equal(t, model.SourceTitlePrefix, attr.Source)
		assert.Equal(t, "Mom", attr.Name)
		assert.Equal(t, "#e11d48", attr.Color)
		assert.Equal(t, "M", attr.Initials)
		assert.Equal(t, "mom: ", attr.Prefix)
	})

	t.Run("prefix must be at the start of the title", func(t *testing.T) {
		attr := dir.Resolve(model.Occurrence{Summary: "call mom: reminder"})
		assert.Equal(t, model.SourceDefault, attr.Source)
	})

	t.Run("family prefix is not a member match", func(t *testing.T) {
		attr := dir.Resolve(model.Occurrence{Summary: "Family: game night"})
		assert.Equal(t, model.SourceDefault, attr.Source)
		assert.Equal(t, DefaultName, attr.Name)
	})

	t.Run("no signal resolves to the default entry", func(t *testing.T) {
		attr := dir.Resolve(model.Occurrence{Summary: "Dinner"})

		assert.Equal(t, model.SourceDefault, attr.Source)
		assert.Equal(t, DefaultName, attr.Name)
		assert.NotEmpty(t, attr.Color)
		assert.Equal(t, "F", attr.Initials)
	})

	t.Run("missing initials fall back to first letter", func(t *testing.T) {
		attr := dir.Resolve(model.Occurrence{Summary: "dad: oil change"})
		assert.Equal(t, "D", attr.Initials)
	})

	t.Run("resolution is deterministic", func(t *testing.T) {
		occ := model.Occurrence{Summary: "zoe: recital"}
		first := dir.Resolve(occ)
		second := dir.Resolve(occ)
		assert.Equal(t, first, second)
	})
}

func TestDirectory(t *testing.T) {
	t.Run("configured Family entry customizes the fallback", func(t *testing.T) {
		dir := NewDirectory([]config.Member{
			{Name: "Family", Color: "#0ea5e9", Initials: "FAM"},
			{Name: "Mom", Color: "#e11d48"},
		})

		assert.Equal(t, "#0ea5e9", dir.Default().Color)

		attr := dir.Resolve(model.Occurrence{Summary: "Dinner"})
		assert.Equal(t, "#0ea5e9", attr.Color)
		assert.Equal(t, "FAM", attr.Initials)
	})

	t.Run("empty directory still resolves to default", func(t *testing.T) {
		dir := NewDirectory(nil)

		attr := dir.Resolve(model.Occurrence{Summary: "mom: dentist"})
		assert.Equal(t, model.SourceDefault, attr.Source)
		assert.Equal(t, DefaultName, attr.Name)
		assert.NotEmpty(t, attr.Color)
	})

	t.Run("members listing preserves order and appends the fallback", func(t *testing.T) {
		dir := testDirectory()
		members := dir.Members()

		names := make([]string, 0, len(members))
		for _, m := range members {
			names = append(names, m.Name)
			assert.NotEmpty(t, m.Color)
			assert.NotEmpty(t, m.Initials)
		}
		assert.Equal(t, []string{"Mom", "Dad", "Zoe", DefaultName}, names)
	})

	t.Run("regex metacharacters in names are quoted", func(t *testing.T) {
		dir := NewDirectory([]config.Member{{Name: "J.R.", Color: "#000000"}})

		attr := dir.Resolve(model.Occurrence{Summary: "J.R.: piano"})
		assert.Equal(t, model.SourceTitlePrefix, attr.Source)
		assert.Equal(t, "J.R.", attr.Name)

		// The dot must not match arbitrary characters.
		attr = dir.Resolve(model.Occurrence{Summary: "JxRx: piano"})
		assert.Equal(t, model.SourceDefault, attr.Source)
	})
}
