package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"famcal/internal/model"
)

func TestNormalize(t *testing.T) {
	start := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	occ := model.Occurrence{
		UID:         "ev-1",
		InstanceKey: "ev-1/2025-06-20T14:00:00Z",
		Summary:     "mom: dentist",
		Description: "Bring insurance card",
		Start:       start,
		End:         end,
	}

	t.Run("title prefix is stripped when it was the resolution source", func(t *testing.T) {
		inst := Normalize(occ, model.Attribution{
			Name:   "Mom",
			Source: model.SourceTitlePrefix,
			Color:  "#e11d48",
			Prefix: "mom: ",
		})

		assert.Equal(t, "dentist", inst.Title)
		assert.Equal(t, "ev-1/2025-06-20T14:00:00Z", inst.ID)
		assert.Equal(t, "#e11d48", inst.Color)
		assert.Equal(t, "#e11d48", inst.BorderColor)
		assert.NotEmpty(t, inst.TextColor)
	})

	t.Run("title is untouched for other resolution sources", func(t *testing.T) {
		inst := Normalize(occ, model.Attribution{Name: "Dad", Source: model.SourceProperty})
		assert.Equal(t, "mom: dentist", inst.Title)
	})

	t.Run("empty title becomes the placeholder", func(t *testing.T) {
		blank := occ
		blank.Summary = ""
		inst := Normalize(blank, model.Attribution{Name: "Family", Source: model.SourceDefault})
		assert.Equal(t, PlaceholderTitle, inst.Title)
	})

	t.Run("title that is only a prefix becomes the placeholder", func(t *testing.T) {
		only := occ
		only.Summary = "mom: "
		inst := Normalize(only, model.Attribution{
			Name:   "Mom",
			Source: model.SourceTitlePrefix,
			Prefix: "mom: ",
		})
		assert.Equal(t, PlaceholderTitle, inst.Title)
	})

	t.Run("timing fields are invariant under organizer resolution", func(t *testing.T) {
		byPrefix := Normalize(occ, model.Attribution{
			Name:   "Mom",
			Source: model.SourceTitlePrefix,
			Color:  "#e11d48",
			Prefix: "mom: ",
		})
		byDefault := Normalize(occ, model.Attribution{
			Name:   "Family",
			Source: model.SourceDefault,
			Color:  "#6b7280",
		})

		assert.Equal(t, byPrefix.ID, byDefault.ID)
		assert.Equal(t, byPrefix.Start, byDefault.Start)
		assert.Equal(t, byPrefix.End, byDefault.End)
		assert.Equal(t, byPrefix.AllDay, byDefault.AllDay)
	})
}
