package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file creates defaults and env fills the gaps", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		t.Setenv("FAMCAL_FEED_URL", "webcal://example.com/family.ics")
		t.Setenv("FAMCAL_FEED_SECRET", "s3cret")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
		assert.Equal(t, "*/5 * * * *", cfg.RefreshCron)
		assert.Equal(t, "webcal://example.com/family.ics", cfg.FeedURL)
		assert.Equal(t, "s3cret", cfg.FeedSecret)
		require.NoError(t, cfg.Validate())

		// The default file was persisted for the operator to edit.
		_, statErr := os.Stat(path)
		assert.NoError(t, statErr)
	})

	t.Run("file values load and env overrides them", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `listen: "0.0.0.0:9090"
feed_url: "https://example.com/file.ics"
feed_secret: "from-file"
timezone: "America/New_York"
refresh: "*/10 * * * *"
members:
  - name: Mom
    color: "#e11d48"
    initials: M
  - name: Dad
    color: "#2563eb"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		t.Setenv("FAMCAL_FEED_SECRET", "from-env")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0:9090", cfg.Listen)
		assert.Equal(t, "https://example.com/file.ics", cfg.FeedURL)
		assert.Equal(t, "from-env", cfg.FeedSecret, "env layer wins over the file")
		assert.Equal(t, "America/New_York", cfg.Timezone)
		assert.Equal(t, "*/10 * * * *", cfg.RefreshCron)
		require.Len(t, cfg.Members, 2)
		assert.Equal(t, "Mom", cfg.Members[0].Name)
		assert.Equal(t, "#2563eb", cfg.Members[1].Color)
	})

	t.Run("empty path skips the file layer", func(t *testing.T) {
		t.Setenv("FAMCAL_FEED_URL", "https://example.com/family.ics")
		t.Setenv("FAMCAL_FEED_SECRET", "s3cret")

		cfg, err := Load("")
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
	})
}

func TestValidate(t *testing.T) {
	t.Run("missing feed URL", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FeedSecret = "s3cret"
		assert.ErrorContains(t, cfg.Validate(), "feed_url")
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FeedURL = "https://example.com/family.ics"
		assert.ErrorContains(t, cfg.Validate(), "feed_secret")
	})

	t.Run("whitespace-only values are missing", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FeedURL = "  "
		cfg.FeedSecret = "s3cret"
		assert.Error(t, cfg.Validate())
	})
}

func TestSave(t *testing.T) {
	t.Run("round-trips through Load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")
		cfg := &Config{
			Listen:     "127.0.0.1:7070",
			FeedURL:    "https://example.com/family.ics",
			FeedSecret: "s3cret",
			Members:    []Member{{Name: "Zoe", Color: "#16a34a", Initials: "Z"}},
		}
		require.NoError(t, Save(path, cfg))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, cfg.Listen, loaded.Listen)
		assert.Equal(t, cfg.FeedURL, loaded.FeedURL)
		require.Len(t, loaded.Members, 1)
		assert.Equal(t, "Zoe", loaded.Members[0].Name)
	})

	t.Run("nil config is rejected", func(t *testing.T) {
		assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		assert.Error(t, Save("", DefaultConfig()))
	})
}
