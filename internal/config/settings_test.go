package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		s, err := LoadSettings(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)

		assert.Equal(t, 7*24*time.Hour, s.Invites.ExpireAfter)
		assert.Equal(t, time.Hour, s.Ad.SweepInterval)
		assert.Equal(t, 10, s.MaxMembers(models.SlotsInitial))
		assert.Equal(t, 15, s.MaxMembers(models.SlotsFirst))

		plan, ok := s.Tariff(models.Tariff12)
		require.True(t, ok)
		assert.Equal(t, 12*time.Hour, plan.Duration())
		assert.Equal(t, int64(5000), plan.Cost)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.toml")
		content := `
[invites]
expire_after = "48h"

[ad.tariffs.tariff_24]
hours = 36
cost = 1000

[slots.initial]
plus = 4

[restrictions]
max_name_length = 16
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		s, err := LoadSettings(path)
		require.NoError(t, err)

		assert.Equal(t, 48*time.Hour, s.Invites.ExpireAfter)
		assert.Equal(t, 24*time.Hour, s.Invites.SweepInterval)
		assert.Equal(t, 16, s.Restrictions.MaxNameLength)
		assert.Equal(t, 3, s.Restrictions.MinNameLength)
		assert.Equal(t, 4, s.MaxMembers(models.SlotsInitial))

		plan, ok := s.Tariff(models.Tariff24)
		require.True(t, ok)
		assert.Equal(t, 36*time.Hour, plan.Duration())
		assert.Equal(t, int64(1000), plan.Cost)
	})

	t.Run("unknown tariff", func(t *testing.T) {
		_, ok := DefaultSettings().Tariff("TARIFF_99")
		assert.False(t, ok)
	})

	t.Run("upgrade cost is the next tier's price", func(t *testing.T) {
		s := DefaultSettings()
		assert.Equal(t, s.Slots["first"].Cost, s.UpgradeCost(models.SlotsInitial))
	})
}
