package directory

import (
	"context"
	"testing"

	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreFloor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := uuid.New()

	require.NoError(t, f.dir.Scores.Set(ctx, p, "P", "k", 5))
	require.NoError(t, f.dir.Scores.Remove(ctx, p, "P", "k", 10))

	assert.Equal(t, 0, f.dir.Scores.PlayerScore(p, "k"))
	stored, err := f.store.Scores.Get(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Scores["k"])
}

func TestScoreFloorProperty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("score never drops below zero", prop.ForAll(
		func(start int, deltas []int) bool {
			p := uuid.New()
			if err := f.dir.Scores.Set(ctx, p, "P", "kills", start); err != nil {
				return false
			}
			expected := start
			for _, d := range deltas {
				var err error
				if d >= 0 {
					err = f.dir.Scores.Add(ctx, p, "P", "kills", d)
					expected += d
				} else {
					err = f.dir.Scores.Remove(ctx, p, "P", "kills", -d)
					expected = max(expected+d, 0)
				}
				if err != nil {
					return false
				}
				if f.dir.Scores.PlayerScore(p, "kills") < 0 {
					return false
				}
			}
			return f.dir.Scores.PlayerScore(p, "kills") == expected
		},
		gen.IntRange(0, 100),
		gen.SliceOfN(8, gen.IntRange(-60, 60)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestScoreMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := uuid.New()

	t.Run("first use creates the row", func(t *testing.T) {
		assert.Nil(t, f.dir.Scores.PlayerScores(p))
		assert.Equal(t, 0, f.dir.Scores.PlayerScore(p, "kills"))

		require.NoError(t, f.dir.Scores.Add(ctx, p, "Anne", "kills", 3))
		row := f.dir.Scores.PlayerScores(p)
		require.NotNil(t, row)
		assert.Equal(t, "Anne", row.PlayerName)
		assert.Equal(t, map[string]int{"kills": 3}, row.Scores)
	})

	t.Run("add reads storage", func(t *testing.T) {
		require.NoError(t, f.store.Scores.Update(ctx, &models.PlayerScore{PlayerID: p, PlayerName: "Anne", Scores: map[string]int{"kills": 10}}))
		require.NoError(t, f.dir.Scores.Add(ctx, p, "Anne", "kills", 1))
		assert.Equal(t, 11, f.dir.Scores.PlayerScore(p, "kills"))
	})

	t.Run("invalid input", func(t *testing.T) {
		assert.ErrorIs(t, f.dir.Scores.Add(ctx, p, "Anne", "kills", -1), ErrInvalidAmount)
		assert.ErrorIs(t, f.dir.Scores.Set(ctx, p, "Anne", " ", 1), ErrInvalidCategory)
	})

	t.Run("reset one category", func(t *testing.T) {
		require.NoError(t, f.dir.Scores.Set(ctx, p, "Anne", "wins", 2))

		ok, err := f.dir.Scores.Reset(ctx, p, "kills")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 0, f.dir.Scores.PlayerScore(p, "kills"))
		assert.Equal(t, 2, f.dir.Scores.PlayerScore(p, "wins"))

		ok, err = f.dir.Scores.Reset(ctx, p, "kills")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("reset all", func(t *testing.T) {
		ok, err := f.dir.Scores.ResetAll(ctx, p)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Nil(t, f.dir.Scores.PlayerScores(p))

		stored, err := f.store.Scores.Get(ctx, p)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})
}

func TestClanScores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clan, founder := f.createClan(t, "Pirates")
	anne, bob, outsider := uuid.New(), uuid.New(), uuid.New()

	for _, p := range []struct {
		id   uuid.UUID
		name string
	}{{anne, "Anne"}, {bob, "Bob"}} {
		ok, err := f.dir.Members.Add(ctx, clan.ID, p.id, p.name, models.RoleRecruit)
		require.NoError(t, err)
		require.True(t, ok)
	}

	require.NoError(t, f.dir.Scores.Set(ctx, founder, "PiratesFounder", "kills", 1))
	require.NoError(t, f.dir.Scores.Set(ctx, anne, "Anne", "kills", 7))
	require.NoError(t, f.dir.Scores.Set(ctx, anne, "Anne", "wins", 2))
	require.NoError(t, f.dir.Scores.Set(ctx, bob, "Bob", "kills", 4))
	require.NoError(t, f.dir.Scores.Set(ctx, outsider, "Out", "kills", 100))

	t.Run("per category and total", func(t *testing.T) {
		kills, err := f.dir.Scores.ClanScore(ctx, clan.ID, "kills")
		require.NoError(t, err)
		assert.Equal(t, int64(12), kills)

		all, err := f.dir.Scores.ClanScore(ctx, clan.ID, AllCategories)
		require.NoError(t, err)
		assert.Equal(t, int64(14), all)
	})

	t.Run("top", func(t *testing.T) {
		top, err := f.dir.Scores.ClanTop(ctx, clan.ID, "kills", 2)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, "Anne", top[0].PlayerName)
		assert.Equal(t, int64(7), top[0].Score)
		assert.Equal(t, "Bob", top[1].PlayerName)

		top, err = f.dir.Scores.ClanTop(ctx, clan.ID, "kills", 0)
		require.NoError(t, err)
		assert.Len(t, top, 3)
	})

	t.Run("bottom", func(t *testing.T) {
		bottom, err := f.dir.Scores.ClanBottom(ctx, clan.ID, "kills", 2)
		require.NoError(t, err)
		require.Len(t, bottom, 2)
		assert.Equal(t, "PiratesFounder", bottom[0].PlayerName)
		assert.Equal(t, int64(1), bottom[0].Score)
		assert.Equal(t, "Bob", bottom[1].PlayerName)

		bottom, err = f.dir.Scores.ClanBottom(ctx, clan.ID, "wins", 0)
		require.NoError(t, err)
		require.Len(t, bottom, 3)
		assert.Equal(t, "Anne", bottom[2].PlayerName)
	})

	t.Run("member scores", func(t *testing.T) {
		rows, err := f.dir.Scores.ClanMemberScores(ctx, clan.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("derived from current members", func(t *testing.T) {
		_, err := f.dir.Members.Remove(ctx, anne)
		require.NoError(t, err)

		kills, err := f.dir.Scores.ClanScore(ctx, clan.ID, "kills")
		require.NoError(t, err)
		assert.Equal(t, int64(5), kills)
	})
}

func TestTopClans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alpha, alphaFounder := f.createClan(t, "Alpha")
	beta, betaFounder := f.createClan(t, "Beta")
	gamma, _ := f.createClan(t, "Gamma")

	mate := uuid.New()
	_, err := f.dir.Members.Add(ctx, beta.ID, mate, "Mate", models.RoleRecruit)
	require.NoError(t, err)

	require.NoError(t, f.dir.Scores.Set(ctx, alphaFounder, "A", "kills", 5))
	require.NoError(t, f.dir.Scores.Set(ctx, betaFounder, "B", "kills", 3))
	require.NoError(t, f.dir.Scores.Set(ctx, mate, "Mate", "wins", 4))

	ranks, err := f.dir.Scores.TopClans(ctx, AllCategories, 0)
	require.NoError(t, err)
	require.Len(t, ranks, 3)
	assert.Equal(t, beta.ID, ranks[0].ClanID)
	assert.Equal(t, int64(7), ranks[0].Score)
	assert.Equal(t, 2, ranks[0].Members)
	assert.Equal(t, 1, ranks[0].Position)
	assert.Equal(t, alpha.ID, ranks[1].ClanID)
	assert.Equal(t, gamma.ID, ranks[2].ClanID)
	assert.Equal(t, 3, ranks[2].Position)

	ranks, err = f.dir.Scores.TopClans(ctx, "kills", 1)
	require.NoError(t, err)
	require.Len(t, ranks, 1)
	assert.Equal(t, alpha.ID, ranks[0].ClanID)
}
