package store

import (
	"context"
	"testing"
	"time"

	"github.com/bananalabs-oss/clans/internal/database"
	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := database.Connect("sqlite://:memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(ctx, db, zap.NewNop()))
	return NewBun(db)
}

func newClan(name string) *models.Clan {
	return &models.Clan{
		ID:            uuid.New(),
		Name:          "&a" + name,
		ColorlessName: name,
		CreatorID:     uuid.New(),
		OwnerID:       uuid.New(),
		CreatedAt:     time.Now().UTC(),
		Slots:         models.SlotsInitial,
	}
}

func TestClanStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	clan := newClan("Pirates")
	clan.News.Push("founded")
	require.NoError(t, s.Clans.Insert(ctx, clan))

	t.Run("get by id", func(t *testing.T) {
		got, err := s.Clans.Get(ctx, clan.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Pirates", got.ColorlessName)
		assert.Equal(t, models.News{"founded"}, got.News)
	})

	t.Run("get by name ignores case", func(t *testing.T) {
		got, err := s.Clans.GetByName(ctx, "pIRATES")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, clan.ID, got.ID)
	})

	t.Run("absent clan is nil without error", func(t *testing.T) {
		got, err := s.Clans.Get(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("treasury", func(t *testing.T) {
		require.NoError(t, s.Clans.SetTreasury(ctx, clan.ID, 750))
		got, err := s.Clans.Get(ctx, clan.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(750), got.Treasury)
	})

	t.Run("delete", func(t *testing.T) {
		ok, err := s.Clans.Delete(ctx, clan.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Clans.Delete(ctx, clan.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMemberStoreSingleMembership(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	player := uuid.New()
	first := &models.Member{ClanID: uuid.New(), PlayerID: player, PlayerName: "Ann", Role: models.RoleRecruit, JoinedAt: time.Now().UTC()}
	second := &models.Member{ClanID: uuid.New(), PlayerID: player, PlayerName: "Ann", Role: models.RoleRecruit, JoinedAt: time.Now().UTC()}

	require.NoError(t, s.Members.Insert(ctx, first))
	assert.Error(t, s.Members.Insert(ctx, second))

	got, err := s.Members.GetByName(ctx, first.ClanID, "ann")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, player, got.PlayerID)

	ok, err := s.Members.UpdateRole(ctx, player, models.RoleSenior)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = s.Members.GetByPlayer(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSenior, got.Role)
}

func TestInviteStoreDeleteCreatedBefore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clanID := uuid.New()
	old := &models.Invite{ClanID: clanID, PlayerID: uuid.New(), PlayerName: "old", CreatedAt: now.Add(-8 * 24 * time.Hour)}
	fresh := &models.Invite{ClanID: clanID, PlayerID: uuid.New(), PlayerName: "fresh", CreatedAt: now.Add(-time.Hour)}
	require.NoError(t, s.Invites.Insert(ctx, old))
	require.NoError(t, s.Invites.Insert(ctx, fresh))

	removed, err := s.Invites.DeleteCreatedBefore(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "old", removed[0].PlayerName)

	all, err := s.Invites.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "fresh", all[0].PlayerName)
}

func TestAdvertisementStoreDeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clanID := uuid.New()
	expired := &models.Advertisement{ClanID: clanID, JoinType: models.JoinOpen, Tariff: models.Tariff12, CreatedAt: now.Add(-13 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	live := &models.Advertisement{ClanID: clanID, JoinType: models.JoinInvite, Tariff: models.Tariff12, CreatedAt: now, ExpiresAt: now.Add(12 * time.Hour)}
	require.NoError(t, s.Advertisements.Insert(ctx, expired))
	require.NoError(t, s.Advertisements.Insert(ctx, live))
	assert.NotZero(t, expired.ID)
	assert.NotEqual(t, expired.ID, live.ID)

	removed, err := s.Advertisements.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, expired.ID, removed[0].ID)

	left, err := s.Advertisements.ListByClan(ctx, clanID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, models.JoinInvite, left[0].JoinType)
}

func TestScoreStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	player := uuid.New()
	score := &models.PlayerScore{PlayerID: player, PlayerName: "Ann", Scores: map[string]int{"kills": 3}}
	require.NoError(t, s.Scores.Insert(ctx, score))

	score.Scores["deaths"] = 1
	require.NoError(t, s.Scores.Update(ctx, score))

	got, err := s.Scores.Get(ctx, player)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, map[string]int{"kills": 3, "deaths": 1}, got.Scores)
}
