package directory

import (
	"context"
	"testing"
	"time"

	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteUniqueness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clan, _ := f.createClan(t, "Pirates")
	p := uuid.New()

	ok, err := f.dir.Invites.Create(ctx, clan.ID, p, "P")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.dir.Invites.Create(ctx, clan.ID, p, "P")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Len(t, f.dir.Invites.ForPlayer(p), 1)
	assert.Len(t, f.dir.Invites.ForClan(clan.ID), 1)

	stored, err := f.store.Invites.All(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCreateInviteRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clan, founder := f.createClan(t, "Pirates")

	t.Run("unknown clan", func(t *testing.T) {
		ok, err := f.dir.Invites.Create(ctx, uuid.New(), uuid.New(), "P")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("player already in a clan", func(t *testing.T) {
		ok, err := f.dir.Invites.Create(ctx, clan.ID, founder, "F")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestInviteLookups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first, _ := f.createClan(t, "Pirates")
	second, _ := f.createClan(t, "Corsairs")
	p := uuid.New()

	_, err := f.dir.Invites.Create(ctx, first.ID, p, "Anne")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.dir.Invites.Create(ctx, second.ID, p, "Anne")
	require.NoError(t, err)

	invites := f.dir.Invites.ForPlayer(p)
	require.Len(t, invites, 2)
	assert.Equal(t, second.ID, invites[0].ClanID)

	inv := f.dir.Invites.GetByName(first.ID, "anne")
	require.NotNil(t, inv)
	assert.Equal(t, p, inv.PlayerID)
	assert.Nil(t, f.dir.Invites.GetByName(first.ID, "bob"))

	assert.True(t, f.dir.Invites.Has(first.ID, p))
	assert.False(t, f.dir.Invites.Has(first.ID, uuid.New()))
}

func TestAcceptInvite(t *testing.T) {
	ctx := context.Background()

	t.Run("joins and withdraws other invites", func(t *testing.T) {
		f := newFixture(t)
		first, _ := f.createClan(t, "Pirates")
		second, _ := f.createClan(t, "Corsairs")
		p := uuid.New()

		_, err := f.dir.Invites.Create(ctx, first.ID, p, "Anne")
		require.NoError(t, err)
		_, err = f.dir.Invites.Create(ctx, second.ID, p, "Anne")
		require.NoError(t, err)

		ok, err := f.dir.Invites.Accept(ctx, first.ID, p)
		require.NoError(t, err)
		require.True(t, ok)

		member, err := f.dir.Members.Get(ctx, p)
		require.NoError(t, err)
		require.NotNil(t, member)
		assert.Equal(t, first.ID, member.ClanID)
		assert.Equal(t, "Anne", member.PlayerName)
		assert.Equal(t, models.RoleRecruit, member.Role)

		assert.Empty(t, f.dir.Invites.ForPlayer(p))
		stored, err := f.store.Invites.All(ctx)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("refused join still consumes the invite", func(t *testing.T) {
		f := newFixture(t)
		first, _ := f.createClan(t, "Pirates")
		second, _ := f.createClan(t, "Corsairs")
		p := uuid.New()

		_, err := f.dir.Invites.Create(ctx, first.ID, p, "Anne")
		require.NoError(t, err)

		// Simulate a join elsewhere that bypassed the invite cleanup.
		require.NoError(t, f.store.Members.Insert(ctx, &models.Member{
			ClanID: second.ID, PlayerID: p, PlayerName: "Anne", Role: models.RoleRecruit, JoinedAt: f.clock.Now(),
		}))

		ok, err := f.dir.Invites.Accept(ctx, first.ID, p)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, f.dir.Invites.Has(first.ID, p))

		stored, err := f.store.Invites.Get(ctx, first.ID, p)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("no invite", func(t *testing.T) {
		f := newFixture(t)
		clan, _ := f.createClan(t, "Pirates")
		ok, err := f.dir.Invites.Accept(ctx, clan.ID, uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDeclineInvite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clan, _ := f.createClan(t, "Pirates")
	p := uuid.New()
	_, err := f.dir.Invites.Create(ctx, clan.ID, p, "P")
	require.NoError(t, err)

	ok, err := f.dir.Invites.Decline(ctx, clan.ID, p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.dir.Invites.Decline(ctx, clan.ID, p)
	require.NoError(t, err)
	assert.False(t, ok)

	inClan, err := f.dir.Members.InClan(ctx, p)
	require.NoError(t, err)
	assert.False(t, inClan)
}

func TestInviteExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clan, _ := f.createClan(t, "Pirates")
	stale, fresh := uuid.New(), uuid.New()

	_, err := f.dir.Invites.Create(ctx, clan.ID, stale, "Stale")
	require.NoError(t, err)
	f.clock.Advance(6 * 24 * time.Hour)
	_, err = f.dir.Invites.Create(ctx, clan.ID, fresh, "Fresh")
	require.NoError(t, err)
	f.clock.Advance(24*time.Hour + time.Second)

	t.Run("reads hide expired invites", func(t *testing.T) {
		invites := f.dir.Invites.ForClan(clan.ID)
		require.Len(t, invites, 1)
		assert.Equal(t, fresh, invites[0].PlayerID)
		assert.False(t, f.dir.Invites.Has(clan.ID, stale))

		ok, err := f.dir.Invites.Accept(ctx, clan.ID, stale)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("sweep hard deletes", func(t *testing.T) {
		removed, err := f.dir.SweepInvites(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		_, cached := f.dir.Invites.cache.Get(inviteKey{clanID: clan.ID, playerID: stale})
		assert.False(t, cached)
		stored, err := f.store.Invites.Get(ctx, clan.ID, stale)
		require.NoError(t, err)
		assert.Nil(t, stored)

		removed, err = f.dir.SweepInvites(ctx)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("expired invite can be reissued", func(t *testing.T) {
		f.clock.Advance(7 * 24 * time.Hour)
		ok, err := f.dir.Invites.Create(ctx, clan.ID, fresh, "Fresh")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, f.dir.Invites.Has(clan.ID, fresh))
	})
}
