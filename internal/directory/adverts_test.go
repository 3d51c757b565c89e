package directory

import (
	"context"
	"testing"
	"time"

	"github.com/bananalabs-oss/clans/internal/events"
	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvertisementSingleton(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clan, _ := f.createClan(t, "Pirates")

	ok, err := f.dir.Adverts.Create(ctx, clan.ID, models.JoinOpen, models.Tariff12, "join us")
	require.NoError(t, err)
	require.True(t, ok)

	ad := f.dir.Adverts.Active(clan.ID)
	require.NotNil(t, ad)
	assert.Equal(t, f.clock.Now().Add(12*time.Hour), ad.ExpiresAt)

	ok, err = f.dir.Adverts.Create(ctx, clan.ID, models.JoinInvite, models.Tariff24, "again")
	require.NoError(t, err)
	assert.False(t, ok)

	f.clock.Advance(12 * time.Hour)
	assert.False(t, f.dir.Adverts.HasActive(clan.ID))
	assert.Nil(t, f.dir.Adverts.Active(clan.ID))

	ok, err = f.dir.Adverts.Create(ctx, clan.ID, models.JoinInvite, models.Tariff24, "again")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.JoinInvite, f.dir.Adverts.Active(clan.ID).JoinType)
}

func TestAdvertisementRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clan, _ := f.createClan(t, "Pirates")

	_, err := f.dir.Adverts.Create(ctx, clan.ID, models.JoinOpen, "TARIFF_99", "")
	assert.ErrorIs(t, err, ErrUnknownTariff)

	ok, err := f.dir.Adverts.Create(ctx, uuid.New(), models.JoinOpen, models.Tariff12, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdvertisementUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clan, _ := f.createClan(t, "Pirates")

	ok, err := f.dir.Adverts.UpdateText(ctx, clan.ID, "nothing live")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.dir.Adverts.Create(ctx, clan.ID, models.JoinOpen, models.Tariff12, "join us")
	require.NoError(t, err)

	ok, err = f.dir.Adverts.UpdateText(ctx, clan.ID, "we raid")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.dir.Adverts.UpdateJoinType(ctx, clan.ID, models.JoinInvite)
	require.NoError(t, err)
	assert.True(t, ok)

	live := f.dir.Adverts.Active(clan.ID)
	require.NotNil(t, live)
	assert.Equal(t, "we raid", live.Text)
	assert.Equal(t, models.JoinInvite, live.JoinType)

	stored, err := f.store.Advertisements.ListByClan(ctx, clan.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "we raid", stored[0].Text)

	f.clock.Advance(13 * time.Hour)
	ok, err = f.dir.Adverts.UpdateText(ctx, clan.ID, "too late")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdvertisementSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first, _ := f.createClan(t, "Pirates")
	second, _ := f.createClan(t, "Corsairs")

	_, err := f.dir.Adverts.Create(ctx, first.ID, models.JoinOpen, models.Tariff12, "")
	require.NoError(t, err)
	_, err = f.dir.Adverts.Create(ctx, second.ID, models.JoinOpen, models.Tariff24, "")
	require.NoError(t, err)

	f.clock.Advance(13 * time.Hour)
	assert.Len(t, f.dir.Adverts.AllActive(), 1)

	removed, err := f.dir.SweepAdverts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, cached := f.dir.Adverts.cache.Get(first.ID)
	assert.False(t, cached)
	assert.True(t, f.dir.Adverts.HasActive(second.ID))
	assert.Contains(t, f.events.Subjects(), events.AdvertsExpired)

	t.Run("idempotent", func(t *testing.T) {
		removed, err := f.dir.SweepAdverts(ctx)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("overlapping sweep is skipped", func(t *testing.T) {
		f.dir.Adverts.sweeping.Lock()
		defer f.dir.Adverts.sweeping.Unlock()

		removed, skipped, err := f.dir.Adverts.Sweep(ctx)
		require.NoError(t, err)
		assert.True(t, skipped)
		assert.Zero(t, removed)
	})
}

func TestRemoveAdvertisement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clan, _ := f.createClan(t, "Pirates")

	ok, err := f.dir.Adverts.Remove(ctx, clan.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.dir.Adverts.Create(ctx, clan.ID, models.JoinOpen, models.Tariff12, "")
	require.NoError(t, err)

	ok, err = f.dir.Adverts.Remove(ctx, clan.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, f.dir.Adverts.HasActive(clan.ID))
}
