package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/bananalabs-oss/clans/internal/cache"
	"github.com/bananalabs-oss/clans/internal/events"
	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/bananalabs-oss/clans/internal/store"
	"github.com/google/uuid"
)

// Adverts owns clan advertisements. A clan has at most one live
// advertisement; expired rows linger in cache until Sweep removes them.
type Adverts struct {
	*base
	dir   *Directory
	store store.AdvertisementStore
	cache *cache.EntityCache[uuid.UUID, []models.Advertisement] // by clan

	mu       sync.Mutex
	sweeping sync.Mutex
}

func newAdverts(b *base, d *Directory, st store.AdvertisementStore) *Adverts {
	return &Adverts{
		base:  b,
		dir:   d,
		store: st,
		cache: cache.New[uuid.UUID, []models.Advertisement]("advertisements"),
	}
}

func (a *Adverts) load(ads []models.Advertisement) {
	entries := make(map[uuid.UUID][]models.Advertisement)
	for _, ad := range ads {
		entries[ad.ClanID] = append(entries[ad.ClanID], ad)
	}
	a.cache.Load(entries)
}

func (a *Adverts) activeAt(clanID uuid.UUID) *models.Advertisement {
	now := a.now()
	ads, _ := a.cache.Get(clanID)
	for _, ad := range ads {
		if ad.LiveAt(now) {
			return &ad
		}
	}
	return nil
}

// Create lists the clan for the tariff's duration. It reports false if the
// clan does not exist or already has a live advertisement. Charging the
// tariff is up to the caller.
func (a *Adverts) Create(ctx context.Context, clanID uuid.UUID, joinType models.JoinType, tariff models.Tariff, text string) (bool, error) {
	plan, ok := a.settings.Tariff(tariff)
	if !ok {
		return false, ErrUnknownTariff
	}
	exists, err := a.dir.Clans.Exists(ctx, clanID)
	if err != nil || !exists {
		return false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.activeAt(clanID) != nil {
		return false, nil
	}

	now := a.now()
	ad := models.Advertisement{
		ClanID:    clanID,
		JoinType:  joinType,
		Tariff:    tariff,
		Text:      text,
		CreatedAt: now,
		ExpiresAt: now.Add(plan.Duration()),
	}
	if err := a.store.Insert(ctx, &ad); err != nil {
		return false, a.fail("advert.create", err)
	}

	ads, _ := a.cache.Get(clanID)
	a.cache.Put(clanID, append(append([]models.Advertisement(nil), ads...), ad))

	a.publish(events.AdvertCreated, events.ClanEvent{ClanID: clanID})
	return true, nil
}

func (a *Adverts) HasActive(clanID uuid.UUID) bool {
	return a.activeAt(clanID) != nil
}

// Active returns the clan's live advertisement, or nil.
func (a *Adverts) Active(clanID uuid.UUID) *models.Advertisement {
	return a.activeAt(clanID)
}

// AllActive lists every live advertisement, newest first.
func (a *Adverts) AllActive() []models.Advertisement {
	now := a.now()
	var out []models.Advertisement
	for _, ads := range a.cache.Values() {
		for _, ad := range ads {
			if ad.LiveAt(now) {
				out = append(out, ad)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (a *Adverts) UpdateJoinType(ctx context.Context, clanID uuid.UUID, joinType models.JoinType) (bool, error) {
	return a.updateLive(ctx, clanID, func(ad *models.Advertisement) { ad.JoinType = joinType })
}

func (a *Adverts) UpdateText(ctx context.Context, clanID uuid.UUID, text string) (bool, error) {
	return a.updateLive(ctx, clanID, func(ad *models.Advertisement) { ad.Text = text })
}

func (a *Adverts) updateLive(ctx context.Context, clanID uuid.UUID, fn func(*models.Advertisement)) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	live := a.activeAt(clanID)
	if live == nil {
		return false, nil
	}
	fn(live)
	if err := a.store.Update(ctx, live); err != nil {
		return false, a.fail("advert.update", err)
	}

	ads, _ := a.cache.Get(clanID)
	next := make([]models.Advertisement, len(ads))
	for i, ad := range ads {
		if ad.ID == live.ID {
			ad = *live
		}
		next[i] = ad
	}
	a.cache.Put(clanID, next)
	return true, nil
}

// Remove deletes every advertisement row of the clan, live or not.
func (a *Adverts) Remove(ctx context.Context, clanID uuid.UUID) (bool, error) {
	n, err := a.removeClan(ctx, clanID)
	return n > 0, err
}

func (a *Adverts) removeClan(ctx context.Context, clanID uuid.UUID) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, err := a.store.DeleteByClan(ctx, clanID)
	if err != nil {
		return 0, a.fail("advert.remove", err)
	}
	a.cache.Remove(clanID)
	return n, nil
}

// Sweep hard-deletes advertisements that have expired. Only one sweep runs
// at a time; an overlapping call returns immediately with skipped set.
func (a *Adverts) Sweep(ctx context.Context) (removed int, skipped bool, err error) {
	if !a.sweeping.TryLock() {
		return 0, true, nil
	}
	defer a.sweeping.Unlock()

	now := a.now()
	expired, err := a.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, false, a.fail("advert.sweep", err)
	}

	gone := make(map[int64]struct{}, len(expired))
	touched := make(map[uuid.UUID]struct{})
	for _, ad := range expired {
		gone[ad.ID] = struct{}{}
		touched[ad.ClanID] = struct{}{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for clanID := range touched {
		ads, _ := a.cache.Get(clanID)
		var keep []models.Advertisement
		for _, ad := range ads {
			if _, ok := gone[ad.ID]; !ok {
				keep = append(keep, ad)
			}
		}
		if len(keep) == 0 {
			a.cache.Remove(clanID)
		} else {
			a.cache.Put(clanID, keep)
		}
	}
	return len(expired), false, nil
}
