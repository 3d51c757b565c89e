package directory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bananalabs-oss/clans/internal/cache"
	"github.com/bananalabs-oss/clans/internal/events"
	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/bananalabs-oss/clans/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Clans owns clan rows.
type Clans struct {
	*base
	dir   *Directory
	store store.ClanStore
	cache *cache.EntityCache[uuid.UUID, models.Clan]
	loads singleflight.Group

	// writeMu serializes read-modify-write of a clan row within this process.
	writeMu sync.Mutex
}

func newClans(b *base, d *Directory, st store.ClanStore) *Clans {
	return &Clans{
		base:  b,
		dir:   d,
		store: st,
		cache: cache.New[uuid.UUID, models.Clan]("clans"),
	}
}

func (c *Clans) load(clans []models.Clan) {
	entries := make(map[uuid.UUID]models.Clan, len(clans))
	for _, clan := range clans {
		entries[clan.ID] = *clan.Clone()
	}
	c.cache.Load(entries)
}

// Create stores a new clan and its founder as the top-ranked member. It
// returns nil if the founder already belongs to a clan. If the founder row
// cannot be written the clan is still returned alongside the error;
// RepairOwners resolves such clans.
func (c *Clans) Create(ctx context.Context, name, colorlessName string, founderID uuid.UUID, founderName string) (*models.Clan, error) {
	inClan, err := c.dir.Members.InClan(ctx, founderID)
	if err != nil || inClan {
		return nil, err
	}

	clan := &models.Clan{
		ID:            uuid.New(),
		Name:          name,
		ColorlessName: colorlessName,
		News:          models.News{},
		CreatorID:     founderID,
		OwnerID:       founderID,
		CreatedAt:     c.now(),
		Slots:         models.SlotsInitial,
	}

	if err := c.store.Insert(ctx, clan); err != nil {
		return nil, c.fail("clan.create", err)
	}
	c.cache.Put(clan.ID, *clan.Clone())

	added, err := c.dir.Members.Add(ctx, clan.ID, founderID, founderName, models.TopRole)
	if err != nil {
		return clan.Clone(), err
	}
	if !added {
		// The founder joined another clan in the meantime.
		return nil, c.discard(ctx, clan.ID)
	}

	c.publish(events.ClanCreated, events.ClanEvent{ClanID: clan.ID, Name: clan.Name, OwnerID: founderID})
	return clan.Clone(), nil
}

// discard drops a clan row that never got its founder.
func (c *Clans) discard(ctx context.Context, id uuid.UUID) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.store.Delete(ctx, id); err != nil {
		return c.fail("clan.create", err)
	}
	c.cache.Remove(id)
	c.log.Warn("clan discarded, founder already in a clan", zap.String("clan_id", id.String()))
	return nil
}

// Get returns the clan or nil if it does not exist.
func (c *Clans) Get(ctx context.Context, id uuid.UUID) (*models.Clan, error) {
	if clan, ok := c.cache.Get(id); ok {
		return clan.Clone(), nil
	}

	v, err, _ := c.loads.Do(id.String(), func() (any, error) {
		clan, err := c.store.Get(ctx, id)
		if err != nil || clan == nil {
			return clan, err
		}
		c.cache.Put(clan.ID, *clan.Clone())
		return clan, nil
	})
	if err != nil {
		return nil, c.fail("clan.get", err)
	}
	if clan := v.(*models.Clan); clan != nil {
		return clan.Clone(), nil
	}
	return nil, nil
}

// GetByName matches the display or colorless name, ignoring case.
func (c *Clans) GetByName(ctx context.Context, name string) (*models.Clan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	clan, ok := c.cache.Find(func(_ uuid.UUID, cl models.Clan) bool {
		return strings.EqualFold(cl.Name, name) || strings.EqualFold(cl.ColorlessName, name)
	})
	if ok {
		return clan.Clone(), nil
	}

	v, err, _ := c.loads.Do("name:"+strings.ToLower(name), func() (any, error) {
		clan, err := c.store.GetByName(ctx, name)
		if err != nil || clan == nil {
			return clan, err
		}
		c.cache.Put(clan.ID, *clan.Clone())
		return clan, nil
	})
	if err != nil {
		return nil, c.fail("clan.get_by_name", err)
	}
	if clan := v.(*models.Clan); clan != nil {
		return clan.Clone(), nil
	}
	return nil, nil
}

func (c *Clans) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	clan, err := c.Get(ctx, id)
	return clan != nil, err
}

// All lists every cached clan ordered by colorless name.
func (c *Clans) All() []models.Clan {
	clans := c.cache.Values()
	sort.Slice(clans, func(i, j int) bool {
		return strings.ToLower(clans[i].ColorlessName) < strings.ToLower(clans[j].ColorlessName)
	})
	for i := range clans {
		clans[i].News = clans[i].News.Clone()
	}
	return clans
}

// Update persists every field of clan and overwrites the cached copy.
// Concurrent updates are last-writer-wins.
func (c *Clans) Update(ctx context.Context, clan *models.Clan) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.updateLocked(ctx, clan)
}

func (c *Clans) updateLocked(ctx context.Context, clan *models.Clan) error {
	if err := c.store.Update(ctx, clan); err != nil {
		return c.fail("clan.update", err)
	}
	c.cache.Put(clan.ID, *clan.Clone())
	return nil
}

// Modify applies fn to the current clan and persists the result. It reports
// false when the clan does not exist.
func (c *Clans) Modify(ctx context.Context, id uuid.UUID, fn func(*models.Clan)) (bool, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	clan, err := c.Get(ctx, id)
	if err != nil || clan == nil {
		return false, err
	}
	fn(clan)
	if err := c.updateLocked(ctx, clan); err != nil {
		return false, err
	}
	return true, nil
}

// PushNews records entry as the clan's newest news item.
func (c *Clans) PushNews(ctx context.Context, id uuid.UUID, entry string) (bool, error) {
	return c.Modify(ctx, id, func(clan *models.Clan) {
		clan.News.Push(entry)
	})
}

func (c *Clans) setOwner(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	return c.Modify(ctx, id, func(clan *models.Clan) {
		clan.OwnerID = ownerID
	})
}

// AddTreasury credits amount against the stored balance.
func (c *Clans) AddTreasury(ctx context.Context, id uuid.UUID, amount int64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	return c.adjustTreasury(ctx, id, amount)
}

// SubtractTreasury debits amount. The balance may go negative; callers check funds first.
func (c *Clans) SubtractTreasury(ctx context.Context, id uuid.UUID, amount int64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	return c.adjustTreasury(ctx, id, -amount)
}

func (c *Clans) adjustTreasury(ctx context.Context, id uuid.UUID, delta int64) (bool, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// The stored balance is authoritative; the cached one may lag behind another instance.
	clan, err := c.store.Get(ctx, id)
	if err != nil {
		return false, c.fail("clan.treasury", err)
	}
	if clan == nil {
		return false, nil
	}

	clan.Treasury += delta
	if err := c.store.SetTreasury(ctx, id, clan.Treasury); err != nil {
		return false, c.fail("clan.treasury", err)
	}
	c.cache.Put(clan.ID, *clan.Clone())

	c.publish(events.TreasuryChanged, events.ClanEvent{ClanID: id, Treasury: clan.Treasury})
	return true, nil
}

// Delete removes the clan with its members, invites and advertisements.
// It reports false if the clan did not exist.
func (c *Clans) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	clan, err := c.Get(ctx, id)
	if err != nil || clan == nil {
		return false, err
	}

	if _, err := c.dir.Members.removeClan(ctx, id); err != nil {
		return false, err
	}
	if _, err := c.dir.Invites.removeClan(ctx, id); err != nil {
		return false, err
	}
	if _, err := c.dir.Adverts.removeClan(ctx, id); err != nil {
		return false, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.store.Delete(ctx, id); err != nil {
		return false, c.fail("clan.delete", err)
	}
	c.cache.Remove(id)

	c.log.Info("clan deleted", zap.String("clan_id", id.String()), zap.String("name", clan.ColorlessName))
	c.publish(events.ClanDeleted, events.ClanEvent{ClanID: id, Name: clan.Name})
	return true, nil
}

// MaxMembers is the member capacity granted by the clan's slot tier.
func (c *Clans) MaxMembers(clan *models.Clan) int {
	return c.settings.MaxMembers(clan.Slots)
}
