package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bananalabs-oss/clans/internal/cache"
	"github.com/bananalabs-oss/clans/internal/events"
	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/bananalabs-oss/clans/internal/store"
	"github.com/google/uuid"
)

type inviteKey struct {
	clanID   uuid.UUID
	playerID uuid.UUID
}

func keyOf(inv models.Invite) inviteKey {
	return inviteKey{clanID: inv.ClanID, playerID: inv.PlayerID}
}

// Invites owns pending invitations. Invites older than the configured age
// are hidden from reads and removed by Sweep.
type Invites struct {
	*base
	dir   *Directory
	store store.InviteStore
	cache *cache.EntityCache[inviteKey, models.Invite]

	// mu guards both indexes and serializes writes to the canonical cache.
	mu       sync.Mutex
	byPlayer map[uuid.UUID]map[uuid.UUID]struct{} // player -> clans
	byClan   map[uuid.UUID]map[uuid.UUID]struct{} // clan -> players

	sweeping sync.Mutex
}

func newInvites(b *base, d *Directory, st store.InviteStore) *Invites {
	return &Invites{
		base:     b,
		dir:      d,
		store:    st,
		cache:    cache.New[inviteKey, models.Invite]("invites"),
		byPlayer: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		byClan:   make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func (i *Invites) load(invites []models.Invite) {
	i.mu.Lock()
	defer i.mu.Unlock()

	entries := make(map[inviteKey]models.Invite, len(invites))
	i.byPlayer = make(map[uuid.UUID]map[uuid.UUID]struct{})
	i.byClan = make(map[uuid.UUID]map[uuid.UUID]struct{})
	for _, inv := range invites {
		entries[keyOf(inv)] = inv
		i.indexLocked(inv)
	}
	i.cache.Load(entries)
}

func addTo(idx map[uuid.UUID]map[uuid.UUID]struct{}, outer, inner uuid.UUID) {
	set, ok := idx[outer]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		idx[outer] = set
	}
	set[inner] = struct{}{}
}

func removeFrom(idx map[uuid.UUID]map[uuid.UUID]struct{}, outer, inner uuid.UUID) {
	set := idx[outer]
	delete(set, inner)
	if len(set) == 0 {
		delete(idx, outer)
	}
}

func (i *Invites) indexLocked(inv models.Invite) {
	addTo(i.byPlayer, inv.PlayerID, inv.ClanID)
	addTo(i.byClan, inv.ClanID, inv.PlayerID)
}

func (i *Invites) evictLocked(key inviteKey) {
	i.cache.Remove(key)
	removeFrom(i.byPlayer, key.playerID, key.clanID)
	removeFrom(i.byClan, key.clanID, key.playerID)
}

func (i *Invites) cutoff() time.Time {
	return i.now().Add(-i.settings.Invites.ExpireAfter)
}

func (i *Invites) fresh(inv models.Invite) bool {
	return inv.CreatedAt.After(i.cutoff())
}

// Create invites the player. It reports false if the clan does not exist,
// the player is already in a clan, or an unexpired invite exists for the pair.
// An expired invite for the pair is replaced.
func (i *Invites) Create(ctx context.Context, clanID, playerID uuid.UUID, playerName string) (bool, error) {
	exists, err := i.dir.Clans.Exists(ctx, clanID)
	if err != nil || !exists {
		return false, err
	}
	inClan, err := i.dir.Members.InClan(ctx, playerID)
	if err != nil || inClan {
		return false, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	key := inviteKey{clanID: clanID, playerID: playerID}
	if existing, ok := i.cache.Get(key); ok {
		if i.fresh(existing) {
			return false, nil
		}
		if _, err := i.store.Delete(ctx, clanID, playerID); err != nil {
			return false, i.fail("invite.create", err)
		}
		i.evictLocked(key)
	}

	inv := models.Invite{
		ClanID:     clanID,
		PlayerID:   playerID,
		PlayerName: playerName,
		CreatedAt:  i.now(),
	}
	if err := i.store.Insert(ctx, &inv); err != nil {
		return false, i.fail("invite.create", err)
	}
	i.cache.Put(key, inv)
	i.indexLocked(inv)

	i.publish(events.InviteCreated, events.MemberEvent{ClanID: clanID, PlayerID: playerID, PlayerName: playerName})
	return true, nil
}

// Remove withdraws the invite. It reports false if there was none.
func (i *Invites) Remove(ctx context.Context, clanID, playerID uuid.UUID) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	key := inviteKey{clanID: clanID, playerID: playerID}
	if _, ok := i.cache.Get(key); !ok {
		return false, nil
	}
	ok, err := i.store.Delete(ctx, clanID, playerID)
	if err != nil {
		return false, i.fail("invite.remove", err)
	}
	i.evictLocked(key)
	return ok, nil
}

// Get returns the unexpired invite for the pair, or nil.
func (i *Invites) Get(clanID, playerID uuid.UUID) *models.Invite {
	inv, ok := i.cache.Get(inviteKey{clanID: clanID, playerID: playerID})
	if !ok || !i.fresh(inv) {
		return nil
	}
	return &inv
}

func (i *Invites) Has(clanID, playerID uuid.UUID) bool {
	return i.Get(clanID, playerID) != nil
}

// GetByName finds an unexpired invite of clanID by the invited player's name.
func (i *Invites) GetByName(clanID uuid.UUID, playerName string) *models.Invite {
	for _, inv := range i.ForClan(clanID) {
		if strings.EqualFold(inv.PlayerName, playerName) {
			return &inv
		}
	}
	return nil
}

// ForPlayer lists the player's unexpired invites, newest first.
func (i *Invites) ForPlayer(playerID uuid.UUID) []models.Invite {
	i.mu.Lock()
	keys := make([]inviteKey, 0, len(i.byPlayer[playerID]))
	for clanID := range i.byPlayer[playerID] {
		keys = append(keys, inviteKey{clanID: clanID, playerID: playerID})
	}
	i.mu.Unlock()
	return i.collect(keys)
}

// ForClan lists the clan's unexpired invites, newest first.
func (i *Invites) ForClan(clanID uuid.UUID) []models.Invite {
	i.mu.Lock()
	keys := make([]inviteKey, 0, len(i.byClan[clanID]))
	for playerID := range i.byClan[clanID] {
		keys = append(keys, inviteKey{clanID: clanID, playerID: playerID})
	}
	i.mu.Unlock()
	return i.collect(keys)
}

func (i *Invites) collect(keys []inviteKey) []models.Invite {
	out := make([]models.Invite, 0, len(keys))
	for _, key := range keys {
		if inv, ok := i.cache.Get(key); ok && i.fresh(inv) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

// Accept consumes the invite and then joins the player to the clan as a
// recruit. The invite is gone even when the join is refused.
func (i *Invites) Accept(ctx context.Context, clanID, playerID uuid.UUID) (bool, error) {
	inv := i.Get(clanID, playerID)
	if inv == nil {
		return false, nil
	}
	removed, err := i.Remove(ctx, clanID, playerID)
	if err != nil || !removed {
		return false, err
	}
	return i.dir.Members.Add(ctx, clanID, playerID, inv.PlayerName, models.RoleRecruit)
}

func (i *Invites) Decline(ctx context.Context, clanID, playerID uuid.UUID) (bool, error) {
	return i.Remove(ctx, clanID, playerID)
}

// RemoveAllForPlayer withdraws every invite addressed to the player.
func (i *Invites) RemoveAllForPlayer(ctx context.Context, playerID uuid.UUID) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	n, err := i.store.DeleteByPlayer(ctx, playerID)
	if err != nil {
		return 0, i.fail("invite.remove_player", err)
	}
	for clanID := range i.byPlayer[playerID] {
		i.evictLocked(inviteKey{clanID: clanID, playerID: playerID})
	}
	return n, nil
}

// removeClan withdraws every invite sent by the clan.
func (i *Invites) removeClan(ctx context.Context, clanID uuid.UUID) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	n, err := i.store.DeleteByClan(ctx, clanID)
	if err != nil {
		return 0, i.fail("invite.remove_clan", err)
	}
	for playerID := range i.byClan[clanID] {
		i.evictLocked(inviteKey{clanID: clanID, playerID: playerID})
	}
	return n, nil
}

// Sweep hard-deletes invites past the expiry age. Overlapping calls return
// immediately with skipped set.
func (i *Invites) Sweep(ctx context.Context) (removed int, skipped bool, err error) {
	if !i.sweeping.TryLock() {
		return 0, true, nil
	}
	defer i.sweeping.Unlock()

	cutoff := i.cutoff()
	stale, err := i.store.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, false, i.fail("invite.sweep", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for _, inv := range stale {
		i.evictLocked(keyOf(inv))
	}
	for _, inv := range i.cache.Values() {
		if !inv.CreatedAt.After(cutoff) {
			i.evictLocked(keyOf(inv))
		}
	}
	return len(stale), false, nil
}
