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

// Members owns membership rows. A player belongs to at most one clan.
type Members struct {
	*base
	dir   *Directory
	store store.MemberStore
	cache *cache.EntityCache[uuid.UUID, models.Member] // by player
	loads singleflight.Group

	// mu guards byClan and serializes membership writes.
	mu     sync.Mutex
	byClan map[uuid.UUID]map[uuid.UUID]struct{}
}

func newMembers(b *base, d *Directory, st store.MemberStore) *Members {
	return &Members{
		base:   b,
		dir:    d,
		store:  st,
		cache:  cache.New[uuid.UUID, models.Member]("members"),
		byClan: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func (m *Members) load(members []models.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make(map[uuid.UUID]models.Member, len(members))
	m.byClan = make(map[uuid.UUID]map[uuid.UUID]struct{})
	for _, member := range members {
		entries[member.PlayerID] = member
		m.indexLocked(member)
	}
	m.cache.Load(entries)
}

func (m *Members) indexLocked(member models.Member) {
	set, ok := m.byClan[member.ClanID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		m.byClan[member.ClanID] = set
	}
	set[member.PlayerID] = struct{}{}
}

func (m *Members) unindexLocked(member models.Member) {
	set := m.byClan[member.ClanID]
	delete(set, member.PlayerID)
	if len(set) == 0 {
		delete(m.byClan, member.ClanID)
	}
}

func (m *Members) cachePut(member models.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cache.Get(member.PlayerID); ok {
		return
	}
	m.cache.Put(member.PlayerID, member)
	m.indexLocked(member)
}

// Get returns the player's membership, or nil if the player is in no clan.
func (m *Members) Get(ctx context.Context, playerID uuid.UUID) (*models.Member, error) {
	if member, ok := m.cache.Get(playerID); ok {
		return &member, nil
	}

	v, err, _ := m.loads.Do(playerID.String(), func() (any, error) {
		member, err := m.store.GetByPlayer(ctx, playerID)
		if err != nil || member == nil {
			return member, err
		}
		m.cachePut(*member)
		return member, nil
	})
	if err != nil {
		return nil, m.fail("member.get", err)
	}
	if member := v.(*models.Member); member != nil {
		out := *member
		return &out, nil
	}
	return nil, nil
}

func (m *Members) InClan(ctx context.Context, playerID uuid.UUID) (bool, error) {
	member, err := m.Get(ctx, playerID)
	return member != nil, err
}

// IsMemberOf reports whether the player belongs to that specific clan.
func (m *Members) IsMemberOf(ctx context.Context, clanID, playerID uuid.UUID) (bool, error) {
	member, err := m.Get(ctx, playerID)
	if err != nil || member == nil {
		return false, err
	}
	return member.ClanID == clanID, nil
}

// Role returns the player's role; ok is false when the player is in no clan.
func (m *Members) Role(ctx context.Context, playerID uuid.UUID) (role models.Role, ok bool, err error) {
	member, err := m.Get(ctx, playerID)
	if err != nil || member == nil {
		return "", false, err
	}
	return member.Role, true, nil
}

// Member returns the player's membership only if it is in clanID.
func (m *Members) Member(ctx context.Context, clanID, playerID uuid.UUID) (*models.Member, error) {
	member, err := m.Get(ctx, playerID)
	if err != nil || member == nil || member.ClanID != clanID {
		return nil, err
	}
	return member, nil
}

func (m *Members) MemberByName(ctx context.Context, clanID uuid.UUID, name string) (*models.Member, error) {
	members, err := m.List(ctx, clanID)
	if err != nil {
		return nil, err
	}
	for _, member := range members {
		if strings.EqualFold(member.PlayerName, name) {
			return &member, nil
		}
	}

	member, err := m.store.GetByName(ctx, clanID, name)
	if err != nil {
		return nil, m.fail("member.get_by_name", err)
	}
	if member != nil {
		m.cachePut(*member)
	}
	return member, nil
}

// List returns the clan's members, highest role first, then by tenure.
func (m *Members) List(ctx context.Context, clanID uuid.UUID) ([]models.Member, error) {
	members := m.cached(clanID)
	if len(members) == 0 {
		stored, err := m.store.ListByClan(ctx, clanID)
		if err != nil {
			return nil, m.fail("member.list", err)
		}
		for _, member := range stored {
			m.cachePut(member)
		}
		members = m.cached(clanID)
	}

	sort.Slice(members, func(i, j int) bool {
		ri, rj := members[i].Role.Rank(), members[j].Role.Rank()
		if ri != rj {
			return ri > rj
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (m *Members) cached(clanID uuid.UUID) []models.Member {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Member, 0, len(m.byClan[clanID]))
	for playerID := range m.byClan[clanID] {
		if member, ok := m.cache.Get(playerID); ok {
			out = append(out, member)
		}
	}
	return out
}

func (m *Members) Count(ctx context.Context, clanID uuid.UUID) (int, error) {
	members, err := m.List(ctx, clanID)
	return len(members), err
}

// Add records a membership. It reports false if the clan does not exist or
// the player already belongs to a clan. A successful join withdraws every
// pending invite of the player; if that cleanup fails the membership stands
// and the error is returned with true.
func (m *Members) Add(ctx context.Context, clanID, playerID uuid.UUID, playerName string, role models.Role) (bool, error) {
	if !role.Valid() {
		role = models.RoleRecruit
	}

	exists, err := m.dir.Clans.Exists(ctx, clanID)
	if err != nil || !exists {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cache.Get(playerID); ok {
		return false, nil
	}
	stored, err := m.store.GetByPlayer(ctx, playerID)
	if err != nil {
		return false, m.fail("member.add", err)
	}
	if stored != nil {
		m.cache.Put(stored.PlayerID, *stored)
		m.indexLocked(*stored)
		return false, nil
	}

	member := models.Member{
		ClanID:     clanID,
		PlayerID:   playerID,
		PlayerName: playerName,
		Role:       role,
		JoinedAt:   m.now(),
	}
	if err := m.store.Insert(ctx, &member); err != nil {
		return false, m.fail("member.add", err)
	}
	m.cache.Put(playerID, member)
	m.indexLocked(member)

	m.publish(events.MemberJoined, events.MemberEvent{ClanID: clanID, PlayerID: playerID, PlayerName: playerName, Role: string(role)})

	if _, err := m.dir.Invites.RemoveAllForPlayer(ctx, playerID); err != nil {
		return true, err
	}
	return true, nil
}

// Remove deletes the player's membership. It reports false if there was none.
func (m *Members) Remove(ctx context.Context, playerID uuid.UUID) (bool, error) {
	member, err := m.Get(ctx, playerID)
	if err != nil || member == nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ok, err := m.store.Delete(ctx, playerID)
	if err != nil {
		return false, m.fail("member.remove", err)
	}
	m.cache.Remove(playerID)
	m.unindexLocked(*member)
	if !ok {
		return false, nil
	}

	m.publish(events.MemberLeft, events.MemberEvent{ClanID: member.ClanID, PlayerID: playerID, PlayerName: member.PlayerName})
	return true, nil
}

// UpdateRole changes the player's role. It does not keep the top role unique;
// use TransferOwnership for that.
func (m *Members) UpdateRole(ctx context.Context, playerID uuid.UUID, role models.Role) (bool, error) {
	if !role.Valid() {
		return false, nil
	}
	member, err := m.Get(ctx, playerID)
	if err != nil || member == nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.cache.Get(playerID)
	if !ok || current.ClanID != member.ClanID {
		return false, nil
	}
	return m.updateRoleLocked(ctx, current, role)
}

func (m *Members) updateRoleLocked(ctx context.Context, member models.Member, role models.Role) (bool, error) {
	ok, err := m.store.UpdateRole(ctx, member.PlayerID, role)
	if err != nil {
		return false, m.fail("member.update_role", err)
	}
	if !ok {
		return false, nil
	}
	member.Role = role
	m.cache.Put(member.PlayerID, member)

	m.publish(events.MemberRole, events.MemberEvent{ClanID: member.ClanID, PlayerID: member.PlayerID, PlayerName: member.PlayerName, Role: string(role)})
	return true, nil
}

// TransferOwnership makes newOwnerID the clan's sole top-role member and owner.
// Every other top-role holder drops one rank. It reports false if the target
// is not a member of the clan.
func (m *Members) TransferOwnership(ctx context.Context, clanID, newOwnerID uuid.UUID) (bool, error) {
	target, err := m.Member(ctx, clanID, newOwnerID)
	if err != nil || target == nil {
		return false, err
	}
	members, err := m.List(ctx, clanID)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, member := range members {
		if member.PlayerID == newOwnerID || member.Role != models.TopRole {
			continue
		}
		if _, err := m.updateRoleLocked(ctx, member, models.TopRole.Previous()); err != nil {
			return false, err
		}
	}
	if target.Role != models.TopRole {
		if _, err := m.updateRoleLocked(ctx, *target, models.TopRole); err != nil {
			return false, err
		}
	}

	ok, err := m.dir.Clans.setOwner(ctx, clanID, newOwnerID)
	if err != nil || !ok {
		return false, err
	}

	m.log.Info("clan ownership transferred",
		zap.String("clan_id", clanID.String()),
		zap.String("owner_id", newOwnerID.String()),
	)
	m.publish(events.OwnerChanged, events.ClanEvent{ClanID: clanID, OwnerID: newOwnerID})
	return true, nil
}

// removeClan drops every membership of the clan from storage and cache.
func (m *Members) removeClan(ctx context.Context, clanID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.store.DeleteByClan(ctx, clanID)
	if err != nil {
		return 0, m.fail("member.remove_clan", err)
	}
	for playerID := range m.byClan[clanID] {
		m.cache.Remove(playerID)
	}
	delete(m.byClan, clanID)
	m.cache.RemoveFunc(func(_ uuid.UUID, member models.Member) bool {
		return member.ClanID == clanID
	})
	return n, nil
}
