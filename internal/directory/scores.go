package directory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bananalabs-oss/clans/internal/cache"
	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/bananalabs-oss/clans/internal/store"
	"github.com/google/uuid"
)

const (
	// AllCategories selects the sum over every category.
	AllCategories = ""

	DefaultTopLimit = 10
	// DefaultClanTopLimit bounds the server-wide clan leaderboard.
	DefaultClanTopLimit = 15
)

// ScoreEntry is one row of a clan leaderboard.
type ScoreEntry struct {
	PlayerID   uuid.UUID `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Score      int64     `json:"score"`
}

// ClanRank is one row of the server-wide clan leaderboard.
type ClanRank struct {
	Position int       `json:"position"`
	ClanID   uuid.UUID `json:"clan_id"`
	Name     string    `json:"name"`
	Members  int       `json:"members"`
	Score    int64     `json:"score"`
}

// Scores owns per-player score rows. Clan totals are always derived from
// the current member list.
type Scores struct {
	*base
	dir   *Directory
	store store.ScoreStore
	cache *cache.EntityCache[uuid.UUID, models.PlayerScore]

	mu sync.Mutex
}

func newScores(b *base, d *Directory, st store.ScoreStore) *Scores {
	return &Scores{
		base:  b,
		dir:   d,
		store: st,
		cache: cache.New[uuid.UUID, models.PlayerScore]("scores"),
	}
}

func (s *Scores) load(scores []models.PlayerScore) {
	entries := make(map[uuid.UUID]models.PlayerScore, len(scores))
	for _, score := range scores {
		entries[score.PlayerID] = *score.Clone()
	}
	s.cache.Load(entries)
}

func (s *Scores) Add(ctx context.Context, playerID uuid.UUID, playerName, category string, amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return s.mutate(ctx, playerID, playerName, category, func(cur int) int { return cur + amount })
}

// Remove subtracts amount, never going below zero.
func (s *Scores) Remove(ctx context.Context, playerID uuid.UUID, playerName, category string, amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return s.mutate(ctx, playerID, playerName, category, func(cur int) int { return max(cur-amount, 0) })
}

func (s *Scores) Set(ctx context.Context, playerID uuid.UUID, playerName, category string, amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return s.mutate(ctx, playerID, playerName, category, func(int) int { return amount })
}

func (s *Scores) mutate(ctx context.Context, playerID uuid.UUID, playerName, category string, fn func(int) int) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrInvalidCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.store.Get(ctx, playerID)
	if err != nil {
		return s.fail("score.mutate", err)
	}

	insert := row == nil
	if insert {
		row = &models.PlayerScore{PlayerID: playerID, PlayerName: playerName}
	}
	row = row.Clone()
	if playerName != "" {
		row.PlayerName = playerName
	}
	row.Scores[category] = fn(row.Scores[category])

	if insert {
		err = s.store.Insert(ctx, row)
	} else {
		err = s.store.Update(ctx, row)
	}
	if err != nil {
		return s.fail("score.mutate", err)
	}
	s.cache.Put(playerID, *row.Clone())
	return nil
}

// Reset drops one category. It reports false if the player had no value for it.
func (s *Scores) Reset(ctx context.Context, playerID uuid.UUID, category string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.store.Get(ctx, playerID)
	if err != nil {
		return false, s.fail("score.reset", err)
	}
	if row == nil {
		return false, nil
	}
	row = row.Clone()
	if _, ok := row.Scores[category]; !ok {
		return false, nil
	}
	delete(row.Scores, category)

	if err := s.store.Update(ctx, row); err != nil {
		return false, s.fail("score.reset", err)
	}
	s.cache.Put(playerID, *row.Clone())
	return true, nil
}

// ResetAll deletes the player's score row.
func (s *Scores) ResetAll(ctx context.Context, playerID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.store.Delete(ctx, playerID)
	if err != nil {
		return false, s.fail("score.reset_all", err)
	}
	s.cache.Remove(playerID)
	return ok, nil
}

// PlayerScore returns the player's value for category, or 0.
func (s *Scores) PlayerScore(playerID uuid.UUID, category string) int {
	row, ok := s.cache.Get(playerID)
	if !ok {
		return 0
	}
	return row.Scores[category]
}

// PlayerScores returns the player's full row, or nil if none was ever recorded.
func (s *Scores) PlayerScores(playerID uuid.UUID) *models.PlayerScore {
	row, ok := s.cache.Get(playerID)
	if !ok {
		return nil
	}
	return row.Clone()
}

func (s *Scores) contribution(playerID uuid.UUID, category string) int64 {
	row, ok := s.cache.Get(playerID)
	if !ok {
		return 0
	}
	if category == AllCategories {
		return row.Total()
	}
	return int64(row.Scores[category])
}

// ClanScore sums the current members' scores for category, or every
// category when category is AllCategories.
func (s *Scores) ClanScore(ctx context.Context, clanID uuid.UUID, category string) (int64, error) {
	members, err := s.dir.Members.List(ctx, clanID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, member := range members {
		total += s.contribution(member.PlayerID, category)
	}
	return total, nil
}

// ClanTop ranks the clan's members by category, highest first.
func (s *Scores) ClanTop(ctx context.Context, clanID uuid.UUID, category string, limit int) ([]ScoreEntry, error) {
	return s.rankMembers(ctx, clanID, category, limit, false)
}

// ClanBottom ranks the clan's members by category, lowest first.
func (s *Scores) ClanBottom(ctx context.Context, clanID uuid.UUID, category string, limit int) ([]ScoreEntry, error) {
	return s.rankMembers(ctx, clanID, category, limit, true)
}

func (s *Scores) rankMembers(ctx context.Context, clanID uuid.UUID, category string, limit int, ascending bool) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	members, err := s.dir.Members.List(ctx, clanID)
	if err != nil {
		return nil, err
	}

	entries := make([]ScoreEntry, 0, len(members))
	for _, member := range members {
		entries = append(entries, ScoreEntry{
			PlayerID:   member.PlayerID,
			PlayerName: member.PlayerName,
			Score:      s.contribution(member.PlayerID, category),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			if ascending {
				return entries[i].Score < entries[j].Score
			}
			return entries[i].Score > entries[j].Score
		}
		return strings.ToLower(entries[i].PlayerName) < strings.ToLower(entries[j].PlayerName)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// TopClans ranks every clan by the summed score of its members. Ties keep
// name order.
func (s *Scores) TopClans(ctx context.Context, category string, limit int) ([]ClanRank, error) {
	if limit <= 0 {
		limit = DefaultClanTopLimit
	}

	clans := s.dir.Clans.All()
	ranks := make([]ClanRank, 0, len(clans))
	for _, clan := range clans {
		members, err := s.dir.Members.List(ctx, clan.ID)
		if err != nil {
			return nil, err
		}
		var total int64
		for _, member := range members {
			total += s.contribution(member.PlayerID, category)
		}
		ranks = append(ranks, ClanRank{
			ClanID:  clan.ID,
			Name:    clan.Name,
			Members: len(members),
			Score:   total,
		})
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Score > ranks[j].Score })
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	for i := range ranks {
		ranks[i].Position = i + 1
	}
	return ranks, nil
}

// ClanMemberScores returns a score row per current member; members with no
// recorded scores get an empty row.
func (s *Scores) ClanMemberScores(ctx context.Context, clanID uuid.UUID) ([]models.PlayerScore, error) {
	members, err := s.dir.Members.List(ctx, clanID)
	if err != nil {
		return nil, err
	}

	out := make([]models.PlayerScore, 0, len(members))
	for _, member := range members {
		if row, ok := s.cache.Get(member.PlayerID); ok {
			out = append(out, *row.Clone())
			continue
		}
		out = append(out, models.PlayerScore{
			PlayerID:   member.PlayerID,
			PlayerName: member.PlayerName,
			Scores:     map[string]int{},
		})
	}
	return out, nil
}
