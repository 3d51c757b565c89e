package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewBun returns a Store backed by db.
func NewBun(db *bun.DB) *Store {
	return &Store{
		Clans:          &clanStore{db: db},
		Members:        &memberStore{db: db},
		Invites:        &inviteStore{db: db},
		Scores:         &scoreStore{db: db},
		Advertisements: &advertisementStore{db: db},
	}
}

func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func affected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

// --- clans ---

type clanStore struct {
	db *bun.DB
}

func (s *clanStore) Insert(ctx context.Context, clan *models.Clan) error {
	if _, err := s.db.NewInsert().Model(clan).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert clan: %w", err)
	}
	return nil
}

func (s *clanStore) Get(ctx context.Context, id uuid.UUID) (*models.Clan, error) {
	clan := new(models.Clan)
	err := s.db.NewSelect().
		Model(clan).
		Where("c.id = ?", id).
		Scan(ctx)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clan: %w", err)
	}
	return clan, nil
}

func (s *clanStore) GetByName(ctx context.Context, name string) (*models.Clan, error) {
	clan := new(models.Clan)
	err := s.db.NewSelect().
		Model(clan).
		Where("lower(c.name) = lower(?) OR lower(c.colorless_name) = lower(?)", name, name).
		Limit(1).
		Scan(ctx)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clan by name: %w", err)
	}
	return clan, nil
}

func (s *clanStore) Update(ctx context.Context, clan *models.Clan) error {
	_, err := s.db.NewUpdate().
		Model(clan).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update clan: %w", err)
	}
	return nil
}

func (s *clanStore) SetTreasury(ctx context.Context, id uuid.UUID, amount int64) error {
	_, err := s.db.NewUpdate().
		Model((*models.Clan)(nil)).
		Set("treasury = ?", amount).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update treasury: %w", err)
	}
	return nil
}

func (s *clanStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*models.Clan)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete clan: %w", err)
	}
	return affected(res) > 0, nil
}

func (s *clanStore) All(ctx context.Context) ([]models.Clan, error) {
	var clans []models.Clan
	if err := s.db.NewSelect().Model(&clans).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list clans: %w", err)
	}
	return clans, nil
}

// --- members ---

type memberStore struct {
	db *bun.DB
}

func (s *memberStore) Insert(ctx context.Context, member *models.Member) error {
	if _, err := s.db.NewInsert().Model(member).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

func (s *memberStore) GetByPlayer(ctx context.Context, playerID uuid.UUID) (*models.Member, error) {
	member := new(models.Member)
	err := s.db.NewSelect().
		Model(member).
		Where("player_id = ?", playerID).
		Scan(ctx)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member: %w", err)
	}
	return member, nil
}

func (s *memberStore) GetByName(ctx context.Context, clanID uuid.UUID, name string) (*models.Member, error) {
	member := new(models.Member)
	err := s.db.NewSelect().
		Model(member).
		Where("clan_id = ?", clanID).
		Where("lower(player_name) = lower(?)", name).
		Limit(1).
		Scan(ctx)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member by name: %w", err)
	}
	return member, nil
}

func (s *memberStore) ListByClan(ctx context.Context, clanID uuid.UUID) ([]models.Member, error) {
	var members []models.Member
	err := s.db.NewSelect().
		Model(&members).
		Where("clan_id = ?", clanID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (s *memberStore) UpdateRole(ctx context.Context, playerID uuid.UUID, role models.Role) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*models.Member)(nil)).
		Set("role = ?", role).
		Where("player_id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to update role: %w", err)
	}
	return affected(res) > 0, nil
}

func (s *memberStore) Delete(ctx context.Context, playerID uuid.UUID) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*models.Member)(nil)).
		Where("player_id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete member: %w", err)
	}
	return affected(res) > 0, nil
}

func (s *memberStore) DeleteByClan(ctx context.Context, clanID uuid.UUID) (int, error) {
	res, err := s.db.NewDelete().
		Model((*models.Member)(nil)).
		Where("clan_id = ?", clanID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete clan members: %w", err)
	}
	return affected(res), nil
}

func (s *memberStore) All(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	if err := s.db.NewSelect().Model(&members).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// --- invites ---

type inviteStore struct {
	db *bun.DB
}

func (s *inviteStore) Insert(ctx context.Context, invite *models.Invite) error {
	if _, err := s.db.NewInsert().Model(invite).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert invite: %w", err)
	}
	return nil
}

func (s *inviteStore) Get(ctx context.Context, clanID, playerID uuid.UUID) (*models.Invite, error) {
	invite := new(models.Invite)
	err := s.db.NewSelect().
		Model(invite).
		Where("clan_id = ?", clanID).
		Where("player_id = ?", playerID).
		Scan(ctx)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invite: %w", err)
	}
	return invite, nil
}

func (s *inviteStore) Delete(ctx context.Context, clanID, playerID uuid.UUID) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*models.Invite)(nil)).
		Where("clan_id = ?", clanID).
		Where("player_id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete invite: %w", err)
	}
	return affected(res) > 0, nil
}

func (s *inviteStore) DeleteByPlayer(ctx context.Context, playerID uuid.UUID) (int, error) {
	res, err := s.db.NewDelete().
		Model((*models.Invite)(nil)).
		Where("player_id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete player invites: %w", err)
	}
	return affected(res), nil
}

func (s *inviteStore) DeleteByClan(ctx context.Context, clanID uuid.UUID) (int, error) {
	res, err := s.db.NewDelete().
		Model((*models.Invite)(nil)).
		Where("clan_id = ?", clanID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete clan invites: %w", err)
	}
	return affected(res), nil
}

func (s *inviteStore) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Invite, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	var stale []models.Invite
	for _, inv := range all {
		if !inv.CreatedAt.After(cutoff) {
			stale = append(stale, inv)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, inv := range stale {
			_, err := tx.NewDelete().
				Model((*models.Invite)(nil)).
				Where("clan_id = ?", inv.ClanID).
				Where("player_id = ?", inv.PlayerID).
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired invites: %w", err)
	}
	return stale, nil
}

func (s *inviteStore) All(ctx context.Context) ([]models.Invite, error) {
	var invites []models.Invite
	if err := s.db.NewSelect().Model(&invites).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

// --- scores ---

type scoreStore struct {
	db *bun.DB
}

func (s *scoreStore) Get(ctx context.Context, playerID uuid.UUID) (*models.PlayerScore, error) {
	score := new(models.PlayerScore)
	err := s.db.NewSelect().
		Model(score).
		Where("player_id = ?", playerID).
		Scan(ctx)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch score: %w", err)
	}
	return score, nil
}

func (s *scoreStore) Insert(ctx context.Context, score *models.PlayerScore) error {
	if _, err := s.db.NewInsert().Model(score).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

func (s *scoreStore) Update(ctx context.Context, score *models.PlayerScore) error {
	_, err := s.db.NewUpdate().
		Model(score).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}
	return nil
}

func (s *scoreStore) Delete(ctx context.Context, playerID uuid.UUID) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*models.PlayerScore)(nil)).
		Where("player_id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete score: %w", err)
	}
	return affected(res) > 0, nil
}

func (s *scoreStore) All(ctx context.Context) ([]models.PlayerScore, error) {
	var scores []models.PlayerScore
	if err := s.db.NewSelect().Model(&scores).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return scores, nil
}

// --- advertisements ---

type advertisementStore struct {
	db *bun.DB
}

func (s *advertisementStore) Insert(ctx context.Context, ad *models.Advertisement) error {
	if _, err := s.db.NewInsert().Model(ad).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert advertisement: %w", err)
	}
	return nil
}

func (s *advertisementStore) ListByClan(ctx context.Context, clanID uuid.UUID) ([]models.Advertisement, error) {
	var ads []models.Advertisement
	err := s.db.NewSelect().
		Model(&ads).
		Where("clan_id = ?", clanID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list advertisements: %w", err)
	}
	return ads, nil
}

func (s *advertisementStore) Update(ctx context.Context, ad *models.Advertisement) error {
	_, err := s.db.NewUpdate().
		Model(ad).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update advertisement: %w", err)
	}
	return nil
}

func (s *advertisementStore) DeleteByClan(ctx context.Context, clanID uuid.UUID) (int, error) {
	res, err := s.db.NewDelete().
		Model((*models.Advertisement)(nil)).
		Where("clan_id = ?", clanID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete advertisements: %w", err)
	}
	return affected(res), nil
}

func (s *advertisementStore) DeleteExpired(ctx context.Context, now time.Time) ([]models.Advertisement, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	var expired []models.Advertisement
	var ids []int64
	for _, ad := range all {
		if ad.ExpiresAt.Before(now) {
			expired = append(expired, ad)
			ids = append(ids, ad.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = s.db.NewDelete().
		Model((*models.Advertisement)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired advertisements: %w", err)
	}
	return expired, nil
}

func (s *advertisementStore) All(ctx context.Context) ([]models.Advertisement, error) {
	var ads []models.Advertisement
	if err := s.db.NewSelect().Model(&ads).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list advertisements: %w", err)
	}
	return ads, nil
}
