// Package store is the persistence gateway: one CRUD surface per record kind.
// Lookups return a nil value and a nil error when the row does not exist.
package store

import (
	"context"
	"time"

	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/google/uuid"
)

type ClanStore interface {
	Insert(ctx context.Context, clan *models.Clan) error
	Get(ctx context.Context, id uuid.UUID) (*models.Clan, error)
	// GetByName matches name or colorless name, case-insensitively.
	GetByName(ctx context.Context, name string) (*models.Clan, error)
	Update(ctx context.Context, clan *models.Clan) error
	SetTreasury(ctx context.Context, id uuid.UUID, amount int64) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	All(ctx context.Context) ([]models.Clan, error)
}

type MemberStore interface {
	Insert(ctx context.Context, member *models.Member) error
	GetByPlayer(ctx context.Context, playerID uuid.UUID) (*models.Member, error)
	GetByName(ctx context.Context, clanID uuid.UUID, name string) (*models.Member, error)
	ListByClan(ctx context.Context, clanID uuid.UUID) ([]models.Member, error)
	UpdateRole(ctx context.Context, playerID uuid.UUID, role models.Role) (bool, error)
	Delete(ctx context.Context, playerID uuid.UUID) (bool, error)
	DeleteByClan(ctx context.Context, clanID uuid.UUID) (int, error)
	All(ctx context.Context) ([]models.Member, error)
}

type InviteStore interface {
	Insert(ctx context.Context, invite *models.Invite) error
	Get(ctx context.Context, clanID, playerID uuid.UUID) (*models.Invite, error)
	Delete(ctx context.Context, clanID, playerID uuid.UUID) (bool, error)
	DeleteByPlayer(ctx context.Context, playerID uuid.UUID) (int, error)
	DeleteByClan(ctx context.Context, clanID uuid.UUID) (int, error)
	// DeleteCreatedBefore removes invites created at or before cutoff and returns them.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Invite, error)
	All(ctx context.Context) ([]models.Invite, error)
}

type ScoreStore interface {
	Get(ctx context.Context, playerID uuid.UUID) (*models.PlayerScore, error)
	Insert(ctx context.Context, score *models.PlayerScore) error
	Update(ctx context.Context, score *models.PlayerScore) error
	Delete(ctx context.Context, playerID uuid.UUID) (bool, error)
	All(ctx context.Context) ([]models.PlayerScore, error)
}

type AdvertisementStore interface {
	Insert(ctx context.Context, ad *models.Advertisement) error
	ListByClan(ctx context.Context, clanID uuid.UUID) ([]models.Advertisement, error)
	Update(ctx context.Context, ad *models.Advertisement) error
	DeleteByClan(ctx context.Context, clanID uuid.UUID) (int, error)
	// DeleteExpired removes advertisements whose expiry is strictly before now and returns them.
	DeleteExpired(ctx context.Context, now time.Time) ([]models.Advertisement, error)
	All(ctx context.Context) ([]models.Advertisement, error)
}

// Store groups the per-kind gateways.
type Store struct {
	Clans          ClanStore
	Members        MemberStore
	Invites        InviteStore
	Scores         ScoreStore
	Advertisements AdvertisementStore
}
