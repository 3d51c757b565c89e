package models

import (
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Clan struct {
	bun.BaseModel `bun:"table:clans,alias:c"`

	ID             uuid.UUID `bun:"id,pk,type:text"                   json:"id"`
	Name           string    `bun:"name,notnull"                      json:"name"`
	ColorlessName  string    `bun:"colorless_name,notnull"            json:"colorless_name"`
	Treasury       int64     `bun:"treasury,notnull,default:0"        json:"treasury"`
	News           News      `bun:"news,type:text"                    json:"news"`
	MOTD           string    `bun:"motd"                              json:"motd,omitempty"`
	CreatorID      uuid.UUID `bun:"creator_id,notnull,type:text"      json:"creator_id"`
	OwnerID        uuid.UUID `bun:"owner_id,notnull,type:text"        json:"owner_id"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull"       json:"created_at"`
	Slots          SlotTier  `bun:"slots,notnull"                     json:"slots"`
	ChatPurchased  bool      `bun:"chat_purchased,notnull"            json:"chat_purchased"`
	MOTDPurchased  bool      `bun:"motd_purchased,notnull"            json:"motd_purchased"`
	PartyPurchased bool      `bun:"party_purchased,notnull"           json:"party_purchased"`
}

// Clone returns a copy that shares no mutable state with c.
func (c *Clan) Clone() *Clan {
	out := *c
	out.News = c.News.Clone()
	return &out
}

type Member struct {
	bun.BaseModel `bun:"table:clan_members,alias:cm"`

	ClanID     uuid.UUID `bun:"clan_id,pk,type:text"        json:"clan_id"`
	PlayerID   uuid.UUID `bun:"player_id,pk,type:text"      json:"player_id"`
	PlayerName string    `bun:"player_name,notnull"         json:"player_name"`
	Role       Role      `bun:"role,notnull"                json:"role"`
	JoinedAt   time.Time `bun:"joined_at,nullzero,notnull"  json:"joined_at"`
}

type Invite struct {
	bun.BaseModel `bun:"table:clan_invites,alias:ci"`

	ClanID     uuid.UUID `bun:"clan_id,pk,type:text"        json:"clan_id"`
	PlayerID   uuid.UUID `bun:"player_id,pk,type:text"      json:"player_id"`
	PlayerName string    `bun:"player_name,notnull"         json:"player_name"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull" json:"created_at"`
}

type PlayerScore struct {
	bun.BaseModel `bun:"table:clan_scores,alias:cs"`

	PlayerID   uuid.UUID      `bun:"player_id,pk,type:text" json:"player_id"`
	PlayerName string         `bun:"player_name,notnull"    json:"player_name"`
	Scores     map[string]int `bun:"scores,type:text"       json:"scores"`
}

func (s *PlayerScore) Clone() *PlayerScore {
	out := *s
	out.Scores = maps.Clone(s.Scores)
	if out.Scores == nil {
		out.Scores = map[string]int{}
	}
	return &out
}

// Total sums every category.
func (s *PlayerScore) Total() int64 {
	var total int64
	for _, v := range s.Scores {
		total += int64(v)
	}
	return total
}

type Advertisement struct {
	bun.BaseModel `bun:"table:clan_advertisements,alias:ca"`

	ID        int64     `bun:"id,pk,autoincrement"         json:"id"`
	ClanID    uuid.UUID `bun:"clan_id,notnull,type:text"   json:"clan_id"`
	JoinType  JoinType  `bun:"join_type,notnull"           json:"join_type"`
	Tariff    Tariff    `bun:"tariff,notnull"              json:"tariff"`
	Text      string    `bun:"text"                        json:"text"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull" json:"created_at"`
	ExpiresAt time.Time `bun:"expires_at,nullzero,notnull" json:"expires_at"`
}

// LiveAt reports whether the advertisement has not yet expired at t.
func (a *Advertisement) LiveAt(t time.Time) bool {
	return a.ExpiresAt.After(t)
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
