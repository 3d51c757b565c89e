package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	ClanCreated     = "clans.clan.created"
	ClanDeleted     = "clans.clan.deleted"
	OwnerChanged    = "clans.clan.owner"
	MemberJoined    = "clans.member.joined"
	MemberLeft      = "clans.member.left"
	MemberRole      = "clans.member.role"
	InviteCreated   = "clans.invite.created"
	InvitesExpired  = "clans.invite.expire"
	AdvertCreated   = "clans.advert.created"
	AdvertsExpired  = "clans.advert.expire"
	TreasuryChanged = "clans.clan.treasury"
)

// ClanEvent is the payload for clan-level notifications.
type ClanEvent struct {
	ClanID   uuid.UUID `json:"clan_id"`
	Name     string    `json:"name,omitempty"`
	OwnerID  uuid.UUID `json:"owner_id,omitempty"`
	Treasury int64     `json:"treasury,omitempty"`
}

// MemberEvent is the payload for membership and invite notifications.
type MemberEvent struct {
	ClanID     uuid.UUID `json:"clan_id"`
	PlayerID   uuid.UUID `json:"player_id"`
	PlayerName string    `json:"player_name,omitempty"`
	Role       string    `json:"role,omitempty"`
}

// ExpiryEvent reports rows removed by a sweep.
type ExpiryEvent struct {
	Removed int       `json:"removed"`
	At      time.Time `json:"at"`
}

// Publisher sends domain notifications to other services.
type Publisher interface {
	Publish(subject string, payload any) error
}

type NATSPublisher struct {
	nc *nats.Conn
}

func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

// Connect dials url and returns a publisher on the new connection.
func Connect(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("clans"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return NewNATSPublisher(nc), nil
}

func (p *NATSPublisher) Publish(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

type nop struct{}

func (nop) Publish(string, any) error { return nil }

// Nop discards every event.
func Nop() Publisher { return nop{} }

// Message is one event captured by a Recorder.
type Message struct {
	Subject string
	Payload any
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(subject string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Subject: subject, Payload: payload})
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Subjects lists the subject of every recorded event in order.
func (r *Recorder) Subjects() []string {
	msgs := r.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Subject
	}
	return out
}
