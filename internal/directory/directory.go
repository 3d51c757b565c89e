// Package directory keeps clan membership and social state in memory, coherent
// with the relational store. Every mutation writes storage first and then the
// owning component's cache; storage failures are returned, never retried.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bananalabs-oss/clans/internal/config"
	"github.com/bananalabs-oss/clans/internal/events"
	"github.com/bananalabs-oss/clans/internal/metrics"
	"github.com/bananalabs-oss/clans/internal/store"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidCategory = errors.New("score category is required")
	ErrUnknownTariff   = errors.New("unknown advertisement tariff")
)

type Option func(*options)

type options struct {
	log      *zap.Logger
	now      func() time.Time
	events   events.Publisher
	settings *config.Settings
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.events = p }
}

func WithSettings(s *config.Settings) Option {
	return func(o *options) { o.settings = s }
}

// base carries what every component shares.
type base struct {
	log      *zap.Logger
	now      func() time.Time
	events   events.Publisher
	settings *config.Settings
}

func (b *base) fail(op string, err error) error {
	metrics.StorageErrors.WithLabelValues(op).Inc()
	b.log.Error("storage failure", zap.String("op", op), zap.Error(err))
	return err
}

func (b *base) publish(subject string, payload any) {
	if err := b.events.Publish(subject, payload); err != nil {
		b.log.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// Directory is the single per-process instance of the five owning components.
type Directory struct {
	Clans   *Clans
	Members *Members
	Invites *Invites
	Scores  *Scores
	Adverts *Adverts

	*base
	store     *store.Store
	sweepOnce sync.Once
	sweepDone chan struct{}
}

func New(st *store.Store, opts ...Option) *Directory {
	o := options{
		log:      zap.NewNop(),
		now:      time.Now,
		events:   events.Nop(),
		settings: config.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	b := &base{
		log:      o.log,
		now:      func() time.Time { return o.now().UTC() },
		events:   o.events,
		settings: o.settings,
	}

	d := &Directory{base: b, store: st}
	d.Clans = newClans(b, d, st.Clans)
	d.Members = newMembers(b, d, st.Members)
	d.Invites = newInvites(b, d, st.Invites)
	d.Scores = newScores(b, d, st.Scores)
	d.Adverts = newAdverts(b, d, st.Advertisements)
	return d
}

// WarmUp replaces every cache with the full contents of storage.
func (d *Directory) WarmUp(ctx context.Context) error {
	clans, err := d.store.Clans.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load clans: %w", err)
	}
	members, err := d.store.Members.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load members: %w", err)
	}
	invites, err := d.store.Invites.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load invites: %w", err)
	}
	scores, err := d.store.Scores.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load scores: %w", err)
	}
	ads, err := d.store.Advertisements.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load advertisements: %w", err)
	}

	d.Clans.load(clans)
	d.Members.load(members)
	d.Invites.load(invites)
	d.Scores.load(scores)
	d.Adverts.load(ads)

	d.log.Info("caches warmed",
		zap.Int("clans", len(clans)),
		zap.Int("members", len(members)),
		zap.Int("invites", len(invites)),
		zap.Int("scores", len(scores)),
		zap.Int("advertisements", len(ads)),
	)
	return nil
}
