package directory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bananalabs-oss/clans/internal/database"
	"github.com/bananalabs-oss/clans/internal/events"
	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/bananalabs-oss/clans/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	dir    *Directory
	store  *store.Store
	clock  *fakeClock
	events *events.Recorder
}

func newTestStore(t testing.TB) *store.Store {
	t.Helper()

	db, err := database.Connect("sqlite://:memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db, zap.NewNop()))
	return store.NewBun(db)
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	return newFixtureWithStore(t, newTestStore(t))
}

func newFixtureWithStore(t testing.TB, st *store.Store) *fixture {
	t.Helper()
	clock := newFakeClock()
	rec := &events.Recorder{}
	return &fixture{
		dir:    New(st, WithClock(clock.Now), WithPublisher(rec)),
		store:  st,
		clock:  clock,
		events: rec,
	}
}

func (f *fixture) createClan(t testing.TB, name string) (*models.Clan, uuid.UUID) {
	t.Helper()
	founder := uuid.New()
	clan, err := f.dir.Clans.Create(context.Background(), "&6"+name, name, founder, name+"Founder")
	require.NoError(t, err)
	require.NotNil(t, clan)
	return clan, founder
}
