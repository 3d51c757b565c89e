package directory

import (
	"context"
	"sync"
	"time"

	"github.com/bananalabs-oss/clans/internal/events"
	"github.com/bananalabs-oss/clans/internal/metrics"
	"go.uber.org/zap"
)

type sweepFunc func(ctx context.Context) (removed int, skipped bool, err error)

// SweepInvites runs one invite expiry pass and records its outcome.
func (d *Directory) SweepInvites(ctx context.Context) (int, error) {
	return d.runSweep(ctx, "invites", events.InvitesExpired, d.Invites.Sweep)
}

// SweepAdverts runs one advertisement expiry pass and records its outcome.
func (d *Directory) SweepAdverts(ctx context.Context) (int, error) {
	return d.runSweep(ctx, "advertisements", events.AdvertsExpired, d.Adverts.Sweep)
}

func (d *Directory) runSweep(ctx context.Context, name, subject string, sweep sweepFunc) (int, error) {
	removed, skipped, err := sweep(ctx)
	switch {
	case err != nil:
		metrics.SweepRuns.WithLabelValues(name, "error").Inc()
		d.log.Error("sweep failed", zap.String("sweep", name), zap.Error(err))
		return 0, err
	case skipped:
		metrics.SweepRuns.WithLabelValues(name, "skipped").Inc()
		d.log.Debug("sweep already running", zap.String("sweep", name))
		return 0, nil
	}

	metrics.SweepRuns.WithLabelValues(name, "ok").Inc()
	metrics.SweepRemoved.WithLabelValues(name).Add(float64(removed))
	d.log.Info("sweep complete", zap.String("sweep", name), zap.Int("removed", removed))
	if removed > 0 {
		d.publish(subject, events.ExpiryEvent{Removed: removed, At: d.now()})
	}
	return removed, nil
}

// StartSweeps launches the invite and advertisement expiry loops. Each runs
// once immediately and then on its interval until ctx is cancelled. Only the
// first call starts the loops; the returned channel closes once both exit.
func (d *Directory) StartSweeps(ctx context.Context, inviteEvery, advertEvery time.Duration) <-chan struct{} {
	d.sweepOnce.Do(func() {
		d.sweepDone = make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(2)
		go d.sweepLoop(ctx, &wg, inviteEvery, d.SweepInvites)
		go d.sweepLoop(ctx, &wg, advertEvery, d.SweepAdverts)

		go func() {
			wg.Wait()
			close(d.sweepDone)
		}()
	})
	return d.sweepDone
}

func (d *Directory) sweepLoop(ctx context.Context, wg *sync.WaitGroup, every time.Duration, run func(context.Context) (int, error)) {
	defer wg.Done()

	_, _ = run(ctx)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = run(ctx)
		}
	}
}
