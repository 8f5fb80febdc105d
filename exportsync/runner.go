package exportsync

import (
	"context"
	"sync"
	"time"

	"github.com/erikmagkekse/netgroup-nfs/model"
)

// Tracker keeps the outcome of the most recent sync run for the status endpoint.
type Tracker struct {
	mu      sync.RWMutex
	runs    int
	last    *Result
	lastErr error
}

func (t *Tracker) Record(res *Result, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs++
	t.last = res
	t.lastErr = err
}

// Last returns the number of completed runs and the latest result and error.
func (t *Tracker) Last() (int, *Result, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.runs, t.last, t.lastErr
}

// StartPeriodic runs Sync right away and then every interval until ctx is
// done. Errors that would end a one-shot run are logged and recorded; the
// next tick tries again.
func (s *Syncer) StartPeriodic(ctx context.Context, interval time.Duration, exports map[string]model.ExportRestriction, t *Tracker) {
	go func() {
		s.runOnce(ctx, exports, t)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx, exports, t)
			}
		}
	}()
}

func (s *Syncer) runOnce(ctx context.Context, exports map[string]model.ExportRestriction, t *Tracker) {
	res, err := s.Sync(ctx, exports)
	if err != nil {
		s.log.Error().Err(err).Msg("sync run aborted")
	} else {
		s.log.Info().
			Int("updated", res.Count(StatusUpdated)).
			Int("unapplied", res.Count(StatusUnapplied)).
			Int("skipped", res.Count(StatusSkipped)).
			Int("failed", res.Count(StatusFailed)).
			Msg("sync run complete")
	}
	if t != nil {
		t.Record(res, err)
	}
}
