package services

import (
	"context"
	"log"
	"time"

	"doner/internal/repositories"
)

// ReaperConfig holds the expiry settings.
type ReaperConfig struct {
	StageTTL     time.Duration
	TombstoneTTL time.Duration
	Interval     time.Duration
	Batch        int
}

// Reaper discards staged carts that were never paid and prunes old tombstones.
type Reaper struct {
	ledger repositories.StagingLedger
	cfg    ReaperConfig
	now    func() time.Time
}

// NewReaper creates a new Reaper.
func NewReaper(ledger repositories.StagingLedger, cfg ReaperConfig) *Reaper {
	return &Reaper{
		ledger: ledger,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run reaps every Interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, _, err := r.RunOnce(ctx); err != nil {
				log.Printf("Reaper pass failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce expires stale stages in batches until a batch expires nothing, then prunes
// tombstones past their TTL. It returns how many of each were removed.
func (r *Reaper) RunOnce(ctx context.Context) (int, int64, error) {
	now := r.now()
	cutoff := now.Add(-r.cfg.StageTTL)

	expired := 0
	for {
		n, err := r.ledger.ReapExpired(ctx, cutoff, r.cfg.Batch)
		expired += n
		if err != nil {
			return expired, 0, err
		}
		// A short batch is not the end: rows reconciled between selection and
		// delete are skipped, and older stages may still be waiting.
		if n == 0 {
			break
		}
	}

	pruned, err := r.ledger.PruneTombstones(ctx, now.Add(-r.cfg.TombstoneTTL))
	if err != nil {
		return expired, pruned, err
	}
	if expired > 0 || pruned > 0 {
		log.Printf("Reaper expired %d staged carts and pruned %d tombstones", expired, pruned)
	}
	return expired, pruned, nil
}
