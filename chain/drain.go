package chain

import (
	"context"
	"time"

	"github.com/sleepychain/node/types"
)

// RunOrphanDrain services c.orphanSignal: every time a block is admitted,
// it drains and reattempts the orphan table's entry for that hash (§4.5).
// Reattempts that still fail are dropped silently — an orphan may still be
// invalid for a reason unrelated to its parent, and the drainer must
// tolerate repeated failures per the pending-buffers contract.
//
// Intended to run as a single long-lived goroutine for the lifetime of the
// chain; callers stop it by canceling ctx.
func (c *Chain) RunOrphanDrain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case hash := <-c.orphanSignal:
			c.releaseOrphans(hash)
		}
	}
}

// releaseOrphans drains every block waiting on parentHash and reinserts
// them. A successful reinsertion may itself unblock further orphans
// (its own hash becomes a new release key), which Insert signals through
// the same channel, so the drain loop naturally cascades.
func (c *Chain) releaseOrphans(parentHash types.Hash) {
	for _, block := range c.orphans.Drain(parentHash) {
		_ = c.Insert(block)
	}
}

// RunFutureDrain fires every 1000/slots_per_sec milliseconds (§4.5),
// partitioning the future queue on timestamp <= now and reattempting the
// due blocks. Intended to run as a single long-lived goroutine; callers
// stop it by canceling ctx.
func (c *Chain) RunFutureDrain(ctx context.Context) {
	interval := time.Second
	if c.cfg.SlotsPerSec > 0 {
		interval = time.Duration(1000/c.cfg.SlotsPerSec) * time.Millisecond
		if interval <= 0 {
			interval = time.Millisecond
		}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now, ok := c.deps.Clock.Now()
			if !ok {
				continue
			}
			for _, block := range c.future.DrainDue(now) {
				_ = c.Insert(block)
			}
		}
	}
}
