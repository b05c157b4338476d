package chain

// wins implements §4.4.2's tie-break: the canonical chain is the greatest
// height; on equal height the incumbent is displaced with probability 1/2,
// and a zero incumbent hash (uninitialized tip) always loses. Callers must
// hold muTip for write — the coin draw and the height comparison must be
// atomic with respect to other inserts, per §5's serialized tip-update
// critical section.
func (c *Chain) wins(candidateHeight uint64) bool {
	if c.tip.IsZero() {
		return true
	}
	if candidateHeight > c.height {
		return true
	}
	if candidateHeight < c.height {
		return false
	}
	return c.cfg.TieBreakRNG.Intn(2) == 1
}
