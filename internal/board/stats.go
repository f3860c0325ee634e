package board

import "sync/atomic"

// Stats reports board size and cumulative operation counts
type Stats struct {
	Widgets int    `json:"widgets"` // Live widgets
	Creates uint64 `json:"creates"` // Successful creates
	Updates uint64 `json:"updates"` // Successful updates
	Deletes uint64 `json:"deletes"` // Successful deletes
	Gets    uint64 `json:"gets"`    // Single-widget reads
	Shifted uint64 `json:"shifted"` // Widgets renumbered by shifts
}

type counters struct {
	creates atomic.Uint64
	updates atomic.Uint64
	deletes atomic.Uint64
	gets    atomic.Uint64
	shifted atomic.Uint64
}

// Stats returns current board statistics
func (b *Board) Stats() Stats {
	b.mu.RLock()
	widgets := b.store.Stats().Widgets
	b.mu.RUnlock()

	return Stats{
		Widgets: widgets,
		Creates: b.stats.creates.Load(),
		Updates: b.stats.updates.Load(),
		Deletes: b.stats.deletes.Load(),
		Gets:    b.stats.gets.Load(),
		Shifted: b.stats.shifted.Load(),
	}
}
