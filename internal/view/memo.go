package view

import (
	"sync"
	"time"

	"github.com/yourorg/locker-metrics/internal/model"
)

// Memo caches dashboards per snapshot and pair. Snapshots are immutable once
// fetched, so only the freshness header is recomputed on a hit.
type Memo struct {
	opts Options

	mu    sync.Mutex
	snap  *model.Snapshot
	cache map[model.Pair]*Dashboard
}

// NewMemo creates a cache for dashboards built with opts.
func NewMemo(opts Options) *Memo {
	return &Memo{opts: opts, cache: make(map[model.Pair]*Dashboard)}
}

// Options returns the build options of the memo
func (m *Memo) Options() Options {
	return m.opts
}

// Dashboard returns the dashboard of snap for pair (zero means the configured
// pair) as of now. A new snapshot pointer drops every cached entry.
func (m *Memo) Dashboard(snap *model.Snapshot, pair model.Pair, now time.Time) (*Dashboard, error) {
	opts := m.opts
	if !pair.IsZero() {
		opts.Pair = pair
	}

	m.mu.Lock()
	if m.snap != snap {
		m.snap = snap
		m.cache = make(map[model.Pair]*Dashboard)
	}
	cached, ok := m.cache[opts.Pair]
	m.mu.Unlock()

	if !ok {
		built, err := Build(snap, opts, now)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		if m.snap == snap {
			m.cache[opts.Pair] = built
		}
		m.mu.Unlock()
		return built, nil
	}

	d := *cached
	d.Header.Freshness = Freshness(snap, opts.StaleAfter, now)
	return &d, nil
}
