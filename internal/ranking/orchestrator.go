package ranking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/NegroHm/uda-apuntes/internal/drive"
	"github.com/NegroHm/uda-apuntes/internal/events"
	"github.com/NegroHm/uda-apuntes/internal/logging"
	"github.com/NegroHm/uda-apuntes/internal/metrics"
)

// State is the orchestrator's position in the ranking lifecycle.
type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateAggregating State = "aggregating"
	StateSorting     State = "sorting"
	StatePublished   State = "published"
	StateError       State = "error"
)

// Config holds orchestrator configuration.
type Config struct {
	RootFolderID      string
	TopN              int
	CareerConcurrency int
	WalkerConcurrency int
	MaxDepth          int
	Weights           Weights
}

// Orchestrator runs ranking passes: discovery, aggregation, sorting,
// publication. At most one pass runs at a time; overlapping triggers are
// coalesced.
type Orchestrator struct {
	lister      drive.Lister
	aggregator  *Aggregator
	store       Store
	broadcaster *events.Broadcaster
	cfg         Config

	mu       sync.Mutex
	state    State
	running  bool
	lastErr  error
	latest   *Snapshot
}

// NewOrchestrator creates an orchestrator. broadcaster may be nil.
func NewOrchestrator(lister drive.Lister, store Store, broadcaster *events.Broadcaster, cfg Config) *Orchestrator {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.CareerConcurrency <= 0 {
		cfg.CareerConcurrency = 1
	}
	return &Orchestrator{
		lister:      lister,
		aggregator:  NewAggregator(lister, cfg.Weights, cfg.MaxDepth, cfg.WalkerConcurrency),
		store:       store,
		broadcaster: broadcaster,
		cfg:         cfg,
		state:       StateIdle,
	}
}

// Status is a point-in-time view of the orchestrator for callers.
type Status struct {
	State      State      `json:"state"`
	Running    bool       `json:"running"`
	LastError  string     `json:"lastError,omitempty"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
}

// Status returns the current lifecycle state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := Status{State: o.state, Running: o.running}
	if o.lastErr != nil {
		st.LastError = o.lastErr.Error()
	}
	if o.latest != nil {
		t := o.latest.LastUpdate
		st.LastUpdate = &t
	}
	return st
}

// Latest returns the most recently published snapshot, if any. Falls back
// to the store so a snapshot persisted by a previous process is visible
// before the first pass of this one.
func (o *Orchestrator) Latest(ctx context.Context) (*Snapshot, error) {
	o.mu.Lock()
	snap := o.latest
	o.mu.Unlock()
	if snap != nil {
		return snap, nil
	}

	snap, err := o.store.Get(ctx)
	metrics.RecordStoreOp("get", err)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	if o.latest == nil {
		o.latest = snap
	}
	o.mu.Unlock()
	return snap, nil
}

// Trigger starts a ranking pass in the background. Returns false if a pass
// is already in flight; the request is then coalesced into the running one.
func (o *Orchestrator) Trigger(ctx context.Context) bool {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		logging.Info("refresh request coalesced, pass already running")
		return false
	}
	o.running = true
	o.mu.Unlock()

	go func() {
		defer func() {
			o.mu.Lock()
			o.running = false
			o.mu.Unlock()
		}()
		if _, err := o.runPass(ctx); err != nil {
			logging.Error("ranking pass failed", zap.Error(err))
		}
	}()
	return true
}

// RunOnce runs a full pass synchronously. Used by the CLI and tests;
// coalescing applies here too.
func (o *Orchestrator) RunOnce(ctx context.Context) (*Snapshot, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, fmt.Errorf("ranking pass already running")
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()
	return o.runPass(ctx)
}

func (o *Orchestrator) setState(s State, err error) {
	o.mu.Lock()
	o.state = s
	o.lastErr = err
	o.mu.Unlock()
}

func (o *Orchestrator) publishEvent(e events.Event) {
	if o.broadcaster != nil {
		o.broadcaster.Publish(e)
	}
}

func (o *Orchestrator) runPass(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	logging.Info("ranking pass started", zap.String("root", o.cfg.RootFolderID))
	o.publishEvent(events.Event{Type: events.EventRunStarted})

	// Discovery. An inaccessible root or zero careers is fatal for the run;
	// the previously published snapshot stays in place.
	o.setState(StateDiscovering, nil)
	careers, err := DiscoverCareers(ctx, o.lister, o.cfg.RootFolderID)
	if err != nil {
		return nil, o.failPass(start, fmt.Errorf("career discovery: %w", err))
	}
	if len(careers) == 0 {
		return nil, o.failPass(start, fmt.Errorf("no career folders found"))
	}
	metrics.SetCareersDiscovered(len(careers))

	// Aggregation: careers share no mutable state, so they run with bounded
	// parallelism. Every career produces a stat; failures inside Aggregate
	// come back zero-valued instead of blocking the rest.
	o.setState(StateAggregating, nil)
	stats := make([]CareerStat, len(careers))
	sem := semaphore.NewWeighted(int64(o.cfg.CareerConcurrency))
	var wg sync.WaitGroup
	for i, career := range careers {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, o.failPass(start, err)
		}
		wg.Add(1)
		go func(i int, career CareerFolder) {
			defer wg.Done()
			defer sem.Release(1)
			stats[i] = o.aggregator.Aggregate(ctx, career)
			o.publishEvent(events.Event{
				Type:   events.EventCareerCompleted,
				Career: stats[i].Name,
				Score:  stats[i].TotalScore,
			})
		}(i, career)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, o.failPass(start, ctx.Err())
	}

	// Sort and rank. Stable sort keeps discovery order for ties.
	o.setState(StateSorting, nil)
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalScore > stats[j].TotalScore
	})
	for i := range stats {
		stats[i].Rank = i + 1
	}

	topN := o.cfg.TopN
	if topN > len(stats) {
		topN = len(stats)
	}

	now := time.Now()
	snap := &Snapshot{
		LastUpdate:   now,
		TotalCareers: len(stats),
		TopCareers:   stats[:topN],
		AllCareers:   stats,
		Metadata: Metadata{
			GeneratedAt: now,
			Version:     SnapshotVersion,
			Description: "Ranking de carreras basado en cantidad y tipo de archivos académicos",
		},
	}

	if err := o.store.Put(ctx, snap); err != nil {
		// The pass still publishes in-memory; the next one will retry the store.
		logging.Error("persisting snapshot failed", zap.Error(err))
		metrics.RecordStoreOp("put", err)
	} else {
		metrics.RecordStoreOp("put", nil)
	}

	o.mu.Lock()
	o.latest = snap
	o.state = StatePublished
	o.lastErr = nil
	o.mu.Unlock()

	metrics.RecordRankingRun(time.Since(start), true)
	metrics.SetLastUpdate(now)
	o.publishEvent(events.Event{Type: events.EventPublished, Careers: snap.TotalCareers})
	logging.Info("ranking pass published",
		zap.Int("careers", snap.TotalCareers),
		zap.Duration("duration", time.Since(start)))
	return snap, nil
}

func (o *Orchestrator) failPass(start time.Time, err error) error {
	o.setState(StateError, err)
	metrics.RecordRankingRun(time.Since(start), false)
	o.publishEvent(events.Event{Type: events.EventRunFailed, Message: err.Error()})
	return err
}
