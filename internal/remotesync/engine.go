// Package remotesync keeps a full copy of the local snapshot in an object
// store. It pulls once whenever a new remote configuration is applied and
// pushes the whole snapshot after a quiet period with no further mutations.
package remotesync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vbonduro/islandlife/internal/domain"
	"github.com/vbonduro/islandlife/internal/objectstore"
	"github.com/vbonduro/islandlife/internal/snapshot"
)

const (
	// DataKey is where the full snapshot lives in the bucket.
	DataKey = "island_life/user_data.json"

	DefaultQuietPeriod = 2 * time.Second
)

var (
	ErrNotConfigured = errors.New("remote sync is not configured")
	ErrClosed        = errors.New("remote sync engine is closed")
	ErrNotAttached   = errors.New("no state attached to remote sync engine")
)

// StoreFactory builds an object store client for a complete configuration.
type StoreFactory func(cfg domain.RemoteConfig) (objectstore.ObjectStore, error)

// State is the store the engine reads pushes from and replaces on pull.
type State interface {
	Snapshot() *domain.Snapshot
	ActiveID() string
	ReplaceAll(ctx context.Context, snap *domain.Snapshot) error
}

type Engine struct {
	factory StoreFactory
	logger  *slog.Logger
	quiet   time.Duration

	mu      sync.Mutex
	state   State
	cfg     domain.RemoteConfig
	store   objectstore.ObjectStore
	timer   *time.Timer
	gen     uint64 // bumped on every reschedule; stale timer callbacks compare against it
	pending bool
	busy    int
	closed  bool

	pushMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns an unconfigured engine. A non-positive quietPeriod selects
// DefaultQuietPeriod.
func New(factory StoreFactory, logger *slog.Logger, quietPeriod time.Duration) *Engine {
	if quietPeriod <= 0 {
		quietPeriod = DefaultQuietPeriod
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		factory: factory,
		logger:  logger,
		quiet:   quietPeriod,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Attach sets the state the engine syncs. It must be called before the first
// pull or push.
func (e *Engine) Attach(state State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
}

// Configure applies a remote configuration. An incomplete configuration
// disables remote sync and drops any pending push. A new complete
// configuration replaces the client and starts one background pull.
func (e *Engine) Configure(ctx context.Context, cfg domain.RemoteConfig) error {
	store, err := e.apply(cfg)
	if err != nil || store == nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.busy++
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer e.done()
		if _, err := e.pull(e.ctx, store); err != nil {
			e.logger.Warn("remote pull failed, keeping local data", "error", err)
		}
	}()
	return nil
}

// Use applies cfg like Configure but skips the initial pull. One-shot
// commands use it before an explicit Pull or Flush.
func (e *Engine) Use(cfg domain.RemoteConfig) error {
	_, err := e.apply(cfg)
	return err
}

// apply swaps the client and returns it when cfg is complete and differs
// from the current one. It returns nil when nothing new was connected.
func (e *Engine) apply(cfg domain.RemoteConfig) (objectstore.ObjectStore, error) {
	if !cfg.Complete() {
		e.mu.Lock()
		wasEnabled := e.store != nil
		e.cfg = cfg
		e.store = nil
		e.cancelPendingLocked()
		e.mu.Unlock()
		if wasEnabled {
			e.logger.Info("remote sync disabled")
		}
		return nil, nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	if e.store != nil && e.cfg == cfg {
		e.mu.Unlock()
		return nil, nil
	}
	e.mu.Unlock()

	store, err := e.factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	e.cfg = cfg
	e.store = store
	e.mu.Unlock()

	e.logger.Info("remote sync enabled", "bucket", cfg.BucketName, "region", cfg.Region)
	return store, nil
}

// Pull fetches the remote snapshot and replaces local state with it. It
// reports false with a nil error when the bucket holds no snapshot yet.
func (e *Engine) Pull(ctx context.Context) (bool, error) {
	e.mu.Lock()
	store := e.store
	if store == nil {
		e.mu.Unlock()
		return false, ErrNotConfigured
	}
	e.busy++
	e.mu.Unlock()
	defer e.done()

	return e.pull(ctx, store)
}

func (e *Engine) pull(ctx context.Context, store objectstore.ObjectStore) (bool, error) {
	state := e.attached()
	if state == nil {
		return false, ErrNotAttached
	}

	rc, err := store.Get(ctx, DataKey)
	if errors.Is(err, objectstore.ErrNotFound) {
		e.logger.Info("no remote data yet", "key", DataKey)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch remote snapshot: %w", err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			e.logger.Warn("failed to close remote snapshot body", "error", cerr)
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return false, fmt.Errorf("failed to read remote snapshot: %w", err)
	}
	bundles, err := snapshot.Decode(data)
	if err != nil {
		return false, fmt.Errorf("failed to decode remote snapshot: %w", err)
	}

	next := &domain.Snapshot{Bundles: bundles, ActiveID: state.ActiveID()}
	next.EnsureActive()
	if err := state.ReplaceAll(ctx, next); err != nil {
		return false, fmt.Errorf("failed to apply remote snapshot: %w", err)
	}

	e.logger.Info("remote snapshot applied", "entities", len(bundles), "bytes", len(data))
	return true, nil
}

// SchedulePush pushes the snapshot once the quiet period passes without
// another call. It does nothing while remote sync is disabled.
func (e *Engine) SchedulePush() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.store == nil {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	gen := e.gen
	e.pending = true
	e.timer = time.AfterFunc(e.quiet, func() { e.fire(gen) })
}

func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.gen || !e.pending {
		e.mu.Unlock()
		return
	}
	e.pending = false
	e.timer = nil
	store := e.store
	e.busy++
	e.wg.Add(1)
	e.mu.Unlock()

	defer e.wg.Done()
	defer e.done()

	if store == nil {
		return
	}
	if err := e.push(e.ctx, store); err != nil {
		e.logger.Warn("remote push failed, will retry on next change", "error", err)
	}
}

// Flush drops any pending timer and pushes the current snapshot now.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	store := e.store
	if store == nil {
		e.mu.Unlock()
		return ErrNotConfigured
	}
	e.cancelPendingLocked()
	e.busy++
	e.mu.Unlock()
	defer e.done()

	return e.push(ctx, store)
}

func (e *Engine) push(ctx context.Context, store objectstore.ObjectStore) error {
	e.pushMu.Lock()
	defer e.pushMu.Unlock()

	state := e.attached()
	if state == nil {
		return ErrNotAttached
	}

	snap := state.Snapshot()
	data, err := snapshot.Encode(snap.Bundles)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := store.Put(ctx, DataKey, "application/json", bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}

	e.logger.Info("remote snapshot pushed", "entities", len(snap.Bundles), "bytes", len(data))
	return nil
}

// Syncing reports whether a pull or push is running or a push is pending.
func (e *Engine) Syncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending || e.busy > 0
}

// Enabled reports whether a complete remote configuration is applied.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store != nil
}

// ObjectStore returns the current remote client, or nil in local-only mode.
func (e *Engine) ObjectStore() objectstore.ObjectStore {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil
	}
	return e.store
}

// Config returns the configuration last passed to Configure.
func (e *Engine) Config() domain.RemoteConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Close discards any pending push, cancels in-flight requests and waits for
// background work to finish. The engine cannot be reused afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.cancelPendingLocked()
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *Engine) cancelPendingLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	e.pending = false
}

func (e *Engine) attached() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) done() {
	e.mu.Lock()
	e.busy--
	e.mu.Unlock()
}
