package remotesync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/islandlife/internal/domain"
	"github.com/vbonduro/islandlife/internal/objectstore"
	"github.com/vbonduro/islandlife/internal/snapshot"
)

var testConfig = domain.RemoteConfig{
	AccessID:     "AKIDexample",
	AccessSecret: "secret",
	BucketName:   "pets-1250000000",
	Region:       "ap-guangzhou",
}

// memStore is an in-memory object store that counts uploads.
type memStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	putAttempts int
	puts        int
	putErr      error
	getErr      error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, key, _ string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putAttempts++
	if s.putErr != nil {
		return s.putErr
	}
	s.puts++
	s.objects[key] = data
	return nil
}

func (s *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) URL(key string) string { return "mem://" + key }

func (s *memStore) counts() (attempts, puts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putAttempts, s.puts
}

func (s *memStore) object(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key]
}

func (s *memStore) setPutErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putErr = err
}

// memState stands in for the pet service.
type memState struct {
	mu        sync.Mutex
	snap      *domain.Snapshot
	replaced  int
	snapshots int
}

func newMemState() *memState {
	return &memState{snap: domain.SeedSnapshot(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
}

func (m *memState) Snapshot() *domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots++
	return m.snap.Clone()
}

func (m *memState) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.ActiveID
}

func (m *memState) snapshotCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots
}

func (m *memState) ReplaceAll(_ context.Context, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
	m.replaced++
	return nil
}

func (m *memState) rename(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Active().Entity.Name = name
}

func (m *memState) replacedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaced
}

type harness struct {
	engine    *Engine
	store     *memStore
	state     *memState
	factoryMu sync.Mutex
	builds    int
}

func (h *harness) buildCount() int {
	h.factoryMu.Lock()
	defer h.factoryMu.Unlock()
	return h.builds
}

func newHarness(t *testing.T, quiet time.Duration) *harness {
	t.Helper()
	h := &harness{store: newMemStore(), state: newMemState()}
	factory := func(domain.RemoteConfig) (objectstore.ObjectStore, error) {
		h.factoryMu.Lock()
		defer h.factoryMu.Unlock()
		h.builds++
		return h.store, nil
	}
	h.engine = New(factory, slog.Default(), quiet)
	h.engine.Attach(h.state)
	t.Cleanup(h.engine.Close)
	return h
}

// connect configures the engine and waits for the initial pull to finish.
func (h *harness) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, h.engine.Configure(context.Background(), testConfig))
	require.Eventually(t, func() bool { return !h.engine.Syncing() }, 2*time.Second, 5*time.Millisecond)
}

func remoteBundles(t *testing.T, bundles map[string]*domain.EntityBundle) []byte {
	t.Helper()
	data, err := snapshot.Encode(bundles)
	require.NoError(t, err)
	return data
}

func TestSchedulePushCoalescesBurst(t *testing.T) {
	h := newHarness(t, 200*time.Millisecond)
	h.connect(t)

	for i := 1; i <= 5; i++ {
		h.state.rename(fmt.Sprintf("Momo %d", i))
		h.engine.SchedulePush()
	}
	assert.True(t, h.engine.Syncing())

	require.Eventually(t, func() bool {
		_, puts := h.store.counts()
		return puts == 1
	}, 3*time.Second, 10*time.Millisecond)

	time.Sleep(400 * time.Millisecond)
	attempts, puts := h.store.counts()
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, puts)
	assert.False(t, h.engine.Syncing())

	pushed, err := snapshot.Decode(h.store.object(DataKey))
	require.NoError(t, err)
	final := h.state.Snapshot()
	assert.Equal(t, final.Bundles, pushed)
	assert.Equal(t, "Momo 5", pushed[final.ActiveID].Entity.Name)
}

func TestSchedulePushWithoutRemoteDoesNothing(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)

	h.engine.SchedulePush()
	assert.False(t, h.engine.Syncing())

	time.Sleep(50 * time.Millisecond)
	attempts, _ := h.store.counts()
	assert.Zero(t, attempts)
	assert.Nil(t, h.engine.ObjectStore())
}

func TestConfigurePullsRemoteSnapshot(t *testing.T) {
	h := newHarness(t, time.Hour)
	rex := domain.NewBundle("Rex", time.Now())
	h.store.objects[DataKey] = remoteBundles(t, map[string]*domain.EntityBundle{rex.Entity.ID: rex})

	require.NoError(t, h.engine.Configure(context.Background(), testConfig))
	require.Eventually(t, func() bool { return h.state.replacedCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	got := h.state.Snapshot()
	require.Len(t, got.Bundles, 1)
	assert.Equal(t, rex.Entity.ID, got.ActiveID, "stale active id must fall back to a remote key")
	assert.Equal(t, "Rex", got.Active().Entity.Name)
}

func TestPullKeepsActiveIDWhenPresent(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.connect(t)

	local := h.state.Snapshot()
	rex := domain.NewBundle("Rex", time.Now())
	remote := local.Clone().Bundles
	remote[rex.Entity.ID] = rex
	h.store.objects[DataKey] = remoteBundles(t, remote)

	ok, err := h.engine.Pull(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	got := h.state.Snapshot()
	assert.Len(t, got.Bundles, 2)
	assert.Equal(t, local.ActiveID, got.ActiveID)
}

func TestPullNotFoundKeepsLocal(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.connect(t)
	before := h.state.Snapshot()

	ok, err := h.engine.Pull(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, h.state.replacedCount())
	assert.Equal(t, before, h.state.Snapshot())
}

func TestPullCorruptPayloadKeepsLocal(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.connect(t)
	h.store.objects[DataKey] = []byte("{not json")

	ok, err := h.engine.Pull(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Zero(t, h.state.replacedCount())
}

func TestPullNetworkErrorKeepsLocal(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.store.getErr = errors.New("connection reset by peer")
	h.connect(t)

	ok, err := h.engine.Pull(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Zero(t, h.state.replacedCount())
}

func TestPullNotConfigured(t *testing.T) {
	h := newHarness(t, time.Hour)

	_, err := h.engine.Pull(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestConfigureIncompleteDisables(t *testing.T) {
	h := newHarness(t, time.Hour)

	cfg := testConfig
	cfg.Region = "  "
	require.NoError(t, h.engine.Configure(context.Background(), cfg))

	assert.Zero(t, h.buildCount())
	assert.False(t, h.engine.Enabled())
	assert.Nil(t, h.engine.ObjectStore())
}

func TestConfigureSameConfigIsNoop(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.connect(t)
	h.connect(t)

	assert.Equal(t, 1, h.buildCount())
	assert.True(t, h.engine.Enabled())
	assert.Equal(t, testConfig, h.engine.Config())
}

func TestConfigureFactoryError(t *testing.T) {
	e := New(func(domain.RemoteConfig) (objectstore.ObjectStore, error) {
		return nil, errors.New("bad region")
	}, slog.Default(), time.Hour)
	t.Cleanup(e.Close)

	err := e.Configure(context.Background(), testConfig)
	assert.Error(t, err)
	assert.False(t, e.Enabled())
}

func TestConfigureDisablingDropsPendingPush(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)
	h.connect(t)

	h.engine.SchedulePush()
	require.NoError(t, h.engine.Configure(context.Background(), domain.RemoteConfig{}))
	assert.False(t, h.engine.Syncing())

	time.Sleep(200 * time.Millisecond)
	attempts, _ := h.store.counts()
	assert.Zero(t, attempts)
}

func TestCloseDiscardsPendingPush(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)
	h.connect(t)

	h.engine.SchedulePush()
	h.engine.Close()

	time.Sleep(200 * time.Millisecond)
	attempts, _ := h.store.counts()
	assert.Zero(t, attempts)

	h.engine.SchedulePush()
	assert.False(t, h.engine.Syncing())
	assert.ErrorIs(t, h.engine.Flush(context.Background()), ErrClosed)
}

func TestFlushPushesImmediately(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.connect(t)

	h.engine.SchedulePush()
	require.NoError(t, h.engine.Flush(context.Background()))

	_, puts := h.store.counts()
	assert.Equal(t, 1, puts)
	assert.False(t, h.engine.Syncing())
	assert.NotEmpty(t, h.store.object(DataKey))
}

func TestFlushNotConfigured(t *testing.T) {
	h := newHarness(t, time.Hour)

	assert.ErrorIs(t, h.engine.Flush(context.Background()), ErrNotConfigured)
}

func TestPushFailureRetriesOnNextChange(t *testing.T) {
	h := newHarness(t, 20*time.Millisecond)
	h.connect(t)
	h.store.setPutErr(errors.New("403 AccessDenied"))

	h.engine.SchedulePush()
	require.Eventually(t, func() bool {
		attempts, _ := h.store.counts()
		return attempts == 1 && !h.engine.Syncing()
	}, 2*time.Second, 5*time.Millisecond)

	h.store.setPutErr(nil)
	h.engine.SchedulePush()
	require.Eventually(t, func() bool {
		_, puts := h.store.counts()
		return puts == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestUseSkipsInitialPull(t *testing.T) {
	h := newHarness(t, time.Hour)
	rex := domain.NewBundle("Rex", time.Now())
	h.store.objects[DataKey] = remoteBundles(t, map[string]*domain.EntityBundle{rex.Entity.ID: rex})

	require.NoError(t, h.engine.Use(testConfig))
	assert.True(t, h.engine.Enabled())
	assert.False(t, h.engine.Syncing())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, h.state.replacedCount())

	ok, err := h.engine.Pull(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, rex.Entity.ID, h.state.Snapshot().ActiveID)
}

func TestPullReadsActiveIDWithoutCopyingState(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.store.objects[DataKey] = remoteBundles(t, h.state.Snapshot().Bundles)
	before := h.state.snapshotCount()

	require.NoError(t, h.engine.Use(testConfig))
	ok, err := h.engine.Pull(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, before, h.state.snapshotCount())
	assert.Equal(t, 1, h.state.replacedCount())
}
