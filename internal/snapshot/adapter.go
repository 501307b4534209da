package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vbonduro/islandlife/internal/domain"
	"github.com/vbonduro/islandlife/internal/store"
)

// Local storage keys.
const (
	KeyData         = "island_life_data"
	KeyActiveID     = "active_pet_id"
	KeyRemoteConfig = "island_life_cloud_config"
)

// DefaultQuotaBytes mirrors the usual browser storage allowance.
const DefaultQuotaBytes = 5 * 1024 * 1024

var ErrQuotaExceeded = errors.New("local storage quota exceeded")

// settingRepository is the subset of store.SettingStore the adapter requires.
type settingRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, pairs map[string]string) error
	Delete(ctx context.Context, key string) error
}

// Adapter is the local persistence adapter: it writes the full store
// synchronously and reads it back at startup.
type Adapter struct {
	settings   settingRepository
	quotaBytes int
	logger     *slog.Logger
}

// NewAdapter returns an adapter over settings. quotaBytes <= 0 disables the
// size check.
func NewAdapter(settings settingRepository, quotaBytes int, logger *slog.Logger) *Adapter {
	return &Adapter{settings: settings, quotaBytes: quotaBytes, logger: logger}
}

// SaveSnapshot writes the serialised bundles and the active id. When the
// payload exceeds the quota only the active id is written and
// ErrQuotaExceeded is returned.
func (a *Adapter) SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	data, err := Encode(snap.Bundles)
	if err != nil {
		return err
	}

	if a.quotaBytes > 0 && len(data) > a.quotaBytes {
		if err := a.settings.Set(ctx, KeyActiveID, snap.ActiveID); err != nil {
			return fmt.Errorf("failed to save active id: %w", err)
		}
		return fmt.Errorf("%w: %d bytes > %d", ErrQuotaExceeded, len(data), a.quotaBytes)
	}

	if err := a.settings.SetMany(ctx, map[string]string{
		KeyData:     string(data),
		KeyActiveID: snap.ActiveID,
	}); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the last saved store, or nil when nothing usable is
// stored. Corrupt payloads are logged and treated as absent.
func (a *Adapter) LoadSnapshot(ctx context.Context) *domain.Snapshot {
	raw, ok, err := a.settings.Get(ctx, KeyData)
	if err != nil {
		a.logger.Error("failed to read local snapshot", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	bundles, err := Decode([]byte(raw))
	if err != nil {
		a.logger.Warn("ignoring corrupt local snapshot", "error", err)
		return nil
	}

	activeID, _, err := a.settings.Get(ctx, KeyActiveID)
	if err != nil {
		a.logger.Warn("failed to read active id", "error", err)
	}

	snap := &domain.Snapshot{Bundles: bundles, ActiveID: activeID}
	snap.EnsureActive()
	return snap
}

func (a *Adapter) SaveRemoteConfig(ctx context.Context, cfg domain.RemoteConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode remote config: %w", err)
	}
	if err := a.settings.Set(ctx, KeyRemoteConfig, string(data)); err != nil {
		return fmt.Errorf("failed to save remote config: %w", err)
	}
	return nil
}

// LoadRemoteConfig returns the saved remote config. ok is false when none is
// stored or it cannot be parsed.
func (a *Adapter) LoadRemoteConfig(ctx context.Context) (cfg domain.RemoteConfig, ok bool) {
	raw, found, err := a.settings.Get(ctx, KeyRemoteConfig)
	if err != nil {
		a.logger.Error("failed to read remote config", "error", err)
		return domain.RemoteConfig{}, false
	}
	if !found {
		return domain.RemoteConfig{}, false
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		a.logger.Warn("ignoring corrupt remote config", "error", err)
		return domain.RemoteConfig{}, false
	}
	return cfg, true
}

// ClearRemoteConfig forgets saved credentials. Clearing an absent config is
// not an error.
func (a *Adapter) ClearRemoteConfig(ctx context.Context) error {
	if err := a.settings.Delete(ctx, KeyRemoteConfig); err != nil && !errors.Is(err, store.ErrSettingNotFound) {
		return fmt.Errorf("failed to clear remote config: %w", err)
	}
	return nil
}
