package web

import (
	"errors"
	"net/http"

	"github.com/vbonduro/islandlife/internal/domain"
	"github.com/vbonduro/islandlife/internal/remotesync"
)

// cloudConfigResponse never echoes the secret back.
type cloudConfigResponse struct {
	AccessID   string `json:"accessId"`
	BucketName string `json:"bucketName"`
	Region     string `json:"region"`
	SecretSet  bool   `json:"secretSet"`
	Enabled    bool   `json:"enabled"`
}

func (s *Server) cloudConfig() cloudConfigResponse {
	cfg := s.sync.Config()
	return cloudConfigResponse{
		AccessID:   cfg.AccessID,
		BucketName: cfg.BucketName,
		Region:     cfg.Region,
		SecretSet:  cfg.AccessSecret != "",
		Enabled:    s.sync.Enabled(),
	}
}

func (s *Server) handleGetCloudConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cloudConfig())
}

// handlePutCloudConfig stores new credentials and applies them. A complete
// configuration triggers one background pull; an incomplete one switches to
// local-only mode.
func (s *Server) handlePutCloudConfig(w http.ResponseWriter, r *http.Request) {
	var cfg domain.RemoteConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}

	if err := s.settings.SaveRemoteConfig(r.Context(), cfg); err != nil {
		s.logger.Warn("failed to save remote config locally", "error", err)
	}
	if err := s.sync.Configure(r.Context(), cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.cloudConfig())
}

// handleDeleteCloudConfig forgets saved credentials and returns to
// local-only mode.
func (s *Server) handleDeleteCloudConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.ClearRemoteConfig(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear remote config")
		s.logger.Error("failed to clear remote config", "error", err)
		return
	}
	if err := s.sync.Configure(r.Context(), domain.RemoteConfig{}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.cloudConfig())
}

type syncStatusResponse struct {
	Enabled bool `json:"enabled"`
	Syncing bool `json:"syncing"`
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, syncStatusResponse{Enabled: s.sync.Enabled(), Syncing: s.sync.Syncing()})
}

func (s *Server) handleSyncPull(w http.ResponseWriter, r *http.Request) {
	pulled, err := s.sync.Pull(r.Context())
	if errors.Is(err, remotesync.ErrNotConfigured) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "remote pull failed")
		s.logger.Warn("manual pull failed", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"pulled": pulled})
}

func (s *Server) handleSyncPush(w http.ResponseWriter, r *http.Request) {
	err := s.sync.Flush(r.Context())
	if errors.Is(err, remotesync.ErrNotConfigured) || errors.Is(err, remotesync.ErrClosed) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "remote push failed")
		s.logger.Warn("manual push failed", "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
