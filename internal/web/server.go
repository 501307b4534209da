package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/islandlife/internal/advisor"
	"github.com/vbonduro/islandlife/internal/ingest"
	"github.com/vbonduro/islandlife/internal/remotesync"
	"github.com/vbonduro/islandlife/internal/service"
	"github.com/vbonduro/islandlife/internal/snapshot"
)

const maxJSONBody = 1 << 20 // 1 MB

type Server struct {
	pets     *service.PetService
	assets   *ingest.Pipeline
	sync     *remotesync.Engine
	settings *snapshot.Adapter
	advisor  *advisor.Advisor
	mux      *http.ServeMux
	logger   *slog.Logger
}

func NewServer(
	pets *service.PetService,
	assets *ingest.Pipeline,
	sync *remotesync.Engine,
	settings *snapshot.Adapter,
	adv *advisor.Advisor,
	logger *slog.Logger,
) *Server {
	s := &Server{
		pets:     pets,
		assets:   assets,
		sync:     sync,
		settings: settings,
		advisor:  adv,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /state", s.handleGetState)

	s.mux.HandleFunc("GET /pets", s.handleListPets)
	s.mux.HandleFunc("POST /pets", s.handleCreatePet)
	s.mux.HandleFunc("DELETE /pets/{id}", s.handleDeletePet)
	s.mux.HandleFunc("POST /pets/{id}/activate", s.handleActivatePet)
	s.mux.HandleFunc("PATCH /profile", s.handleUpdateProfile)
	s.mux.HandleFunc("POST /weight", s.handleUpdateWeight)

	s.mux.HandleFunc("POST /services", s.handleAddServiceRecord)
	s.mux.HandleFunc("POST /diary", s.handleAddDiaryEntry)
	s.mux.HandleFunc("POST /milestones", s.handleAddMilestone)
	s.mux.HandleFunc("DELETE /milestones/{id}", s.handleDeleteMilestone)
	s.mux.HandleFunc("POST /milestones/{id}/toggle", s.handleToggleMilestone)
	s.mux.HandleFunc("POST /vouchers", s.handleAddVoucher)
	s.mux.HandleFunc("POST /vouchers/{id}/redeem", s.handleRedeemVoucher)

	s.mux.HandleFunc("POST /assets", s.handleUploadAsset)
	s.mux.HandleFunc("GET /objects/{key...}", s.handleGetObject)

	s.mux.HandleFunc("GET /cloud-config", s.handleGetCloudConfig)
	s.mux.HandleFunc("PUT /cloud-config", s.handlePutCloudConfig)
	s.mux.HandleFunc("DELETE /cloud-config", s.handleDeleteCloudConfig)
	s.mux.HandleFunc("GET /sync", s.handleSyncStatus)
	s.mux.HandleFunc("POST /sync/pull", s.handleSyncPull)
	s.mux.HandleFunc("POST /sync/push", s.handleSyncPush)

	s.mux.HandleFunc("POST /advice", s.handleAdvice)
}

// securityHeaders sets the response headers shared by every route.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self' data:; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write json response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

// writeServiceError maps store errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEntityNotFound),
		errors.Is(err, service.ErrMilestoneNotFound),
		errors.Is(err, service.ErrVoucherNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrLastEntity):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
