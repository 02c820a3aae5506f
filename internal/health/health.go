package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"mail-telegram-bridge/internal/logging"
	"mail-telegram-bridge/internal/models"
)

// Status holds the outcome of the most recent poll cycle
type Status struct {
	mu        sync.RWMutex
	state     models.CycleState
	lastRun   time.Time
	lastOK    time.Time
	lastErr   error
	processed int
	failed    int
	cycles    int
}

// Snapshot is the JSON view served on /status
type Snapshot struct {
	State     string    `json:"state"`
	Healthy   bool      `json:"healthy"`
	Cycles    int       `json:"cycles"`
	LastRun   time.Time `json:"lastRun,omitempty"`
	LastOK    time.Time `json:"lastSuccess,omitempty"`
	LastError string    `json:"lastError,omitempty"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
}

func NewStatus() *Status {
	return &Status{}
}

// SetState records the current step of the poll loop
func (s *Status) SetState(state models.CycleState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Record stores the result of a finished cycle
func (s *Status) Record(result models.CycleResult, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycles++
	s.lastRun = at
	s.lastErr = result.Err
	s.processed = result.Processed
	s.failed = result.Failed
	if result.OK() {
		s.lastOK = at
	}
}

// Healthy reports whether the last cycle succeeded. No cycle yet counts as healthy.
func (s *Status) Healthy() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr == nil, s.lastErr
}

func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		State:     s.state.String(),
		Healthy:   s.lastErr == nil,
		Cycles:    s.cycles,
		LastRun:   s.lastRun,
		LastOK:    s.lastOK,
		Processed: s.processed,
		Failed:    s.failed,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// Handler serves /health and /status for the given status
func Handler(status *Status) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ok, err := status.Healthy()
		if ok {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "Status: ok")
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "Status: error")
		fmt.Fprintln(w, err)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status.Snapshot()); err != nil {
			logging.Log.WithError(err).Warn("failed to write status response")
		}
	})
	return mux
}

// Serve runs the health server on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, status *Status) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(status),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Log.Infof("Health endpoint listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
