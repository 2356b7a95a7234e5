package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-http-utils/etag"
	"github.com/sardine-ai/flexpreset/preset"
	"github.com/sardine-ai/flexpreset/source"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MinRefreshInterval is the shortest interval at which repositories are
// refreshed.
const MinRefreshInterval = 5 * time.Second

// Status describes the refresh state of one repository.
type Status struct {
	Name         string    `json:"name"`
	LastRefresh  time.Time `json:"last_refresh"`
	LastError    string    `json:"last_error,omitempty"`
	RefreshCount int       `json:"refresh_count"`
	IsHealthy    bool      `json:"healthy"`
	Presets      int       `json:"presets"`
	succeeded    bool
}

type Server struct {
	Repositories    []source.Repository
	RefreshInterval time.Duration
	AuthKey         string

	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	status     map[string]*Status
	metrics    *metrics
	httpMu     sync.Mutex
	httpServer *http.Server
	closed     bool
}

// NewServer refreshes all repositories once, concurrently, and then keeps
// refreshing each of them in the background until Stop is called.
func NewServer(ctx context.Context, repositories []source.Repository, refreshInterval time.Duration) *Server {
	if refreshInterval < MinRefreshInterval {
		logrus.Warnf("refresh interval too low, setting it to %s", MinRefreshInterval)
		refreshInterval = MinRefreshInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	server := &Server{
		Repositories:    repositories,
		RefreshInterval: refreshInterval,
		cancel:          cancel,
		status:          make(map[string]*Status, len(repositories)),
		metrics:         newMetrics(),
	}
	for _, repo := range repositories {
		server.status[repo.GetName()] = &Status{Name: repo.GetName()}
	}

	var g errgroup.Group
	for _, repo := range repositories {
		repo := repo
		g.Go(func() error { return server.refresh(repo) })
	}
	if err := g.Wait(); err != nil {
		logrus.WithError(err).Warn("initial refresh incomplete")
	}

	for _, repo := range repositories {
		server.wg.Add(1)
		go server.refreshLoop(ctx, repo)
	}
	return server
}

func (s *Server) refreshLoop(ctx context.Context, repo source.Repository) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.refresh(repo)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) refresh(repo source.Repository) error {
	start := time.Now()
	err := repo.Refresh()
	presets := len(repo.List())
	s.metrics.observeRefresh(repo.GetName(), time.Since(start), presets, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status[repo.GetName()]
	st.RefreshCount++
	st.LastRefresh = time.Now()
	if err != nil {
		logrus.WithError(err).WithField("repository", repo.GetName()).Error("error refreshing repository")
		st.LastError = err.Error()
		st.IsHealthy = false
		return err
	}
	st.LastError = ""
	st.IsHealthy = true
	st.succeeded = true
	st.Presets = presets
	return nil
}

// IsHealthy reports whether the last refresh of every repository
// succeeded.
func (s *Server) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.status {
		if !st.IsHealthy {
			return false
		}
	}
	return true
}

// IsReady reports whether at least one repository has been refreshed
// successfully.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.status {
		if st.succeeded {
			return true
		}
	}
	return false
}

// GetRepositoryStatus returns a snapshot of the status of every repository.
func (s *Server) GetRepositoryStatus() map[string]Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Status, len(s.status))
	for name, st := range s.status {
		out[name] = *st
	}
	return out
}

// Stop ends the background refreshes and waits for them to return.
func (s *Server) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Start serves the API on addr until Shutdown is called. It returns
// immediately once the server has been shut down.
func (s *Server) Start(addr string) error {
	logrus.WithField("addr", addr).Info("Starting server")

	var handler http.Handler = etag.Handler(s.CreateHandlers(), false)
	if s.AuthKey != "" {
		handler = Auth(handler, s.AuthKey)
	}

	s.httpMu.Lock()
	if s.closed {
		s.httpMu.Unlock()
		return nil
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.httpMu.Unlock()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, if running, and the
// background refreshes.
func (s *Server) Shutdown() error {
	defer s.Stop()

	s.httpMu.Lock()
	s.closed = true
	httpServer := s.httpServer
	s.httpMu.Unlock()
	if httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

func (s *Server) repository(name string) source.Repository {
	for _, repo := range s.Repositories {
		if repo.GetName() == name {
			return repo
		}
	}
	return nil
}

// CreateHandlers returns the routes of the API. Only GET and HEAD are
// accepted.
func (s *Server) CreateHandlers() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", s.metrics.handler())
	mux.HandleFunc("GET /{repo}", s.handleList)
	mux.HandleFunc("GET /{repo}/presets/{name...}", s.handlePreset)
	mux.HandleFunc("GET /{repo}/setups/{name...}", s.handleSetups)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.IsHealthy() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.IsReady() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"healthy":      s.IsHealthy(),
		"ready":        s.IsReady(),
		"repositories": s.GetRepositoryStatus(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	repo := s.repository(r.PathValue("repo"))
	if repo == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	names := repo.List()
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	if _, err := w.Write([]byte(b.String())); err != nil {
		logrus.WithError(err).Error("error writing response")
	}
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	repo := s.repository(r.PathValue("repo"))
	if repo == nil {
		http.NotFound(w, r)
		return
	}
	raw, ok := repo.GetRawData(r.PathValue("name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/toml")
	if _, err := w.Write(raw); err != nil {
		logrus.WithError(err).Error("error writing response")
	}
}

func (s *Server) handleSetups(w http.ResponseWriter, r *http.Request) {
	repo := s.repository(r.PathValue("repo"))
	if repo == nil {
		http.NotFound(w, r)
		return
	}
	file, ok := repo.GetData(r.PathValue("name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	setups, err := preset.LoadSetups(file)
	if err != nil {
		s.metrics.setupRequests.WithLabelValues(repo.GetName(), "error").Inc()
		logrus.WithError(err).WithField("preset", file.Name).Warn("error resolving preset")
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	s.metrics.setupRequests.WithLabelValues(repo.GetName(), "success").Inc()
	writeJSON(w, http.StatusOK, setups)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("error writing response")
	}
}

// authFree lists the paths served without an API key.
var authFree = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/status":  true,
	"/metrics": true,
}

// Auth is a middleware that checks the X-API-KEY header against authKey.
// Health, readiness, status and metrics endpoints are always served.
func Auth(next http.Handler, authKey string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authFree[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-KEY")
		if key == "" || key != authKey {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
