package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"vantage/internal/api"
	"vantage/internal/config"
	"vantage/internal/decay"
	"vantage/internal/logging"
	"vantage/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	decay  decay.Config

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is required")
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
		decay:  decay.Default(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/quota", srv.handleQuota)
	mux.HandleFunc("/api/insights", srv.handleInsights)
	mux.HandleFunc("/api/tasks/", srv.handleTaskTrigger)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "api", "listen", s.bind, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	resp := api.ConvertStatus(s.daemon.orch.Status())
	resp.StartedAt = s.daemon.startedAt
	writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleQuota(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	writeJSON(w, http.StatusOK, api.ConvertQuota(s.daemon.quota.Status()))
}

// handleInsights answers with whatever cached results exist, decay-adjusted.
// Stale results lower confidence; they never turn into errors.
func (s *apiServer) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "category query parameter is required")
		return
	}
	if !s.knownCategory(category) {
		writeError(w, http.StatusNotFound, "category is not tracked: "+category)
		return
	}

	now := time.Now().UTC()
	resp := api.InsightsResponse{Category: category, Insights: []api.Insight{}}
	for _, analyzer := range s.daemon.runner.Analyzers() {
		result, ok := s.daemon.cache.Get(r.Context(), analyzer, category)
		if !ok {
			continue
		}
		verdict := s.decay.Evaluate(result.AnalyzedAt, now)
		resp.Insights = append(resp.Insights, api.ConvertInsight(result, verdict))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleTaskTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	// Path shape: /api/tasks/{name}/trigger
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	name, action, found := strings.Cut(rest, "/")
	if !found || action != "trigger" || name == "" {
		writeError(w, http.StatusNotFound, "unknown endpoint")
		return
	}

	if err := s.daemon.orch.Trigger(name); err != nil {
		status := http.StatusConflict
		if errors.Is(err, services.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, api.TriggerResponse{Task: name, Triggered: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, api.TriggerResponse{Task: name, Triggered: true})
}

func (s *apiServer) knownCategory(category string) bool {
	for _, tracked := range s.daemon.cfg.Collection.Categories {
		if tracked == category {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}
