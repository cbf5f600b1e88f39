// Command server runs the termflow agent orchestration service: a
// mock-domain orchestrator driven by a background tick loop, with
// command submission over HTTP, live event streaming over WebSocket,
// and Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ridgeline-labs/termflow/internal/config"
	"github.com/ridgeline-labs/termflow/internal/infrastructure/logger"
	"github.com/ridgeline-labs/termflow/internal/infrastructure/monitoring"
	"github.com/ridgeline-labs/termflow/internal/infrastructure/storage"
	"github.com/ridgeline-labs/termflow/internal/infrastructure/websocket"
	"github.com/ridgeline-labs/termflow/internal/orchestrator"
	"github.com/ridgeline-labs/termflow/internal/pane"
	"github.com/ridgeline-labs/termflow/internal/runtime"
	"github.com/ridgeline-labs/termflow/internal/trigger"
	"github.com/ridgeline-labs/termflow/internal/utils"
)

func main() {
	var (
		port         = flag.String("port", "", "Server port (overrides config)")
		tickInterval = flag.Duration("tick-interval", 50*time.Millisecond, "Runtime tick cadence")
		wsSecret     = flag.String("ws-secret", "", "JWT secret for WebSocket auth (empty disables auth)")
		recordPath   = flag.String("record-log", "data/completions.log", "Completion record log path (used when no database is configured)")
	)
	flag.Parse()

	cfg := config.Load()
	cfg.Port = utils.DefaultValue(*port, cfg.Port)

	log := logger.Setup(cfg.LogLevel)
	log.Info().
		Str("port", cfg.Port).
		Int("max_agents", cfg.MaxAgents).
		Int("max_terminals", cfg.MaxTerminals).
		Msg("starting termflow server")

	// Terminal domain. The server ships with the in-memory domain;
	// a PTY-backed domain plugs in through the same interface.
	domain := pane.NewControllableMockDomain("local", "local", "mock")
	orch := orchestrator.New(cfg.OrchestratorConfig(), domain)

	metrics := monitoring.NewRuntimeMetrics()
	prometheus.MustRegister(metrics)

	hub := websocket.NewHub(log)
	go hub.Run()

	var auth websocket.Authenticator = websocket.NewNoAuth()
	if *wsSecret != "" {
		auth = websocket.NewJWTAuth(*wsSecret)
	}

	observers := runtime.TickObservers{
		websocket.NewAgentObserver(hub),
		runtime.NewMetricsObserver(orch, metrics),
	}

	// Durable completion records: PostgreSQL when a DSN is configured,
	// a local msgpack log otherwise.
	if cfg.DatabaseDSN != "" {
		store := storage.NewBunStore(cfg.DatabaseDSN)
		if err := store.InitSchema(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to initialize database schema")
			os.Exit(1)
		}
		defer store.Close()
		observers = append(observers, &bunRecordObserver{store: store})
		log.Info().Str("dsn", maskDSN(cfg.DatabaseDSN)).Msg("persisting completion records to PostgreSQL")
	} else {
		observers = append(observers, &fileRecordObserver{log: storage.NewRecordLog(*recordPath)})
		log.Info().Str("path", *recordPath).Msg("persisting completion records to local log")
	}

	rt := runtime.New(orch, cfg.RuntimeConfig(), monitoring.NewLoggingCallback(log)).
		WithTickObserver(observers)

	// The runtime and orchestrator are single-owner; the guard
	// serializes the tick loop, the HTTP handlers, and websocket
	// approval commands over them.
	guard := &runtimeGuard{rt: rt, orch: orch}
	wsHandler := websocket.NewHandler(hub, auth, guard, log)

	tickCtx, stopTicks := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(*tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				guard.Tick(tickCtx)
			}
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/ws", wsHandler)

	spawnTrigger := trigger.NewHTTPTriggerBuilder().Path("/api/v1/agents").Method(http.MethodPost).Build()
	mux.Handle("/api/v1/agents", spawnTrigger.Handler(func(ctx context.Context, payload map[string]any) (int, any) {
		agent, err := guard.SpawnAgent(capabilitiesFrom(payload))
		if err != nil {
			return http.StatusConflict, map[string]string{"error": err.Error()}
		}
		return http.StatusCreated, map[string]string{"agent_id": agent.ID}
	}))

	commandTrigger := trigger.NewHTTPTriggerBuilder().Path("/api/v1/commands").Method(http.MethodPost).Build()
	mux.Handle("/api/v1/commands", commandTrigger.Handler(func(ctx context.Context, payload map[string]any) (int, any) {
		cmd := commandFrom(payload)
		if err := guard.QueueCommand(cmd); err != nil {
			return http.StatusConflict, map[string]string{"error": err.Error()}
		}
		if approved, _ := payload["approved"].(bool); approved {
			if err := guard.ApproveCommand(cmd.ID); err != nil {
				return http.StatusInternalServerError, map[string]string{"error": err.Error()}
			}
		}
		return http.StatusAccepted, map[string]string{"command_id": cmd.ID}
	}))

	mux.HandleFunc("/api/v1/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(guard.RecentCompletions())
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	stopTicks()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server exited gracefully")
}

// runtimeGuard serializes every access path to the single-owner
// runtime and orchestrator: the tick loop, HTTP submission handlers,
// and websocket approval commands. It satisfies
// websocket.ApprovalGateway.
type runtimeGuard struct {
	mu   sync.Mutex
	rt   *runtime.AgentRuntime
	orch *orchestrator.Orchestrator
}

func (g *runtimeGuard) Tick(ctx context.Context) runtime.TickResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.Tick(ctx)
}

func (g *runtimeGuard) SpawnAgent(caps []orchestrator.Capability) (*orchestrator.Agent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.SpawnAgent(caps)
}

func (g *runtimeGuard) QueueCommand(cmd *orchestrator.Command) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.QueueCommand(cmd)
}

func (g *runtimeGuard) ApproveCommand(commandID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.orch.ApproveCommand(commandID)
}

func (g *runtimeGuard) ApproveRequest(requestID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.orch.ApproveRequest(requestID)
}

func (g *runtimeGuard) RejectRequest(requestID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.orch.RejectRequest(requestID)
}

func (g *runtimeGuard) RecentCompletions() []runtime.CompletionRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rt.RecentCompletions()
}

// bunRecordObserver persists completions through the SQL store.
type bunRecordObserver struct {
	store *storage.BunStore
}

func (o *bunRecordObserver) OnTick(runtime.TickResult) {}

func (o *bunRecordObserver) OnCompletion(rec runtime.CompletionRecord) {
	if err := o.store.SaveCompletionRecord(context.Background(), rec); err != nil {
		// Persistence is best-effort; the in-memory ring still has it.
		return
	}
}

// fileRecordObserver persists completions to the msgpack record log.
type fileRecordObserver struct {
	log *storage.RecordLog
}

func (o *fileRecordObserver) OnTick(runtime.TickResult) {}

func (o *fileRecordObserver) OnCompletion(rec runtime.CompletionRecord) {
	_ = o.log.Append(rec)
}

func capabilitiesFrom(payload map[string]any) []orchestrator.Capability {
	raw, _ := payload["capabilities"].([]any)
	caps := make([]orchestrator.Capability, 0, len(raw))
	for _, c := range raw {
		if s, ok := c.(string); ok && s != "" {
			caps = append(caps, orchestrator.Capability(s))
		}
	}
	return caps
}

func commandFrom(payload map[string]any) *orchestrator.Command {
	kind, _ := payload["kind"].(string)
	body, _ := payload["payload"].(string)
	capability, _ := payload["capability"].(string)
	return &orchestrator.Command{
		Kind:               utils.DefaultValue(kind, "shell"),
		Payload:            body,
		RequiredCapability: orchestrator.Capability(capability),
	}
}

// maskDSN masks the password in a DSN string for safe logging
func maskDSN(dsn string) string {
	start := strings.Index(dsn, "://")
	if start < 0 {
		return dsn
	}
	rest := dsn[start+3:]
	at := strings.Index(rest, "@")
	if at < 0 {
		return dsn
	}
	colon := strings.Index(rest[:at], ":")
	if colon < 0 {
		return dsn
	}
	return dsn[:start+3] + rest[:colon] + ":***" + rest[at:]
}
