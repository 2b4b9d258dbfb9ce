// Package app wires together the MCP core's collaborators — registry,
// dispatcher, task executor, persistence, description cache, and progress
// broker — into one runnable instance, the way cmd/argo's serve command
// and the HTTP API both need it assembled.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/argo-mcp/argo/internal/cache"
	"github.com/argo-mcp/argo/internal/config"
	"github.com/argo-mcp/argo/internal/executor"
	"github.com/argo-mcp/argo/internal/logger"
	"github.com/argo-mcp/argo/internal/mcp"
	"github.com/argo-mcp/argo/internal/providers"
	"github.com/argo-mcp/argo/internal/pubsub"
	"github.com/argo-mcp/argo/internal/store"
	"github.com/argo-mcp/argo/internal/tools"
)

// App is the fully wired MCP tool-server runtime.
type App struct {
	Config     *config.Config
	Registry   *mcp.Registry
	Dispatcher *mcp.Dispatcher
	Executor   *executor.Executor
	Store      *store.SQLiteStore
	Cache      cache.Cache
	Broker     *pubsub.Broker

	startedAt        time.Time
	initDuration     time.Duration
	initialised      bool
}

// New assembles an App from cfg. It registers the sample tools (plus
// describe_tool when a describe provider can be built, i.e. its API key is
// set), binds the task sub-processors, and opens the persistence collaborator.
func New(cfg *config.Config) (*App, error) {
	start := time.Now()

	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("app: resolve db path: %w", err)
		}
	}
	taskStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	descriptionCache, err := newCache(cfg, dbPath)
	if err != nil {
		taskStore.Close()
		return nil, fmt.Errorf("app: open cache: %w", err)
	}

	broker := pubsub.NewBroker()

	execCfg := executor.Config{
		WorkerParallelism:         cfg.WorkerParallelism,
		DefaultTimeoutSeconds:     cfg.DefaultTimeoutMs / 1000,
		StuckTaskThresholdMinutes: cfg.StuckTaskThresholdMinutes,
		RetentionDays:             cfg.RetentionDays,
		MaxQueueDepth:             cfg.MaxQueueDepth,
	}
	exec := executor.New(execCfg, taskStore, broker)
	registerProcessors(exec)

	reg := mcp.NewRegistry()
	descriptors, handlers := tools.Sample()

	if provider, perr := newDescribeProvider(cfg); perr == nil {
		descTool, descHandler := tools.DescribeTool(reg, provider, descriptionCache)
		descriptors = append(descriptors, descTool)
		handlers[descTool.Name] = descHandler
	} else if cfg.LogToolDiscovery {
		logger.Warning("app: describe_tool disabled: %v", perr)
	}

	if err := reg.Register(descriptors, handlers); err != nil {
		taskStore.Close()
		return nil, fmt.Errorf("app: register tools: %w", err)
	}

	defaultTimeout := time.Duration(cfg.DefaultTimeoutMs) * time.Millisecond
	dispatcher := mcp.NewDispatcher(reg, defaultTimeout)

	a := &App{
		Config:       cfg,
		Registry:     reg,
		Dispatcher:   dispatcher,
		Executor:     exec,
		Store:        taskStore,
		Cache:        descriptionCache,
		Broker:       broker,
		startedAt:    start,
		initDuration: time.Since(start),
		initialised:  true,
	}
	return a, nil
}

func newCache(cfg *config.Config, dbPath string) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "persistent":
		return cache.NewSQLiteCache(dbPath)
	default:
		return cache.NoopCache{}, nil
	}
}

func newDescribeProvider(cfg *config.Config) (providers.Provider, error) {
	var apiKey string
	switch cfg.DescribeProvider.Kind {
	case "anthropic":
		apiKey = cfg.Keys.Anthropic
	case "openai_compat":
		apiKey = cfg.Keys.OpenAI
	}
	return providers.NewProvider(cfg.DescribeProvider.Kind, cfg.DescribeProvider.ModelID, apiKey, cfg.DescribeProvider.BaseURL)
}

func registerProcessors(exec *executor.Executor) {
	backend := tools.NoopBrowserBackend()
	exec.RegisterProcessor("browser_navigate", tools.BrowserNavigate(backend))
	exec.RegisterProcessor("page_extract", tools.PageExtract(backend))
	exec.RegisterProcessor("travel_search", tools.TravelSearch(nil))
}

// Start launches the task executor's worker pool and housekeeping sweeps.
func (a *App) Start(ctx context.Context) {
	a.Executor.Start(ctx)
}

// Stop shuts down the task executor and closes the persistence connection.
func (a *App) Stop() {
	a.Executor.Stop()
	if a.Store != nil {
		a.Store.Close()
	}
	if closer, ok := a.Cache.(interface{ Close() error }); ok {
		closer.Close()
	}
}

// Initialised reports whether the App has completed startup. The health
// endpoint reports DOWN until this is true.
func (a *App) Initialised() bool { return a.initialised }

// InitializationTimeMs is how long New took to assemble the App.
func (a *App) InitializationTimeMs() int64 { return a.initDuration.Milliseconds() }

// StartedAt is when New was called.
func (a *App) StartedAt() time.Time { return a.startedAt }
