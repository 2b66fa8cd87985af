package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/handlers"
	"github.com/ternarybob/loquor/internal/httpclient"
	"github.com/ternarybob/loquor/internal/services/generate"
	"github.com/ternarybob/loquor/internal/services/pipeline"
	"github.com/ternarybob/loquor/internal/services/retrieval"
	"github.com/ternarybob/loquor/internal/services/scheduler"
	"github.com/ternarybob/loquor/internal/services/synthesize"
	"github.com/ternarybob/loquor/internal/services/transcribe"
	"github.com/ternarybob/loquor/internal/storage/artifacts"
	"github.com/ternarybob/loquor/internal/storage/kb"
)

// App holds all application dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	ArtifactStore *artifacts.Store
	KBDatabase    *kb.BadgerDB
	DocumentStore *kb.DocumentStore

	// Services
	Transcriber *transcribe.Service
	Retriever   *retrieval.Service
	Generator   *generate.Service
	Synthesizer *synthesize.Service
	Pipeline    *pipeline.Pipeline
	Sweeper     *scheduler.RetentionSweeper

	// Handlers
	HealthHandler  *handlers.HealthHandler
	AgentHandler   *handlers.AgentHandler
	ResultsHandler *handlers.ResultsHandler
	JobsHandler    *handlers.JobsHandler
	KBHandler      *handlers.KBHandler
}

// New creates and wires all application dependencies
func New(ctx context.Context, config *common.Config) (*App, error) {
	logger := common.GetLogger()

	a := &App{
		Config: config,
		Logger: logger,
	}

	// Storage
	artifactStore, err := artifacts.NewStore(config.Storage.OutputDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}
	a.ArtifactStore = artifactStore

	kbDB, err := kb.NewBadgerDB(logger, &config.Storage.KB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize knowledge base: %w", err)
	}
	a.KBDatabase = kbDB
	a.DocumentStore = kb.NewDocumentStore(kbDB, logger)

	// Seed the knowledge base from the markdown docs directory
	if dir := config.Storage.KB.DocsDir; dir != "" {
		count, err := kb.LoadDirectory(ctx, dir, a.DocumentStore, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load knowledge base documents: %w", err)
		}
		logger.Info().Int("documents", count).Str("dir", dir).Msg("Knowledge base loaded")
	}

	// Shared HTTP client for backend calls
	client := httpclient.New(config.RequestTimeout())

	// Pipeline stages
	a.Transcriber = transcribe.NewService(&config.STT, config.Pipeline.StrictTranscription, client, logger)
	a.Retriever = retrieval.NewService(&config.KB, a.DocumentStore, client, logger)
	a.Synthesizer = synthesize.NewService(&config.TTS, client, logger)

	var providers []generate.Provider
	if config.LLM.Enabled {
		providers = generate.BuildProviders(ctx, config, logger)
	}
	a.Generator = generate.NewService(logger, providers...)

	builder := pipeline.NewResponseBuilder(a.Generator, config.LLM.Enabled && a.Generator.Configured(), logger)
	a.Pipeline = pipeline.NewPipeline(
		artifactStore,
		a.Transcriber,
		a.Retriever,
		builder,
		a.Synthesizer,
		config.Pipeline.DefaultTopK,
		logger,
	)

	a.Sweeper, err = scheduler.NewRetentionSweeper(artifactStore, &config.Retention, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize retention sweeper: %w", err)
	}

	// Handlers
	a.HealthHandler = handlers.NewHealthHandler(logger)
	a.AgentHandler = handlers.NewAgentHandler(a.Pipeline, config, logger)
	a.ResultsHandler = handlers.NewResultsHandler(artifactStore, logger)
	a.JobsHandler = handlers.NewJobsHandler(a.Pipeline, artifactStore, config, logger)
	a.KBHandler = handlers.NewKBHandler(a.DocumentStore, a.Retriever, logger)

	logger.Info().
		Str("stt", stageState(a.Transcriber.IsConfigured())).
		Str("llm", stageState(a.Generator.Configured())).
		Msg("Application initialized")

	return a, nil
}

// Close releases application resources
func (a *App) Close() {
	a.Sweeper.Stop()

	if a.Generator != nil {
		if err := a.Generator.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM providers")
		}
	}

	if a.KBDatabase != nil {
		if err := a.KBDatabase.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close knowledge base")
		}
	}

	// Give badger a moment to flush before exit
	time.Sleep(100 * time.Millisecond)
}

func stageState(configured bool) string {
	if configured {
		return "configured"
	}
	return "placeholder"
}
