package cli

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/afero"

	"github.com/fablestep/fablestep/internal/adapter/gateway/agent"
	"github.com/fablestep/fablestep/internal/adapter/gateway/archive"
	"github.com/fablestep/fablestep/internal/app"
	"github.com/fablestep/fablestep/internal/app/config"
	"github.com/fablestep/fablestep/internal/application/port/output"
	"github.com/fablestep/fablestep/internal/application/service"
	"github.com/fablestep/fablestep/internal/application/usecase"
	"github.com/fablestep/fablestep/internal/domain/model/game"
	"github.com/fablestep/fablestep/internal/domain/model/trace"
	"github.com/fablestep/fablestep/internal/domain/repository"
	"github.com/fablestep/fablestep/internal/infrastructure/persistence/memory"
	"github.com/fablestep/fablestep/internal/infrastructure/persistence/sqlite"
	bookrepo "github.com/fablestep/fablestep/internal/infrastructure/repository/book"
)

// Container wires the repositories, gateways, and use cases from the
// loaded configuration. Commands build one per invocation and close it
// when done.
type Container struct {
	config   config.Config
	logger   app.Logger
	db       *sql.DB
	notifier *service.Notifier

	NewGame *usecase.NewGameUseCase
	Step    *usecase.StepUseCase
	Query   *usecase.QueryUseCase
	Export  *usecase.ExportUseCase
}

// NewContainer builds the application object graph from configuration
func NewContainer(cfg config.Config, logger app.Logger) (*Container, error) {
	books, err := bookrepo.NewFileBookRepository(afero.NewOsFs(), cfg.BookPath())
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}

	c := &Container{
		config:   cfg,
		logger:   logger,
		notifier: service.NewNotifier(logger),
	}

	states, recorder, err := c.buildPersistence()
	if err != nil {
		return nil, err
	}

	rules, narrative, decision, err := buildEngine(cfg, books)
	if err != nil {
		c.Close()
		return nil, err
	}

	archiveGW, err := buildArchive(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	cache := service.NewContentCache(service.ContentCacheConfig{
		MaxEntries: cfg.CacheMaxEntries(),
		TTL:        cfg.CacheTTL(),
	})

	c.NewGame = usecase.NewNewGameUseCase(states, books, c.notifier)
	c.Step = usecase.NewStepUseCase(states, books, rules, narrative, decision,
		recorder, cache, c.notifier, logger, usecase.StepConfig{
			EvalTimeout:      cfg.EvalTimeout(),
			MaxCommitRetries: cfg.MaxCommitRetries(),
		})
	c.Query = usecase.NewQueryUseCase(states)
	c.Export = usecase.NewExportUseCase(states, archiveGW)

	return c, nil
}

// buildPersistence opens the SQLite store named by the configuration, or
// falls back to the in-memory store when no DB path is configured
func (c *Container) buildPersistence() (repository.StateRepository, output.TraceRecorder, error) {
	if c.config.DBPath() == "" {
		mem := memory.NewStateRepository()
		return mem, nopRecorder{}, nil
	}

	db, err := sql.Open("sqlite3", c.config.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.NewMigrator(db).Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	c.db = db

	return sqlite.NewStateRepository(db), sqlite.NewTraceRecorder(db), nil
}

func buildEngine(cfg config.Config, books repository.BookRepository) (output.RulesEvaluator, output.NarrativeRenderer, output.DecisionResolver, error) {
	switch cfg.Engine() {
	case "table":
		g := agent.NewTableGateway(books)
		return g, g, g, nil
	case "llm":
		if cfg.AgentAPIKey() == "" {
			return nil, nil, nil, fmt.Errorf("engine %q requires FABLESTEP_AGENT_API_KEY", cfg.Engine())
		}
		g := agent.NewLLMGateway(cfg.AgentAPIKey(), cfg.AgentAPIURL(), cfg.AgentModel())
		return g, g, g, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown engine: %q", cfg.Engine())
	}
}

func buildArchive(cfg config.Config) (output.ArchiveGateway, error) {
	if cfg.ArchiveBucket() != "" {
		return archive.NewS3ArchiveGateway(archive.S3Config{
			BucketName: cfg.ArchiveBucket(),
		})
	}

	dir := cfg.ArchiveDir()
	if dir == "" {
		dir = filepath.Join(cfg.Home(), "transcripts")
	}
	return archive.NewLocalArchiveGateway(dir)
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.notifier != nil {
		c.notifier.Close()
	}
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// nopRecorder discards trace records. The in-memory store keeps history
// on the state itself, so there is nothing durable to append to.
type nopRecorder struct{}

func (nopRecorder) Record(ctx context.Context, gameID game.ID, entry trace.Entry) error {
	return nil
}
