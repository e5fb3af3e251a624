// Package wire provides dependency injection for slic.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	cliadapter "github.com/example/slic/internal/adapters/cli"
	"github.com/example/slic/internal/adapters/compose"
	"github.com/example/slic/internal/adapters/envfile"
	"github.com/example/slic/internal/adapters/filesystem"
	"github.com/example/slic/internal/adapters/git"
	"github.com/example/slic/internal/adapters/registry"
	"github.com/example/slic/internal/adapters/shell"
	"github.com/example/slic/internal/adapters/sqlite"
	"github.com/example/slic/internal/app"
	"github.com/example/slic/internal/config"
	"github.com/example/slic/internal/db"
	"github.com/example/slic/internal/logging"
	"github.com/example/slic/internal/ports/primary"
	"github.com/example/slic/internal/ports/secondary"
)

var (
	settings = config.New()

	stackService    primary.StackService
	worktreeService primary.WorktreeService
	syncService     primary.SyncService
	workspace       secondary.Workspace
	logger          *zap.Logger
	journalDB       *sql.DB

	initErr error
	once    sync.Once
)

// Settings returns the viper instance the services are configured from.
// Flags must be bound to it before the first service is requested.
func Settings() *viper.Viper {
	return settings
}

// Init builds the services and reports configuration errors.
func Init() error {
	once.Do(initServices)
	return initErr
}

// Close flushes the logger and closes the journal database.
func Close() {
	if logger != nil {
		_ = logger.Sync()
	}
	if journalDB != nil {
		_ = journalDB.Close()
	}
}

// StackService returns the singleton StackService instance.
func StackService() primary.StackService {
	mustInit()
	return stackService
}

// WorktreeService returns the singleton WorktreeService instance.
func WorktreeService() primary.WorktreeService {
	mustInit()
	return worktreeService
}

// SyncService returns the singleton SyncService instance.
func SyncService() primary.SyncService {
	mustInit()
	return syncService
}

// Workspace returns the filesystem adapter used to detect the current stack.
func Workspace() secondary.Workspace {
	mustInit()
	return workspace
}

func mustInit() {
	if err := Init(); err != nil {
		log.Fatalf("failed to initialize slic: %v", err)
	}
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cfg, err := config.Load(settings)
	if err != nil {
		initErr = err
		return
	}

	logger, err = logging.New(cfg.LogLevel)
	if err != nil {
		initErr = fmt.Errorf("invalid %s: %w", config.KeyLogLevel, err)
		return
	}

	// Secondary adapters
	workspace = filesystem.NewWorkspaceAdapter()
	executor := shell.NewExecutor(logger)
	gitClient := git.New(executor, cfg.GitBinary)
	states := envfile.New(cfg.StateDir)
	stacks := registry.New(cfg.RegistryFile, states, logger)
	engine := compose.NewEngine(executor, cfg.ComposeCommand, cfg.ComposeFile, states)
	catalog := compose.NewCatalog(cfg.ComposeFile, cfg.Services)
	ports := compose.NewDockerPorts()

	// The journal only adds resume support; commands still run without it.
	var journal secondary.OperationJournal
	journalDB, err = db.Open(cfg.JournalFile)
	if err != nil {
		logger.Warn("operation journal unavailable, interrupted operations will not resume",
			zap.String("path", cfg.JournalFile), zap.Error(err))
		journalDB = nil
	} else {
		journal = sqlite.NewJournalRepository(journalDB)
	}

	effectExecutor := app.NewEffectExecutor(stacks, states, gitClient, engine, workspace, logger)
	runner := app.NewStepRunner(effectExecutor, journal, logger)
	prompter := cliadapter.NewTerminalPrompter()

	stackService = app.NewStackService(stacks, states, workspace, engine, ports, catalog, logger)
	worktreeService = app.NewWorktreeService(stacks, states, gitClient, workspace, prompter, runner, logger)
	syncService = app.NewSyncService(stacks, gitClient, workspace, prompter, runner, logger)
}

// StackAdapter returns a new StackAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func StackAdapter() *cliadapter.StackAdapter {
	return StackAdapterWithOutput(os.Stdout)
}

// StackAdapterWithOutput returns a new StackAdapter writing to the given output.
func StackAdapterWithOutput(out io.Writer) *cliadapter.StackAdapter {
	return cliadapter.NewStackAdapter(StackService(), out)
}

// WorktreeAdapter returns a new WorktreeAdapter writing to stdout.
func WorktreeAdapter() *cliadapter.WorktreeAdapter {
	return WorktreeAdapterWithOutput(os.Stdout)
}

// WorktreeAdapterWithOutput returns a new WorktreeAdapter writing to the given output.
func WorktreeAdapterWithOutput(out io.Writer) *cliadapter.WorktreeAdapter {
	return cliadapter.NewWorktreeAdapter(WorktreeService(), out)
}

// SyncAdapter returns a new SyncAdapter writing to stdout.
func SyncAdapter() *cliadapter.SyncAdapter {
	return SyncAdapterWithOutput(os.Stdout)
}

// SyncAdapterWithOutput returns a new SyncAdapter writing to the given output.
func SyncAdapterWithOutput(out io.Writer) *cliadapter.SyncAdapter {
	return cliadapter.NewSyncAdapter(SyncService(), out)
}
