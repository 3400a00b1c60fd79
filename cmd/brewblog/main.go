package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/renderinc/brewblog/internal/config"
	"github.com/renderinc/brewblog/internal/logger"
	"github.com/renderinc/brewblog/internal/search"
	"github.com/renderinc/brewblog/internal/storage"
	"github.com/renderinc/brewblog/internal/sync"
)

type globalFlags struct {
	dataDir    string
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "brewblog",
		Short: "Breweries, beers and drinkers with a synchronized search index",
		Long: `brewblog serves a catalog of breweries, beers and drinkers over HTTP.

Every committed write is replayed against the search index, so search
results follow the database without a separate sync job.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "./data", "Directory for database and index files")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a YAML config file")

	cmd.AddCommand(
		newServeCmd(flags),
		newReindexCmd(flags),
		newStatsCmd(flags),
		newSeedCmd(flags),
		newSearchCmd(flags),
		newGetCmd(flags),
	)
	return cmd
}

// app holds the components every command opens.
type app struct {
	cfg     *config.Config
	logger  logger.Logger
	db      *storage.DB
	gateway search.Gateway
	store   *storage.Store
}

func openApp(flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath, flags.dataDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Logger.ToLoggerConfig())

	if err := os.MkdirAll(flags.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := storage.Open(cfg.Database.ToStorageConfig())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	opts := cfg.Search.ToSearchOptions()
	gateway, err := search.New(opts)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open search backend %s: %w", opts.Backend, err)
	}
	if !search.Enabled(gateway) {
		log.Warn("search is disabled; searches will return no results")
	}

	syncer := sync.NewSynchronizer(gateway, opts.Timeout, log)

	return &app{
		cfg:     cfg,
		logger:  log,
		db:      db,
		gateway: gateway,
		store:   storage.NewStore(db, syncer, log),
	}, nil
}

func (a *app) Close() {
	if c, ok := a.gateway.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.logger.Error("close search index", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("close database", "error", err)
	}
	_ = a.logger.Sync()
}
