// Command pantryctl seeds, exports and archives the pantry catalog against the
// storage backend selected by PANTRY_* environment variables or flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"pantry/internal/blob"
	"pantry/internal/core"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exitFunc = os.Exit

type app struct {
	cfg    core.Config
	logger *zap.Logger
	repos  *core.Repositories

	opts     []core.Option
	openBlob func(context.Context, blob.Config) (blob.Store, error)

	storage    string
	sqlitePath string
	logLevel   string
	blobDriver string
	blobRoot   string
}

func newApp() *app {
	return &app{openBlob: blob.Open}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pantryctl",
		Short:         "Manage the pantry catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.teardown()
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&a.storage, "storage", "", "storage driver: memory|sqlite|postgres (overrides PANTRY_STORAGE_DRIVER)")
	f.StringVar(&a.sqlitePath, "sqlite-path", "", "sqlite database file (overrides PANTRY_SQLITE_PATH)")
	f.StringVar(&a.logLevel, "log-level", "", "debug|info|warn|error (overrides PANTRY_LOG_LEVEL)")
	f.StringVar(&a.blobDriver, "blob-driver", "", "archive store: fs|s3|memory (overrides PANTRY_BLOB_DRIVER)")
	f.StringVar(&a.blobRoot, "blob-root", "", "directory for the fs archive store (overrides PANTRY_BLOB_FS_ROOT)")

	root.AddCommand(
		newSeedCmd(a),
		newExportCmd(a),
		newArchiveCmd(a),
		newArchivesCmd(a),
		newRestoreCmd(a),
		newStatsCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := core.LoadConfig()
	if err != nil {
		return err
	}
	if a.storage != "" {
		cfg.Storage = core.StorageDriver(a.storage)
	}
	if a.sqlitePath != "" {
		cfg.SQLitePath = a.sqlitePath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.blobDriver != "" {
		cfg.Blob.Driver = blob.Driver(a.blobDriver)
	}
	if a.blobRoot != "" {
		cfg.Blob.FSRoot = a.blobRoot
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger == nil {
		if a.logger, err = core.BuildZap(cfg.LogLevel); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	opts := append([]core.Option{core.WithLogger(core.NewZapLogger(a.logger))}, a.opts...)
	a.repos, err = core.OpenRepositories(cmd.Context(), cfg, opts...)
	return err
}

func (a *app) teardown() error {
	var err error
	if a.repos != nil {
		if err = a.repos.Close(); err != nil && a.logger != nil {
			a.logger.Error("close repositories", zap.Error(err))
		}
		a.repos = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "pantryctl:", err)
		stop()
		exitFunc(1)
	}
}
