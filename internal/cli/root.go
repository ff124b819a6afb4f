// Package cli implements the taxonomy command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/logging"
	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/paths"
	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/persist"
	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/taxonomy"
	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Version is the CLI release, set at link time.
var Version = "0.1.0"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonMode  bool
}

// app carries the state shared by the subcommands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	cfg       types.Config
	log       *zap.Logger
}

// NewRootCmd creates the top-level "taxonomy" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "taxonomy",
		Short: "Manage a hierarchical taxonomy of dream themes",
		Long: "taxonomy organizes dream themes into clusters and vectors, keeps user\n" +
			"customizations across upgrades of the built-in set, and persists the\n" +
			"result locally.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = a.log.Sync() },
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newShowCmd(a),
		newSearchCmd(a),
		newAddCmd(a),
		newMoveCmd(a),
		newDeleteCmd(a),
		newHideCmd(a),
		newUseCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newResetCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

// exitError tags an error with a process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// systemError marks failures of the environment rather than of the input.
func systemError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitSysError, err: err}
}

// exitCode maps an error to the process exit code. Untagged errors are
// user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return exitUserError
}

// setup resolves directories, loads config.yaml and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return systemError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return systemError(err)
	}
	cfg.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return systemError(fmt.Errorf("resolve data dir: %w", err))
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", configDir, err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.configDir = configDir
	a.cfg = cfg
	a.log = log
	return nil
}

// withStore opens the configured backend and store, runs fn and closes
// both, flushing any pending write.
func (a *app) withStore(cmd *cobra.Command, fn func(*taxonomy.Store) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := persist.Open(a.cfg)
	if err != nil {
		return systemError(fmt.Errorf("open %s backend: %w", a.cfg.Backend, err))
	}
	defer func() {
		if cerr := p.Close(); cerr != nil && err == nil {
			err = systemError(cerr)
		}
	}()

	store, err := taxonomy.New(ctx, taxonomy.Options{
		Persister: p,
		Logger:    a.log,
		SaveDelay: a.cfg.SaveDelay,
		CacheTTL:  a.cfg.CacheTTL,
		Rules:     a.cfg.Rules,
	})
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			return fmt.Errorf("stored taxonomy is invalid, run 'taxonomy reset --force' to start over: %w", err)
		}
		return systemError(err)
	}
	defer func() {
		if cerr := store.Close(ctx); cerr != nil && err == nil {
			err = systemError(cerr)
		}
	}()
	return fn(store)
}
