// Package cli implements the fable command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/fable/internal/paths"
	"github.com/mesh-intelligence/fable/internal/sqlite"
	"github.com/mesh-intelligence/fable/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "fable" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fable",
		Short: "A branching-narrative engine with per-user progress",
		Long: "Fable stores a directed graph of story dialogs and labeled choices\n" +
			"in SQLite, tracks each user's position in the story, and validates\n" +
			"the graph against authoring defects.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .fable-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "verbose logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newUserCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newChooseCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newBackupCmd())
	root.AddCommand(newCheckCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// newLogger builds the CLI logger. Verbose mode uses the development
// configuration; otherwise warnings and errors only, on stderr.
func newLogger() *zap.Logger {
	if flags.verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		return log
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// openStore resolves directories and configuration, then opens the story
// store. The caller must Close it.
func openStore() (*sqlite.Store, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}

	v, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend:    types.BackendSQLite,
		DataDir:    dataDir,
		SeedScript: v.GetString(cfgKeySeedScript),
	}
	return sqlite.Open(cfg, newLogger())
}
