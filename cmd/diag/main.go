package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pbaille/hwdiag/internal/config"
	"github.com/pbaille/hwdiag/internal/diagnosis"
	"github.com/pbaille/hwdiag/internal/logging"
	"github.com/pbaille/hwdiag/internal/store"
)

// app carries the per-invocation state shared by subcommands
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New(), log: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:          "diag",
		Short:        "Log and analyse computer hardware problems",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("db", filepath.Join(config.DefaultDir(), config.DBFileName), "database path")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ~/.diag/config.yaml)")
	_ = a.v.BindPFlag("db", flags.Lookup("db"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(a.setupCmd())
	rootCmd.AddCommand(a.addCmd())
	rootCmd.AddCommand(a.listCmd())
	rootCmd.AddCommand(a.showCmd())
	rootCmd.AddCommand(a.deleteCmd())
	rootCmd.AddCommand(a.freqCmd())
	rootCmd.AddCommand(a.trendCmd())
	rootCmd.AddCommand(a.categoriesCmd())

	return rootCmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.File,
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log.With(zap.String("run_id", uuid.NewString()))
	return nil
}

// getManager opens the configured database and makes sure the schema exists
func (a *app) getManager() (*diagnosis.Manager, error) {
	// Ensure directory exists
	dir := filepath.Dir(a.cfg.DB)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	m := diagnosis.New(store.New(a.cfg.DB, a.log), a.log)
	if !m.Initialize() {
		return nil, fmt.Errorf("database setup failed: %s", a.cfg.DB)
	}
	return m, nil
}
