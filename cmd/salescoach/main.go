// Sales Coach - decides the one lever a solo seller should pull today.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/salescoach/salescoach/internal/config"
	"github.com/salescoach/salescoach/internal/logging"
	"github.com/salescoach/salescoach/internal/storage"
)

var (
	configPath string
	dataDir    string
	logLevel   string

	version = "0.1.0"
)

func main() {
	err := newRootCmd().Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "salescoach",
		Short: "Sales Coach - one decision a day for solo sellers",
		Long: `Sales Coach reads your pipeline, goals and mood, picks the single
lever that matters most today and turns it into a concrete plan.

Run 'salescoach serve' for the HTTP API or 'salescoach decide --user <id>'
for a one-off decision.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <data-dir>/config.json)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(decideCmd())
	rootCmd.AddCommand(learnCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

// loadConfig reads the config file and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logging.SetLevel(logging.ParseLevel(cfg.Log.Level))
	logging.SetJSON(cfg.Log.JSON)
	return cfg, nil
}

// openDB opens the configured database and brings the schema up to date
func openDB(cfg *config.Config) (*storage.DB, error) {
	db, err := storage.Open(storage.Config{Path: cfg.DatabasePath()})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "salescoach %s\n", version)
		},
	}
}
