// Package cmd implements the horizonsync CLI using cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvoss/horizonsync/internal/config"
	"github.com/nvoss/horizonsync/internal/notifier"
	"github.com/nvoss/horizonsync/internal/orchestrator"
	"github.com/nvoss/horizonsync/internal/remote"
	"github.com/nvoss/horizonsync/internal/storage"
)

var (
	versionStr string
	configPath string
	dbPath     string
	notifyURL  string
)

// SetVersion sets the version string and enables --version.
func SetVersion(v string) {
	versionStr = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "horizonsync",
	Short: "Mirror a remote task workspace locally and maintain horizon plans",
	Long: `horizonsync mirrors tasks, projects, sections, labels, and the activity
log from a remote task-management workspace into a local database, and
maintains day/week/month/quarter/year plans tracking what was scheduled,
completed, postponed, or dropped.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config YAML")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "horizonsync.db", "path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&notifyURL, "notify-url", "", "base URL of the report delivery endpoint")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(reportCmd)
}

// buildDaemon loads config, opens the database, and wires a Daemon — the
// shared bootstrap for every subcommand that touches the sync pipeline.
func buildDaemon() (*orchestrator.Daemon, *storage.DB, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	log := slog.Default()
	client := remote.New("https://api.todoist.com", cfg.APIToken, nil, nil, log)
	notif := notifier.New(notifyURL, log)

	daemon := orchestrator.New(cfg, db, client, notif, log)
	return daemon, db, cfg, nil
}
