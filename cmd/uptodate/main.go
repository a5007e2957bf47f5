package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/indianpineappl/upto-date/internal/config"
	"github.com/indianpineappl/upto-date/internal/database"
	"github.com/indianpineappl/upto-date/internal/ingest"
	"github.com/indianpineappl/upto-date/internal/scheduler"
	"github.com/indianpineappl/upto-date/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "uptodate",
	Short:   "Location-aware daily topic feeds",
	Long:    "Upto Date distills raw content into daily topic snapshots per geographic bucket and serves a personalized, ranked feed.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(serveCmd)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.Output.DataDir
	if dataDir == "" {
		dataDir = config.DataDir()
	}
	return database.Open(filepath.Join(dataDir, "uptodate.db"))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("uptodate", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/uptodate/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, API keys, and the summarization provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s\n\n", database.GetToday())
		fmt.Println("Content:")
		fmt.Printf("  Items stored: %d\n", stats.TotalItems)
		fmt.Printf("  Snapshots: %d\n", stats.Snapshots)
		fmt.Printf("  Days with snapshots: %d\n", stats.SnapshotDates)
		fmt.Println("\nEngagement:")
		fmt.Printf("  Events recorded: %d\n", stats.TotalEvents)
		fmt.Printf("  Users with scores: %d\n", stats.ScoredUsers)
		fmt.Println("\nIngestion:")
		fmt.Printf("  Runs: %d\n", stats.Runs)

		runs, err := db.GetRecentRuns(5)
		if err != nil {
			return fmt.Errorf("getting runs: %w", err)
		}
		for _, r := range runs {
			finished := "-"
			if r.FinishedAt != nil {
				finished = *r.FinishedAt
			}
			fmt.Printf("  #%d %s started=%s finished=%s\n", r.ID, r.Status, r.StartedAt, finished)
		}
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the ingestion pipeline once for today",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := ingest.New(cfg, db)
		result, err := pipe.Run(context.Background())
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}

		fmt.Println("Ingestion complete:")
		fmt.Printf("  Run: #%d (%s)\n", result.RunID, result.Date)
		fmt.Printf("  Items fetched: %d\n", result.ItemsFetched)
		fmt.Printf("  New items stored: %d\n", result.ItemsStored)
		fmt.Printf("  Buckets generated: %d\n", len(result.Buckets))
		for _, b := range result.Buckets {
			fmt.Printf("    %s\n", b)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the feed and events API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.Ingest.Schedule != "" {
			pipe := ingest.New(cfg, db)
			sched := scheduler.New()
			err := sched.AddJob("daily_ingest", cfg.Ingest.Schedule, func(ctx context.Context) error {
				_, err := pipe.Run(ctx)
				return err
			})
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
		}

		return server.Serve(db, cfg.Server.Port, cfg.Server.Debug)
	},
}
