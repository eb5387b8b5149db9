package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wuwenbin0122/tasklist/internal/app"
	"github.com/wuwenbin0122/tasklist/internal/utils"
)

var (
	minutes int
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "cleanup_anonymous_todos",
	Short: "Delete anonymous todos older than the given age",
	Args:  cobra.NoArgs,
	RunE:  runCleanup,
}

func init() {
	rootCmd.Flags().IntVar(&minutes, "minutes", 10, "age in minutes after which anonymous todos are deleted")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without deleting")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	if minutes <= 0 {
		return fmt.Errorf("--minutes must be positive, got %d", minutes)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}
	cfg, err := utils.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := utils.MustNewLogger(cfg.Logging)
	defer logger.Sync()

	ctx := context.Background()
	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close(ctx)

	services, err := app.NewServices(cfg, backends, logger)
	if err != nil {
		return err
	}

	report, err := services.Todos.CleanupAnonymous(ctx, time.Duration(minutes)*time.Minute, dryRun)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case report.Count == 0:
		fmt.Fprintf(out, "No anonymous todos older than %d minutes found.\n", minutes)
	case report.DryRun:
		fmt.Fprintf(out, "DRY RUN: Would delete %d anonymous todos older than %d minutes:\n", report.Count, minutes)
		for _, t := range report.Todos {
			fmt.Fprintf(out, "  - %q (created: %s)\n", t.Title, t.CreatedAt.Format(time.RFC3339))
		}
	default:
		fmt.Fprintf(out, "Successfully deleted %d anonymous todos older than %d minutes.\n", report.Count, minutes)
	}
	return nil
}
