package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wuwenbin0122/tasklist/internal/app"
	"github.com/wuwenbin0122/tasklist/internal/seed"
	"github.com/wuwenbin0122/tasklist/internal/utils"
)

var (
	count          int
	deleteExisting bool
)

var rootCmd = &cobra.Command{
	Use:   "create_test_users",
	Short: "Create random test users",
	Args:  cobra.NoArgs,
	RunE:  runCreate,
}

func init() {
	rootCmd.Flags().IntVar(&count, "count", 20, "number of users to create")
	rootCmd.Flags().BoolVar(&deleteExisting, "delete-existing", false, "delete existing test users before creating new ones")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCreate(cmd *cobra.Command, _ []string) error {
	if count < 0 {
		return fmt.Errorf("--count must not be negative, got %d", count)
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

	out := cmd.OutOrStdout()
	if deleteExisting {
		deleted, err := seed.DeleteTestUsers(ctx, backends.Store)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d existing test users\n", deleted)
	}

	summary, err := seed.CreateTestUsers(ctx, backends.Store, services.Auth, seed.Options{
		Count: count,
		Progress: func(done, total int) {
			fmt.Fprintf(out, "Created %d/%d users...\n", done, total)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nSuccessfully created %d test users!\n", len(summary.Created))
	fmt.Fprintf(out, "  - Active users: %d\n", summary.Active)
	fmt.Fprintf(out, "  - Staff users: %d\n", summary.Staff)
	fmt.Fprintf(out, "  - Superusers: %d\n", summary.Superusers)
	fmt.Fprintf(out, "  - Default password for all test users: %s\n", seed.TestUserPassword)
	fmt.Fprintf(out, "  - Sample usernames: %s\n", summary.SampleUsernames(5))
	return nil
}
