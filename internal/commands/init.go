package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjean/firefly-iii-sub003/internal/config"
	"github.com/zjean/firefly-iii-sub003/internal/store"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new engine workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), absDir)
		},
	}

	return cmd
}

func runInit(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	cfg := config.Default()
	if err := os.MkdirAll(filepath.Join(dir, cfg.Runlog.Dir), 0o755); err != nil {
		return fmt.Errorf("creating runlog directory: %w", err)
	}

	if err := config.Save(filepath.Join(dir, "recur.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	db, err := store.Open(filepath.Join(dir, cfg.Database.Path))
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	if err := store.SeedCurrencies(ctx, db); err != nil {
		return fmt.Errorf("seeding currencies: %w", err)
	}

	fmt.Printf("Initialized engine workspace in %s\n", dir)
	return nil
}
