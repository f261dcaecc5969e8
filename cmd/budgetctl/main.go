// Command budgetctl runs administrative tasks directly against the store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"budgetapp/internal/config"
	"budgetapp/internal/database"
	"budgetapp/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := newRootCmd(openStore).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// opener returns a migrated database handle and a function releasing it.
type opener func(ctx context.Context) (*gorm.DB, func(), error)

func openStore(_ context.Context) (*gorm.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	manager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	if err := manager.RunMigrations(); err != nil {
		_ = manager.Close()
		return nil, nil, err
	}
	return manager.DB(), func() { _ = manager.Close() }, nil
}

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Administrative commands for the budget service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(userCmd(open), budgetCmd(open))
	return root
}
