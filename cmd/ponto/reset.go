package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/ponto/internal/repository"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every user and attendance session",
	Long: `Reset removes every enrolled user with their face embeddings and every
attendance session, and restarts user numbering at 1. It cannot be undone.

Examples:
  ponto reset --yes`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().Bool("yes", false, "Confirm the deletion")
}

func runReset(cmd *cobra.Command, args []string) error {
	if !mustGetBool(cmd, "yes") {
		return errors.New("refusing to delete all users without --yes")
	}

	ctx := context.Background()
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	res, err := repository.NewUserRepository(pool).DeleteAll(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d users and %d attendance sessions\n", res.Users, res.Sessions)
	return nil
}
