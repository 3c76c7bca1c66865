package main

import (
	"context"
	"fmt"
	"os"

	"github.com/folio/backend/internal/app"
	"github.com/folio/backend/internal/background"
	"github.com/folio/backend/internal/repository"
	"github.com/folio/backend/internal/seed"
	"github.com/folio/backend/internal/service"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load fixture data into the live store",
}

var seedProjectsCmd = &cobra.Command{
	Use:   "projects <file.yaml>",
	Short: "Create projects from a YAML file, skipping titles that already exist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		file, err := seed.Parse(f)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := repository.NewPool(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		tasks := background.New(background.Options{Workers: 1}, logger)
		defer func() { _ = tasks.Shutdown(context.Background()) }()

		images, _ := app.Images(cfg, logger)
		projects := service.NewProjectService(repository.NewPgProjectRepository(pool), images, tasks, cfg.Images.PlaceholderURL, logger)

		res, err := seed.Apply(cmd.Context(), projects, file, logger)
		if res != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", len(res.Created), len(res.Skipped))
		}
		return err
	},
}

func init() {
	seedCmd.AddCommand(seedProjectsCmd)
	rootCmd.AddCommand(seedCmd)
}
