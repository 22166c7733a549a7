package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Load the bulk dataset into memory",
	Long: `Loads the bulk CSV dataset and reports how many records it holds.
Useful as a preflight check that the dataset path is valid before
serving queries.`,
	RunE: runWarm,
}

func init() {
	rootCmd.AddCommand(warmCmd)
}

func runWarm(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.shutdown(context.Background())

	if err := app.dataset.Warm(ctx); err != nil {
		return err
	}
	info := app.dataset.Info()
	fmt.Printf("Loaded %d records from %s\n", info.Records, app.cfg.Dataset.Path)
	return nil
}
