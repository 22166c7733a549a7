package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the health of sources, dataset, and caches",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.shutdown(context.Background())

	results := app.health.CheckAll(ctx)
	overall := app.health.OverallStatus(results)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := results[name]
		fmt.Printf("%-18s %-10s %s\n", name, r.Status, r.Message)
	}
	fmt.Printf("\nOverall: %s\n", overall)
	return nil
}
