package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/uttam-in/gridstats/stats"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Resolve a stat query through the source chain",
	Long: `Resolves a stat query for one or more players and prints the rows.

Example:
  gridstats query --player "Derrick Henry" --stat rushing_yards --seasons 2020-2023 --agg sum

Current-season queries go to the live feed first; historical seasons
are served from the bulk dataset. Failing sources fall back down the
chain automatically.`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringSliceP("player", "p", nil, "Player name (repeatable)")
	queryCmd.Flags().StringSliceP("stat", "s", nil, "Stat column to include (repeatable)")
	queryCmd.Flags().String("seasons", "", "Season or range, e.g. 2023 or 2020-2023")
	queryCmd.Flags().Int("week", 0, "Limit to a single week")
	queryCmd.Flags().String("agg", "", "Aggregation: sum, avg, max, or min")
	queryCmd.Flags().Bool("json", false, "Print the full result as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	players, _ := cmd.Flags().GetStringSlice("player")
	statCols, _ := cmd.Flags().GetStringSlice("stat")
	seasons, _ := cmd.Flags().GetString("seasons")
	week, _ := cmd.Flags().GetInt("week")
	agg, _ := cmd.Flags().GetString("agg")
	asJSON, _ := cmd.Flags().GetBool("json")

	if len(players) == 0 {
		return fmt.Errorf("at least one --player is required")
	}

	tr, err := parseSeasons(seasons)
	if err != nil {
		return err
	}
	tr.Week = week

	q := stats.Query{
		Players:     players,
		Stats:       statCols,
		Range:       tr,
		Aggregation: stats.ParseAggregation(agg),
	}

	ctx, cancel := signalContext()
	defer cancel()

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.shutdown(context.Background())

	res, err := app.router.Resolve(ctx, q)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Printf("Source: %s  Rows: %d\n\n", res.Source, len(res.Rows))
	for _, row := range res.Rows {
		printRow(row)
	}
	return nil
}

// parseSeasons accepts "", "2023", or "2020-2023".
func parseSeasons(s string) (stats.TimeRange, error) {
	if s == "" {
		return stats.TimeRange{}, nil
	}
	start, end, found := strings.Cut(s, "-")
	first, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return stats.TimeRange{}, fmt.Errorf("invalid season %q", s)
	}
	if !found {
		return stats.TimeRange{StartSeason: first}, nil
	}
	last, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil || last < first {
		return stats.TimeRange{}, fmt.Errorf("invalid season range %q", s)
	}
	return stats.TimeRange{StartSeason: first, EndSeason: last}, nil
}

func printRow(row stats.Row) {
	fmt.Printf("%s", row.String(stats.ColPlayerName))
	if season := row.Int(stats.ColSeason); season > 0 {
		fmt.Printf("  season=%d", season)
	}
	if week := row.Int(stats.ColWeek); week > 0 {
		fmt.Printf("  week=%d", week)
	}
	cols := make([]string, 0, len(row))
	for col := range row {
		switch col {
		case stats.ColPlayerName, stats.ColSeason, stats.ColWeek:
			continue
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		fmt.Printf("  %s=%v", col, row[col])
	}
	fmt.Println()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
