package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uttam-in/gridstats/memory"
	"github.com/uttam-in/gridstats/stats"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive stat lookup with conversation memory",
	Long: `Starts an interactive session. Player names and stat keywords are
picked out of each question; follow-up questions that name no player
reuse the players from recent turns.

  > how many rushing yards did Derrick Henry have?
  > what about his touchdowns?

Type "exit" to quit.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.shutdown(context.Background())

	mem := memory.New(app.cfg.Memory.MaxTurns)
	fmt.Printf("Session %s. Ask about a player, or \"exit\" to quit.\n", mem.ID())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		response := answer(ctx, app, mem, line)
		fmt.Println(response)
		mem.Record(line, response, nil)
	}

	summary := mem.Summarize()
	fmt.Printf("\n%d turns, %d unique players discussed.\n",
		summary.TurnCount, len(summary.UniquePlayers))
	return scanner.Err()
}

func answer(ctx context.Context, a *app, mem *memory.Memory, question string) string {
	players := memory.ExtractPlayers(question, nil)
	statCols := memory.ExtractStats(question, nil)

	// Follow-ups lean on the last few turns.
	if len(players) == 0 {
		players = mem.Context(0).RecentPlayers
	}
	if len(players) == 0 {
		return "I could not find a player name in that. Try the full name, e.g. \"Derrick Henry\"."
	}

	res, err := a.router.Resolve(ctx, stats.Query{
		Players:     players,
		Stats:       statCols,
		Aggregation: stats.AggregationSum,
	})
	if err != nil {
		return fmt.Sprintf("Sorry, I could not look that up: %v", err)
	}
	if len(res.Rows) == 0 {
		return fmt.Sprintf("No stats found for %s.", strings.Join(players, ", "))
	}

	var b strings.Builder
	for _, row := range res.Rows {
		fmt.Fprintf(&b, "%s:", row.String(stats.ColPlayerName))
		if len(statCols) > 0 {
			for _, col := range statCols {
				if v, ok := row.Float(col); ok {
					fmt.Fprintf(&b, " %s %.0f", strings.ReplaceAll(col, "_", " "), v)
				}
			}
		} else {
			fmt.Fprintf(&b, " %d stat columns on record", len(row))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
