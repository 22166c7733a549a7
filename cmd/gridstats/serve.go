package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/uttam-in/gridstats/health"
	"github.com/uttam-in/gridstats/observe"
	"github.com/uttam-in/gridstats/router"
	"github.com/uttam-in/gridstats/stats"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stat queries and health probes over HTTP",
	Long: `Runs an HTTP server exposing:

  POST /v1/query   Resolve a stat query (JSON body)
  GET  /healthz    Liveness probe
  GET  /readyz     Readiness probe
  GET  /health     Detailed component health`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	ctx, cancel := signalContext()
	defer cancel()

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.shutdown(context.Background())

	// Best effort: queries fall back to the network sources until the
	// bulk dataset is in.
	if app.cfg.Dataset.Enabled && app.cfg.Dataset.WarmOnStartup {
		if err := app.dataset.Warm(ctx); err != nil {
			app.logger.Warn(ctx, "bulk dataset warm failed",
				observe.Field{Key: "error", Value: err.Error()})
		}
	}

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, app.health)
	mux.HandleFunc("POST /v1/query", app.handleQuery)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "server listening",
			observe.Field{Key: "addr", Value: addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down")
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) handleQuery(w http.ResponseWriter, r *http.Request) {
	var q stats.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "malformed query body")
		return
	}

	res, err := a.router.Resolve(r.Context(), q)
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, router.ErrNoPlayers) {
			code = http.StatusBadRequest
		}
		writeError(w, code, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
