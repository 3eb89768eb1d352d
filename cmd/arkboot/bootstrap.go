package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"arkboot/internal/orchestrator"

	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Run the one-shot regtest bootstrap and exit",
	Long: `Bootstrap runs the fixed setup sequence:
wait for the Ark server, create and unlock its wallet, wait for the wallet to
sync, fund the server wallet, initialise the ark client, fund its boarding
address and settle.

The command prints a JSON result to stdout and exits 0 on success or 1 on
the first failing step. Completed steps are not rolled back.`,
	RunE: runBootstrap,
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	// No deadline: settlement is awaited for as long as it takes.
	ctx := context.Background()

	if app.otelProvider != nil {
		defer func() {
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutCancel()
			if err := app.otelProvider.Shutdown(shutCtx); err != nil {
				slog.Warn("OTEL shutdown error", "err", err)
			}
		}()
	}

	slog.Info("starting bootstrap", "service_url", cfg.Service.URL)

	result, err := app.orchestrator.RunBootstrap(ctx)
	if err != nil {
		printResult(cmd.OutOrStdout(), map[string]string{
			"status": orchestrator.StatusError,
			"error":  err.Error(),
		})
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	printResult(cmd.OutOrStdout(), result)
	slog.Info("ark server and client setup completed successfully", "run_id", result.RunID)
	return nil
}

func printResult(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		// Fallback to plain text if JSON encoding somehow fails.
		fmt.Fprintf(w, "%v\n", v)
	}
}
