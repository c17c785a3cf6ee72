package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/airport-gateway/internal/control"
)

var lookupTimeout time.Duration

var lookupCmd = &cobra.Command{
	Use:   "lookup [icao]",
	Short: "Look up one airport through the configured providers and print it as JSON",
	Args:  cobra.ExactArgs(1),
	Run:   runLookup,
}

func init() {
	lookupCmd.Flags().DurationVar(&lookupTimeout, "timeout", 30*time.Second, "overall lookup deadline")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize gateway", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	rec, err := app.Service().Get(ctx, args[0])
	if err != nil {
		slog.Error("Lookup failed", "icao", args[0], "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		slog.Error("Failed to print record", "error", err)
		os.Exit(1)
	}
}
