package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/airport-gateway/internal/control"
	"github.com/vietddude/airport-gateway/internal/core/domain"
)

var probeKey string

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show the configured providers and their breaker state",
	Run:   runProviders,
}

func init() {
	providersCmd.Flags().StringVar(&probeKey, "probe", "", "look up this ICAO code once on every provider before printing")
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize gateway", "error", err)
		os.Exit(1)
	}

	schemas := make(map[string]string, len(cfg.Providers))
	for _, p := range cfg.Providers {
		schemas[p.Name] = p.Schema
	}

	probes := make(map[string]string)
	if probeKey != "" {
		key, err := domain.NormalizeKey(probeKey)
		if err != nil {
			slog.Error("Invalid probe key", "key", probeKey, "error", err)
			os.Exit(1)
		}
		for _, s := range app.Strategies() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			probes[s.Name()] = s.Execute(ctx, key).Kind.String()
			cancel()
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "PROVIDER\tPRIORITY\tSCHEMA\tENDPOINT\tBREAKER\tMONITOR\tPROBE")

	for _, s := range app.Strategies() {
		h := s.Health()
		monitor := "-"
		if h.Transport != nil && h.Transport.MonitorStats != nil {
			monitor = h.Transport.MonitorStats.Status.String()
		}
		probe := probes[s.Name()]
		if probe == "" {
			probe = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			s.Name(),
			s.Priority(),
			schemas[s.Name()],
			s.Endpoint(),
			h.Breaker.State,
			monitor,
			probe,
		)
	}
	_ = w.Flush()
}
