package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/tiptoe/internal/config"
	"github.com/aretw0/tiptoe/internal/presentation/graph"
	"github.com/aretw0/tiptoe/internal/presentation/tui"
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the navigation state of a running server",
	Long: `Fetches the current snapshot from the admin API of a running server and
prints it. The default markdown report is styled when stdout is a terminal;
--format mermaid prints a flowchart of the history and ring, and --format json
the raw snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("admin")
		if addr == "" {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := cfg.ApplyEnv(os.Environ()); err != nil {
				return err
			}
			addr = cfg.AdminAddr
		}
		if addr == "" {
			return fmt.Errorf("admin address not configured")
		}

		var render func(string) (string, error)
		plain, _ := cmd.Flags().GetBool("plain")
		if !plain && term.IsTerminal(int(os.Stdout.Fd())) {
			render = tui.NewRenderer()
		}
		format, _ := cmd.Flags().GetString("format")
		return status(cmd.Context(), addr, format, render, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().String("admin", "", "Admin API address (default from config)")
	statusCmd.Flags().Bool("plain", false, "Print markdown without styling")
	statusCmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, mermaid or json")
}

// status fetches the snapshot from the admin API at addr and writes it to
// out in format. A nil render prints markdown as is.
func status(ctx context.Context, addr, format string, render func(string) (string, error), out io.Writer) error {
	switch format {
	case "", "markdown", "mermaid", "json":
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(addr, "/")+"/state", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach admin API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("admin API returned %s", resp.Status)
	}

	var snap domain.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(&snap)
	case "mermaid":
		_, err = io.WriteString(out, graph.GenerateMermaid(&snap))
		return err
	}

	report := tui.SnapshotMarkdown(&snap)
	if render != nil {
		if styled, err := render(report); err == nil {
			report = styled
		}
	}
	_, err = io.WriteString(out, report)
	return err
}
