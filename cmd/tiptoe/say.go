package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/aretw0/tiptoe/internal/config"
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/spf13/cobra"
)

var sayCmd = &cobra.Command{
	Use:   "say <line...>",
	Short: "Send one protocol line to a running server",
	Long: `Connects to a running server and sends a single line, typically a control
command bound to a hotkey:

  tiptoe say juggle

With --tag the client first announces itself, and with --wait it prints the
"goto" lines it receives for that long, which is handy for trying the
protocol by hand.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			addr = cfg.Listen
		}
		tag, _ := cmd.Flags().GetString("tag")
		wait, _ := cmd.Flags().GetDuration("wait")

		return say(cmd.Context(), addr, tag, strings.Join(args, " "), wait, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(sayCmd)
	sayCmd.Flags().StringP("addr", "a", "", "Server address (default from config)")
	sayCmd.Flags().StringP("tag", "t", "", "Announce this tag with hello before the line")
	sayCmd.Flags().DurationP("wait", "w", 0, "Print received goto lines for this long")
}

// say sends line to the server at addr and relays goto lines to out until
// wait elapses.
func say(ctx context.Context, addr, tag, line string, wait time.Duration, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dialer := net.Dialer{Timeout: 2 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	var msg strings.Builder
	if tag != "" {
		fmt.Fprintf(&msg, "%s %s\n", domain.KeywordHello, tag)
	}
	msg.WriteString(line + "\n")
	if _, err := io.WriteString(conn, msg.String()); err != nil {
		return fmt.Errorf("failed to send: %w", err)
	}

	if wait <= 0 {
		return nil
	}
	if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return err
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 && fields[0] == domain.KeywordGoto {
			fmt.Fprintln(out, fields[1])
		}
	}
	if err := scanner.Err(); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		return err
	}
	return nil
}
