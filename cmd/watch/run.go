package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"github.com/spf13/cobra"
)

const rule = "================================================================================"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one watch cycle and print the alert display",
	Long: `Run exactly one perceive-then-publish cycle, then read the newest stored
record back and print it as an alert display.

Scheduling is left to the caller (cron, a systemd timer, or POST /api/cycles
on a running "watch serve").`,
	RunE: runCycleCmd,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("location", "l", "", "location to monitor (defaults to MONITOR_LOCATION)")
}

func runCycleCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	location, _ := cmd.Flags().GetString("location")
	if location == "" {
		location = a.cfg.MonitorLocation
	}

	result := a.runner.RunCycle(ctx, location)
	if !result.Aborted {
		fmt.Fprintln(cmd.OutOrStdout(), result.Publish.String())
	}

	records, err := a.store.FetchRecent(context.WithoutCancel(ctx), 1)
	if err != nil {
		a.logger.Error("could not read back latest record", "kind", domain.KindOf(err), "error", err)
	}
	return printAlert(cmd.OutOrStdout(), records)
}

// printAlert writes the alert display block for the newest record, or a
// failure notice when there is none.
func printAlert(w io.Writer, records []domain.RecentRecord) error {
	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	b.WriteString("NEIGHBORHOOD WATCH ALERT DISPLAY\n")
	b.WriteString(rule + "\n")

	if len(records) == 0 {
		b.WriteString("\nFAILURE: Could not retrieve data after running the watch cycle. Check logs.\n")
	} else {
		rec := records[0]
		payload, err := indentPayload(rec.Payload)
		if err != nil {
			return fmt.Errorf("format payload of record %s: %w", rec.ID, err)
		}
		location := rec.MonitoringLocation()
		if location == "" {
			location = "N/A"
		}
		fmt.Fprintf(&b, "\nSUCCESS: Retrieved Data Package from ID: %s\n", rec.ID)
		fmt.Fprintf(&b, "   Published Time: %s\n", rec.Timestamp)
		fmt.Fprintf(&b, "   Monitored Location: %s\n", location)
		b.WriteString("\n--- RAW DATA PAYLOAD ---\n")
		b.WriteString(payload + "\n")
	}

	b.WriteString("\n" + rule + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func indentPayload(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "{}", nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
