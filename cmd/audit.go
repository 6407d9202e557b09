package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/docsmith/docsmith/internal/audit"
)

func newAuditCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read the audit log",
	}

	cmd.AddCommand(newAuditReportCmd(flags))
	cmd.AddCommand(newAuditTailCmd(flags))

	return cmd
}

func newAuditReportCmd(flags *rootFlags) *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize spend and decisions from the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			events, err := audit.ReadFrom(cfg.AuditPath())
			if err != nil {
				return err
			}

			cutoff := time.Time{}
			if since > 0 {
				cutoff = time.Now().Add(-since)
			}

			byKind := map[string]int{}
			byReason := map[string]int{}
			var totalCost float64
			var counted int
			for _, ev := range events {
				if !cutoff.IsZero() && ev.Time().Before(cutoff) {
					continue
				}
				counted++
				byKind[ev.Event]++
				if ev.Reason != "" && (ev.Event == audit.EventSkip || ev.Event == audit.EventBudget) {
					byReason[ev.Reason]++
				}
				if ev.Cost != nil {
					totalCost += *ev.Cost
				}
			}

			cmd.Printf("events: %d\n", counted)
			for _, k := range sortedKeys(byKind) {
				cmd.Printf("  %-16s %d\n", k, byKind[k])
			}
			if len(byReason) > 0 {
				cmd.Println("denials by reason:")
				for _, r := range sortedKeys(byReason) {
					cmd.Printf("  %-24s %d\n", r, byReason[r])
				}
			}
			cmd.Printf("total recorded cost: $%.4f\n", totalCost)
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "only include events newer than this (e.g. 1h, 24h)")
	return cmd
}

func newAuditTailCmd(flags *rootFlags) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the most recent audit events as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			events, err := audit.ReadFrom(cfg.AuditPath())
			if err != nil {
				return err
			}
			if n > 0 && len(events) > n {
				events = events[len(events)-n:]
			}
			for _, ev := range events {
				line, err := json.Marshal(ev)
				if err != nil {
					return fmt.Errorf("marshal event: %w", err)
				}
				cmd.Println(string(line))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "lines", "n", 20, "number of events to print")
	return cmd
}

func sortedKeys[M map[string]int](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
