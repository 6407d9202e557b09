package main

import (
	"bufio"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/docsmith/docsmith/internal/budget"
	"github.com/docsmith/docsmith/internal/config"
	"github.com/docsmith/docsmith/internal/costcontrol"
	"github.com/docsmith/docsmith/internal/trigger"
)

func newCheckCmd(flags *rootFlags) *cobra.Command {
	var cost float64

	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Dry-run one budget decision for a path",
		Long: `Resolve the trigger mode for a path and run the budget decision that the
pipeline would run for it. With --cost 0 the estimate is computed from the
file contents. A manual-mode path prompts for confirmation when run from a
terminal; confirmation stands in for the out-of-band signal the pipeline
would otherwise require.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			gate, auditLog, _, err := buildGate(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = auditLog.Close() }()

			res := trigger.New(cfg).Resolve(path)
			cmd.Printf("mode: %s  ceiling: $%.2f\n", res.Mode, res.MaxCostPerEvent)

			estimate := cost
			if estimate == 0 {
				if content, err := os.ReadFile(path); err == nil { // #nosec G304 -- operator-supplied path
					estimate = costcontrol.EstimateCost(string(content), cfg.Models["standard"])
				}
			}
			cmd.Printf("estimated cost: $%.4f  hourly spend: $%.4f\n",
				estimate, gate.HourlySpend(time.Now()))

			confirmed := false
			if res.Mode == config.TriggerManual && confirmManual(cmd, path) {
				confirmed = true
			}

			var decision budget.Decision
			if confirmed {
				decision, err = gate.ShouldProcessConfirmed(estimate, path, time.Now())
			} else {
				decision, err = gate.ShouldProcess(estimate, path, time.Now())
			}
			if err != nil {
				return err
			}

			if decision.Allowed {
				cmd.Println("decision: allow")
			} else {
				cmd.Printf("decision: deny (%s)\n", decision.Reason)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&cost, "cost", 0, "estimated cost in USD (0 = estimate from file contents)")
	return cmd
}

// confirmManual prompts on a TTY for the out-of-band confirmation manual mode
// requires. Non-interactive runs never confirm.
func confirmManual(cmd *cobra.Command, path string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	cmd.Printf("%s is manual-mode; process anyway? [y/N] ", path)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
