package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docsmith/docsmith/internal/trigger"
	"github.com/docsmith/docsmith/internal/watch"
)

func newWatchCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Watch paths and gate save-triggered events",
		Long: `Watch file-system roots and run every save event through trigger
resolution and the budget gate. Allowed events are handed off to the
generation pipeline; every decision lands in the audit log. Runs until
interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots := args
			if len(roots) == 0 {
				roots = []string{"."}
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			gate, auditLog, sessionID, err := buildGate(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = auditLog.Close() }()

			w := watch.New(cfg, trigger.New(cfg), gate, auditLog, watch.Handoff{}, sessionID)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = w.Run(ctx, roots)
			if errors.Is(err, context.Canceled) {
				s := w.Decisions().Summary()
				cmd.Printf("watch stopped: %d decisions (%d allowed, %d denied)\n",
					s.Total, s.Allowed, s.Denied)
				return nil
			}
			return err
		},
	}

	return cmd
}
