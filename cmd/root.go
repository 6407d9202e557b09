package main

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/docsmith/docsmith/internal/audit"
	"github.com/docsmith/docsmith/internal/budget"
	"github.com/docsmith/docsmith/internal/config"
	"github.com/docsmith/docsmith/internal/monitoring"
	"github.com/docsmith/docsmith/internal/trigger"
)

// rootFlags are shared across subcommands.
type rootFlags struct {
	userConfig    string
	projectConfig string
	logLevel      string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "docsmith",
		Short:         "Budget-gated trigger resolution and audit logging for documentation automation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.userConfig, "user-config", "", "user-global config file (default: "+config.DefaultUserPath()+")")
	cmd.PersistentFlags().StringVar(&flags.projectConfig, "project-config", config.ProjectConfigName, "project-local config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error, off)")

	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newAuditCmd(flags))
	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newWatchCmd(flags))

	return cmd
}

// loadConfig is the composition root's config load. On any layer failure the
// caller gets an error and must fail closed: no gate is ever built from a
// partially loaded config.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		UserPath:    flags.userConfig,
		ProjectPath: flags.projectConfig,
		EnvFile:     ".env",
	})
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Monitoring.LogLevel = flags.logLevel
	}
	monitoring.SetupLogging(cfg.Monitoring, os.Stderr)
	return cfg, nil
}

// buildGate assembles the resolver, audit log, and gate, and replays the last
// hour of spend so enforcement survives restarts. The audit log instance is
// owned here and passed down explicitly; there are no ambient singletons.
func buildGate(cfg *config.Config) (*budget.Gate, *audit.Log, string, error) {
	auditLog, err := audit.Open(cfg.AuditPath())
	if err != nil {
		return nil, nil, "", err
	}
	sessionID := uuid.NewString()
	gate := budget.New(cfg, trigger.New(cfg), auditLog, sessionID)
	if err := gate.ReplayFromAudit(time.Now()); err != nil {
		_ = auditLog.Close()
		return nil, nil, "", err
	}
	return gate, auditLog, sessionID, nil
}
