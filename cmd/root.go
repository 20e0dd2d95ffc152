// Package cmd implements the dhcpadmin command line interface
package cmd

import (
	"github.com/apex/log"
	adminlog "github.com/nextdhcp/dhcpadmin/core/log"
	"github.com/nextdhcp/dhcpadmin/internal/config"
	"github.com/spf13/cobra"

	// protocol drivers
	_ "github.com/nextdhcp/dhcpadmin/core/protocol/memory"

	// notifiers
	_ "github.com/nextdhcp/dhcpadmin/plugin/gotify"
	_ "github.com/nextdhcp/dhcpadmin/plugin/mqtt"
)

// Version of dhcpadmin
var Version = "v0.1.0"

// NewRootCommand returns the dhcpadmin root command with all sub commands
func NewRootCommand() *cobra.Command {
	var (
		configFile string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "dhcpadmin",
		Short:         "Manage and replicate the scopes of remote DHCP servers",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Path(configFile))
			if err != nil {
				return err
			}

			logCfg := adminlog.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cmd.ErrOrStderr(),
			}
			if logLevel != "" {
				logCfg.Level = logLevel
			}
			if err := adminlog.Setup(logCfg); err != nil {
				return err
			}

			setEnv(cmd, newEnv(cfg))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&configFile, "conf", "c", "", "Adminfile to load (default \""+config.DefaultFile+"\", or $"+config.EnvFile+")")
	flags.StringVar(&logLevel, "log-level", "", "Override the log level of the Adminfile")

	cmd.AddCommand(
		newScopesCommand(),
		newClientsCommand(),
		newReplicateCommand(),
		newBackupCommand(),
		newRestoreCommand(),
		newSnapshotsCommand(),
		newStatsCommand(),
		newFailoverCommand(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	err := NewRootCommand().Execute()
	if err != nil {
		log.Errorf("%s", err)
	}
	return err
}
