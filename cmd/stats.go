package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/apex/log"
	"github.com/nextdhcp/dhcpadmin/core/admin"
	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	var (
		serve    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stats <server>",
		Short: "Print the statistics of a server",
		Long: "Print the statistics of a server. With --serve the statistics are\n" +
			"exported on the address of the metrics directive and refreshed periodically.",
		Args: cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			s, err := e.connect(ctx, args[0])
			if err != nil {
				return err
			}

			info, err := s.MibInfoV4(ctx)
			if err != nil {
				return err
			}
			if err := printStats(cmd, info); err != nil {
				return err
			}

			if !serve {
				return nil
			}
			if e.metrics == nil {
				return errors.New("--serve requires a metrics directive in " + e.cfg.Filename)
			}

			e.metrics.ObserveMib(s.Name(), info)
			if _, err := e.metrics.Start(); err != nil {
				return err
			}
			defer e.metrics.Stop(context.Background()) // nolint:errcheck

			ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					info, err := s.MibInfoV4(ctx)
					if err != nil {
						log.WithField("server", s.Name()).Warnf("failed to refresh statistics: %s", err)
						continue
					}
					e.metrics.ObserveMib(s.Name(), info)
				}
			}
		}),
	}

	cmd.Flags().BoolVar(&serve, "serve", false, "Export the statistics as prometheus metrics")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Refresh interval used with --serve")
	return cmd
}

func printStats(cmd *cobra.Command, info *admin.MibInfoV4) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	rows := []struct {
		name  string
		value uint32
	}{
		{"discovers", info.Discovers},
		{"offers", info.Offers},
		{"requests", info.Requests},
		{"acks", info.Acks},
		{"naks", info.Naks},
		{"declines", info.Declines},
		{"releases", info.Releases},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\n", r.name, r.value)
	}

	if info.NumAddressesInUse != nil {
		fmt.Fprintf(w, "in use\t%d\n", *info.NumAddressesInUse)
	}
	if info.NumAddressesFree != nil {
		fmt.Fprintf(w, "free\t%d\n", *info.NumAddressesFree)
	}
	if info.NumPendingOffers != nil {
		fmt.Fprintf(w, "pending offers\t%d\n", *info.NumPendingOffers)
	}

	fmt.Fprintf(w, "started\t%s\n", info.ServerStarted.Format(time.RFC3339))
	return w.Flush()
}
