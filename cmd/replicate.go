package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/admin"
	"github.com/nextdhcp/dhcpadmin/core/replication"
	"github.com/spf13/cobra"
)

func newReplicateCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "replicate <subnet>",
		Short: "Run the replication pairs configured for a subnet",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			subnet, err := address.ParseIP(args[0])
			if err != nil {
				return err
			}

			pairs := e.cfg.ReplicationsFor(subnet)
			if len(pairs) == 0 {
				return fmt.Errorf("no replication configured for %s in %s", subnet, e.cfg.Filename)
			}

			for _, pair := range pairs {
				src, err := e.scope(ctx, pair.From, subnet)
				if err != nil {
					return err
				}
				dst, err := e.scope(ctx, pair.To, subnet)
				if err != nil {
					return err
				}

				graph, err := src.Graph(ctx)
				if err != nil {
					return err
				}

				report, err := admin.Replicate(ctx, graph, src.Server().String(), dst, dryRun)
				if report != nil {
					printReport(cmd.OutOrStdout(), report)
				}
				if err != nil {
					return err
				}
			}

			return nil
		}),
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only print the planned operations")
	return cmd
}

func printReport(w io.Writer, r *replication.Report) {
	verb := "applied"
	if r.DryRun {
		verb = "planned"
	}

	fmt.Fprintf(w, "%s: %s -> %s\n", r.Subnet, r.Source, r.Destination)
	for i, op := range r.Ops {
		mark := " "
		switch {
		case r.DryRun:
		case i < r.Applied:
			mark = "+"
		case r.Failed() && i == r.Applied:
			mark = "!"
		}
		fmt.Fprintf(w, "%s %s\n", mark, op)
	}

	if r.Failed() {
		fmt.Fprintf(w, "failed after %d of %d operations: %s\n", r.Applied, len(r.Ops), r.Err)
		return
	}

	fmt.Fprintf(w, "%d operations %s\n", len(r.Ops), verb)
	log.WithFields(log.Fields{
		"id":          r.ID,
		"subnet":      r.Subnet.String(),
		"destination": r.Destination,
		"ops":         len(r.Ops),
		"duration":    r.Finished.Sub(r.Started).String(),
	}).Infof("replication %s", verb)
}
