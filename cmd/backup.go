package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/admin"
	"github.com/spf13/cobra"
)

func newBackupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <server> <subnet>",
		Short: "Store a snapshot of a scope in the snapshot database",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			subnet, err := address.ParseIP(args[1])
			if err != nil {
				return err
			}

			store, err := e.snapshots()
			if err != nil {
				return err
			}

			sc, err := e.scope(ctx, args[0], subnet)
			if err != nil {
				return err
			}

			graph, err := sc.Graph(ctx)
			if err != nil {
				return err
			}

			info, err := store.Save(ctx, args[0], graph)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved %s of %s (%d exclusions, %d options, %d reservations)\n",
				info.Subnet, info.Server, len(graph.Exclusions), len(graph.Options), len(graph.Reservations))
			return nil
		}),
	}
}

func newRestoreCommand() *cobra.Command {
	var (
		dryRun bool
		from   string
	)

	cmd := &cobra.Command{
		Use:   "restore <server> <subnet>",
		Short: "Replicate a stored snapshot onto the live scope",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			subnet, err := address.ParseIP(args[1])
			if err != nil {
				return err
			}

			store, err := e.snapshots()
			if err != nil {
				return err
			}

			source := from
			if source == "" {
				source = args[0]
			}

			graph, info, err := store.Load(ctx, source, subnet)
			if err != nil {
				return err
			}

			sc, err := e.scope(ctx, args[0], subnet)
			if err != nil {
				return err
			}

			origin := fmt.Sprintf("snapshot of %s taken %s", info.Server, info.Taken.Format("2006-01-02 15:04:05"))
			report, err := admin.Replicate(ctx, graph, origin, sc, dryRun)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return err
		}),
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only print the planned operations")
	cmd.Flags().StringVar(&from, "from", "", "Restore the snapshot taken of another server")
	return cmd
}

func newSnapshotsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots [server]",
		Short: "List stored snapshots",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			store, err := e.snapshots()
			if err != nil {
				return err
			}

			var server string
			if len(args) == 1 {
				server = args[0]
			}

			list, err := store.List(ctx, server)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SERVER\tSUBNET\tNAME\tTAKEN")
			for _, i := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", i.Server, i.Subnet, i.Name, i.Taken.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		}),
	}
}
