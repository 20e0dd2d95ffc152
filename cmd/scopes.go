package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/admin"
	"github.com/nextdhcp/dhcpadmin/core/paging"
	"github.com/spf13/cobra"
)

func newScopesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scopes <server>",
		Short: "List the scopes of a server",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			s, err := e.connect(ctx, args[0])
			if err != nil {
				return err
			}

			scopes, err := s.Scopes(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SUBNET\tMASK\tSTATE\tRANGE\tASSIGNABLE\tNAME")
			for _, sc := range scopes {
				free, err := sc.AssignableRanges(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", sc.Address(), sc.Mask(), sc.State(), sc.IPRange(), address.Ranges(free), sc.Name())
			}
			return w.Flush()
		}),
	}
}

func newClientsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clients <server> [subnet]",
		Short: "List the clients of a server or one of its scopes",
		Args:  cobra.RangeArgs(1, 2),
		RunE: run(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			s, err := e.connect(ctx, args[0])
			if err != nil {
				return err
			}

			var clients *paging.Cursor[*admin.Client]
			if len(args) == 2 {
				subnet, err := address.ParseIP(args[1])
				if err != nil {
					return err
				}
				sc, err := s.Scope(ctx, subnet)
				if err != nil {
					return err
				}
				clients, err = sc.Clients()
				if err != nil {
					return err
				}
			} else {
				clients, err = s.Clients()
				if err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ADDRESS\tHARDWARE\tSTATE\tEXPIRES\tNAME")
			err = paging.Each(ctx, clients, func(c *admin.Client) error {
				rec := c.Record()
				expires := "never"
				if rec.Expires() {
					expires = rec.LeaseExpiresUTC.Format("2006-01-02 15:04:05")
				}
				_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rec.Address, rec.HardwareAddress, rec.AddressState, expires, rec.Name)
				return err
			})
			if err != nil {
				return err
			}
			return w.Flush()
		}),
	}
}
