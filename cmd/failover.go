package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFailoverCommand() *cobra.Command {
	var replicate bool

	cmd := &cobra.Command{
		Use:   "failover <server>",
		Short: "List failover relationships or replicate them to the partners",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			s, err := e.connect(ctx, args[0])
			if err != nil {
				return err
			}

			if replicate {
				reports, err := s.ReplicateFailoverPartner(ctx, e)
				for _, r := range reports {
					printReport(cmd.OutOrStdout(), r)
				}
				return err
			}

			rels, err := s.FailoverRelationships(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARTNER\tSCOPES")
			for _, rel := range rels {
				fmt.Fprintf(w, "%s\t%s (%s)\t%d\n", rel.Name, rel.PartnerName(), rel.Partner(), len(rel.Scopes))
			}
			return w.Flush()
		}),
	}

	cmd.Flags().BoolVar(&replicate, "replicate", false, "Replicate every failover scope onto the partner server")
	return cmd
}
