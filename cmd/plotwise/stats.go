package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plotwise/plotwise/pkg/models"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var (
		operation string
		recent    int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show operation usage from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if a.ledger == nil {
				return fmt.Errorf("usage ledger is disabled (ledger.enabled: false)")
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			// Recent calls view
			if recent > 0 {
				records, err := a.ledger.Recent(ctx, recent)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(out, "No operations recorded.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tOPERATION\tLISTING\tOUTCOME\tCACHE\tMODEL\tTOKENS\tLATENCY")
				for _, r := range records {
					cache := "miss"
					if r.CacheHit {
						cache = "hit"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%dms\n",
						r.CreatedAt.Local().Format("2006-01-02T15:04:05"), r.Operation, dash(r.ListingID),
						r.Outcome, cache, dash(r.Model), r.TotalTokens, r.LatencyMs)
				}
				return w.Flush()
			}

			// Default: per-operation summary
			summaries, err := a.ledger.Summary(ctx, models.Operation(operation))
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No operations recorded.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tOUTCOME\tREQUESTS\tCACHE HITS\tTOKENS\tAVG LATENCY")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.0fms\n",
					s.Operation, s.Outcome, s.RequestCount, s.CacheHits, s.TotalTokens, s.AvgLatencyMs)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&operation, "operation", "", "filter by operation")
	cmd.Flags().IntVar(&recent, "recent", 0, "list the N most recent calls instead of the summary")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
