package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"lbm/internal/record"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the runs stored in a run database, newest first.

Examples:
  lbm runs --db runs.db
  lbm runs --db runs.db --samples 3   # progress log of run 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			if path == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				path = cfg.Output.Database
			}
			if path == "" {
				return fmt.Errorf("no run database (use --db or output.database)")
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			samplesOf, _ := cmd.Flags().GetInt64("samples")

			store, err := record.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer store.Close()
			out := cmd.OutOrStdout()

			if samplesOf != 0 {
				samples, err := store.Samples(cmd.Context(), samplesOf)
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(out).Encode(samples)
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "STEP\tMAX SPEED\tMEAN SPEED\tMAX DENSITY\tMASS\tMAX CHANGE")
				for _, s := range samples {
					change := "-"
					if s.MaxChange >= 0 {
						change = fmt.Sprintf("%.2e", s.MaxChange)
					}
					fmt.Fprintf(tw, "%d\t%.6f\t%.6f\t%.6f\t%.4f\t%s\n",
						s.Step, s.MaxSpeed, s.MeanSpeed, s.MaxDensity, s.Mass, change)
				}
				return tw.Flush()
			}

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(out).Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tSCHEME\tGRID\tSTEPS\tCONVERGED\tERROR")
			for _, r := range runs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%dx%d\t%d\t%v\t%s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Scheme, r.NX, r.NY,
					r.FinalStep, r.Converged, r.Error)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("db", "", "Run database path")
	cmd.Flags().Int64("samples", 0, "Show the progress samples of this run id")
	return cmd
}
