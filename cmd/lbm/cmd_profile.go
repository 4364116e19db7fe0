package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"lbm/internal/analysis"
	"lbm/internal/lattice"
	"lbm/internal/render"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Compare a body-force channel against the Poiseuille solution",
		Long: `Profile runs a narrow periodic channel with Zou-He walls until steady and
compares the column-averaged velocity profile with the analytic parabola
u(y) = F y (H - y) / (2 nu rho).

Examples:
  lbm profile
  lbm profile --ny 31 --steps 12000 --plot profile.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ny, _ := cmd.Flags().GetInt("ny")
			steps, _ := cmd.Flags().GetInt("steps")
			force, _ := cmd.Flags().GetFloat64("force")
			maxDev, _ := cmd.Flags().GetFloat64("max-deviation")
			plotPath, _ := cmd.Flags().GetString("plot")
			jsonOut, _ := cmd.Flags().GetBool("json")

			lc := cfg.SolverConfig()
			lc.NX, lc.NY = 4, ny
			lc.BodyForce = [2]float64{force, 0}
			lc.SeedVelocity = [2]float64{}
			lc.Scheme = lattice.SchemePeriodicZouHe
			sim, err := lattice.New(lc)
			if err != nil {
				return err
			}
			defer sim.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			for sim.StepIndex() < steps {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := sim.Step(); err != nil {
					return err
				}
			}

			measured := analysis.MeanProfile(sim.Velocity())
			ref := analysis.ChannelFor(force, sim.Viscosity(), lc.Rho0, ny)
			dev := ref.Deviation(measured)
			if plotPath != "" {
				if err := render.SaveProfile(plotPath, measured, ref.Profile(ny)); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				json.NewEncoder(out).Encode(map[string]any{
					"steps":     steps,
					"ny":        ny,
					"u_max":     ref.Max(),
					"deviation": dev,
					"measured":  measured,
				})
			} else {
				fmt.Fprintf(out, "Analytic centreline velocity: %.6e\n", ref.Max())
				fmt.Fprintf(out, "Measured centreline velocity: %.6e\n", measured[ny/2])
				fmt.Fprintf(out, "Max relative deviation: %.2f%%\n", dev*100)
				if plotPath != "" {
					fmt.Fprintf(out, "Profile plot: %s\n", plotPath)
				}
			}
			if maxDev > 0 && dev > maxDev {
				return fmt.Errorf("profile deviation %.3g exceeds %.3g", dev, maxDev)
			}
			return nil
		},
	}

	cmd.Flags().Int("ny", 21, "Channel height in cells")
	cmd.Flags().Int("steps", 6000, "Steps to run before sampling")
	cmd.Flags().Float64("force", 1e-5, "Body force along x")
	cmd.Flags().Float64("max-deviation", 0.03, "Fail when the relative deviation exceeds this (0 disables)")
	cmd.Flags().String("plot", "", "Write a measured vs analytic PNG to this path")

	return cmd
}
