package main

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"lbm/internal/render"
)

// Draw paints the speed field and the optional overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	g.peak = render.Pixels(g.sim.Velocity(), g.pal, g.pixels, g.speedScale)
	screen.WritePixels(g.pixels)

	err := g.sim.Err()
	if !*debugFlag && err == nil {
		return
	}
	state := "running"
	switch {
	case err != nil:
		state = "stopped (R to reset)"
	case g.paused:
		state = "paused (space)"
	}
	msg := fmt.Sprintf("Step %d  %s\nmax |u|: %.5f  Re: %.1f\nFPS: %.1f  TPS: %.1f\nSteps: %.0f/s (mult %dx, +/-)\nSim: %.2f ms  %s",
		g.sim.StepIndex(), state,
		g.peak, g.reynolds(),
		ebiten.ActualFPS(), ebiten.ActualTPS(),
		g.simStepsPerSecond(), g.stepMultiplier,
		g.lastSimDuration.Seconds()*1000, g.sim.Backend())
	if err != nil {
		msg += "\n" + err.Error()
	}
	ebitenutil.DebugPrint(screen, msg)
}

// Layout reports the lattice size as the logical screen.
func (g *Game) Layout(_, _ int) (int, int) { return g.nx, g.ny }

func (g *Game) reynolds() float64 {
	return g.peak * float64(g.ny-1) / g.sim.Viscosity()
}
