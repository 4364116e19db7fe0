package main

import (
	"errors"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"lbm/internal/analysis"
	"lbm/internal/lattice"
	"lbm/internal/render"
)

// Game drives a lattice from the ebiten update loop and paints its speed
// field.
type Game struct {
	sim    *lattice.Simulation
	nx, ny int

	pal        render.Palette
	pixels     []byte
	speedScale float64
	peak       float64

	stepMultiplier  int
	paused          bool
	lastSimDuration time.Duration
	lastStatusLog   time.Time
}

// newGame wraps sim. The caller keeps ownership of sim.
func newGame(sim *lattice.Simulation, pal render.Palette) *Game {
	w, h := sim.Velocity().Width(), sim.Velocity().Height()
	return &Game{
		sim:            sim,
		nx:             w,
		ny:             h,
		pal:            pal,
		pixels:         make([]byte, w*h*4),
		speedScale:     *speedScaleFlag,
		stepMultiplier: clampMultiplier(*stepsPerFrameFlag),
	}
}

// Update handles input and advances the lattice by stepMultiplier steps.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.handleControls()
	if g.paused || g.sim.Err() != nil {
		return nil
	}

	simStart := time.Now()
	for i := 0; i < g.stepMultiplier; i++ {
		if err := g.sim.Step(); err != nil {
			var derr *lattice.DivergenceError
			if errors.As(err, &derr) {
				log.Printf("Simulation diverged at step %d, cell (%d,%d): %s", derr.Step, derr.X, derr.Y, derr.Reason)
			} else {
				log.Printf("Simulation stopped: %v", err)
			}
			break
		}
	}
	g.lastSimDuration = time.Since(simStart)
	g.logStatus()
	return nil
}

// handleControls processes the step multiplier, pause and reset hotkeys.
func (g *Game) handleControls() {
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		g.adjustStepMultiplier(-stepMultiplierStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		g.adjustStepMultiplier(stepMultiplierStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.sim.Reset()
		log.Printf("Lattice reset")
	}
}

// adjustStepMultiplier clamps the steps per frame within bounds.
func (g *Game) adjustStepMultiplier(delta int) {
	g.stepMultiplier = clampMultiplier(g.stepMultiplier + delta)
}

func clampMultiplier(m int) int {
	if m < minStepMultiplier {
		return minStepMultiplier
	}
	if m > maxStepMultiplier {
		return maxStepMultiplier
	}
	return m
}

// simStepsPerSecond returns the nominal lattice steps executed each second.
func (g *Game) simStepsPerSecond() float64 {
	if g.paused {
		return 0
	}
	return defaultTPS * float64(g.stepMultiplier)
}

func (g *Game) logStatus() {
	now := time.Now()
	if now.Sub(g.lastStatusLog) < statusLogInterval {
		return
	}
	g.lastStatusLog = now
	s := analysis.Summarize(g.sim.Density(), g.sim.Velocity())
	log.Printf("Step %d: max |u| %.6f, mean |u| %.6f, max rho %.6f",
		g.sim.StepIndex(), s.MaxSpeed, s.MeanSpeed, s.MaxDensity)
}
