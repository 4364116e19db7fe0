// Command lbmview shows a lattice Boltzmann channel flow live.
//
// Keys: +/- change the steps per frame, space pauses, R resets the lattice,
// Q or Escape quits.
package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"lbm/internal/config"
	"lbm/internal/lattice"
	"lbm/internal/render"
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Loading configuration failed: %v", err)
	}
	lc := cfg.SolverConfig()
	if *schemeFlag != "" {
		lc.Scheme = lattice.SchemeKind(*schemeFlag)
	}
	if *nxFlag > 0 {
		lc.NX = *nxFlag
	}
	if *nyFlag > 0 {
		lc.NY = *nyFlag
	}
	if *acceleratorFlag != "" {
		lc.Accelerator = *acceleratorFlag
	}

	sim, err := lattice.New(lc)
	if err != nil {
		log.Fatalf("Lattice initialization failed: %v", err)
	}
	defer sim.Close()
	log.Printf("Lattice %dx%d, scheme %s, tau %.3f, backend %s", lc.NX, lc.NY, sim.Scheme(), lc.Tau, sim.Backend())

	if *recordProfileFlag != "" {
		stop, err := startProfileRecording(*recordProfileFlag, defaultProfileDuration)
		if err != nil {
			log.Printf("CPU profile disabled: %v", err)
		} else {
			defer stop()
		}
	}

	g := newGame(sim, render.NewPalette(*paletteFlag))
	scale := *scaleFlag
	if scale < 1 {
		scale = 1
	}
	ebiten.SetWindowSize(lc.NX*scale, lc.NY*scale)
	ebiten.SetWindowTitle("Lattice Boltzmann channel flow")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		log.Printf("Viewer stopped: %v", err)
	}
}
