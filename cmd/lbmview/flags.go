package main

import "flag"

// Command-line flags of the viewer. Lattice settings not listed here come
// from the -config file and LBM_* environment variables.
var (
	// configFlag points at an lbm YAML configuration.
	configFlag = flag.String("config", "", "path to an lbm YAML configuration file")

	schemeFlag      = flag.String("scheme", "", "boundary scheme override")
	nxFlag          = flag.Int("nx", 0, "grid width override")
	nyFlag          = flag.Int("ny", 0, "grid height override")
	acceleratorFlag = flag.String("accelerator", "", "collision backend override: cpu or opencl")

	// scaleFlag sets the window pixels per lattice cell.
	scaleFlag = flag.Int("scale", defaultWindowScale, "window pixels per lattice cell")

	// stepsPerFrameFlag is the initial number of lattice steps per tick.
	stepsPerFrameFlag = flag.Int("steps-per-frame", defaultStepsPerFrame, "lattice steps per frame (+/- to adjust)")

	paletteFlag = flag.String("palette", "turbo", "colour map: turbo, viridis, inferno, plasma")

	// speedScaleFlag fixes the speed mapped to the top of the palette.
	speedScaleFlag = flag.Float64("speed-scale", 0, "speed at the top of the colour map (0 = current maximum)")

	// debugFlag enables the FPS and simulation overlay.
	debugFlag = flag.Bool("debug", true, "show step, speed and FPS overlay")

	// recordProfileFlag captures a CPU profile for the first seconds of the session.
	recordProfileFlag = flag.String("record-profile", "", "write a CPU profile of the first 15s to this file")
)
