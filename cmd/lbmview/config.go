package main

import "time"

// Viewer timing and control constants.
const (
	defaultWindowScale     = 4
	defaultTPS             = 60.0
	defaultStepsPerFrame   = 20
	stepMultiplierStep     = 5
	minStepMultiplier      = 1
	maxStepMultiplier      = 1000
	statusLogInterval      = 5 * time.Second
	defaultProfileDuration = 15 * time.Second
)
