package main

import "time"

// Host configuration constants. These cover window setup, pointer heuristics
// and the headless backends; the ripple model itself is tuned in
// internal/ripple.
const (
	windowTitle         = "Ripple Grid"
	defaultWidth        = 1280
	defaultHeight       = 720
	defaultTPS          = 60
	pgoRecordDuration   = 15 * time.Second
	perfLogInterval     = 5 * time.Second
	snapshotFilename    = "ripplegrid.png"
	terminalFrameDelay  = 33 * time.Millisecond
	terminalCellWidth   = 8
	terminalCellHeight  = 16
	terminalPlotWidth   = 40
	terminalPlotHeight  = 4
	pointerLerp         = 0.3
	mouseThrottleMs     = 35
	touchThrottleMs     = 25
	minThrottleMs       = 10
	throttleVelocityK   = 0.5
	moveBasePower       = 0.7
	moveVelocityPower   = 0.01
	moveMaxPower        = 1.3
	touchMoveMultiplier = 1.1
	mousePressPower     = 1.8
	touchPressPower     = 2.0
	multiTouchPower     = 2.2
	demoStepScale       = 0.01
	demoNoiseAlpha      = 2.0
	demoNoiseBeta       = 2.0
	demoNoiseOctaves    = 3
	demoAmplitude       = 1.6
	demoMargin          = 0.08
)
