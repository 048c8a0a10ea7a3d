package main

import "flag"

// Command-line flags that select the backend and toggle optional behavior.
var (
	// backendFlag picks the output: an ebiten window, the terminal, or a PNG.
	backendFlag = flag.String("backend", "window", "output backend: window, terminal or snapshot")

	// themeFlag overrides color scheme detection.
	themeFlag = flag.String("theme", "auto", "color scheme: auto, dark or light")

	// spacingFlag sets the base dot spacing before width adaptation.
	spacingFlag = flag.Float64("spacing", 28, "base dot spacing in logical pixels")

	// dotRadiusFlag sets the resting dot radius.
	dotRadiusFlag = flag.Float64("dot-radius", 2.2, "base dot radius in logical pixels")

	// debugFlag enables the performance overlay.
	debugFlag = flag.Bool("debug", false, "show the performance overlay")

	// demoFlag drives a wandering pointer so the field animates unattended.
	demoFlag = flag.Bool("demo", false, "emit waves from a wandering virtual pointer")

	// recordDefaultPGO triggers a scripted demo walk to produce default.pgo.
	recordDefaultPGO = flag.Bool("record-default-pgo", false, "run the demo pointer for 15s while capturing default.pgo")

	// openCLFlag moves the influence pass onto an OpenCL device when built
	// with -tags opencl.
	openCLFlag = flag.Bool("opencl", false, "evaluate the wave field with OpenCL")

	// workersFlag spreads the CPU influence pass over goroutines. 1 keeps it
	// on the render goroutine.
	workersFlag = flag.Int("workers", 0, "CPU worker goroutines for the influence pass (0 = GOMAXPROCS)")

	requireOpenCLFlag = flag.Bool("require-opencl", false, "exit instead of falling back to the CPU when OpenCL fails")

	// dialogsFlag surfaces fatal errors and snapshot prompts as native dialogs.
	dialogsFlag = flag.Bool("dialogs", false, "use native dialogs for errors and snapshot paths")

	// Snapshot backend settings.
	framesFlag = flag.Int("frames", 30, "frames to simulate before writing the snapshot")
	outFlag    = flag.String("out", snapshotFilename, "snapshot output path")
	widthFlag  = flag.Int("width", defaultWidth, "surface width in logical pixels")
	heightFlag = flag.Int("height", defaultHeight, "surface height in logical pixels")
	scaleFlag  = flag.Float64("scale", 1, "device scale factor for the snapshot backend")
)
