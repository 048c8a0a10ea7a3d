package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"runtime"

	"github.com/gogpu/gg"

	"ripplegrid/internal/expfast"
	"ripplegrid/internal/influence"
	"ripplegrid/internal/ripple"
)

// fieldConfig applies the command-line overrides to the default tuning.
func fieldConfig() ripple.Config {
	cfg := ripple.DefaultConfig()
	cfg.Grid.BaseSpacing = *spacingFlag
	cfg.Render.DotRadius = *dotRadiusFlag
	return cfg
}

// evaluatorOption picks the influence evaluator: OpenCL when requested, else
// the parallel CPU evaluator. OpenCL failures fall back to the CPU unless
// -require-opencl is set.
func evaluatorOption(cfg ripple.Config) (ripple.Option, func()) {
	table, err := expfast.New(cfg.TableSize, cfg.TableMax)
	if err != nil {
		fatalf("building exponential table: %v", err)
	}
	if opt, closeEval := openCLOption(table, cfg); opt != nil {
		return opt, closeEval
	}
	if *workersFlag == 1 {
		return nil, func() {}
	}
	par := influence.NewParallel(influence.New(table, cfg.Influence), *workersFlag)
	log.Printf("CPU evaluator using %d workers", par.Workers())
	return ripple.WithEvaluator(par), par.Close
}

func openCLOption(table *expfast.Table, cfg ripple.Config) (ripple.Option, func()) {
	if !*openCLFlag && !*requireOpenCLFlag {
		return nil, func() {}
	}
	eval, err := influence.NewOpenCLEvaluator(table, cfg.Influence)
	if err != nil {
		if *requireOpenCLFlag {
			fatalf("OpenCL initialization failed: %v", err)
		}
		log.Printf("OpenCL unavailable, using CPU engine: %v", err)
		return nil, func() {}
	}
	log.Printf("OpenCL evaluator enabled (device: %s)", eval.DeviceName())
	return ripple.WithEvaluator(eval), eval.Close
}

func main() {
	flag.Parse()
	runtime.GOMAXPROCS(runtime.NumCPU())
	if *debugFlag {
		gg.SetLogger(slog.Default())
	}

	cfg := fieldConfig()
	theme, err := newTheme(*themeFlag)
	if err != nil {
		fatalf("%v", err)
	}
	opts := []ripple.Option{ripple.WithLogger(log.Default())}
	evalOpt, closeEval := evaluatorOption(cfg)
	defer closeEval()
	if evalOpt != nil {
		opts = append(opts, evalOpt)
	}

	switch *backendFlag {
	case "window":
		err = withField(cfg, theme, opts, runWindow)
	case "terminal":
		err = withField(cfg, theme, opts, runTerminal)
	case "snapshot":
		err = runSnapshot(cfg, theme, opts, snapshotOptions{
			Width:  *widthFlag,
			Height: *heightFlag,
			Scale:  *scaleFlag,
			Frames: *framesFlag,
			Out:    *outFlag,
		})
	default:
		err = fmt.Errorf("unknown backend %q", *backendFlag)
	}
	if err != nil {
		closeEval()
		fatalf("%s backend: %v", *backendFlag, err)
	}
}

// withField builds a field on the system clock and hands it to run.
func withField(cfg ripple.Config, theme ripple.ThemeProvider, opts []ripple.Option, run func(*ripple.Field) error) error {
	opts = append(opts, ripple.WithThemeProvider(theme))
	field, err := ripple.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("building ripple field: %w", err)
	}
	return run(field)
}
