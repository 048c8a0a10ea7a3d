package ripple

import (
	"fmt"
	"time"

	"ripplegrid/internal/expfast"
	"ripplegrid/internal/grid"
	"ripplegrid/internal/influence"
	"ripplegrid/internal/palette"
	"ripplegrid/internal/render"
	"ripplegrid/internal/wavepool"
)

// Config gathers the tuning of every component.
type Config struct {
	Grid      grid.Config
	Render    render.Config
	Influence influence.Params

	PoolCapacity int
	MaxAge       time.Duration
	MaxActive    int
	TableSize    int
	TableMax     float64
	PaletteSize  int

	MinPower       float64
	MaxPower       float64
	SpeedBase      float64
	SpeedJitter    float64
	SigmaFactor    float64
	ResizeDebounce time.Duration
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		Grid:      grid.DefaultConfig(),
		Render:    render.DefaultConfig(),
		Influence: influence.DefaultParams(),

		PoolCapacity: wavepool.DefaultCapacity,
		MaxAge:       wavepool.DefaultMaxAge,
		MaxActive:    10,
		TableSize:    expfast.DefaultSize,
		TableMax:     expfast.DefaultMax,
		PaletteSize:  palette.DefaultHighSize,

		MinPower:       0.5,
		MaxPower:       1.5,
		SpeedBase:      1.0,
		SpeedJitter:    0.4,
		SigmaFactor:    0.7,
		ResizeDebounce: 120 * time.Millisecond,
	}
}

func (c Config) validate() error {
	switch {
	case c.MaxActive <= 0:
		return fmt.Errorf("max active waves must be positive: got %d", c.MaxActive)
	case !(c.MinPower > 0) || c.MinPower > c.MaxPower:
		return fmt.Errorf("invalid power range [%v, %v]", c.MinPower, c.MaxPower)
	case !(c.SigmaFactor > 0):
		return fmt.Errorf("sigma factor must be positive: got %v", c.SigmaFactor)
	case !(c.Render.DotRadius > 0):
		return fmt.Errorf("dot radius must be positive: got %v", c.Render.DotRadius)
	case c.ResizeDebounce < 0:
		return fmt.Errorf("resize debounce must not be negative: got %v", c.ResizeDebounce)
	}
	return nil
}
