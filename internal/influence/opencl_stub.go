//go:build !opencl

package influence

import (
	"errors"
	"time"

	"ripplegrid/internal/expfast"
	"ripplegrid/internal/grid"
	"ripplegrid/internal/wavepool"
)

var errOpenCLUnavailable = errors.New("OpenCL evaluator unavailable")

// OpenCLEvaluator is unavailable without the opencl build tag.
type OpenCLEvaluator struct{}

// NewOpenCLEvaluator always fails in builds without OpenCL support.
func NewOpenCLEvaluator(_ *expfast.Table, _ Params) (*OpenCLEvaluator, error) {
	return nil, errors.New("OpenCL support is not enabled; rebuild with -tags opencl")
}

func (s *OpenCLEvaluator) Evaluate(_ []grid.Point, _ []wavepool.Wave, _ time.Time, _ []Sample) (int, error) {
	return 0, errOpenCLUnavailable
}

func (s *OpenCLEvaluator) Close() {}

func (s *OpenCLEvaluator) DeviceName() string { return "" }
