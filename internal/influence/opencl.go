//go:build opencl

package influence

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"ripplegrid/internal/expfast"
	"ripplegrid/internal/grid"
	"ripplegrid/internal/wavepool"
)

const (
	waveStride  = 6 // x, y, age, speed, power, sigma
	paramCount  = 9
	float32Size = int(unsafe.Sizeof(float32(0)))
	int32Size   = int(unsafe.Sizeof(int32(0)))
)

const displaceKernelSource = `__kernel void displace(
    const int point_count,
    const int wave_count,
    const int table_size,
    const float table_max,
    __global const float* anchors,
    __global const float* waves,
    __global const float* exp_table,
    __global const float* params,
    __global float* out,
    __global int* ops)
{
    int i = get_global_id(0);
    if (i >= point_count) {
        return;
    }
    float expansion = params[0];
    float decay_rate = params[1];
    float x_scale = params[2];
    float y_scale = params[3];
    float damping = params[4];
    float min_distance = params[5];
    float min_gaussian = params[6];
    float cull_sigmas = params[7];

    float ox = anchors[2 * i];
    float oy = anchors[2 * i + 1];
    float dx = 0.0f;
    float dy = 0.0f;
    int count = 0;
    for (int j = 0; j < wave_count; j++) {
        int base = j * 6;
        float age = waves[base + 2];
        float sigma = waves[base + 5];
        float ring = age * waves[base + 3] * expansion;
        float delta_x = ox - waves[base];
        float delta_y = oy - waves[base + 1];
        float dist = sqrt(delta_x * delta_x + delta_y * delta_y);
        if (dist > ring + sigma * cull_sigmas) {
            continue;
        }
        count++;
        float diff = dist - ring;
        float x = diff * diff / (2.0f * sigma * sigma);
        float gaussian;
        if (x <= 0.0f) {
            gaussian = 1.0f;
        } else if (!(x < table_max)) {
            gaussian = 0.0f;
        } else {
            int idx = (int)(x * ((float)table_size / table_max));
            if (idx >= table_size) {
                idx = table_size - 1;
            }
            gaussian = exp_table[idx];
        }
        if (dist <= min_distance || gaussian <= min_gaussian) {
            continue;
        }
        float inv = 1.0f / dist;
        float decay = 1.0f / (1.0f + age * decay_rate);
        float strength = waves[base + 4] * gaussian * decay * decay;
        dx += delta_x * inv * strength * x_scale * damping;
        dy += delta_y * inv * strength * y_scale * damping;
    }
    out[2 * i] = dx;
    out[2 * i + 1] = dy;
    ops[i] = count;
}`

// OpenCLEvaluator runs the displacement loop on an OpenCL device. The lookup
// table is uploaded once so device and host agree on the envelope.
type OpenCLEvaluator struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel

	anchorBuf *cl.MemObject
	waveBuf   *cl.MemObject
	tableBuf  *cl.MemObject
	paramBuf  *cl.MemObject
	outBuf    *cl.MemObject
	opsBuf    *cl.MemObject

	pointCap int
	waveCap  int

	anchors  []float32
	waveData []float32
	outHost  []float32
	opsHost  []int32

	cpu        *Engine
	deviceName string
}

var _ Evaluator = (*OpenCLEvaluator)(nil)

// NewOpenCLEvaluator compiles the displacement kernel on the first GPU found,
// falling back to a CPU OpenCL device.
func NewOpenCLEvaluator(table *expfast.Table, p Params) (*OpenCLEvaluator, error) {
	device, err := pickDevice()
	if err != nil {
		return nil, err
	}
	s := &OpenCLEvaluator{
		cpu:        New(table, p),
		deviceName: device.Name(),
	}
	s.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	s.queue, err = s.context.CreateCommandQueue(device, 0)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	s.program, err = s.context.CreateProgramWithSource([]string{displaceKernelSource})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := s.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		s.Close()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	s.kernel, err = s.program.CreateKernel("displace")
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating OpenCL kernel: %w", err)
	}

	values := table.Values()
	s.tableBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, len(values)*float32Size)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("allocating table buffer: %w", err)
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.tableBuf, true, 0, values, nil); err != nil {
		s.Close()
		return nil, fmt.Errorf("writing table buffer: %w", err)
	}
	s.paramBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, paramCount*float32Size)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("allocating parameter buffer: %w", err)
	}
	params := []float32{
		float32(p.Expansion), float32(p.DecayRate), float32(p.XScale), float32(p.YScale),
		float32(p.Damping), float32(p.MinDistance), float32(p.MinGaussian), float32(p.CullSigmas), 0,
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.paramBuf, true, 0, params, nil); err != nil {
		s.Close()
		return nil, fmt.Errorf("writing parameter buffer: %w", err)
	}
	if err := s.kernel.SetArgInt32(2, int32(len(values))); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting table size: %w", err)
	}
	if err := s.kernel.SetArgFloat32(3, float32(table.Max())); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting table max: %w", err)
	}
	if err := s.kernel.SetArgBuffer(6, s.tableBuf); err != nil {
		s.Close()
		return nil, fmt.Errorf("binding table buffer: %w", err)
	}
	if err := s.kernel.SetArgBuffer(7, s.paramBuf); err != nil {
		s.Close()
		return nil, fmt.Errorf("binding parameter buffer: %w", err)
	}
	return s, nil
}

func pickDevice() (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available")
	}
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0], nil
			}
		}
	}
	return nil, errors.New("no suitable OpenCL devices found")
}

// releaseBuffer frees *b once and clears the handle.
func releaseBuffer(b **cl.MemObject) {
	if *b != nil {
		(*b).Release()
		*b = nil
	}
}

// ensureCapacity grows the per-frame buffers; they are never shrunk.
func (s *OpenCLEvaluator) ensureCapacity(points, waves int) error {
	if points > s.pointCap {
		for _, b := range []**cl.MemObject{&s.anchorBuf, &s.outBuf, &s.opsBuf} {
			releaseBuffer(b)
		}
		s.pointCap = 0
		var err error
		if s.anchorBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, 2*points*float32Size); err != nil {
			return fmt.Errorf("allocating anchor buffer: %w", err)
		}
		if s.outBuf, err = s.context.CreateEmptyBuffer(cl.MemWriteOnly, 2*points*float32Size); err != nil {
			return fmt.Errorf("allocating output buffer: %w", err)
		}
		if s.opsBuf, err = s.context.CreateEmptyBuffer(cl.MemWriteOnly, points*int32Size); err != nil {
			return fmt.Errorf("allocating ops buffer: %w", err)
		}
		if err := s.kernel.SetArgBuffer(4, s.anchorBuf); err != nil {
			return err
		}
		if err := s.kernel.SetArgBuffer(8, s.outBuf); err != nil {
			return err
		}
		if err := s.kernel.SetArgBuffer(9, s.opsBuf); err != nil {
			return err
		}
		s.pointCap = points
		s.anchors = make([]float32, 2*points)
		s.outHost = make([]float32, 2*points)
		s.opsHost = make([]int32, points)
	}
	if waves > s.waveCap {
		releaseBuffer(&s.waveBuf)
		s.waveCap = 0
		var err error
		if s.waveBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, waveStride*waves*float32Size); err != nil {
			return fmt.Errorf("allocating wave buffer: %w", err)
		}
		if err := s.kernel.SetArgBuffer(5, s.waveBuf); err != nil {
			return err
		}
		s.waveCap = waves
		s.waveData = make([]float32, waveStride*waves)
	}
	return nil
}

// Evaluate uploads anchors and the wave snapshot, runs one kernel pass and
// reads the displacements back.
func (s *OpenCLEvaluator) Evaluate(points []grid.Point, waves []wavepool.Wave, now time.Time, out []Sample) (int, error) {
	n := len(points)
	if n == 0 {
		return 0, nil
	}
	if len(waves) == 0 {
		for i := range out[:n] {
			out[i] = Sample{}
		}
		return 0, nil
	}
	if err := s.ensureCapacity(n, len(waves)); err != nil {
		return 0, err
	}

	anchors := s.anchors[:2*n]
	for i := range points {
		anchors[2*i] = float32(points[i].OX)
		anchors[2*i+1] = float32(points[i].OY)
	}
	data := s.waveData[:waveStride*len(waves)]
	for j := range waves {
		w := &waves[j]
		base := j * waveStride
		data[base] = float32(w.X)
		data[base+1] = float32(w.Y)
		data[base+2] = float32(w.Age(now))
		data[base+3] = float32(w.Speed)
		data[base+4] = float32(w.Power)
		data[base+5] = float32(w.Sigma)
	}

	if _, err := s.queue.EnqueueWriteBufferFloat32(s.anchorBuf, false, 0, anchors, nil); err != nil {
		return 0, fmt.Errorf("writing anchor buffer: %w", err)
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.waveBuf, false, 0, data, nil); err != nil {
		return 0, fmt.Errorf("writing wave buffer: %w", err)
	}
	if err := s.kernel.SetArgInt32(0, int32(n)); err != nil {
		return 0, fmt.Errorf("setting point count: %w", err)
	}
	if err := s.kernel.SetArgInt32(1, int32(len(waves))); err != nil {
		return 0, fmt.Errorf("setting wave count: %w", err)
	}
	if _, err := s.queue.EnqueueNDRangeKernel(s.kernel, nil, []int{n}, nil, nil); err != nil {
		return 0, fmt.Errorf("enqueueing kernel: %w", err)
	}
	result := s.outHost[:2*n]
	if _, err := s.queue.EnqueueReadBufferFloat32(s.outBuf, true, 0, result, nil); err != nil {
		return 0, fmt.Errorf("reading output buffer: %w", err)
	}
	ops := s.opsHost[:n]
	if _, err := s.queue.EnqueueReadBuffer(s.opsBuf, true, 0, n*int32Size, unsafe.Pointer(&ops[0]), nil); err != nil {
		return 0, fmt.Errorf("reading ops buffer: %w", err)
	}

	total := 0
	for i := 0; i < n; i++ {
		dx := float64(result[2*i])
		dy := float64(result[2*i+1])
		out[i] = Sample{DX: dx, DY: dy, Influence: s.cpu.Influence(dx, dy)}
		total += int(ops[i])
	}
	return total, nil
}

// DeviceName reports the OpenCL device in use.
func (s *OpenCLEvaluator) DeviceName() string { return s.deviceName }

// Close releases every device object. It is safe to call more than once.
func (s *OpenCLEvaluator) Close() {
	for _, b := range []**cl.MemObject{&s.anchorBuf, &s.waveBuf, &s.tableBuf, &s.paramBuf, &s.outBuf, &s.opsBuf} {
		releaseBuffer(b)
	}
	if s.kernel != nil {
		s.kernel.Release()
		s.kernel = nil
	}
	if s.program != nil {
		s.program.Release()
		s.program = nil
	}
	if s.queue != nil {
		s.queue.Release()
		s.queue = nil
	}
	if s.context != nil {
		s.context.Release()
		s.context = nil
	}
}
