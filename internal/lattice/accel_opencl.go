//go:build opencl

package lattice

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
)

// openCLRelaxer runs macroscopic recovery, equilibrium and collision as one
// fused kernel. Streaming and boundary closures stay on the host.
type openCLRelaxer struct {
	context    *cl.Context
	queue      *cl.CommandQueue
	program    *cl.Program
	kernel     *cl.Kernel
	fBuf       *cl.MemObject
	feqBuf     *cl.MemObject
	rhoBuf     *cl.MemObject
	uxBuf      *cl.MemObject
	uyBuf      *cl.MemObject
	paramBuf   *cl.MemObject
	cells      int
	deviceName string
}

const relaxKernelSource = `#pragma OPENCL EXTENSION cl_khr_fp64 : enable

__constant int CX[9] = {0, 1, 0, -1, 0, 1, -1, -1, 1};
__constant int CY[9] = {0, 0, 1, 0, -1, 1, 1, -1, -1};
__constant double W[9] = {4.0/9.0, 1.0/9.0, 1.0/9.0, 1.0/9.0, 1.0/9.0,
                          1.0/36.0, 1.0/36.0, 1.0/36.0, 1.0/36.0};

// params: omega, fx, fy, pre (1 adds the source before relaxing)
__kernel void relax(
    const int cells,
    __global const double* params,
    __global double* f,
    __global double* feq,
    __global double* rho_out,
    __global double* ux_out,
    __global double* uy_out)
{
    int idx = get_global_id(0);
    if (idx >= cells) {
        return;
    }
    double omega = params[0];
    double fx = params[1];
    double fy = params[2];
    int pre = params[3] != 0.0;

    double rho = 0.0, mx = 0.0, my = 0.0;
    for (int i = 0; i < 9; i++) {
        double v = f[i * cells + idx];
        rho += v;
        mx += v * CX[i];
        my += v * CY[i];
    }
    double ux = (mx + 0.5 * fx) / rho;
    double uy = (my + 0.5 * fy) / rho;
    rho_out[idx] = rho;
    ux_out[idx] = ux;
    uy_out[idx] = uy;

    double usq = 1.5 * (ux * ux + uy * uy);
    double scale = 1.0 - 0.5 * omega;
    double forced[9];
    double prho = 0.0, pmx = 0.0, pmy = 0.0;
    for (int i = 0; i < 9; i++) {
        double cu = CX[i] * ux + CY[i] * uy;
        double eq = W[i] * rho * (1.0 + 3.0 * cu + 4.5 * cu * cu - usq);
        double cf = CX[i] * fx + CY[i] * fy;
        double src = W[i] * scale * (3.0 * ((CX[i] - ux) * fx + (CY[i] - uy) * fy) + 9.0 * cu * cf);
        double v = f[i * cells + idx];
        feq[i * cells + idx] = eq;
        if (pre) {
            v += src;
            forced[i] = v;
            prho += v;
            pmx += v * CX[i];
            pmy += v * CY[i];
        } else {
            f[i * cells + idx] = v - omega * (v - eq) + src;
        }
    }
    if (!pre) {
        return;
    }
    // pre: relax toward the equilibrium of the forced populations
    double pux = (pmx + 0.5 * fx) / prho;
    double puy = (pmy + 0.5 * fy) / prho;
    double pusq = 1.5 * (pux * pux + puy * puy);
    for (int i = 0; i < 9; i++) {
        double cu = CX[i] * pux + CY[i] * puy;
        double eq = W[i] * prho * (1.0 + 3.0 * cu + 4.5 * cu * cu - pusq);
        f[i * cells + idx] = forced[i] - omega * (forced[i] - eq);
    }
}`

func newRelaxer(cfg Config, cells int) (relaxer, error) {
	s, err := newOpenCLRelaxer(cfg, cells)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcceleratorUnavailable, err)
	}
	return s, nil
}

func pickDevice(platforms []*cl.Platform) *cl.Device {
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, err := p.GetDevices(kind)
			if err != nil && err != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0]
			}
		}
	}
	return nil
}

func newOpenCLRelaxer(cfg Config, cells int) (*openCLRelaxer, error) {
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
	device := pickDevice(platforms)
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	s := &openCLRelaxer{cells: cells, deviceName: device.Name()}
	if s.context, err = cl.CreateContext([]*cl.Device{device}); err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	if s.queue, err = s.context.CreateCommandQueue(device, 0); err != nil {
		s.release()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	if s.program, err = s.context.CreateProgramWithSource([]string{relaxKernelSource}); err != nil {
		s.release()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := s.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		s.release()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	if s.kernel, err = s.program.CreateKernel("relax"); err != nil {
		s.release()
		return nil, fmt.Errorf("creating OpenCL kernel: %w", err)
	}

	word := int(unsafe.Sizeof(float64(0)))
	alloc := func(flags cl.MemFlag, n int, label string) (*cl.MemObject, error) {
		buf, err := s.context.CreateEmptyBuffer(flags, n*word)
		if err != nil {
			return nil, fmt.Errorf("allocating %s buffer: %w", label, err)
		}
		return buf, nil
	}
	if s.fBuf, err = alloc(cl.MemReadWrite, Q*cells, "distribution"); err != nil {
		s.release()
		return nil, err
	}
	if s.feqBuf, err = alloc(cl.MemWriteOnly, Q*cells, "equilibrium"); err != nil {
		s.release()
		return nil, err
	}
	if s.rhoBuf, err = alloc(cl.MemWriteOnly, cells, "density"); err != nil {
		s.release()
		return nil, err
	}
	if s.uxBuf, err = alloc(cl.MemWriteOnly, cells, "x velocity"); err != nil {
		s.release()
		return nil, err
	}
	if s.uyBuf, err = alloc(cl.MemWriteOnly, cells, "y velocity"); err != nil {
		s.release()
		return nil, err
	}
	if s.paramBuf, err = alloc(cl.MemReadOnly, 4, "parameter"); err != nil {
		s.release()
		return nil, err
	}

	pre := 0.0
	if cfg.Forcing == ForcingPreRelaxation {
		pre = 1
	}
	params := []float64{cfg.Omega(), cfg.BodyForce[0], cfg.BodyForce[1], pre}
	if err := s.write(s.paramBuf, 0, params); err != nil {
		s.release()
		return nil, fmt.Errorf("writing parameter buffer: %w", err)
	}
	if err := s.kernel.SetArgs(
		int32(cells),
		s.paramBuf,
		s.fBuf,
		s.feqBuf,
		s.rhoBuf,
		s.uxBuf,
		s.uyBuf,
	); err != nil {
		s.release()
		return nil, fmt.Errorf("setting kernel arguments: %w", err)
	}
	return s, nil
}

func (s *openCLRelaxer) write(buf *cl.MemObject, offset int, data []float64) error {
	if len(data) == 0 {
		return nil
	}
	word := int(unsafe.Sizeof(float64(0)))
	_, err := s.queue.EnqueueWriteBuffer(buf, true, offset*word, len(data)*word, unsafe.Pointer(&data[0]), nil)
	return err
}

func (s *openCLRelaxer) read(buf *cl.MemObject, offset int, data []float64) error {
	if len(data) == 0 {
		return nil
	}
	word := int(unsafe.Sizeof(float64(0)))
	_, err := s.queue.EnqueueReadBuffer(buf, true, offset*word, len(data)*word, unsafe.Pointer(&data[0]), nil)
	return err
}

func (s *openCLRelaxer) relax(st *State) error {
	n := s.cells
	for i := 0; i < Q; i++ {
		if err := s.write(s.fBuf, i*n, st.F[i]); err != nil {
			return fmt.Errorf("writing distribution %d: %w", i, err)
		}
	}
	if _, err := s.queue.EnqueueNDRangeKernel(s.kernel, nil, []int{n}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing relax kernel: %w", err)
	}
	for i := 0; i < Q; i++ {
		if err := s.read(s.fBuf, i*n, st.F[i]); err != nil {
			return fmt.Errorf("reading distribution %d: %w", i, err)
		}
		if err := s.read(s.feqBuf, i*n, st.Feq[i]); err != nil {
			return fmt.Errorf("reading equilibrium %d: %w", i, err)
		}
	}
	if err := s.read(s.rhoBuf, 0, st.Rho); err != nil {
		return fmt.Errorf("reading density: %w", err)
	}
	if err := s.read(s.uxBuf, 0, st.Ux); err != nil {
		return fmt.Errorf("reading x velocity: %w", err)
	}
	if err := s.read(s.uyBuf, 0, st.Uy); err != nil {
		return fmt.Errorf("reading y velocity: %w", err)
	}
	return nil
}

func (s *openCLRelaxer) name() string {
	return "opencl:" + s.deviceName
}

func (s *openCLRelaxer) release() {
	for _, buf := range []**cl.MemObject{&s.paramBuf, &s.uyBuf, &s.uxBuf, &s.rhoBuf, &s.feqBuf, &s.fBuf} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
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
