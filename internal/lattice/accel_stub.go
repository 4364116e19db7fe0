//go:build !opencl

package lattice

import "fmt"

func newRelaxer(Config, int) (relaxer, error) {
	return nil, fmt.Errorf("%w: OpenCL support is not enabled; rebuild with -tags opencl", ErrAcceleratorUnavailable)
}
