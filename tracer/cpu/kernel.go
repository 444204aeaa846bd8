package cpu

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/types"
)

// A kernel entry point invoked once per pixel. It returns the RGBA sample
// for pixel (x, y) of a width x height output image.
type KernelFunc func(params *tracer.FrameParameters, x, y, width, height uint32) types.Vec4

// Executes a KernelFunc over a grid of thread groups using a pool of
// goroutines. Each worker processes a contiguous band of group rows.
type Kernel struct {
	fn      KernelFunc
	workers int
}

// Create a kernel for fn. If workers is <= 0, runtime.NumCPU() workers are
// used.
func NewKernel(fn KernelFunc, workers int) *Kernel {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Kernel{fn: fn, workers: workers}
}

// Run the kernel over groups[0] x groups[1] x groups[2] thread groups of
// tracer.GroupSize x tracer.GroupSize threads. Threads that fall outside the
// output image are dropped. Dispatch returns once all workers are done.
func (k *Kernel) Dispatch(params *tracer.FrameParameters, out tracer.Image, groups [3]uint32) error {
	if k.fn == nil {
		return fmt.Errorf("cpu kernel: %w: no entry point", tracer.ErrFatalConfiguration)
	}
	img, ok := out.(*Image)
	if !ok {
		return fmt.Errorf("cpu kernel: output is not a host image (%T)", out)
	}
	if groups[2] == 0 {
		return nil
	}

	var wg sync.WaitGroup
	var firstRow uint32
	for _, rows := range scheduleBands(groups[1], k.workers) {
		wg.Add(1)
		go func(rowStart, rowEnd uint32) {
			defer wg.Done()
			k.runBand(params, img, groups[0], rowStart, rowEnd)
		}(firstRow, firstRow+rows)
		firstRow += rows
	}
	wg.Wait()

	return nil
}

// Release is a no-op for host kernels.
func (k *Kernel) Release() {
}

func (k *Kernel) runBand(params *tracer.FrameParameters, img *Image, groupsX, rowStart, rowEnd uint32) {
	for gy := rowStart; gy < rowEnd; gy++ {
		for gx := uint32(0); gx < groupsX; gx++ {
			for ty := uint32(0); ty < tracer.GroupSize; ty++ {
				y := gy*tracer.GroupSize + ty
				if y >= img.height {
					break
				}
				for tx := uint32(0); tx < tracer.GroupSize; tx++ {
					x := gx*tracer.GroupSize + tx
					if x >= img.width {
						break
					}
					img.Set(x, y, k.fn(params, x, y, img.width, img.height))
				}
			}
		}
	}
}
