package culaunch

// Cluster occupancy query, resolved lazily like cuLaunchKernelEx: the symbol
// is absent from drivers older than CUDA 11.8.

import (
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

type occupancyMaxActiveClustersFunc func(numClusters *int32, f uintptr, cfg *launchConfig) CUresult

var (
	occupancyMu sync.Mutex
	occupancyFn occupancyMaxActiveClustersFunc

	resolveOccupancy = func() (occupancyMaxActiveClustersFunc, error) {
		addr, err := dlsymCuda("cuOccupancyMaxActiveClusters")
		if err != nil {
			return nil, err
		}
		var fn occupancyMaxActiveClustersFunc
		purego.RegisterFunc(&fn, addr)
		return fn, nil
	}
)

func occupancyMaxActiveClusters() (occupancyMaxActiveClustersFunc, error) {
	occupancyMu.Lock()
	defer occupancyMu.Unlock()
	if occupancyFn != nil {
		return occupancyFn, nil
	}
	fn, err := resolveOccupancy()
	if err != nil {
		return nil, err
	}
	occupancyFn = fn
	return fn, nil
}

// MaxActiveClusters reports how many clusters of the given shape can be
// co-resident on the device for kernel k.
func MaxActiveClusters(k *Kernel, clusterX, clusterY, clusterZ, numWarps, sharedMemBytes int) (int, error) {
	if err := driverInit(); err != nil {
		return 0, err
	}

	var attr launchAttribute
	attr.setClusterDim(uint32(clusterX), uint32(clusterY), uint32(clusterZ))

	cfg := launchConfig{
		gridDimX:       uint32(clusterX),
		gridDimY:       uint32(clusterY),
		gridDimZ:       uint32(clusterZ),
		blockDimX:      uint32(32 * numWarps),
		blockDimY:      1,
		blockDimZ:      1,
		sharedMemBytes: uint32(sharedMemBytes),
		attrs:          &attr,
		numAttrs:       1,
	}

	fn, err := occupancyMaxActiveClusters()
	if err != nil {
		return 0, err
	}
	var n int32
	r := fn(&n, k.Handle, &cfg)
	runtime.KeepAlive(&attr)
	if err := check(r, "cuOccupancyMaxActiveClusters"); err != nil {
		return 0, err
	}
	return int(n), nil
}
