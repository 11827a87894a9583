package culaunch

import (
	"errors"
	"testing"
	"unsafe"
)

func TestMaxActiveClusters(t *testing.T) {
	stubDriver(t)

	var got launchConfig
	var gotAttr launchAttribute
	resolveOccupancy = func() (occupancyMaxActiveClustersFunc, error) {
		return func(n *int32, f uintptr, cfg *launchConfig) CUresult {
			got = *cfg
			gotAttr = *cfg.attrs
			*n = 16
			return CUDA_SUCCESS
		}, nil
	}

	k := &Kernel{Handle: 0xF00}
	n, err := MaxActiveClusters(k, 2, 1, 1, 4, 2048)
	if err != nil {
		t.Fatalf("MaxActiveClusters() failed: %v", err)
	}
	if n != 16 {
		t.Errorf("MaxActiveClusters() = %d, want 16", n)
	}
	if got.blockDimX != 128 || got.blockDimY != 1 || got.blockDimZ != 1 {
		t.Errorf("block = (%d,%d,%d), want (128,1,1)", got.blockDimX, got.blockDimY, got.blockDimZ)
	}
	if got.sharedMemBytes != 2048 {
		t.Errorf("shared = %d, want 2048", got.sharedMemBytes)
	}
	if got.numAttrs != 1 || gotAttr.id != CU_LAUNCH_ATTRIBUTE_CLUSTER_DIMENSION {
		t.Errorf("attrs = %d/%d, want one cluster-dimension attribute", got.numAttrs, gotAttr.id)
	}
	dim := *(*[3]uint32)(unsafe.Pointer(&gotAttr.value[0]))
	if dim != [3]uint32{2, 1, 1} {
		t.Errorf("cluster dim = %v, want (2,1,1)", dim)
	}
}

func TestMaxActiveClustersResolutionCached(t *testing.T) {
	stubDriver(t)

	resolved := 0
	resolveOccupancy = func() (occupancyMaxActiveClustersFunc, error) {
		resolved++
		return func(n *int32, f uintptr, cfg *launchConfig) CUresult {
			*n = 1
			return CUDA_SUCCESS
		}, nil
	}
	k := &Kernel{Handle: 1}
	for i := 0; i < 3; i++ {
		if _, err := MaxActiveClusters(k, 1, 1, 1, 1, 0); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	if resolved != 1 {
		t.Errorf("resolved %d times, want 1", resolved)
	}
}

func TestMaxActiveClustersResolutionFailure(t *testing.T) {
	stubDriver(t)
	resolveErr := errors.New("failed to retrieve cuOccupancyMaxActiveClusters from libcuda.so")
	resolveOccupancy = func() (occupancyMaxActiveClustersFunc, error) {
		return nil, resolveErr
	}
	k := &Kernel{Handle: 1}
	if _, err := MaxActiveClusters(k, 1, 1, 1, 1, 0); !errors.Is(err, resolveErr) {
		t.Errorf("err = %v, want the resolution error", err)
	}
}
