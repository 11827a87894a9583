package culaunch

// Kernel launch adapter.
//
// Launch marshals a flat argument list into the pointer-array shape the
// driver ABI expects and dispatches to one of two entry points:
//   - cuLaunchKernel for the single-CTA case
//   - cuLaunchKernelEx for multi-CTA cluster launches (resolved by dlsym,
//     since older driver headers do not declare it)

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// LaunchRequest describes one kernel launch. Stream and Function are opaque
// handles previously obtained from the driver (see CreateStream and
// Module.Function). Args must already be reduced to 64-bit patterns; the
// argument count is not checked against the kernel signature — a mismatch is
// undefined behavior at the driver level.
type LaunchRequest struct {
	GridX, GridY, GridZ int

	// NumWarps sets the block width: blockDim = (32*NumWarps, 1, 1).
	NumWarps int

	// NumCTAs selects the entry point. A value above 1 requests a thread
	// block cluster and takes the cuLaunchKernelEx path; grid dimensions
	// are then scaled by the cluster dimensions.
	NumCTAs                               int
	ClusterDimX, ClusterDimY, ClusterDimZ int

	SharedMemBytes int

	Stream   uintptr
	Function uintptr

	// Kernel is opaque pass-through context for hooks; the adapter never
	// inspects it.
	Kernel any

	Args []uint64
}

// Hook runs immediately before or after a dispatch, with the request the
// adapter received. A non-nil error from the enter hook aborts the launch;
// a non-nil error from the exit hook fails the call even though the kernel
// already ran.
type Hook func(*LaunchRequest) error

// Launch submits the kernel described by req. A zero grid volume is a valid
// no-op: no driver entry point is invoked and the call succeeds. The launch
// is asynchronous relative to GPU execution; stream ordering is the driver's
// responsibility.
func Launch(req *LaunchRequest, enter, exit Hook) error {
	if enter != nil {
		if err := enter(req); err != nil {
			return err
		}
	}

	slots, params := marshalArgs(req.Args)
	err := dispatch(req, params)
	runtime.KeepAlive(slots)
	if err != nil {
		return err
	}

	if exit != nil {
		if err := exit(req); err != nil {
			return err
		}
	}
	return nil
}

func dispatch(req *LaunchRequest, params unsafe.Pointer) error {
	if req.GridX*req.GridY*req.GridZ == 0 {
		return nil
	}

	if err := driverInit(); err != nil {
		return err
	}

	if req.NumCTAs <= 1 {
		r := cuLaunchKernel(
			req.Function,
			uint32(req.GridX), uint32(req.GridY), uint32(req.GridZ),
			uint32(32*req.NumWarps), 1, 1,
			uint32(req.SharedMemBytes),
			req.Stream,
			params,
			nil,
		)
		return check(r, "cuLaunchKernel")
	}

	var attrs [2]launchAttribute
	attrs[0].setClusterDim(uint32(req.ClusterDimX), uint32(req.ClusterDimY), uint32(req.ClusterDimZ))
	attrs[1].setClusterSchedulingPolicy(CU_CLUSTER_SCHEDULING_POLICY_SPREAD)

	cfg := launchConfig{
		gridDimX:       uint32(req.GridX * req.ClusterDimX),
		gridDimY:       uint32(req.GridY * req.ClusterDimY),
		gridDimZ:       uint32(req.GridZ * req.ClusterDimZ),
		blockDimX:      uint32(32 * req.NumWarps),
		blockDimY:      1,
		blockDimZ:      1,
		sharedMemBytes: uint32(req.SharedMemBytes),
		hStream:        req.Stream,
		attrs:          &attrs[0],
		numAttrs:       2,
	}

	fn, err := launchKernelEx()
	if err != nil {
		return err
	}
	r := fn(&cfg, req.Function, params, nil)
	runtime.KeepAlive(&attrs)
	return check(r, "cuLaunchKernelEx")
}

// ──────────────────────────────────────────────────────────
// cuLaunchKernelEx resolution
// ──────────────────────────────────────────────────────────

type launchKernelExFunc func(cfg *launchConfig, f uintptr, kernelParams, extra unsafe.Pointer) CUresult

var (
	launchExMu sync.Mutex
	launchExFn launchKernelExFunc

	// resolveLaunchKernelEx is a seam for tests; the default resolves the
	// symbol against the loaded driver library.
	resolveLaunchKernelEx = func() (launchKernelExFunc, error) {
		addr, err := dlsymCuda("cuLaunchKernelEx")
		if err != nil {
			return nil, err
		}
		var fn launchKernelExFunc
		purego.RegisterFunc(&fn, addr)
		return fn, nil
	}
)

// launchKernelEx returns the cluster-capable entry point, resolving it on
// first use. A successful resolution is cached for the process lifetime; a
// failed one is retried on the next call.
func launchKernelEx() (launchKernelExFunc, error) {
	launchExMu.Lock()
	defer launchExMu.Unlock()
	if launchExFn != nil {
		return launchExFn, nil
	}
	fn, err := resolveLaunchKernelEx()
	if err != nil {
		return nil, err
	}
	launchExFn = fn
	return fn, nil
}

// ──────────────────────────────────────────────────────────
// CUlaunchConfig / CUlaunchAttribute ABI structs
// ──────────────────────────────────────────────────────────

// CUlaunchAttributeID values we use.
const (
	CU_LAUNCH_ATTRIBUTE_CLUSTER_DIMENSION                    = 4
	CU_LAUNCH_ATTRIBUTE_CLUSTER_SCHEDULING_POLICY_PREFERENCE = 5
)

// CUclusterSchedulingPolicy values.
const (
	CU_CLUSTER_SCHEDULING_POLICY_DEFAULT        = 0
	CU_CLUSTER_SCHEDULING_POLICY_SPREAD         = 1
	CU_CLUSTER_SCHEDULING_POLICY_LOAD_BALANCING = 2
)

// launchAttribute mirrors CUlaunchAttribute: a 4-byte id, 4 bytes of
// padding, and a 64-byte value union.
type launchAttribute struct {
	id    uint32
	_     [4]byte
	value [64]byte
}

func (a *launchAttribute) setClusterDim(x, y, z uint32) {
	a.id = CU_LAUNCH_ATTRIBUTE_CLUSTER_DIMENSION
	*(*[3]uint32)(unsafe.Pointer(&a.value[0])) = [3]uint32{x, y, z}
}

func (a *launchAttribute) setClusterSchedulingPolicy(policy uint32) {
	a.id = CU_LAUNCH_ATTRIBUTE_CLUSTER_SCHEDULING_POLICY_PREFERENCE
	*(*uint32)(unsafe.Pointer(&a.value[0])) = policy
}

// launchConfig mirrors CUlaunchConfig on 64-bit platforms.
type launchConfig struct {
	gridDimX, gridDimY, gridDimZ    uint32
	blockDimX, blockDimY, blockDimZ uint32
	sharedMemBytes                  uint32
	_                               [4]byte
	hStream                         uintptr
	attrs                           *launchAttribute
	numAttrs                        uint32
	_                               [4]byte
}
