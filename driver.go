package culaunch

// CUDA Driver API bindings via purego.
// No cgo required — loads libcuda.so at runtime via dlopen.
//
// We bind only the functions needed for launching precompiled kernels:
//   - Device/context: cuInit, cuDeviceGet, cuDeviceGetCount, cuCtxCreate, cuCtxSetCurrent
//   - Module/kernel: cuModuleLoadData, cuModuleGetFunction, cuFuncGetAttribute, cuLaunchKernel
//   - Memory: cuMemAlloc, cuMemFree, cuMemcpyHtoD, cuMemcpyDtoH
//   - Streams: cuStreamCreate, cuStreamSynchronize, cuStreamDestroy
//   - Errors: cuGetErrorString
//
// cuLaunchKernelEx and cuOccupancyMaxActiveClusters are resolved lazily by
// dlsym on first use: they are absent from drivers older than CUDA 11.8 and
// must not make the whole library unloadable.

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// CUresult status codes (subset we care about).
type CUresult int32

const (
	CUDA_SUCCESS               CUresult = 0
	CUDA_ERROR_INVALID_VALUE   CUresult = 1
	CUDA_ERROR_OUT_OF_MEMORY   CUresult = 2
	CUDA_ERROR_NOT_INITIALIZED CUresult = 3
	CUDA_ERROR_NO_DEVICE       CUresult = 100
	CUDA_ERROR_INVALID_CONTEXT CUresult = 201
	CUDA_ERROR_INVALID_HANDLE  CUresult = 400
	CUDA_ERROR_NOT_FOUND       CUresult = 500
	CUDA_ERROR_NOT_READY       CUresult = 600
	CUDA_ERROR_LAUNCH_FAILED   CUresult = 719
)

// String returns the driver's error string for r when the driver is loaded,
// or a numeric fallback when it is not.
func (r CUresult) String() string {
	if r == CUDA_SUCCESS {
		return "CUDA_SUCCESS"
	}
	if cuGetErrorString != nil {
		var p uintptr
		if cuGetErrorString(r, &p) == CUDA_SUCCESS && p != 0 {
			return goString(p)
		}
	}
	return fmt.Sprintf("CUDA_ERROR(%d)", int32(r))
}

// CUdevice_attribute codes we need.
const (
	CU_DEVICE_ATTRIBUTE_MAX_THREADS_PER_BLOCK             = 1
	CU_DEVICE_ATTRIBUTE_MAX_SHARED_MEMORY_PER_BLOCK       = 8
	CU_DEVICE_ATTRIBUTE_WARP_SIZE                         = 10
	CU_DEVICE_ATTRIBUTE_MULTIPROCESSOR_COUNT              = 16
	CU_DEVICE_ATTRIBUTE_COMPUTE_CAPABILITY_MAJOR          = 75
	CU_DEVICE_ATTRIBUTE_COMPUTE_CAPABILITY_MINOR          = 76
	CU_DEVICE_ATTRIBUTE_MAX_SHARED_MEMORY_PER_BLOCK_OPTIN = 97
)

// CUfunction_attribute codes we need.
const (
	CU_FUNC_ATTRIBUTE_SHARED_SIZE_BYTES             = 1
	CU_FUNC_ATTRIBUTE_LOCAL_SIZE_BYTES              = 3
	CU_FUNC_ATTRIBUTE_NUM_REGS                      = 4
	CU_FUNC_ATTRIBUTE_MAX_DYNAMIC_SHARED_SIZE_BYTES = 8
)

// Stream flag.
const CU_STREAM_NON_BLOCKING = 1

// ──────────────────────────────────────────────────────────
// Driver function pointers — populated by initDriver()
// ──────────────────────────────────────────────────────────

var (
	driverOnce sync.Once
	driverErr  error
	libcuda    uintptr

	// Init / version
	cuInit             func(flags uint32) CUresult
	cuDriverGetVersion func(version *int32) CUresult

	// Device
	cuDeviceGetCount     func(count *int32) CUresult
	cuDeviceGet          func(device *int32, ordinal int32) CUresult
	cuDeviceGetName      func(name *byte, len int32, dev int32) CUresult
	cuDeviceGetAttribute func(pi *int32, attrib int32, dev int32) CUresult
	cuDeviceTotalMem     func(bytes *uint64, dev int32) CUresult

	// Context
	cuCtxCreate     func(pctx *uintptr, flags uint32, dev int32) CUresult
	cuCtxSetCurrent func(ctx uintptr) CUresult
	cuCtxDestroy    func(ctx uintptr) CUresult

	// Memory
	cuMemAlloc   func(dptr *uintptr, bytesize uint64) CUresult
	cuMemFree    func(dptr uintptr) CUresult
	cuMemcpyHtoD func(dstDevice uintptr, srcHost unsafe.Pointer, byteCount uint64) CUresult
	cuMemcpyDtoH func(dstHost unsafe.Pointer, srcDevice uintptr, byteCount uint64) CUresult

	// Module / Kernel
	cuModuleLoadData    func(module *uintptr, image unsafe.Pointer) CUresult
	cuModuleGetFunction func(hfunc *uintptr, hmod uintptr, name *byte) CUresult
	cuModuleUnload      func(hmod uintptr) CUresult
	cuFuncGetAttribute  func(pi *int32, attrib int32, hfunc uintptr) CUresult
	cuFuncSetAttribute  func(hfunc uintptr, attrib int32, value int32) CUresult
	cuLaunchKernel      func(
		f uintptr,
		gridDimX, gridDimY, gridDimZ uint32,
		blockDimX, blockDimY, blockDimZ uint32,
		sharedMemBytes uint32,
		hStream uintptr,
		kernelParams unsafe.Pointer,
		extra unsafe.Pointer,
	) CUresult

	// Stream
	cuStreamCreate      func(phStream *uintptr, flags uint32) CUresult
	cuStreamSynchronize func(hStream uintptr) CUresult
	cuStreamDestroy     func(hStream uintptr) CUresult

	// Errors
	cuGetErrorString func(r CUresult, pstr *uintptr) CUresult
)

// driverInit is swapped out by tests that substitute fake entry points.
var driverInit = initDriver

// initDriver loads libcuda.so and registers all function pointers.
func initDriver() error {
	driverOnce.Do(func() {
		var lastErr error
		for _, path := range libcudaCandidates() {
			lib, err := purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
			if err == nil {
				libcuda = lib
				break
			}
			lastErr = err
		}
		if libcuda == 0 {
			driverErr = fmt.Errorf("failed to open libcuda.so: %w (is NVIDIA driver installed?)", lastErr)
			return
		}

		purego.RegisterLibFunc(&cuInit, libcuda, "cuInit")
		purego.RegisterLibFunc(&cuDriverGetVersion, libcuda, "cuDriverGetVersion")
		purego.RegisterLibFunc(&cuDeviceGetCount, libcuda, "cuDeviceGetCount")
		purego.RegisterLibFunc(&cuDeviceGet, libcuda, "cuDeviceGet")
		purego.RegisterLibFunc(&cuDeviceGetName, libcuda, "cuDeviceGetName")
		purego.RegisterLibFunc(&cuDeviceGetAttribute, libcuda, "cuDeviceGetAttribute")
		purego.RegisterLibFunc(&cuDeviceTotalMem, libcuda, "cuDeviceTotalMem_v2")
		purego.RegisterLibFunc(&cuCtxCreate, libcuda, "cuCtxCreate_v2")
		purego.RegisterLibFunc(&cuCtxSetCurrent, libcuda, "cuCtxSetCurrent")
		purego.RegisterLibFunc(&cuCtxDestroy, libcuda, "cuCtxDestroy_v2")
		purego.RegisterLibFunc(&cuMemAlloc, libcuda, "cuMemAlloc_v2")
		purego.RegisterLibFunc(&cuMemFree, libcuda, "cuMemFree_v2")
		purego.RegisterLibFunc(&cuMemcpyHtoD, libcuda, "cuMemcpyHtoD_v2")
		purego.RegisterLibFunc(&cuMemcpyDtoH, libcuda, "cuMemcpyDtoH_v2")
		purego.RegisterLibFunc(&cuModuleLoadData, libcuda, "cuModuleLoadData")
		purego.RegisterLibFunc(&cuModuleGetFunction, libcuda, "cuModuleGetFunction")
		purego.RegisterLibFunc(&cuModuleUnload, libcuda, "cuModuleUnload")
		purego.RegisterLibFunc(&cuFuncGetAttribute, libcuda, "cuFuncGetAttribute")
		purego.RegisterLibFunc(&cuFuncSetAttribute, libcuda, "cuFuncSetAttribute")
		purego.RegisterLibFunc(&cuLaunchKernel, libcuda, "cuLaunchKernel")
		purego.RegisterLibFunc(&cuStreamCreate, libcuda, "cuStreamCreate")
		purego.RegisterLibFunc(&cuStreamSynchronize, libcuda, "cuStreamSynchronize")
		purego.RegisterLibFunc(&cuStreamDestroy, libcuda, "cuStreamDestroy_v2")
		purego.RegisterLibFunc(&cuGetErrorString, libcuda, "cuGetErrorString")
	})
	return driverErr
}

// dlsymCuda resolves a single driver symbol that may be absent from the
// static set registered above.
func dlsymCuda(name string) (uintptr, error) {
	if libcuda == 0 {
		return 0, fmt.Errorf("failed to retrieve %s: libcuda.so is not loaded", name)
	}
	addr, err := purego.Dlsym(libcuda, name)
	if err != nil || addr == 0 {
		return 0, fmt.Errorf("failed to retrieve %s from libcuda.so: %w", name, err)
	}
	return addr, nil
}

// goString copies a NUL-terminated C string.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	var n int
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
