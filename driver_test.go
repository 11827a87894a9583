package culaunch

import (
	"errors"
	"testing"
)

// stubDriver replaces driver initialization with a no-op and snapshots every
// entry point a test might substitute, restoring all of them on cleanup.
// Tests then assign fakes to the package-level function variables directly.
func stubDriver(t *testing.T) {
	t.Helper()

	oldInit := driverInit
	oldCuInit := cuInit
	oldVersion := cuDriverGetVersion
	oldCount := cuDeviceGetCount
	oldGet := cuDeviceGet
	oldName := cuDeviceGetName
	oldAttr := cuDeviceGetAttribute
	oldTotal := cuDeviceTotalMem
	oldLoad := cuModuleLoadData
	oldGetFn := cuModuleGetFunction
	oldUnload := cuModuleUnload
	oldFnAttr := cuFuncGetAttribute
	oldFnSet := cuFuncSetAttribute
	oldLaunch := cuLaunchKernel
	oldErrStr := cuGetErrorString
	oldCtxCreate := cuCtxCreate
	oldCtxSet := cuCtxSetCurrent
	oldCtxDestroy := cuCtxDestroy
	oldMemAlloc := cuMemAlloc
	oldMemFree := cuMemFree
	oldHtoD := cuMemcpyHtoD
	oldDtoH := cuMemcpyDtoH
	oldStreamCreate := cuStreamCreate
	oldStreamSync := cuStreamSynchronize
	oldStreamDestroy := cuStreamDestroy
	oldResolveEx := resolveLaunchKernelEx
	oldExFn := launchExFn
	oldResolveOcc := resolveOccupancy
	oldOccFn := occupancyFn

	driverInit = func() error { return nil }
	cuInit = func(uint32) CUresult { return CUDA_SUCCESS }
	launchExFn = nil
	occupancyFn = nil

	t.Cleanup(func() {
		driverInit = oldInit
		cuInit = oldCuInit
		cuDriverGetVersion = oldVersion
		cuDeviceGetCount = oldCount
		cuDeviceGet = oldGet
		cuDeviceGetName = oldName
		cuDeviceGetAttribute = oldAttr
		cuDeviceTotalMem = oldTotal
		cuModuleLoadData = oldLoad
		cuModuleGetFunction = oldGetFn
		cuModuleUnload = oldUnload
		cuFuncGetAttribute = oldFnAttr
		cuFuncSetAttribute = oldFnSet
		cuLaunchKernel = oldLaunch
		cuGetErrorString = oldErrStr
		cuCtxCreate = oldCtxCreate
		cuCtxSetCurrent = oldCtxSet
		cuCtxDestroy = oldCtxDestroy
		cuMemAlloc = oldMemAlloc
		cuMemFree = oldMemFree
		cuMemcpyHtoD = oldHtoD
		cuMemcpyDtoH = oldDtoH
		cuStreamCreate = oldStreamCreate
		cuStreamSynchronize = oldStreamSync
		cuStreamDestroy = oldStreamDestroy
		resolveLaunchKernelEx = oldResolveEx
		launchExFn = oldExFn
		resolveOccupancy = oldResolveOcc
		occupancyFn = oldOccFn
	})
}

// stubDriverUnloaded simulates a machine where libcuda cannot be opened:
// driverInit fails and every entry point variable stays nil.
func stubDriverUnloaded(t *testing.T) error {
	t.Helper()
	old := driverInit
	initErr := errors.New("failed to open libcuda.so: not found")
	driverInit = func() error { return initErr }
	t.Cleanup(func() { driverInit = old })
	return initErr
}
