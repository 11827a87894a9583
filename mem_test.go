package culaunch

import (
	"errors"
	"testing"
	"unsafe"
)

// Every exported memory helper must fail with the init error, not panic,
// when the driver library was never loaded.
func TestMemCallsFailWhenDriverUnloaded(t *testing.T) {
	initErr := stubDriverUnloaded(t)

	if _, err := MemAlloc(64); !errors.Is(err, initErr) {
		t.Errorf("MemAlloc() = %v, want init error", err)
	}
	if err := MemFree(0x100); !errors.Is(err, initErr) {
		t.Errorf("MemFree() = %v, want init error", err)
	}
	if err := CopyToDevice(0x100, []byte{1}); !errors.Is(err, initErr) {
		t.Errorf("CopyToDevice() = %v, want init error", err)
	}
	if err := CopyFromDevice(make([]byte, 1), 0x100); !errors.Is(err, initErr) {
		t.Errorf("CopyFromDevice() = %v, want init error", err)
	}
}

func TestMemAllocFree(t *testing.T) {
	stubDriver(t)

	var allocated uint64
	cuMemAlloc = func(dptr *uintptr, bytesize uint64) CUresult {
		allocated = bytesize
		*dptr = 0xBEEF
		return CUDA_SUCCESS
	}
	var freed uintptr
	cuMemFree = func(dptr uintptr) CUresult {
		freed = dptr
		return CUDA_SUCCESS
	}

	dptr, err := MemAlloc(4096)
	if err != nil {
		t.Fatalf("MemAlloc() failed: %v", err)
	}
	if dptr != 0xBEEF || allocated != 4096 {
		t.Errorf("MemAlloc() = %#x (%d bytes), want 0xBEEF (4096 bytes)", dptr, allocated)
	}
	if err := MemFree(dptr); err != nil {
		t.Fatalf("MemFree() failed: %v", err)
	}
	if freed != 0xBEEF {
		t.Errorf("freed %#x, want 0xBEEF", freed)
	}
}

func TestCopyRoundTrip(t *testing.T) {
	stubDriver(t)

	device := make([]byte, 8)
	cuMemcpyHtoD = func(dst uintptr, src unsafe.Pointer, n uint64) CUresult {
		copy(device, unsafe.Slice((*byte)(src), n))
		return CUDA_SUCCESS
	}
	cuMemcpyDtoH = func(dst unsafe.Pointer, src uintptr, n uint64) CUresult {
		copy(unsafe.Slice((*byte)(dst), n), device)
		return CUDA_SUCCESS
	}

	if err := CopyToDevice(0x100, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("CopyToDevice() failed: %v", err)
	}
	got := make([]byte, 4)
	if err := CopyFromDevice(got, 0x100); err != nil {
		t.Fatalf("CopyFromDevice() failed: %v", err)
	}
	for i, b := range []byte{1, 2, 3, 4} {
		if got[i] != b {
			t.Errorf("byte %d = %d, want %d", i, got[i], b)
		}
	}
}

func TestCopyEmptyIsNoOp(t *testing.T) {
	stubDriver(t)
	cuMemcpyHtoD = func(uintptr, unsafe.Pointer, uint64) CUresult {
		t.Error("cuMemcpyHtoD called for empty copy")
		return CUDA_SUCCESS
	}
	cuMemcpyDtoH = func(unsafe.Pointer, uintptr, uint64) CUresult {
		t.Error("cuMemcpyDtoH called for empty copy")
		return CUDA_SUCCESS
	}
	if err := CopyToDevice(0x100, nil); err != nil {
		t.Errorf("CopyToDevice(nil) = %v, want nil", err)
	}
	if err := CopyFromDevice(nil, 0x100); err != nil {
		t.Errorf("CopyFromDevice(nil) = %v, want nil", err)
	}
}
