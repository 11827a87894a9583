package culaunch

// Device memory helpers. Kernel arguments that are device pointers come from
// here: MemAlloc's uintptr goes straight into PackArgs.

import "unsafe"

// MemAlloc allocates size bytes of device memory in the current context.
func MemAlloc(size int) (uintptr, error) {
	if err := driverInit(); err != nil {
		return 0, err
	}
	var dptr uintptr
	if err := check(cuMemAlloc(&dptr, uint64(size)), "cuMemAlloc"); err != nil {
		return 0, err
	}
	return dptr, nil
}

// MemFree releases device memory allocated by MemAlloc.
func MemFree(dptr uintptr) error {
	if err := driverInit(); err != nil {
		return err
	}
	return check(cuMemFree(dptr), "cuMemFree")
}

// CopyToDevice copies host bytes to device memory.
func CopyToDevice(dst uintptr, src []byte) error {
	if err := driverInit(); err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}
	return check(cuMemcpyHtoD(dst, unsafe.Pointer(&src[0]), uint64(len(src))), "cuMemcpyHtoD")
}

// CopyFromDevice copies device memory into a host buffer.
func CopyFromDevice(dst []byte, src uintptr) error {
	if err := driverInit(); err != nil {
		return err
	}
	if len(dst) == 0 {
		return nil
	}
	return check(cuMemcpyDtoH(unsafe.Pointer(&dst[0]), src, uint64(len(dst))), "cuMemcpyDtoH")
}
