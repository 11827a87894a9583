package culaunch

// Loading precompiled kernel images.
//
// A Module wraps a cubin or PTX image loaded into the current context; a
// Kernel is a resolved entry point plus the compiler statistics callers use
// for occupancy decisions. Kernel.Handle is what LaunchRequest.Function
// expects.

import (
	"fmt"
	"unsafe"
)

// Module is a loaded cubin/PTX image.
type Module struct {
	handle uintptr
}

// Kernel is a resolved kernel entry point.
type Kernel struct {
	Handle uintptr

	// NumRegs is the register count per thread; NumSpills the spill slots
	// (local memory bytes / 4). Both come from the compiler via the driver.
	NumRegs   int
	NumSpills int
}

// LoadModule loads a compiled kernel image (cubin or NUL-terminatable PTX
// text) into the current context.
func LoadModule(image []byte) (*Module, error) {
	if err := driverInit(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("empty kernel image")
	}
	// cuModuleLoadData parses PTX as a C string, so terminate it.
	data := append(append([]byte(nil), image...), 0)
	var handle uintptr
	if err := check(cuModuleLoadData(&handle, unsafe.Pointer(&data[0])), "cuModuleLoadData"); err != nil {
		return nil, err
	}
	return &Module{handle: handle}, nil
}

// Function resolves the kernel named name in m.
func (m *Module) Function(name string) (*Kernel, error) {
	nameBytes := append([]byte(name), 0)
	var fn uintptr
	if err := check(cuModuleGetFunction(&fn, m.handle, &nameBytes[0]), "cuModuleGetFunction"); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	k := &Kernel{Handle: fn}
	var val int32
	if err := check(cuFuncGetAttribute(&val, CU_FUNC_ATTRIBUTE_NUM_REGS, fn), "cuFuncGetAttribute"); err != nil {
		return nil, err
	}
	k.NumRegs = int(val)
	if err := check(cuFuncGetAttribute(&val, CU_FUNC_ATTRIBUTE_LOCAL_SIZE_BYTES, fn), "cuFuncGetAttribute"); err != nil {
		return nil, err
	}
	k.NumSpills = int(val) / 4
	return k, nil
}

// Unload unloads the module. Kernels resolved from it become invalid.
func (m *Module) Unload() error {
	return check(cuModuleUnload(m.handle), "cuModuleUnload")
}

// SetMaxDynamicSharedMem opts the kernel into dynamic shared memory above
// the default 48 KiB limit, up to the device's opt-in maximum.
func (k *Kernel) SetMaxDynamicSharedMem(bytes int) error {
	r := cuFuncSetAttribute(k.Handle, CU_FUNC_ATTRIBUTE_MAX_DYNAMIC_SHARED_SIZE_BYTES, int32(bytes))
	return check(r, "cuFuncSetAttribute")
}
