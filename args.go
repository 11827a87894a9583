package culaunch

// Kernel argument marshaling.
//
// The driver ABI takes an array of pointers to argument storage, not the
// values themselves. Each argument gets its own 8-byte slot; the address
// array preserves input order exactly, since argument order is part of the
// kernel's ABI contract.

import (
	"fmt"
	"unsafe"
)

// marshalArgs copies args into per-argument slots and builds the address
// array the driver expects. The returned slots backing store must be kept
// alive until the driver call has returned.
func marshalArgs(args []uint64) (slots []uint64, params unsafe.Pointer) {
	if len(args) == 0 {
		return nil, nil
	}
	slots = make([]uint64, len(args))
	copy(slots, args)
	ptrs := make([]unsafe.Pointer, len(slots))
	for i := range slots {
		ptrs[i] = unsafe.Pointer(&slots[i])
	}
	return slots, unsafe.Pointer(&ptrs[0])
}

// PackArgs reduces integer-like Go values to the 64-bit patterns a
// LaunchRequest carries. Device pointers go through as uintptr. Values that
// are not integer-like are rejected; width and signedness beyond 64 bits are
// the kernel's problem, not ours.
func PackArgs(vals ...any) ([]uint64, error) {
	out := make([]uint64, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case uint64:
			out[i] = x
		case uint32:
			out[i] = uint64(x)
		case uint16:
			out[i] = uint64(x)
		case uint8:
			out[i] = uint64(x)
		case uint:
			out[i] = uint64(x)
		case uintptr:
			out[i] = uint64(x)
		case int64:
			out[i] = uint64(x)
		case int32:
			out[i] = uint64(x)
		case int16:
			out[i] = uint64(x)
		case int8:
			out[i] = uint64(x)
		case int:
			out[i] = uint64(x)
		case bool:
			if x {
				out[i] = 1
			}
		default:
			return nil, fmt.Errorf("kernel argument %d: cannot convert %T to a 64-bit integer pattern", i, v)
		}
	}
	return out, nil
}
