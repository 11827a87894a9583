package culaunch

// Context and stream management, just enough to drive launches end to end.
// Streams are plain driver handles; a LaunchRequest carries one as-is.

// CreateContext creates a context on device index and makes it current on
// the calling thread.
func CreateContext(index int) (uintptr, error) {
	if err := Init(); err != nil {
		return 0, err
	}
	var dev int32
	if err := check(cuDeviceGet(&dev, int32(index)), "cuDeviceGet"); err != nil {
		return 0, err
	}
	var ctx uintptr
	if err := check(cuCtxCreate(&ctx, 0, dev), "cuCtxCreate"); err != nil {
		return 0, err
	}
	return ctx, nil
}

// SetCurrentContext binds ctx to the calling thread.
func SetCurrentContext(ctx uintptr) error {
	if err := driverInit(); err != nil {
		return err
	}
	return check(cuCtxSetCurrent(ctx), "cuCtxSetCurrent")
}

// DestroyContext destroys ctx.
func DestroyContext(ctx uintptr) error {
	if err := driverInit(); err != nil {
		return err
	}
	return check(cuCtxDestroy(ctx), "cuCtxDestroy")
}

// CreateStream creates a non-blocking stream in the current context.
func CreateStream() (uintptr, error) {
	if err := driverInit(); err != nil {
		return 0, err
	}
	var stream uintptr
	if err := check(cuStreamCreate(&stream, CU_STREAM_NON_BLOCKING), "cuStreamCreate"); err != nil {
		return 0, err
	}
	return stream, nil
}

// SyncStream blocks until all work queued on stream has completed.
func SyncStream(stream uintptr) error {
	if err := driverInit(); err != nil {
		return err
	}
	return check(cuStreamSynchronize(stream), "cuStreamSynchronize")
}

// DestroyStream destroys stream. Queued work still runs to completion.
func DestroyStream(stream uintptr) error {
	if err := driverInit(); err != nil {
		return err
	}
	return check(cuStreamDestroy(stream), "cuStreamDestroy")
}
