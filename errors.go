package culaunch

import "fmt"

// errPrefix tags every driver-reported failure so callers can tell driver
// errors from errors raised by this package itself.
const errPrefix = "Error [CUDA]: "

// DriverError is a non-success status returned by a driver entry point.
// The message is the driver's own error string.
type DriverError struct {
	Code CUresult
	Op   string
}

func (e *DriverError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s%s: %s", errPrefix, e.Op, e.Code.String())
	}
	return errPrefix + e.Code.String()
}

// check converts a non-success status into a *DriverError.
func check(r CUresult, op string) error {
	if r != CUDA_SUCCESS {
		return &DriverError{Code: r, Op: op}
	}
	return nil
}
