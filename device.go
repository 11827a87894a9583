package culaunch

import "fmt"

// DeviceInfo holds the properties of a CUDA device that matter for sizing
// launches.
type DeviceInfo struct {
	Index             int
	Name              string
	TotalMemMB        int
	SMCount           int
	ComputeMaj        int
	ComputeMin        int
	MaxThreads        int
	WarpSize          int
	MaxSharedPerBlock int
	MaxSharedOptin    int
}

// Init loads the driver and initializes it. Safe to call more than once.
func Init() error {
	if err := driverInit(); err != nil {
		return err
	}
	return check(cuInit(0), "cuInit")
}

// DriverVersion reports the installed driver's CUDA version as (major, minor).
func DriverVersion() (int, int, error) {
	if err := Init(); err != nil {
		return 0, 0, err
	}
	var v int32
	if err := check(cuDriverGetVersion(&v), "cuDriverGetVersion"); err != nil {
		return 0, 0, err
	}
	return int(v) / 1000, int(v) % 1000 / 10, nil
}

// DeviceCount returns the number of CUDA devices visible to the driver.
func DeviceCount() (int, error) {
	if err := Init(); err != nil {
		return 0, err
	}
	var n int32
	if err := check(cuDeviceGetCount(&n), "cuDeviceGetCount"); err != nil {
		return 0, err
	}
	return int(n), nil
}

// QueryDevice returns the properties of device index.
func QueryDevice(index int) (*DeviceInfo, error) {
	if err := Init(); err != nil {
		return nil, err
	}

	var dev int32
	if err := check(cuDeviceGet(&dev, int32(index)), "cuDeviceGet"); err != nil {
		return nil, err
	}

	info := &DeviceInfo{Index: index}

	nameBuf := make([]byte, 256)
	if err := check(cuDeviceGetName(&nameBuf[0], 256, dev), "cuDeviceGetName"); err != nil {
		return nil, err
	}
	for i, b := range nameBuf {
		if b == 0 {
			info.Name = string(nameBuf[:i])
			break
		}
	}

	var totalMem uint64
	if err := check(cuDeviceTotalMem(&totalMem, dev), "cuDeviceTotalMem"); err != nil {
		return nil, err
	}
	info.TotalMemMB = int(totalMem / (1024 * 1024))

	getAttr := func(attr int32) int {
		var val int32
		cuDeviceGetAttribute(&val, attr, dev)
		return int(val)
	}
	info.SMCount = getAttr(CU_DEVICE_ATTRIBUTE_MULTIPROCESSOR_COUNT)
	info.ComputeMaj = getAttr(CU_DEVICE_ATTRIBUTE_COMPUTE_CAPABILITY_MAJOR)
	info.ComputeMin = getAttr(CU_DEVICE_ATTRIBUTE_COMPUTE_CAPABILITY_MINOR)
	info.MaxThreads = getAttr(CU_DEVICE_ATTRIBUTE_MAX_THREADS_PER_BLOCK)
	info.WarpSize = getAttr(CU_DEVICE_ATTRIBUTE_WARP_SIZE)
	info.MaxSharedPerBlock = getAttr(CU_DEVICE_ATTRIBUTE_MAX_SHARED_MEMORY_PER_BLOCK)
	info.MaxSharedOptin = getAttr(CU_DEVICE_ATTRIBUTE_MAX_SHARED_MEMORY_PER_BLOCK_OPTIN)

	return info, nil
}

func (d *DeviceInfo) String() string {
	return fmt.Sprintf("%s (SM %d.%d, %d SMs, %d MB, %d max threads/block)",
		d.Name, d.ComputeMaj, d.ComputeMin, d.SMCount, d.TotalMemMB, d.MaxThreads)
}
