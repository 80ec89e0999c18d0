package deviceconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// VisibleDevicesEnv is read by the CUDA runtime at initialization to restrict
// which physical GPUs the process may use.
const VisibleDevicesEnv = "CUDA_VISIBLE_DEVICES"

// SetVisibleDevices writes the comma-joined device indices into
// CUDA_VISIBLE_DEVICES, replacing any previous value. No range or
// uniqueness checks; an empty list hides every device.
//
// The variable only takes effect for a CUDA runtime that initializes after
// this call, typically a child process.
func SetVisibleDevices(devs ...int) error {
	ids := make([]string, len(devs))
	for i, d := range devs {
		ids[i] = strconv.Itoa(d)
	}
	return SetVisibleDeviceIDs(ids...)
}

// SetVisibleDeviceIDs is SetVisibleDevices for string identifiers, such as
// the GPU UUIDs reported by NVML.
func SetVisibleDeviceIDs(ids ...string) error {
	if err := os.Setenv(VisibleDevicesEnv, strings.Join(ids, ",")); err != nil {
		return fmt.Errorf("failed to set %s: %w", VisibleDevicesEnv, err)
	}
	return nil
}

// VisibleDevices reads the live CUDA_VISIBLE_DEVICES value
func VisibleDevices() (string, bool) {
	return os.LookupEnv(VisibleDevicesEnv)
}

// ParseDeviceList parses "0,2,5" into device indices. Blank input yields an
// empty, non-nil list.
func ParseDeviceList(s string) ([]int, error) {
	devs := []int{}
	if strings.TrimSpace(s) == "" {
		return devs, nil
	}

	for _, part := range strings.Split(s, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid device index %q: %w", part, err)
		}
		if idx < 0 {
			return nil, fmt.Errorf("invalid device index %q: must be non-negative", part)
		}
		devs = append(devs, idx)
	}

	return devs, nil
}
