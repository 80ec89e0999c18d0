package gpulock

import (
	"errors"
	"fmt"
	"time"
)

// ErrDeviceLocked is returned when a device is reserved by another holder
var ErrDeviceLocked = errors.New("device is locked")

// LockInfo represents the reservation of a single device
type LockInfo struct {
	Device  int       `json:"device"`
	Holder  string    `json:"holder"`
	PID     int       `json:"pid"`
	SinceTS time.Time `json:"since_ts"`

	// Unreadable marks a lock file whose content could not be decoded.
	// SinceTS then holds the file's modification time.
	Unreadable bool `json:"-"`
}

// Owner identifies who takes a lock. Two owners are the same when both the
// holder name and the process ID match.
type Owner struct {
	Holder string
	PID    int
}

func (l LockInfo) ownedBy(o Owner) bool {
	return !l.Unreadable && l.Holder == o.Holder && l.PID == o.PID
}

// HolderString names the holder for display
func (l LockInfo) HolderString() string {
	if l.Unreadable {
		return "unreadable lock file"
	}
	return fmt.Sprintf("%s (pid %d)", l.Holder, l.PID)
}
