package gpulock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"medkit/internal/logging"
)

const (
	lockFilePrefix = "gpu"
	lockFileSuffix = ".lock.json"

	// DefaultLeaseTimeout is the default lease timeout duration.
	// After this duration a lock is considered stale and may be taken over.
	DefaultLeaseTimeout = 24 * time.Hour
)

// Manager manages per-device lock acquisition and release
type Manager struct {
	stateDir     string
	logger       *logging.Logger
	leaseTimeout time.Duration
	now          func() time.Time
}

// NewManager creates a new GPU lock manager
func NewManager(stateDir string, logger *logging.Logger) *Manager {
	return &Manager{
		stateDir:     stateDir,
		logger:       logger,
		leaseTimeout: DefaultLeaseTimeout,
		now:          time.Now,
	}
}

func (m *Manager) getLockPath(device int) string {
	return filepath.Join(m.stateDir, lockFilePrefix+strconv.Itoa(device)+lockFileSuffix)
}

// Acquire reserves every listed device for owner. Either all devices are
// acquired or, on error, none of the ones taken by this call are kept.
func (m *Manager) Acquire(owner Owner, devices ...int) error {
	if owner.Holder == "" {
		return errors.New("holder must not be empty")
	}

	if err := os.MkdirAll(m.stateDir, 0o750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	taken := make([]int, 0, len(devices))
	for _, device := range devices {
		acquired, err := m.acquireOne(owner, device)
		if err != nil {
			m.rollback(owner, taken)
			return err
		}
		if acquired {
			taken = append(taken, device)
		}
	}

	m.logger.Info("gpu.lock.acquired", "GPU lock acquired", map[string]interface{}{
		"holder":  owner.Holder,
		"pid":     owner.PID,
		"devices": devices,
	})

	return nil
}

// acquireOne returns true when this call created the lock file
func (m *Manager) acquireOne(owner Owner, device int) (bool, error) {
	existing, err := m.loadLock(device)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to read existing lock: %w", err)
	}

	if existing != nil {
		if existing.ownedBy(owner) {
			m.logger.Debug("gpu.lock.already_held", "GPU lock already held by this owner", map[string]interface{}{
				"device": device,
				"holder": owner.Holder,
			})
			return false, nil
		}

		age := m.now().Sub(existing.SinceTS)
		if age <= m.leaseTimeout {
			return false, fmt.Errorf("%w: device %d held by %s, acquired %s ago",
				ErrDeviceLocked, device, existing.HolderString(), age.Round(time.Second))
		}

		m.logger.Warn("gpu.lock.stale_detected", "Stale GPU lock detected", map[string]interface{}{
			"device":         device,
			"current_holder": existing.HolderString(),
			"age_seconds":    age.Seconds(),
		})
		if err := m.removeLock(device); err != nil {
			return false, fmt.Errorf("failed to clear stale lock: %w", err)
		}
	}

	if err := m.createLock(&LockInfo{
		Device:  device,
		Holder:  owner.Holder,
		PID:     owner.PID,
		SinceTS: m.now().UTC(),
	}); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, fmt.Errorf("%w: device %d was taken concurrently", ErrDeviceLocked, device)
		}
		return false, fmt.Errorf("failed to save lock: %w", err)
	}

	return true, nil
}

func (m *Manager) rollback(owner Owner, devices []int) {
	if len(devices) == 0 {
		return
	}
	if err := m.Release(owner, devices...); err != nil {
		m.logger.Warn("gpu.lock.rollback_failed", "Failed to release partially acquired locks", map[string]interface{}{
			"devices": devices,
			"error":   err.Error(),
		})
	}
}

// Release releases the listed devices. Only the owner can release a lock;
// devices that are not locked are skipped.
func (m *Manager) Release(owner Owner, devices ...int) error {
	for _, device := range devices {
		existing, err := m.loadLock(device)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read existing lock: %w", err)
		}

		if !existing.ownedBy(owner) {
			return fmt.Errorf("cannot release device %d: held by %s, not %s (pid %d)",
				device, existing.HolderString(), owner.Holder, owner.PID)
		}

		if err := m.removeLock(device); err != nil {
			return err
		}
	}

	m.logger.Info("gpu.lock.released", "GPU lock released", map[string]interface{}{
		"holder":  owner.Holder,
		"devices": devices,
	})

	return nil
}

// ForceUnlock removes the locks on the listed devices regardless of holder,
// or every lock when no device is given. It returns the removed locks.
func (m *Manager) ForceUnlock(devices ...int) ([]LockInfo, error) {
	if len(devices) == 0 {
		locks, err := m.Status()
		if err != nil {
			return nil, err
		}
		for _, l := range locks {
			devices = append(devices, l.Device)
		}
	}

	removed := make([]LockInfo, 0, len(devices))
	for _, device := range devices {
		existing, err := m.loadLock(device)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("failed to read existing lock: %w", err)
		}

		m.logger.Warn("gpu.lock.stolen", "GPU lock forcibly removed", map[string]interface{}{
			"device":          device,
			"previous_holder": existing.HolderString(),
			"age_seconds":     m.now().Sub(existing.SinceTS).Seconds(),
		})

		if err := m.removeLock(device); err != nil {
			return removed, err
		}
		removed = append(removed, *existing)
	}

	return removed, nil
}

// Status returns every lock present, sorted by device
func (m *Manager) Status() ([]LockInfo, error) {
	matches, err := filepath.Glob(filepath.Join(m.stateDir, lockFilePrefix+"*"+lockFileSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list locks: %w", err)
	}

	locks := make([]LockInfo, 0, len(matches))
	for _, path := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), lockFilePrefix), lockFileSuffix)
		device, err := strconv.Atoi(name)
		if err != nil {
			continue
		}

		lock, err := m.loadLock(device)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		locks = append(locks, *lock)
	}

	sort.Slice(locks, func(i, j int) bool { return locks[i].Device < locks[j].Device })

	return locks, nil
}

// IsLocked checks if a device is currently locked. Stale locks count as unlocked.
func (m *Manager) IsLocked(device int) (bool, error) {
	lock, err := m.loadLock(device)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	if age := m.now().Sub(lock.SinceTS); age > m.leaseTimeout {
		m.logger.Warn("gpu.lock.stale_on_check", "Stale lock detected during check", map[string]interface{}{
			"device":      device,
			"holder":      lock.Holder,
			"age_seconds": age.Seconds(),
		})
		return false, nil
	}

	return true, nil
}

// IsStale reports whether a lock has outlived the lease
func (m *Manager) IsStale(lock LockInfo) bool {
	return m.now().Sub(lock.SinceTS) > m.leaseTimeout
}

// loadLock reads a device's lock. A file that cannot be decoded still counts
// as a lock, aged by its modification time, so it blocks the device for one
// lease and can always be removed by ForceUnlock.
func (m *Manager) loadLock(device int) (*LockInfo, error) {
	path := m.getLockPath(device)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lock LockInfo
	decodeErr := json.Unmarshal(data, &lock)
	if decodeErr == nil {
		lock.Device = device
		return &lock, nil
	}

	m.logger.Warn("gpu.lock.unreadable", "Lock file cannot be decoded", map[string]interface{}{
		"device": device,
		"path":   path,
		"error":  decodeErr.Error(),
	})

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &LockInfo{
		Device:     device,
		SinceTS:    info.ModTime().UTC(),
		Unreadable: true,
	}, nil
}

// createLock publishes the lock file with its full content, failing with
// fs.ErrExist if another process created it first. The data goes to a
// temporary file that is hard-linked into place, so a lock file is never
// observed half-written.
func (m *Manager) createLock(lock *LockInfo) error {
	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock: %w", err)
	}

	tmp, err := os.CreateTemp(m.stateDir, ".gpu-lock-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary lock file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close lock file: %w", err)
	}
	return os.Link(tmp.Name(), m.getLockPath(lock.Device))
}

func (m *Manager) removeLock(device int) error {
	if err := os.Remove(m.getLockPath(device)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}
