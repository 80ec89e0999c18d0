package gpu

import (
	"sort"
	"strconv"
	"strings"
)

// uuidPrefix starts every NVML GPU UUID
const uuidPrefix = "GPU-"

// Visibility records CUDA_VISIBLE_DEVICES at detection time. NVML ignores
// the variable and always enumerates every device.
type Visibility struct {
	Value string `json:"value"`
	Set   bool   `json:"set"`
	// Unresolved holds the entries from the first one that names no
	// detected device (or repeats one). CUDA stops reading the list there.
	Unresolved []string `json:"unresolved,omitempty"`
}

// String describes the variable for display
func (v Visibility) String() string {
	switch {
	case !v.Set:
		return "unset (all devices visible)"
	case strings.TrimSpace(v.Value) == "":
		return "empty (no devices visible)"
	default:
		return v.Value
	}
}

// ResolveVisibility records the given CUDA_VISIBLE_DEVICES value and marks
// each device visible or hidden. Entries are NVML indices or GPU UUIDs; a
// UUID may be shortened to any unique prefix.
func (r *GPUReport) ResolveVisibility(value string, set bool) {
	r.Visibility = Visibility{Value: value, Set: set}

	for i := range r.GPUs {
		r.GPUs[i].Visible = !set
		r.GPUs[i].Ordinal = -1
		if !set {
			r.GPUs[i].Ordinal = i
		}
	}

	if !set || strings.TrimSpace(value) == "" {
		return
	}

	entries := strings.Split(value, ",")
	for i := range entries {
		entries[i] = strings.TrimSpace(entries[i])
	}

	for ordinal, entry := range entries {
		pos := r.lookup(entry)
		if pos < 0 || r.GPUs[pos].Visible {
			r.Visibility.Unresolved = entries[ordinal:]
			return
		}
		r.GPUs[pos].Visible = true
		r.GPUs[pos].Ordinal = ordinal
	}
}

// lookup returns the position in r.GPUs of the device an entry names, or -1
func (r GPUReport) lookup(entry string) int {
	if idx, err := strconv.Atoi(entry); err == nil {
		for pos, g := range r.GPUs {
			if g.Index == idx {
				return pos
			}
		}
		return -1
	}

	if !strings.HasPrefix(entry, uuidPrefix) {
		return -1
	}

	match := -1
	for pos, g := range r.GPUs {
		if g.UUID == "" || !strings.HasPrefix(g.UUID, entry) {
			continue
		}
		if match >= 0 {
			// ambiguous prefix
			return -1
		}
		match = pos
	}
	return match
}

// VisibleGPUs returns the exposed devices in CUDA ordinal order
func (r GPUReport) VisibleGPUs() []GPUInfo {
	visible := make([]GPUInfo, 0, len(r.GPUs))
	for _, g := range r.GPUs {
		if g.Visible {
			visible = append(visible, g)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].Ordinal < visible[j].Ordinal })
	return visible
}
