package entities

import "fmt"

// InputRegion describes the guest-memory window the host writes call
// input into. The region is an explicit parameter of the calling
// convention: the guest must treat it as externally owned and never place
// its own heap there. The default occupies the tail of the first 64 KiB
// memory page, so any module with at least one page can receive input.
type InputRegion struct {
	// Offset is the byte offset in guest linear memory where input starts.
	Offset uint32 `json:"offset"`

	// Capacity is the maximum input length in bytes. Payloads larger than
	// Capacity are rejected before any guest-memory write.
	Capacity uint32 `json:"capacity"`
}

const (
	defaultRegionOffset = 1024
	wasmPageSize        = 65536
)

// DefaultInputRegion returns the standard input region: offset 1024,
// capacity to the end of the first memory page.
func DefaultInputRegion() InputRegion {
	return InputRegion{Offset: defaultRegionOffset, Capacity: wasmPageSize - defaultRegionOffset}
}

// Validate reports whether the region is usable.
func (r InputRegion) Validate() error {
	if r.Capacity == 0 {
		return fmt.Errorf("input region capacity must be positive")
	}
	if uint64(r.Offset)+uint64(r.Capacity) > uint64(^uint32(0)) {
		return fmt.Errorf("input region end overflows 32-bit address space")
	}
	return nil
}

// Fits reports whether a payload of n bytes fits in the region.
func (r InputRegion) Fits(n int) bool {
	return n >= 0 && uint64(n) <= uint64(r.Capacity)
}
