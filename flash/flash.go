package flash

import (
	"errors"
	"fmt"
)

// Flash geometry.
const (
	// PageSize is the erase unit in bytes.
	PageSize = 2048
	// PageCount is the number of pages in the flash array.
	PageCount = 128
	// Size is the total flash size in bytes.
	Size = PageSize * PageCount
	// WordSize is the program unit in bytes.
	WordSize = 4
	// ErasedByte is the value of every byte of an erased page.
	ErasedByte byte = 0xFF
)

// Sentinel errors returned by Driver implementations.
var (
	ErrOutOfRange  = errors.New("flash: address out of range")
	ErrMisaligned  = errors.New("flash: address misaligned")
	ErrProtected   = errors.New("flash: page is protected")
	ErrInvalidMode = errors.New("flash: invalid protect mode")
)

// ProtectMode is the per-page permission class.
type ProtectMode uint8

const (
	// ReadWrite pages may be read, erased and programmed.
	ReadWrite ProtectMode = iota
	// ReadOnly pages may be read but not erased or programmed.
	ReadOnly
	// ExecuteOnly pages may only be fetched for execution.
	ExecuteOnly
)

func (m ProtectMode) String() string {
	switch m {
	case ReadWrite:
		return "ReadWrite"
	case ReadOnly:
		return "ReadOnly"
	case ExecuteOnly:
		return "ExecuteOnly"
	default:
		return fmt.Sprintf("ProtectMode(%d)", uint8(m))
	}
}

// Writable reports whether pages in this mode may be erased or programmed.
func (m ProtectMode) Writable() bool {
	return m == ReadWrite
}

// MemoryReader is the raw memory accessor capability.
//
// Read returns exactly length bytes starting at addr. It performs no bounds
// or protection checking; callers own that decision.
type MemoryReader interface {
	Read(addr uint32, length int) []byte
}

// Driver is the flash driver contract.
//
// Implementations are synchronous: each call runs to completion before it
// returns. Erase and program failures include protection violations and
// misaligned or out of range addresses.
type Driver interface {
	MemoryReader

	// ProtectionOf returns the protect mode of page.
	ProtectionOf(page int) ProtectMode
	// ErasePage erases the page starting at addr, which must be page aligned.
	ErasePage(addr uint32) error
	// ProgramWord programs word at addr, which must be word aligned.
	ProgramWord(addr uint32, word uint32) error
}

// PageOf returns the page number containing addr.
func PageOf(addr uint32) int {
	return int(addr / PageSize)
}

// PageAddress returns the first address of page.
func PageAddress(page int) uint32 {
	return uint32(page) * PageSize //nolint:gosec // page is bounded by PageCount
}

// IsPageAligned reports whether addr is the first byte of a page.
func IsPageAligned(addr uint32) bool {
	return addr%PageSize == 0
}

// IsWordAligned reports whether addr is a multiple of WordSize.
func IsWordAligned(addr uint32) bool {
	return addr%WordSize == 0
}

// InRange reports whether [addr, addr+length) lies inside the flash array.
func InRange(addr uint32, length int) bool {
	if length < 0 {
		return false
	}

	return uint64(addr)+uint64(length) <= Size
}

// PagesSpanned returns the first and last page touched by [addr, addr+length).
// length must be positive and the range must be InRange.
func PagesSpanned(addr uint32, length int) (first, last int) {
	return PageOf(addr), PageOf(addr + uint32(length) - 1) //nolint:gosec // caller checked InRange
}
