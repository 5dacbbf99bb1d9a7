package flashinfo

import (
	"fmt"

	"github.com/arloliu/go-flashagent/flash"
)

// DefaultBase is the flash address of the FlashInfo record: the start of
// the last page.
const DefaultBase uint32 = flash.Size - flash.PageSize

// Store is the read-only accessor over the attribute table. It is built
// once at boot and never changes afterwards.
type Store struct {
	info FlashInfo
}

// NewStore returns a Store over a copy of info.
func NewStore(info *FlashInfo) *Store {
	return &Store{info: *info}
}

// Load reads the record at base through the raw memory accessor, decodes
// and validates it.
func Load(mem flash.MemoryReader, base uint32) (*Store, error) {
	if !flash.InRange(base, RecordSize) {
		return nil, fmt.Errorf("%w: record at 0x%08X does not fit in flash", flash.ErrOutOfRange, base)
	}

	var info FlashInfo
	if err := info.UnmarshalBinary(mem.Read(base, RecordSize)); err != nil {
		return nil, fmt.Errorf("flashinfo: load at 0x%08X: %w", base, err)
	}

	return &Store{info: info}, nil
}

// Lookup returns the attribute in slot index, or false when index is not
// in [0, NumAttributes).
func (s *Store) Lookup(index int) (*Attribute, bool) {
	if index < 0 || index >= NumAttributes {
		return nil, false
	}
	attr := s.info.Attributes[index]

	return &attr, true
}

// Version returns the version string of the loaded record.
func (s *Store) Version() string {
	return s.info.VersionString()
}

// Len returns the number of non-blank slots.
func (s *Store) Len() int {
	n := 0
	for i := range s.info.Attributes {
		if !s.info.Attributes[i].IsBlank() {
			n++
		}
	}

	return n
}

// Provision lays info down at base on a simulated flash and marks the
// pages holding it ReadOnly.
func Provision(sim *flash.Simulator, base uint32, info *FlashInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	data, err := info.MarshalBinary()
	if err != nil {
		return err
	}
	if err := sim.Provision(base, data); err != nil {
		return err
	}
	first, last := flash.PagesSpanned(base, len(data))

	return sim.ProtectRange(first, last, flash.ReadOnly)
}

// BootloaderSize is the span reserved for the bootloader image, up to the
// application address of the reference table.
const BootloaderSize uint32 = 0x00010000

// DefaultLayout prepares a simulator the way a freshly flashed board looks:
// the reference record at DefaultBase (ReadOnly) and the bootloader pages
// ExecuteOnly. Everything else stays erased and ReadWrite.
func DefaultLayout(sim *flash.Simulator) error {
	if err := Provision(sim, DefaultBase, Reference()); err != nil {
		return err
	}
	first, last := flash.PagesSpanned(0, int(BootloaderSize))

	return sim.ProtectRange(first, last, flash.ExecuteOnly)
}
