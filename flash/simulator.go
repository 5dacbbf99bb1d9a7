package flash

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// Simulator is an in-memory NOR flash implementing Driver.
//
// Programming can only clear bits: the stored word is the AND of the old
// and the new value, so a word must be erased before it can be rewritten
// with arbitrary data. Words are stored most significant byte first.
//
// The protection table may be changed from any goroutine while the agent
// runs. Flash contents are guarded by a mutex so snapshots can be taken
// concurrently with the agent loop.
type Simulator struct {
	mu   sync.RWMutex
	mem  [Size]byte
	prot *xsync.MapOf[int, ProtectMode]

	eraseCount   int
	programCount int
}

var _ Driver = (*Simulator)(nil)

// NewSimulator returns a fully erased flash with every page ReadWrite.
func NewSimulator() *Simulator {
	s := &Simulator{prot: xsync.NewMapOf[int, ProtectMode]()}
	for i := range s.mem {
		s.mem[i] = ErasedByte
	}

	return s
}

// ProtectionOf returns the protect mode of page. Pages outside the array
// report ReadOnly.
func (s *Simulator) ProtectionOf(page int) ProtectMode {
	if page < 0 || page >= PageCount {
		return ReadOnly
	}
	if mode, ok := s.prot.Load(page); ok {
		return mode
	}

	return ReadWrite
}

// SetProtection sets the protect mode of page.
func (s *Simulator) SetProtection(page int, mode ProtectMode) error {
	if page < 0 || page >= PageCount {
		return fmt.Errorf("%w: page %d", ErrOutOfRange, page)
	}
	if mode > ExecuteOnly {
		return fmt.Errorf("%w: %d", ErrInvalidMode, mode)
	}
	if mode == ReadWrite {
		s.prot.Delete(page)
	} else {
		s.prot.Store(page, mode)
	}

	return nil
}

// ProtectRange sets the protect mode of pages first through last inclusive.
func (s *Simulator) ProtectRange(first, last int, mode ProtectMode) error {
	for page := first; page <= last; page++ {
		if err := s.SetProtection(page, mode); err != nil {
			return err
		}
	}

	return nil
}

// ErasePage sets every byte of the page at addr to ErasedByte.
func (s *Simulator) ErasePage(addr uint32) error {
	if !InRange(addr, PageSize) {
		return fmt.Errorf("%w: erase 0x%08X", ErrOutOfRange, addr)
	}
	if !IsPageAligned(addr) {
		return fmt.Errorf("%w: erase 0x%08X not on a %d byte page boundary", ErrMisaligned, addr, PageSize)
	}
	page := PageOf(addr)
	if mode := s.ProtectionOf(page); !mode.Writable() {
		return fmt.Errorf("%w: erase page %d (%s)", ErrProtected, page, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := addr; i < addr+PageSize; i++ {
		s.mem[i] = ErasedByte
	}
	s.eraseCount++

	return nil
}

// ProgramWord programs word at addr, most significant byte first.
func (s *Simulator) ProgramWord(addr uint32, word uint32) error {
	if !InRange(addr, WordSize) {
		return fmt.Errorf("%w: program 0x%08X", ErrOutOfRange, addr)
	}
	if !IsWordAligned(addr) {
		return fmt.Errorf("%w: program 0x%08X not word aligned", ErrMisaligned, addr)
	}
	page := PageOf(addr)
	if mode := s.ProtectionOf(page); !mode.Writable() {
		return fmt.Errorf("%w: program page %d (%s)", ErrProtected, page, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := binary.BigEndian.Uint32(s.mem[addr : addr+WordSize])
	binary.BigEndian.PutUint32(s.mem[addr:addr+WordSize], old&word)
	s.programCount++

	return nil
}

// Read returns exactly length bytes starting at addr. Bytes outside the
// flash array read as zero. A negative length yields an empty slice.
func (s *Simulator) Read(addr uint32, length int) []byte {
	if length <= 0 {
		return []byte{}
	}

	out := make([]byte, length)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if uint64(addr) < Size {
		copy(out, s.mem[addr:])
	}

	return out
}

// Provision writes data at addr bypassing protection and NOR semantics,
// the way a debugger lays down an image before the agent first boots.
func (s *Simulator) Provision(addr uint32, data []byte) error {
	if !InRange(addr, len(data)) {
		return fmt.Errorf("%w: provision %d bytes at 0x%08X", ErrOutOfRange, len(data), addr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.mem[addr:], data)

	return nil
}

// Counts returns the number of successful page erases and word programs.
func (s *Simulator) Counts() (erases, programs int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.eraseCount, s.programCount
}
