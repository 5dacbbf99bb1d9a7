package host

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/arloliu/go-flashagent/flash"
	"github.com/arloliu/go-flashagent/logger"
	"github.com/arloliu/go-flashagent/wire"
)

// Phase is a step of Programmer.Flash.
type Phase int

const (
	PhaseErase Phase = iota
	PhaseWrite
	PhaseVerify
)

func (p Phase) String() string {
	switch p {
	case PhaseErase:
		return "erase"
	case PhaseWrite:
		return "write"
	case PhaseVerify:
		return "verify"
	default:
		return "unknown"
	}
}

// Progress reports pages completed in the current phase.
type Progress struct {
	Phase Phase
	Done  int
	Total int
}

// Report summarizes a successful Flash.
type Report struct {
	Address uint32
	// Size is the image size after padding to whole words.
	Size  int
	Pages int
	// CRC is the CRC-16/CCITT-FALSE of the padded image as read back.
	CRC     uint16
	Elapsed time.Duration
}

// Programmer flashes whole images through a Client.
type Programmer struct {
	client     *Client
	onProgress func(Progress)
	noVerify   bool
	logger     logger.Logger
}

// ProgrammerOption configures a Programmer.
type ProgrammerOption func(*Programmer)

// WithProgress installs a callback invoked after every page of every phase.
func WithProgress(fn func(Progress)) ProgrammerOption {
	return func(p *Programmer) { p.onProgress = fn }
}

// WithoutVerify skips the read-back phase. The report CRC is then computed
// from the image instead of the flash.
func WithoutVerify() ProgrammerOption {
	return func(p *Programmer) { p.noVerify = true }
}

// NewProgrammer returns a Programmer using c.
func NewProgrammer(c *Client, opts ...ProgrammerOption) *Programmer {
	p := &Programmer{client: c, logger: c.logger}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Programmer) progress(phase Phase, done, total int) {
	if p.onProgress != nil {
		p.onProgress(Progress{Phase: phase, Done: done, Total: total})
	}
}

// PadImage pads image with erased bytes up to a whole number of words.
func PadImage(image []byte) []byte {
	rem := len(image) % flash.WordSize
	if rem == 0 {
		return image
	}
	padded := make([]byte, len(image), len(image)+flash.WordSize-rem)
	copy(padded, image)

	return append(padded, bytes.Repeat([]byte{flash.ErasedByte}, flash.WordSize-rem)...)
}

// Flash erases the pages covering image at addr, writes it and verifies it.
// addr must be page aligned. A failure leaves flash partially programmed;
// running Flash again starts over with the erase.
func (p *Programmer) Flash(ctx context.Context, addr uint32, image []byte) (*Report, error) {
	start := time.Now()

	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrBadArguments)
	}
	if !flash.IsPageAligned(addr) {
		return nil, fmt.Errorf("%w: 0x%08X is not page aligned", flash.ErrMisaligned, addr)
	}
	data := PadImage(image)
	if !flash.InRange(addr, len(data)) {
		return nil, fmt.Errorf("%w: %d bytes at 0x%08X", flash.ErrOutOfRange, len(data), addr)
	}

	first, last := flash.PagesSpanned(addr, len(data))
	pages := last - first + 1
	p.logger.Info("flashing image", "address", addr, "size", len(data), "pages", pages)

	for i := 0; i < pages; i++ {
		pageAddr := flash.PageAddress(first + i)
		if err := p.client.ErasePage(ctx, pageAddr); err != nil {
			return nil, fmt.Errorf("host: erase page at 0x%08X: %w", pageAddr, err)
		}
		p.progress(PhaseErase, i+1, pages)
	}

	for i := 0; i < pages; i++ {
		chunk := pageChunk(data, i)
		pageAddr := addr + uint32(i*flash.PageSize) //nolint:gosec // range checked above
		if err := p.client.WritePage(ctx, pageAddr, chunk); err != nil {
			return nil, fmt.Errorf("host: write page at 0x%08X: %w", pageAddr, err)
		}
		p.progress(PhaseWrite, i+1, pages)
	}

	crc := flash.Checksum(data)
	if !p.noVerify {
		readBack, err := p.readPages(ctx, addr, len(data), PhaseVerify)
		if err != nil {
			return nil, err
		}
		if len(readBack) != len(data) {
			return nil, fmt.Errorf("%w: read back %d of %d bytes", ErrVerify, len(readBack), len(data))
		}
		if off := mismatch(data, readBack); off >= 0 {
			return nil, fmt.Errorf("%w: at 0x%08X wrote 0x%02X read 0x%02X",
				ErrVerify, addr+uint32(off), data[off], readBack[off]) //nolint:gosec // off < len(data)
		}
		crc = flash.Checksum(readBack)
	}

	report := &Report{
		Address: addr,
		Size:    len(data),
		Pages:   pages,
		CRC:     crc,
		Elapsed: time.Since(start),
	}
	p.logger.Info("image flashed", "address", addr, "pages", pages, "crc", fmt.Sprintf("0x%04X", crc))

	return report, nil
}

// Dump reads length bytes at addr, a page at a time.
func (p *Programmer) Dump(ctx context.Context, addr uint32, length int) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: negative length", ErrBadArguments)
	}

	return p.readPages(ctx, addr, length, -1)
}

func (p *Programmer) readPages(ctx context.Context, addr uint32, length int, phase Phase) ([]byte, error) {
	out := make([]byte, 0, length)
	total := (length + wire.MaxWriteData - 1) / wire.MaxWriteData
	for i := 0; len(out) < length; i++ {
		n := min(length-len(out), wire.MaxWriteData)
		at := addr + uint32(len(out)) //nolint:gosec // bounded by length
		chunk, err := p.client.ReadRange(ctx, at, uint16(n)) //nolint:gosec // n <= MaxWriteData
		if err != nil {
			return nil, fmt.Errorf("host: read at 0x%08X: %w", at, err)
		}
		out = append(out, chunk...)
		if phase >= 0 {
			p.progress(phase, i+1, total)
		}
	}

	return out, nil
}

func pageChunk(data []byte, page int) []byte {
	start := page * flash.PageSize
	end := min(start+flash.PageSize, len(data))

	return data[start:end]
}

// mismatch returns the first differing offset of two equal length slices, or -1.
func mismatch(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}

	return -1
}
