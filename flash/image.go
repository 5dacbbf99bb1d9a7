package flash

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sigurn/crc16"
)

// Snapshot image layout:
//
//	[Magic(8)][PageSize u32][PageCount u32][Flash(Size)][Protect(PageCount)][CRC16 u16]
//
// Integers are big-endian. The CRC-16/CCITT-FALSE covers every preceding byte.
const (
	imageMagic      = "FLASHIMG"
	imageHeaderSize = len(imageMagic) + 8
	imageSize       = imageHeaderSize + Size + PageCount + 2
)

var (
	ErrImageFormat = errors.New("flash: malformed image")
	ErrImageCRC    = errors.New("flash: image checksum mismatch")
)

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// Checksum returns the CRC-16/CCITT-FALSE of data.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// WriteImage writes a snapshot of the flash contents and protection table to w.
func (s *Simulator) WriteImage(w io.Writer) error {
	buf := make([]byte, 0, imageSize)
	buf = append(buf, imageMagic...)
	buf = binary.BigEndian.AppendUint32(buf, PageSize)
	buf = binary.BigEndian.AppendUint32(buf, PageCount)

	s.mu.RLock()
	buf = append(buf, s.mem[:]...)
	s.mu.RUnlock()

	for page := 0; page < PageCount; page++ {
		buf = append(buf, byte(s.ProtectionOf(page)))
	}
	buf = binary.BigEndian.AppendUint16(buf, Checksum(buf))

	_, err := w.Write(buf)

	return err
}

// ReadImage restores a Simulator from a snapshot written by WriteImage.
func ReadImage(r io.Reader) (*Simulator, error) {
	buf := make([]byte, imageSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageFormat, err)
	}

	if !bytes.Equal(buf[:len(imageMagic)], []byte(imageMagic)) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrImageFormat, buf[:len(imageMagic)])
	}
	pageSize := binary.BigEndian.Uint32(buf[len(imageMagic):])
	pageCount := binary.BigEndian.Uint32(buf[len(imageMagic)+4:])
	if pageSize != PageSize || pageCount != PageCount {
		return nil, fmt.Errorf("%w: geometry %d x %d, want %d x %d",
			ErrImageFormat, pageCount, pageSize, PageCount, PageSize)
	}

	body := buf[:imageSize-2]
	want := binary.BigEndian.Uint16(buf[imageSize-2:])
	if got := Checksum(body); got != want {
		return nil, fmt.Errorf("%w: stored=0x%04X, computed=0x%04X", ErrImageCRC, want, got)
	}

	s := NewSimulator()
	copy(s.mem[:], body[imageHeaderSize:imageHeaderSize+Size])

	prot := body[imageHeaderSize+Size:]
	for page, mode := range prot {
		if err := s.SetProtection(page, ProtectMode(mode)); err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrImageFormat, page, err)
		}
	}

	return s, nil
}
