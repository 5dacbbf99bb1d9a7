package flashinfo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Record geometry.
const (
	MagicSize     = 14
	VersionSize   = 8
	ReservedSize  = 490
	HeaderSize    = MagicSize + VersionSize + ReservedSize
	NumAttributes = 16
	RecordSize    = HeaderSize + NumAttributes*AttributeSize

	magicOffset   = 0
	versionOffset = MagicSize
	attrOffset    = HeaderSize
)

// Identity of this bootloader build.
const (
	// Magic is the tag at the start of every FlashInfo record.
	Magic = "TOCKBOOTLOADER"
	// Version is the bootloader version stored in the record.
	Version = "0.1.0"
	// Name is the bootloader name reported by the Info command.
	Name = "Stellaris Launchpad bootloader"
	// Identity is the string returned by the Info command. It embeds Version.
	Identity = `{"version":"` + Version + `", "name":"` + Name + `"}`
)

var (
	ErrRecordSize = errors.New("flashinfo: record size mismatch")
	ErrBadMagic   = errors.New("flashinfo: bad magic tag")
	ErrAttrLength = errors.New("flashinfo: attribute length exceeds value buffer")
	ErrAttrKey    = errors.New("flashinfo: invalid attribute key")
	ErrAttrIndex  = errors.New("flashinfo: attribute index out of range")
	ErrReserved   = errors.New("flashinfo: reserved area not zero")

	ErrBadIdentity     = errors.New("flashinfo: identity carries no version")
	ErrVersionMismatch = errors.New("flashinfo: identity version does not match record")
)

// IdentityFor returns the Info string of a bootloader whose record carries
// version.
func IdentityFor(version string) string {
	return `{"version":"` + version + `", "name":"` + Name + `"}`
}

// IdentityVersion extracts the version field of an Info identity string.
// The identity must be a JSON object with a non-empty "version" member.
func IdentityVersion(identity string) (string, error) {
	var id struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(identity), &id); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrBadIdentity, identity, err)
	}
	if id.Version == "" {
		return "", fmt.Errorf("%w: %q", ErrBadIdentity, identity)
	}

	return id.Version, nil
}

// CheckIdentity verifies that identity reports the record version.
func CheckIdentity(identity, version string) error {
	got, err := IdentityVersion(identity)
	if err != nil {
		return err
	}
	if got != version {
		return fmt.Errorf("%w: identity reports %q, record holds %q", ErrVersionMismatch, got, version)
	}

	return nil
}

// FlashInfo is the decoded record. Reserved bytes are not kept; they are
// written back as zero.
type FlashInfo struct {
	Magic      [MagicSize]byte
	Version    [VersionSize]byte
	Attributes [NumAttributes]Attribute
}

// New returns a record with the build's Magic and Version and no attributes.
func New() *FlashInfo {
	info := &FlashInfo{}
	copy(info.Magic[:], Magic)
	copy(info.Version[:], Version)

	return info
}

// SetAttribute stores attr in slot index.
func (f *FlashInfo) SetAttribute(index int, attr Attribute) error {
	if index < 0 || index >= NumAttributes {
		return fmt.Errorf("%w: %d", ErrAttrIndex, index)
	}
	if err := attr.Validate(); err != nil {
		return err
	}
	f.Attributes[index] = attr

	return nil
}

// VersionString returns the version with null padding removed.
func (f *FlashInfo) VersionString() string {
	return string(bytes.TrimRight(f.Version[:], "\x00"))
}

// Validate checks the magic tag and every attribute's declared length.
func (f *FlashInfo) Validate() error {
	if string(f.Magic[:]) != Magic {
		return fmt.Errorf("%w: %q", ErrBadMagic, f.Magic[:])
	}
	for i := range f.Attributes {
		if err := f.Attributes[i].Validate(); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
	}

	return nil
}

// MarshalBinary encodes the record in its on-flash layout.
func (f *FlashInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	copy(buf[magicOffset:versionOffset], f.Magic[:])
	copy(buf[versionOffset:versionOffset+VersionSize], f.Version[:])

	for i := range f.Attributes {
		off := attrOffset + i*AttributeSize
		f.Attributes[i].marshalTo(buf[off : off+AttributeSize])
	}

	return buf, nil
}

// UnmarshalBinary decodes a record from its on-flash layout and validates
// it. The reserved area must be zero.
func (f *FlashInfo) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrRecordSize, len(data), RecordSize)
	}

	var info FlashInfo
	copy(info.Magic[:], data[magicOffset:versionOffset])
	copy(info.Version[:], data[versionOffset:versionOffset+VersionSize])
	for i := range info.Attributes {
		off := attrOffset + i*AttributeSize
		info.Attributes[i].unmarshalFrom(data[off : off+AttributeSize])
	}

	if err := info.Validate(); err != nil {
		return err
	}
	reserved := data[versionOffset+VersionSize : attrOffset]
	if zeros := bytes.Count(reserved, []byte{0}); zeros != len(reserved) {
		return fmt.Errorf("%w: %d of %d bytes set", ErrReserved, len(reserved)-zeros, len(reserved))
	}
	*f = info

	return nil
}

// reference is the identity table shipped with the Stellaris Launchpad build.
var reference = FlashInfo{
	Magic:   [MagicSize]byte([]byte(Magic)),
	Version: paddedVersion(Version),
	Attributes: [NumAttributes]Attribute{
		fixedAttribute("board", "stellaris launchpad"),
		fixedAttribute("arch", "cortex-m4"),
		fixedAttribute("jldevice", "LM4F120H5QR"),
		fixedAttribute("appaddr", "0x00010000"),
	},
}

// Reference returns a copy of the identity table shipped with the
// Stellaris Launchpad build.
func Reference() *FlashInfo {
	info := reference
	return &info
}

func paddedVersion(v string) (out [VersionSize]byte) {
	copy(out[:], v)
	return out
}

// fixedAttribute builds a slot from constant data that fits by construction.
func fixedAttribute(key, value string) (a Attribute) {
	copy(a.Key[:], key)
	copy(a.Value[:], value)
	a.Length = uint8(len(value)) //nolint:gosec // constant table entries

	return a
}
