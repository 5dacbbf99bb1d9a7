package flashinfo

import (
	"bytes"
	"fmt"
)

// Attribute slot geometry.
const (
	KeySize       = 8
	ValueSize     = 47
	AttributeSize = KeySize + 1 + ValueSize
)

// Attribute is one key/value slot of the identity table.
//
// The zero value is the blank attribute: key, length and value all zero.
type Attribute struct {
	Key    [KeySize]byte
	Length uint8
	Value  [ValueSize]byte
}

// NewAttribute builds an attribute from a key of at most 8 bytes and a value
// of at most 47 bytes. Unused key and value bytes are zero.
func NewAttribute(key, value string) (Attribute, error) {
	var a Attribute
	if len(key) == 0 || len(key) > KeySize {
		return a, fmt.Errorf("%w: key %q must be 1-%d bytes", ErrAttrKey, key, KeySize)
	}
	if len(value) > ValueSize {
		return a, fmt.Errorf("%w: value of %d bytes exceeds %d", ErrAttrLength, len(value), ValueSize)
	}

	copy(a.Key[:], key)
	copy(a.Value[:], value)
	a.Length = uint8(len(value)) //nolint:gosec // bounded by ValueSize

	return a, nil
}

// IsBlank reports whether a is an unused slot.
func (a *Attribute) IsBlank() bool {
	return *a == Attribute{}
}

// Validate checks the declared length invariant.
func (a *Attribute) Validate() error {
	if a.Length > ValueSize {
		return fmt.Errorf("%w: declared %d, max %d", ErrAttrLength, a.Length, ValueSize)
	}

	return nil
}

// KeyString returns the key with trailing null padding removed.
func (a *Attribute) KeyString() string {
	return string(bytes.TrimRight(a.Key[:], "\x00"))
}

// ValueString returns the first Length bytes of the value buffer.
func (a *Attribute) ValueString() string {
	n := min(int(a.Length), ValueSize)

	return string(a.Value[:n])
}

func (a *Attribute) String() string {
	if a.IsBlank() {
		return "<blank>"
	}

	return a.KeyString() + "=" + a.ValueString()
}

func (a *Attribute) marshalTo(buf []byte) {
	copy(buf[0:KeySize], a.Key[:])
	buf[KeySize] = a.Length
	copy(buf[KeySize+1:AttributeSize], a.Value[:])
}

func (a *Attribute) unmarshalFrom(buf []byte) {
	copy(a.Key[:], buf[0:KeySize])
	a.Length = buf[KeySize]
	copy(a.Value[:], buf[KeySize+1:AttributeSize])
}
