// Package flashinfo implements the FlashInfo record: the fixed-layout block
// at a known flash address that identifies the bootloader and carries the
// device identity attribute table.
//
// On-flash layout, byte offsets from the record base:
//
//	[0..14)     magic tag (ASCII)
//	[14..22)    version string (ASCII, null padded)
//	[22..512)   reserved, zero filled
//	[512..1408) 16 attribute slots of 56 bytes each
//
// Each attribute slot is:
//
//	[0..8)   key (ASCII, null padded)
//	[8]      declared value length, at most 47
//	[9..56)  value buffer
//
// The record is written when the device is provisioned and never changed
// by the agent. Store is the read-only view the dispatcher uses.
package flashinfo
