// Package flash describes the program flash of the target microcontroller
// and the driver contract the agent uses to change it.
//
// The flash address space is 128 pages of 2048 bytes (262144 bytes). Pages
// are the erase unit; words (4 bytes) are the program unit. Every page has
// a ProtectMode that decides whether it may be erased or programmed.
//
// Driver is the contract consumed by the dispatcher. Simulator is an
// in-memory Driver used by the example agent and by tests; its contents
// and protection table can be saved to and restored from an image file.
package flash
