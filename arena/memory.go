package arena

// Address is an absolute byte position inside an arena's address space.
// Address 0 is never issued.
type Address uint64

// Memory is byte-level access to record storage.
// Multi-byte values are little-endian.
type Memory interface {
	Read(addr Address, length uint64) ([]byte, error)
	Write(addr Address, data []byte) error
	ReadU8(addr Address) (uint8, error)
	ReadU16(addr Address) (uint16, error)
	ReadU32(addr Address) (uint32, error)
	ReadU64(addr Address) (uint64, error)
	WriteU8(addr Address, value uint8) error
	WriteU16(addr Address, value uint16) error
	WriteU32(addr Address, value uint32) error
	WriteU64(addr Address, value uint64) error
	Copy(from, to Address, length uint64) error
}

// Backing provides raw blocks to an Arena.
type Backing interface {
	Memory

	// Allocate returns the base of a new zeroed contiguous range of size bytes.
	Allocate(size uint64) (Address, error)

	// Release drops every range handed out by Allocate.
	// Addresses issued before the call become dangling.
	Release() error

	// Limit is the ceiling on bytes the backing can hand out.
	Limit() uint64
}
