package arena

import (
	"encoding/binary"
	"fmt"
	"math"
	"runtime/debug"
	"sort"

	"github.com/wippyai/recordkit/errors"
)

// heapBase is the first address a Heap hands out.
const heapBase Address = 0x1000

// heapAlign separates consecutive blocks in the address space.
const heapAlign = 16

type heapBlock struct {
	buf  []byte
	base Address
}

// Heap backs an arena with Go byte slices mapped into a private
// address space. Blocks are sorted by base.
type Heap struct {
	blocks []heapBlock
	next   Address
	held   uint64
	limit  uint64
	last   int
}

// NewHeap creates a heap backing. A zero limit uses the process
// memory limit reported by runtime/debug.
func NewHeap(limit uint64) *Heap {
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 {
			limit = uint64(l)
		} else {
			limit = math.MaxInt64
		}
	}
	return &Heap{next: heapBase, limit: limit}
}

// Allocate maps a new zeroed block.
func (h *Heap) Allocate(size uint64) (Address, error) {
	if size == 0 {
		return 0, fmt.Errorf("heap: zero-size block")
	}
	if h.held+size > h.limit || h.held+size < h.held {
		return 0, fmt.Errorf("heap: limit of %d bytes exceeded (held %d, requested %d)", h.limit, h.held, size)
	}
	base := h.next
	h.blocks = append(h.blocks, heapBlock{base: base, buf: make([]byte, size)})
	h.next = base + Address(alignUp(size, heapAlign))
	h.held += size
	return base, nil
}

// Release drops every block and restarts the address space.
func (h *Heap) Release() error {
	h.blocks = nil
	h.next = heapBase
	h.held = 0
	h.last = 0
	return nil
}

// Limit returns the configured ceiling.
func (h *Heap) Limit() uint64 {
	return h.limit
}

// slice resolves [addr, addr+length) to a view of the owning block.
func (h *Heap) slice(addr Address, length uint64) ([]byte, error) {
	if h.last < len(h.blocks) {
		if b := h.blocks[h.last]; addr >= b.base {
			if off := uint64(addr - b.base); off+length <= uint64(len(b.buf)) {
				return b.buf[off : off+length], nil
			}
		}
	}

	i := sort.Search(len(h.blocks), func(i int) bool {
		return h.blocks[i].base > addr
	}) - 1
	if i < 0 {
		return nil, errors.BadAddress(uint64(addr), length)
	}
	b := h.blocks[i]
	off := uint64(addr - b.base)
	if off+length > uint64(len(b.buf)) {
		return nil, errors.BadAddress(uint64(addr), length)
	}
	h.last = i
	return b.buf[off : off+length], nil
}

// Read returns a view of length bytes at addr.
func (h *Heap) Read(addr Address, length uint64) ([]byte, error) {
	return h.slice(addr, length)
}

// Write copies data to addr.
func (h *Heap) Write(addr Address, data []byte) error {
	dst, err := h.slice(addr, uint64(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (h *Heap) ReadU8(addr Address) (uint8, error) {
	b, err := h.slice(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (h *Heap) ReadU16(addr Address) (uint16, error) {
	b, err := h.slice(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (h *Heap) ReadU32(addr Address) (uint32, error) {
	b, err := h.slice(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (h *Heap) ReadU64(addr Address) (uint64, error) {
	b, err := h.slice(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// WriteU8 writes an unsigned 8-bit value.
func (h *Heap) WriteU8(addr Address, value uint8) error {
	b, err := h.slice(addr, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (h *Heap) WriteU16(addr Address, value uint16) error {
	b, err := h.slice(addr, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (h *Heap) WriteU32(addr Address, value uint32) error {
	b, err := h.slice(addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (h *Heap) WriteU64(addr Address, value uint64) error {
	b, err := h.slice(addr, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}

// Copy moves length bytes from one address to another. The ranges may
// live in different blocks.
func (h *Heap) Copy(from, to Address, length uint64) error {
	if length == 0 {
		return nil
	}
	src, err := h.slice(from, length)
	if err != nil {
		return err
	}
	dst, err := h.slice(to, length)
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
