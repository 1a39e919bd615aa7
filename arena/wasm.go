package arena

import (
	"context"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/recordkit/errors"
)

const (
	wasmPageSize = 65536

	// wasmBase keeps linear-memory offset 0 out of the issued addresses.
	wasmBase uint32 = 8

	// DefaultMaxPages caps a wasm backing at 64 MiB.
	DefaultMaxPages = 1024
)

// memoryModule is a minimal WASM module with 1 page of memory exported as "memory".
var memoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory"
	0x02, 0x00, // kind: memory, index 0
}

// Wasm backs an arena with the linear memory of a wazero module, so
// record bytes are addressable by guest code sharing that memory.
// Blocks are carved upward from wasmBase; memory grows a page at a time
// and never shrinks.
type Wasm struct {
	rt       wazero.Runtime
	mod      api.Module
	mem      api.Memory
	top      uint32
	maxPages uint32
}

// NewWasm starts a wazero runtime holding one exported memory limited to
// maxPages 64 KiB pages (DefaultMaxPages when zero).
func NewWasm(ctx context.Context, maxPages uint32) (*Wasm, error) {
	if maxPages == 0 {
		maxPages = DefaultMaxPages
	}
	if maxPages > 65536 {
		return nil, errors.InvalidInput(errors.PhaseAllocate, fmt.Sprintf("max pages %d exceeds the 4 GiB address space", maxPages))
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(maxPages))

	compiled, err := rt.CompileModule(ctx, memoryModule)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("compile memory module: %w", err)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("recordkit-arena"))
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate memory module: %w", err)
	}

	mem := mod.ExportedMemory("memory")
	if mem == nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("memory module exports no memory")
	}

	return &Wasm{rt: rt, mod: mod, mem: mem, top: wasmBase, maxPages: maxPages}, nil
}

// Module returns the module owning the linear memory.
func (w *Wasm) Module() api.Module {
	return w.mod
}

// Close shuts down the runtime. The backing is unusable afterwards.
func (w *Wasm) Close(ctx context.Context) error {
	return w.rt.Close(ctx)
}

// Allocate carves a zeroed range, growing linear memory when needed.
func (w *Wasm) Allocate(size uint64) (Address, error) {
	if size == 0 {
		return 0, fmt.Errorf("wasm: zero-size block")
	}
	end := uint64(w.top) + size
	if end > uint64(w.maxPages)*wasmPageSize || end > math.MaxUint32 {
		return 0, fmt.Errorf("wasm: %d bytes exceed the %d page limit", end, w.maxPages)
	}
	if cur := uint64(w.mem.Size()); end > cur {
		pages := (end - cur + wasmPageSize - 1) / wasmPageSize
		if _, ok := w.mem.Grow(uint32(pages)); !ok {
			return 0, fmt.Errorf("wasm: grow by %d pages failed", pages)
		}
	}

	base := w.top
	// Released ranges are reused, so they must be cleared.
	buf, ok := w.mem.Read(base, uint32(size))
	if !ok {
		return 0, fmt.Errorf("wasm: range at %d of %d bytes unreadable after grow", base, size)
	}
	clear(buf)

	w.top = uint32(end)
	return Address(base), nil
}

// Release rewinds the carve pointer. Linear memory keeps its size.
func (w *Wasm) Release() error {
	w.top = wasmBase
	return nil
}

// Limit returns the byte size of maxPages.
func (w *Wasm) Limit() uint64 {
	return uint64(w.maxPages) * wasmPageSize
}

func wasmOffset(addr Address) (uint32, error) {
	if addr > math.MaxUint32 {
		return 0, errors.BadAddress(uint64(addr), 0)
	}
	return uint32(addr), nil
}

// Read returns a view of length bytes; it is invalidated by the next grow.
func (w *Wasm) Read(addr Address, length uint64) ([]byte, error) {
	off, err := wasmOffset(addr)
	if err != nil || length > math.MaxUint32 {
		return nil, errors.BadAddress(uint64(addr), length)
	}
	data, ok := w.mem.Read(off, uint32(length))
	if !ok {
		return nil, errors.BadAddress(uint64(addr), length)
	}
	return data, nil
}

// Write writes bytes to memory.
func (w *Wasm) Write(addr Address, data []byte) error {
	off, err := wasmOffset(addr)
	if err != nil {
		return err
	}
	if !w.mem.Write(off, data) {
		return errors.BadAddress(uint64(addr), uint64(len(data)))
	}
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (w *Wasm) ReadU8(addr Address) (uint8, error) {
	off, err := wasmOffset(addr)
	if err != nil {
		return 0, err
	}
	v, ok := w.mem.ReadByte(off)
	if !ok {
		return 0, errors.BadAddress(uint64(addr), 1)
	}
	return v, nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (w *Wasm) ReadU16(addr Address) (uint16, error) {
	off, err := wasmOffset(addr)
	if err != nil {
		return 0, err
	}
	v, ok := w.mem.ReadUint16Le(off)
	if !ok {
		return 0, errors.BadAddress(uint64(addr), 2)
	}
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (w *Wasm) ReadU32(addr Address) (uint32, error) {
	off, err := wasmOffset(addr)
	if err != nil {
		return 0, err
	}
	v, ok := w.mem.ReadUint32Le(off)
	if !ok {
		return 0, errors.BadAddress(uint64(addr), 4)
	}
	return v, nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (w *Wasm) ReadU64(addr Address) (uint64, error) {
	off, err := wasmOffset(addr)
	if err != nil {
		return 0, err
	}
	v, ok := w.mem.ReadUint64Le(off)
	if !ok {
		return 0, errors.BadAddress(uint64(addr), 8)
	}
	return v, nil
}

// WriteU8 writes an unsigned 8-bit value.
func (w *Wasm) WriteU8(addr Address, value uint8) error {
	off, err := wasmOffset(addr)
	if err != nil {
		return err
	}
	if !w.mem.WriteByte(off, value) {
		return errors.BadAddress(uint64(addr), 1)
	}
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (w *Wasm) WriteU16(addr Address, value uint16) error {
	off, err := wasmOffset(addr)
	if err != nil {
		return err
	}
	if !w.mem.WriteUint16Le(off, value) {
		return errors.BadAddress(uint64(addr), 2)
	}
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (w *Wasm) WriteU32(addr Address, value uint32) error {
	off, err := wasmOffset(addr)
	if err != nil {
		return err
	}
	if !w.mem.WriteUint32Le(off, value) {
		return errors.BadAddress(uint64(addr), 4)
	}
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (w *Wasm) WriteU64(addr Address, value uint64) error {
	off, err := wasmOffset(addr)
	if err != nil {
		return err
	}
	if !w.mem.WriteUint64Le(off, value) {
		return errors.BadAddress(uint64(addr), 8)
	}
	return nil
}

// Copy moves bytes within linear memory; overlapping ranges are safe.
func (w *Wasm) Copy(from, to Address, length uint64) error {
	if length == 0 {
		return nil
	}
	src, err := w.Read(from, length)
	if err != nil {
		return err
	}
	dst, err := w.Read(to, length)
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}
