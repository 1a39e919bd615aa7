// Package arena hands out byte ranges for record storage.
//
// An Arena owns blocks obtained from a Backing and bump-allocates records
// inside them. Blocks with more than the over-provision threshold left
// stay on a first-fit free-list. Individual records are never freed;
// ReleaseAll drops every block at once and reseeds a fresh one.
//
// An Arena is not safe for concurrent use.
package arena

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/recordkit/errors"
)

const (
	// DefaultBlockSize is the size of a regular block.
	DefaultBlockSize = 4096

	// DefaultOverProvision is the minimum remaining capacity for a block
	// to stay on the free-list.
	DefaultOverProvision = 256
)

// Block is one contiguous range obtained from the backing.
type Block struct {
	Base Address
	Size uint64
	Used uint64
}

// Remaining returns the bytes not yet reserved.
func (b *Block) Remaining() uint64 {
	return b.Size - b.Used
}

// Next returns the address the next reservation would start at.
func (b *Block) Next() Address {
	return b.Base + Address(b.Used)
}

// Stats summarizes arena usage.
type Stats struct {
	Blocks     int
	FreeBlocks int
	Reserved   uint64 // bytes handed out by Reserve
	Held       uint64 // bytes held in blocks
}

// Config holds arena tuning knobs.
type Config struct {
	BlockSize     uint64 `mapstructure:"block_size"`
	OverProvision uint64 `mapstructure:"over_provision"`
}

// DefaultConfig returns the standard block size and threshold.
func DefaultConfig() Config {
	return Config{BlockSize: DefaultBlockSize, OverProvision: DefaultOverProvision}
}

// Option configures an Arena.
type Option func(*Arena)

// WithBlockSize sets the default block size.
func WithBlockSize(n uint64) Option {
	return func(a *Arena) {
		if n > 0 {
			a.blockSize = n
		}
	}
}

// WithOverProvision sets the free-list threshold.
func WithOverProvision(n uint64) Option {
	return func(a *Arena) {
		a.overProvision = n
	}
}

// WithConfig applies a Config; zero fields keep their defaults.
func WithConfig(c Config) Option {
	return func(a *Arena) {
		if c.BlockSize > 0 {
			a.blockSize = c.BlockSize
		}
		if c.OverProvision > 0 {
			a.overProvision = c.OverProvision
		}
	}
}

// WithBacking replaces the default heap backing.
func WithBacking(b Backing) Option {
	return func(a *Arena) {
		a.backing = b
	}
}

// WithObserver subscribes o to block events from construction on.
func WithObserver(o Observer) Option {
	return func(a *Arena) {
		a.observers = append(a.observers, o)
	}
}

// Arena is a block-based record allocator.
type Arena struct {
	backing       Backing
	log           *zap.Logger
	blocks        []*Block
	free          []*Block
	observers     []Observer
	blockSize     uint64
	overProvision uint64
	reserved      uint64
	held          uint64
	id            uuid.UUID
}

// New creates an arena seeded with one default block.
func New(opts ...Option) (*Arena, error) {
	a := &Arena{
		blockSize:     DefaultBlockSize,
		overProvision: DefaultOverProvision,
		id:            uuid.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.backing == nil {
		a.backing = NewHeap(0)
	}
	a.log = Logger().With(zap.Stringer("arena", a.id))

	if err := a.seed(); err != nil {
		return nil, err
	}
	return a, nil
}

// ID identifies the arena in logs.
func (a *Arena) ID() uuid.UUID {
	return a.id
}

// Memory returns byte-level access to reserved ranges.
func (a *Arena) Memory() Memory {
	return a.backing
}

// Backing returns the raw memory provider.
func (a *Arena) Backing() Backing {
	return a.backing
}

// BlockSize returns the default block size.
func (a *Arena) BlockSize() uint64 {
	return a.blockSize
}

// OverProvision returns the free-list threshold.
func (a *Arena) OverProvision() uint64 {
	return a.overProvision
}

func (a *Arena) seed() error {
	b, err := a.allocate(a.blockSize)
	if err != nil {
		return err
	}
	a.free = append(a.free, b)
	return nil
}

func (a *Arena) allocate(size uint64) (*Block, error) {
	base, err := a.backing.Allocate(size)
	if err != nil {
		a.log.Error("block allocation failed", zap.Uint64("size", size), zap.Error(err))
		return nil, errors.AllocationFailed(size, err)
	}
	b := &Block{Base: base, Size: size}
	a.blocks = append(a.blocks, b)
	a.held += size
	a.log.Debug("block allocated", zap.Uint64("base", uint64(base)), zap.Uint64("size", size))
	a.notify(Event{Type: EventAllocated, Block: *b})
	return b, nil
}

// ensureCapacity pops the first free block with room for size bytes,
// or allocates a new one.
func (a *Arena) ensureCapacity(size uint64) (*Block, error) {
	for i, b := range a.free {
		if b.Remaining() >= size {
			a.free = append(a.free[:i], a.free[i+1:]...)
			return b, nil
		}
	}
	return a.allocate(max(a.blockSize, size))
}

// Reserve returns the start of size contiguous zeroed bytes.
func (a *Arena) Reserve(size uint64) (Address, error) {
	b, err := a.ensureCapacity(size)
	if err != nil {
		return 0, err
	}

	addr := b.Next()
	b.Used += size
	a.reserved += size

	if b.Remaining() > a.overProvision {
		a.free = append(a.free, b)
	}
	return addr, nil
}

// Copy copies length bytes from one address to another.
func (a *Arena) Copy(from, to Address, length uint64) error {
	return a.backing.Copy(from, to, length)
}

// ReleaseAll drops every block and reseeds one default block, so the
// arena addresses like a new one. Earlier addresses dangle.
func (a *Arena) ReleaseAll() error {
	for _, b := range a.blocks {
		a.notify(Event{Type: EventReleased, Block: *b})
	}
	count := len(a.blocks)

	a.blocks = nil
	a.free = nil
	a.reserved = 0
	a.held = 0
	if err := a.backing.Release(); err != nil {
		return errors.Wrap(errors.PhaseAllocate, errors.KindAllocation, err, "release backing")
	}
	a.log.Debug("arena released", zap.Int("blocks", count))

	return a.seed()
}

// Capacity reports the bytes the backing can still hand out. It is
// advisory; Reserve does not consult it.
func (a *Arena) Capacity() uint64 {
	limit := a.backing.Limit()
	if a.held >= limit {
		return 0
	}
	return limit - a.held
}

// Stats returns current usage counters.
func (a *Arena) Stats() Stats {
	return Stats{
		Blocks:     len(a.blocks),
		FreeBlocks: len(a.free),
		Reserved:   a.reserved,
		Held:       a.held,
	}
}

// Blocks returns a snapshot of every block in allocation order.
func (a *Arena) Blocks() []Block {
	out := make([]Block, len(a.blocks))
	for i, b := range a.blocks {
		out[i] = *b
	}
	return out
}

// Subscribe adds an observer for block events.
func (a *Arena) Subscribe(o Observer) {
	a.observers = append(a.observers, o)
}

func (a *Arena) notify(e Event) {
	for _, o := range a.observers {
		o.OnBlockEvent(e)
	}
}
