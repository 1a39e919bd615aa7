// Package recordkit stores fixed-layout records in a block arena and
// reads and writes them through synthesized accessors.
//
// A record type is declared once as a capability contract: the fields it
// holds and the operations callers may run on it. Registration validates
// the contract, computes a packed byte layout, and builds a dispatch table
// with one routine per operation. Records are then created in the arena
// and manipulated through cursors without any per-record Go allocation.
//
// # Architecture Overview
//
//	recordkit/           Registry front door and package logger
//	├── schema/          Kinds, values, contracts, extraction and layout
//	├── accessor/        Routine synthesis, cursors and sequences
//	├── arena/           Block allocator over heap or wasm linear memory
//	├── errors/          Structured error types
//	└── cmd/recordkit/   CLI and interactive inspector
//
// # Quick Start
//
//	reg, err := recordkit.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	b := schema.NewBuilder("Point")
//	b.Field("x", schema.KindS32).Get().Set()
//	b.Field("y", schema.KindS32).Get().Set()
//	b.Copy()
//	point := reg.MustRegister(b.Description())
//
//	p, err := reg.Create(point.ID())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p.Set("setX", schema.ValueOf(int32(3)))
//	fmt.Println(p) // {x: 3, y: 0}
//
// # Contract Sources
//
// Contracts can be written by hand as a schema.Description, assembled with
// schema.Builder, converted from WIT record types with schema.FromWIT, or
// loaded from YAML, JSON or TOML with schema.LoadFile.
//
// # Thread Safety
//
// Nothing in recordkit is safe for concurrent use. A Registry, its arena
// and every cursor over it belong to one goroutine at a time.
//
// # Memory Model
//
// The arena never frees single records. ReleaseAll drops everything at
// once and restarts addressing from scratch; cursors bound before the call
// must not be used afterwards. With the wasm backing, linear memory keeps
// its high-water size after a release.
package recordkit
