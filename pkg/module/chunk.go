// Package module implements the Module & Chunk container described by
// spec.md §4.3: a module owns the chunk vector and a cross-chunk constant
// pool; each chunk owns its own per-chunk constants, its instruction list
// and its metadata.
package module

import (
	"github.com/ardan-lang/ardan/pkg/bytecode"
	"github.com/ardan-lang/ardan/pkg/value"
)

// Chunk is one function's compiled body (spec.md §3 "Chunk").
type Chunk struct {
	Code      []bytecode.Instruction
	Constants []value.Value
	Names     []string // narrow per-chunk name pool for property/field/global names
	MaxLocals int
	Arity     int
	Name      string
	HasRest   bool
}

// AddConstant interns v (by value equality for scalars) and returns its
// stable index.
func (c *Chunk) AddConstant(v value.Value) int {
	for i, existing := range c.Constants {
		if existing.Kind == v.Kind && sameScalar(existing, v) {
			return i
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

func sameScalar(a, b value.Value) bool {
	switch a.Kind {
	case value.NUMBER:
		return a.Num == b.Num
	case value.STRING:
		return a.Str == b.Str
	case value.BOOLEAN:
		return a.Bool == b.Bool
	case value.NULL, value.UNDEFINED:
		return true
	default:
		return false
	}
}

// AddName interns a property/field/global name and returns its index into
// the chunk's narrow name table (spec.md §4.1 "Classes" operand note: a
// single byte indexes this table, capping a chunk at 256 distinct names —
// see DESIGN.md for why this is a reasonable bound given the fixed 4-byte
// instruction encoding).
func (c *Chunk) AddName(name string) int {
	for i, existing := range c.Names {
		if existing == name {
			return i
		}
	}
	c.Names = append(c.Names, name)
	return len(c.Names) - 1
}

// Emit appends an instruction and returns its index (used for back-patching
// jump targets once the body that follows has been emitted).
func (c *Chunk) Emit(in bytecode.Instruction) int {
	c.Code = append(c.Code, in)
	return len(c.Code) - 1
}

// PatchBC rewrites the 16-bit offset operand of an already-emitted
// instruction (spec.md §8 "Instruction-offset safety").
func (c *Chunk) PatchBC(index int, v uint16) {
	c.Code[index].SetBC(v)
}

// Module is the top-level container of chunks and cross-chunk constants,
// with a designated entry chunk (spec.md §4.3).
type Module struct {
	Chunks          []*Chunk
	Constants       []value.Value
	EntryChunkIndex int
	Version         uint32
}

func NewModule() *Module {
	return &Module{Version: 1}
}

// AddChunk appends a chunk and returns its stable index.
func (m *Module) AddChunk(c *Chunk) int {
	m.Chunks = append(m.Chunks, c)
	return len(m.Chunks) - 1
}

// AddConstant appends a cross-chunk (module-level) constant, used for
// function references shared across chunks, and returns its index; equal
// values are not deduplicated.
func (m *Module) AddConstant(v value.Value) int {
	m.Constants = append(m.Constants, v)
	return len(m.Constants) - 1
}

func (m *Module) EntryChunk() *Chunk { return m.Chunks[m.EntryChunkIndex] }
