package module

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ardan-lang/ardan/pkg/bytecode"
	"github.com/ardan-lang/ardan/pkg/value"
)

// Write serializes m into the bin.ardar binary format (spec.md §6): a
// version tag, the entry chunk index, a count-prefixed vector of
// cross-chunk constants, then a count-prefixed vector of chunks. Only
// scalar values and FunctionRef descriptors appear in any constant vector
// — every other Value variant is runtime-only and never reaches a chunk's
// or module's constant pool at compile time.
func Write(w io.Writer, m *Module) error {
	bw := bufio.NewWriter(w)
	writeU32(bw, m.Version)
	writeU32(bw, uint32(m.EntryChunkIndex))

	writeU32(bw, uint32(len(m.Constants)))
	for _, c := range m.Constants {
		if err := writeValue(bw, c); err != nil {
			return err
		}
	}

	writeU32(bw, uint32(len(m.Chunks)))
	for _, c := range m.Chunks {
		if err := writeChunk(bw, c); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeChunk(w *bufio.Writer, c *Chunk) error {
	writeString(w, c.Name)
	writeU32(w, uint32(c.Arity))
	writeU32(w, uint32(c.MaxLocals))
	writeBool(w, c.HasRest)

	writeU32(w, uint32(len(c.Constants)))
	for _, v := range c.Constants {
		if err := writeValue(w, v); err != nil {
			return err
		}
	}

	writeU32(w, uint32(len(c.Names)))
	for _, n := range c.Names {
		writeString(w, n)
	}

	writeU32(w, uint32(len(c.Code)))
	for _, in := range c.Code {
		w.WriteByte(byte(in.Op))
		w.WriteByte(in.A)
		w.WriteByte(in.B)
		w.WriteByte(in.C)
	}
	return w.Flush()
}

// value tags for the scalar/function-ref subset the binary format carries.
const (
	tagNumber uint8 = iota
	tagString
	tagBool
	tagNull
	tagUndefined
	tagFunctionRef
)

func writeValue(w *bufio.Writer, v value.Value) error {
	switch v.Kind {
	case value.NUMBER:
		w.WriteByte(tagNumber)
		writeF64(w, v.Num)
	case value.STRING:
		w.WriteByte(tagString)
		writeString(w, v.Str)
	case value.BOOLEAN:
		w.WriteByte(tagBool)
		writeBool(w, v.Bool)
	case value.NULL:
		w.WriteByte(tagNull)
	case value.UNDEFINED:
		w.WriteByte(tagUndefined)
	case value.FUNCTION_REF:
		w.WriteByte(tagFunctionRef)
		fr := v.AsFunctionRef()
		writeU32(w, uint32(fr.ChunkIndex))
		writeU32(w, uint32(fr.Arity))
		writeString(w, fr.Name)
		writeU32(w, uint32(len(fr.UpvalueDescs)))
		for _, d := range fr.UpvalueDescs {
			writeBool(w, d.IsLocal)
			writeU32(w, uint32(d.Index))
		}
	default:
		return fmt.Errorf("bin.ardar: value kind %s is not serializable (runtime-only)", v.Kind)
	}
	return nil
}

func writeU32(w *bufio.Writer, v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	w.Write(buf[:])
}

func writeF64(w *bufio.Writer, f float64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(f))
	w.Write(buf[:])
}

func writeBool(w *bufio.Writer, b bool) {
	if b {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

func writeString(w *bufio.Writer, s string) {
	writeU32(w, uint32(len(s)))
	w.WriteString(s)
}

// Read deserializes a Module written by Write; read(write(m)) == m for any
// module produced by the code generator (spec.md §8 "Round-trip
// serialization").
func Read(r io.Reader) (*Module, error) {
	br := bufio.NewReader(r)
	m := &Module{}

	version, err := readU32(br)
	if err != nil {
		return nil, err
	}
	m.Version = version

	entry, err := readU32(br)
	if err != nil {
		return nil, err
	}
	m.EntryChunkIndex = int(entry)

	nConsts, err := readU32(br)
	if err != nil {
		return nil, err
	}
	m.Constants = make([]value.Value, nConsts)
	for i := range m.Constants {
		v, err := readValue(br)
		if err != nil {
			return nil, err
		}
		m.Constants[i] = v
	}

	nChunks, err := readU32(br)
	if err != nil {
		return nil, err
	}
	m.Chunks = make([]*Chunk, nChunks)
	for i := range m.Chunks {
		c, err := readChunk(br)
		if err != nil {
			return nil, err
		}
		m.Chunks[i] = c
	}
	return m, nil
}

func readChunk(r *bufio.Reader) (*Chunk, error) {
	c := &Chunk{}
	var err error
	if c.Name, err = readString(r); err != nil {
		return nil, err
	}
	arity, err := readU32(r)
	if err != nil {
		return nil, err
	}
	c.Arity = int(arity)
	maxLocals, err := readU32(r)
	if err != nil {
		return nil, err
	}
	c.MaxLocals = int(maxLocals)
	if c.HasRest, err = readBool(r); err != nil {
		return nil, err
	}

	nConsts, err := readU32(r)
	if err != nil {
		return nil, err
	}
	c.Constants = make([]value.Value, nConsts)
	for i := range c.Constants {
		if c.Constants[i], err = readValue(r); err != nil {
			return nil, err
		}
	}

	nNames, err := readU32(r)
	if err != nil {
		return nil, err
	}
	c.Names = make([]string, nNames)
	for i := range c.Names {
		if c.Names[i], err = readString(r); err != nil {
			return nil, err
		}
	}

	nCode, err := readU32(r)
	if err != nil {
		return nil, err
	}
	c.Code = make([]bytecode.Instruction, nCode)
	for i := range c.Code {
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		c.Code[i] = bytecode.Instruction{Op: bytecode.Op(buf[0]), A: buf[1], B: buf[2], C: buf[3]}
	}
	return c, nil
}

func readValue(r *bufio.Reader) (value.Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return value.Undefined, err
	}
	switch tag {
	case tagNumber:
		f, err := readF64(r)
		return value.Number(f), err
	case tagString:
		s, err := readString(r)
		return value.String(s), err
	case tagBool:
		b, err := readBool(r)
		return value.Boolean(b), err
	case tagNull:
		return value.Null, nil
	case tagUndefined:
		return value.Undefined, nil
	case tagFunctionRef:
		fr := &value.FunctionRef{}
		chunkIdx, err := readU32(r)
		if err != nil {
			return value.Undefined, err
		}
		fr.ChunkIndex = int(chunkIdx)
		arity, err := readU32(r)
		if err != nil {
			return value.Undefined, err
		}
		fr.Arity = int(arity)
		if fr.Name, err = readString(r); err != nil {
			return value.Undefined, err
		}
		nUp, err := readU32(r)
		if err != nil {
			return value.Undefined, err
		}
		fr.UpvalueCount = int(nUp)
		fr.UpvalueDescs = make([]value.UpvalueDesc, nUp)
		for i := range fr.UpvalueDescs {
			isLocal, err := readBool(r)
			if err != nil {
				return value.Undefined, err
			}
			idx, err := readU32(r)
			if err != nil {
				return value.Undefined, err
			}
			fr.UpvalueDescs[i] = value.UpvalueDesc{IsLocal: isLocal, Index: int(idx)}
		}
		return value.FromFunctionRef(fr), nil
	default:
		return value.Undefined, fmt.Errorf("bin.ardar: unknown value tag %d", tag)
	}
}

func readU32(r *bufio.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readF64(r *bufio.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
}

func readBool(r *bufio.Reader) (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func readString(r *bufio.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
