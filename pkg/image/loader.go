package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// File format: a fixed header giving entry offset, data-section length,
// and code-section length, followed by a label table of variable-length
// records, then a function table, then raw data bytes, then code bytes.
// All integers little-endian.
var magic = [4]byte{'K', 'V', 'M', '1'}

// Load errors.
var (
	ErrBadMagic      = errors.New("not a kioskvm image")
	ErrTruncated     = errors.New("truncated image")
	ErrTooManyLabels = errors.New("too many labels")
	ErrTooManyFuncs  = errors.New("too many functions")
)

const (
	maxLabels = 1 << 20
	maxFuncs  = 1 << 20
)

// Load parses a bytecode file into a Program image.
//
// Layout:
//
//	magic      [4]byte   "KVM1"
//	entry      uint32    code offset of the program entry point
//	dataLen    uint32
//	codeLen    uint32
//	numLabels  uint32
//	labels     numLabels * { nameLen uint16, name []byte, kind uint8, value uint64 }
//	numFuncs   uint32
//	funcs      numFuncs * { offset uint64, nlocals uint32 }
//	data       dataLen bytes
//	code       codeLen bytes
func Load(raw []byte) (*Program, error) {
	r := bytes.NewReader(raw)

	var hdr [4]byte
	if _, err := readFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if hdr != magic {
		return nil, ErrBadMagic
	}

	entry, err := readU32(r)
	if err != nil {
		return nil, err
	}
	dataLen, err := readU32(r)
	if err != nil {
		return nil, err
	}
	codeLen, err := readU32(r)
	if err != nil {
		return nil, err
	}
	numLabels, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if numLabels > maxLabels {
		return nil, ErrTooManyLabels
	}

	labels := make(map[string]Label, numLabels)
	for i := uint32(0); i < numLabels; i++ {
		nameLen, err := readU16(r)
		if err != nil {
			return nil, err
		}
		name := make([]byte, nameLen)
		if _, err := readFull(r, name); err != nil {
			return nil, fmt.Errorf("%w: label name: %v", ErrTruncated, err)
		}
		kind, err := readU8(r)
		if err != nil {
			return nil, err
		}
		value, err := readU64(r)
		if err != nil {
			return nil, err
		}
		labels[string(name)] = Label{Kind: LabelKind(kind), Value: value}
	}

	numFuncs, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if numFuncs > maxFuncs {
		return nil, ErrTooManyFuncs
	}
	funcs := make(map[uint64]int, numFuncs)
	for i := uint32(0); i < numFuncs; i++ {
		off, err := readU64(r)
		if err != nil {
			return nil, err
		}
		nlocals, err := readU32(r)
		if err != nil {
			return nil, err
		}
		funcs[off] = int(nlocals)
	}

	data := make([]byte, dataLen)
	if _, err := readFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: data section: %v", ErrTruncated, err)
	}
	code := make([]byte, codeLen)
	if _, err := readFull(r, code); err != nil {
		return nil, fmt.Errorf("%w: code section: %v", ErrTruncated, err)
	}

	return &Program{
		Code:   code,
		Data:   data,
		Entry:  uint64(entry),
		Labels: labels,
		Funcs:  funcs,
	}, nil
}

// Encode serializes a Program back to the file format Load accepts. There
// is no textual assembler front-end in this tree; Encode exists so tests
// and tools can construct fixtures and round-trip them.
func Encode(p *Program) []byte {
	var buf bytes.Buffer
	buf.Write(magic[:])
	writeU32(&buf, uint32(p.Entry))
	writeU32(&buf, uint32(len(p.Data)))
	writeU32(&buf, uint32(len(p.Code)))

	writeU32(&buf, uint32(len(p.Labels)))
	for name, lbl := range p.Labels {
		writeU16(&buf, uint16(len(name)))
		buf.WriteString(name)
		buf.WriteByte(byte(lbl.Kind))
		writeU64(&buf, lbl.Value)
	}

	writeU32(&buf, uint32(len(p.Funcs)))
	for off, nlocals := range p.Funcs {
		writeU64(&buf, off)
		writeU32(&buf, uint32(nlocals))
	}

	buf.Write(p.Data)
	buf.Write(p.Code)
	return buf.Bytes()
}

func readFull(r *bytes.Reader, b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	n, err := r.Read(b)
	if n != len(b) {
		return n, fmt.Errorf("short read: got %d want %d", n, len(b))
	}
	return n, err
}

func readU8(r *bytes.Reader) (uint8, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return b, nil
}

func readU16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
