// Package snapshot checkpoints and resumes running VM state to disk,
// backing the vm_save_state/vm_load_state syscalls (pkg/syscall/vmstate.go).
// The layout is a tar stream (one named entry per field) compressed with
// zstd.
package snapshot

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/haloforge/kioskvm/pkg/vm"
)

const (
	entryMeta   = "meta"   // pc, halted, stack
	entryFrames = "frames" // one length-prefixed record per frame
	entryHeap   = "heap"   // raw heap bytes
)

// Save writes an interpreter's current State to path as a zstd-compressed
// tar archive.
func Save(path string, s vm.State) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	if err := writeEntry(tw, entryMeta, encodeMeta(s)); err != nil {
		return err
	}
	if err := writeEntry(tw, entryFrames, encodeFrames(s.Frames)); err != nil {
		return err
	}
	if err := writeEntry(tw, entryHeap, s.Heap); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("new zstd writer: %w", err)
	}
	if _, err := enc.Write(buf.Bytes()); err != nil {
		enc.Close()
		return fmt.Errorf("write compressed snapshot: %w", err)
	}
	return enc.Close()
}

// Load reads a snapshot previously written by Save.
func Load(path string) (vm.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return vm.State{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return vm.State{}, fmt.Errorf("new zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return vm.State{}, fmt.Errorf("decompress snapshot: %w", err)
	}

	tr := tar.NewReader(bytes.NewReader(raw))
	entries := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return vm.State{}, fmt.Errorf("read tar entry: %w", err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return vm.State{}, fmt.Errorf("read tar entry %s: %w", hdr.Name, err)
		}
		entries[hdr.Name] = data
	}

	meta, ok := entries[entryMeta]
	if !ok {
		return vm.State{}, fmt.Errorf("snapshot missing %s entry", entryMeta)
	}
	s, err := decodeMeta(meta)
	if err != nil {
		return vm.State{}, err
	}
	framesRaw, ok := entries[entryFrames]
	if !ok {
		return vm.State{}, fmt.Errorf("snapshot missing %s entry", entryFrames)
	}
	s.Frames, err = decodeFrames(framesRaw)
	if err != nil {
		return vm.State{}, err
	}
	s.Heap = entries[entryHeap]
	return s, nil
}

func writeEntry(tw *tar.Writer, name string, data []byte) error {
	if err := tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(data)), Mode: 0o644}); err != nil {
		return fmt.Errorf("write tar header %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("write tar body %s: %w", name, err)
	}
	return nil
}

func encodeMeta(s vm.State) []byte {
	buf := make([]byte, 0, 32+len(s.Stack)*8)
	var hdr [24]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(int64(s.PC)))
	if s.Halted {
		hdr[8] = 1
	}
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(s.Stack)))
	buf = append(buf, hdr[:20]...)
	for _, v := range s.Stack {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		buf = append(buf, b[:]...)
	}
	return buf
}

func decodeMeta(raw []byte) (vm.State, error) {
	if len(raw) < 20 {
		return vm.State{}, fmt.Errorf("meta entry truncated")
	}
	var s vm.State
	s.PC = int(int64(binary.LittleEndian.Uint64(raw[0:8])))
	s.Halted = raw[8] != 0
	n := binary.LittleEndian.Uint32(raw[16:20])
	off := 20
	s.Stack = make([]vm.Value, n)
	for i := uint32(0); i < n; i++ {
		if off+8 > len(raw) {
			return vm.State{}, fmt.Errorf("meta entry truncated reading stack")
		}
		s.Stack[i] = binary.LittleEndian.Uint64(raw[off : off+8])
		off += 8
	}
	return s, nil
}

func encodeFrames(frames []vm.FrameState) []byte {
	var buf bytes.Buffer
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(frames)))
	buf.Write(hdr[:])
	for _, f := range frames {
		var rpc [8]byte
		binary.LittleEndian.PutUint64(rpc[:], uint64(int64(f.ReturnPC)))
		buf.Write(rpc[:])
		var nlocals [4]byte
		binary.LittleEndian.PutUint32(nlocals[:], uint32(len(f.Locals)))
		buf.Write(nlocals[:])
		for _, v := range f.Locals {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], v)
			buf.Write(b[:])
		}
	}
	return buf.Bytes()
}

func decodeFrames(raw []byte) ([]vm.FrameState, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("frames entry truncated")
	}
	n := binary.LittleEndian.Uint32(raw[0:4])
	off := 4
	frames := make([]vm.FrameState, n)
	for i := uint32(0); i < n; i++ {
		if off+12 > len(raw) {
			return nil, fmt.Errorf("frames entry truncated reading header")
		}
		returnPC := int(int64(binary.LittleEndian.Uint64(raw[off : off+8])))
		off += 8
		nlocals := binary.LittleEndian.Uint32(raw[off : off+4])
		off += 4
		locals := make([]vm.Value, nlocals)
		for j := uint32(0); j < nlocals; j++ {
			if off+8 > len(raw) {
				return nil, fmt.Errorf("frames entry truncated reading locals")
			}
			locals[j] = binary.LittleEndian.Uint64(raw[off : off+8])
			off += 8
		}
		frames[i] = vm.FrameState{ReturnPC: returnPC, Locals: locals}
	}
	return frames, nil
}
