package tracestore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Serialized snapshot layout. The on-disk/shared-memory image is the byte
// image the downstream mutation engine reads: a fixed magic, then the
// header table, then the compare log, then the call log, all little-endian
// with no framing between elements.
const (
	snapshotMagic = "cmptrace\x01"

	headerBytes    = 8  // category + shape + 2 pad + hits
	comparePairLen = 16 // V0 + V1
	callEntryLen   = CallPayloadLen*2 + 2
)

// SnapshotSize is the exact serialized size of a Map in bytes, excluding
// the magic prefix.
const SnapshotSize = SlotCount * (headerBytes + CompareRingLen*comparePairLen + CallRingLen*callEntryLen)

// WriteTo serializes the map in the external binary layout.
//
// The writer side takes no locks; a snapshot taken while probes are
// running is as racy as the map itself, which the downstream consumer
// already tolerates.
func (m *Map) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriterSize(w, 1<<16)
	var n int64

	k, err := bw.WriteString(snapshotMagic)
	n += int64(k)
	if err != nil {
		return n, err
	}

	var buf [comparePairLen]byte
	for i := range m.Headers {
		h := &m.Headers[i]
		buf[0] = byte(h.Category)
		buf[1] = h.Shape
		buf[2], buf[3] = 0, 0
		binary.LittleEndian.PutUint32(buf[4:8], h.Hits)
		k, err = bw.Write(buf[:headerBytes])
		n += int64(k)
		if err != nil {
			return n, err
		}
	}

	for i := range m.CompareLog {
		for j := range m.CompareLog[i] {
			p := &m.CompareLog[i][j]
			binary.LittleEndian.PutUint64(buf[0:8], p.V0)
			binary.LittleEndian.PutUint64(buf[8:16], p.V1)
			k, err = bw.Write(buf[:comparePairLen])
			n += int64(k)
			if err != nil {
				return n, err
			}
		}
	}

	for i := range m.CallLog {
		for j := range m.CallLog[i] {
			e := &m.CallLog[i][j]
			if k, err = bw.Write(e.V0[:]); err != nil {
				return n + int64(k), err
			}
			n += int64(k)
			if k, err = bw.Write(e.V1[:]); err != nil {
				return n + int64(k), err
			}
			n += int64(k)
			buf[0], buf[1] = e.V0Len, e.V1Len
			k, err = bw.Write(buf[:2])
			n += int64(k)
			if err != nil {
				return n, err
			}
		}
	}

	return n, bw.Flush()
}

// ReadFrom replaces the map's contents with a serialized snapshot.
//
// Used by offline tooling (cmd/cmptrace) and tests; the live store is
// never deserialized into while probes are running.
func (m *Map) ReadFrom(r io.Reader) (int64, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	var n int64

	magic := make([]byte, len(snapshotMagic))
	k, err := io.ReadFull(br, magic)
	n += int64(k)
	if err != nil {
		return n, fmt.Errorf("tracestore: reading snapshot magic: %w", err)
	}
	if string(magic) != snapshotMagic {
		return n, fmt.Errorf("tracestore: bad snapshot magic %q", magic)
	}

	var buf [comparePairLen]byte
	for i := range m.Headers {
		k, err = io.ReadFull(br, buf[:headerBytes])
		n += int64(k)
		if err != nil {
			return n, fmt.Errorf("tracestore: reading header %d: %w", i, err)
		}
		m.Headers[i] = Header{
			Category: Category(buf[0]),
			Shape:    buf[1],
			Hits:     binary.LittleEndian.Uint32(buf[4:8]),
		}
	}

	for i := range m.CompareLog {
		for j := range m.CompareLog[i] {
			k, err = io.ReadFull(br, buf[:comparePairLen])
			n += int64(k)
			if err != nil {
				return n, fmt.Errorf("tracestore: reading compare log slot %d: %w", i, err)
			}
			m.CompareLog[i][j] = ComparePair{
				V0: binary.LittleEndian.Uint64(buf[0:8]),
				V1: binary.LittleEndian.Uint64(buf[8:16]),
			}
		}
	}

	for i := range m.CallLog {
		for j := range m.CallLog[i] {
			e := &m.CallLog[i][j]
			if k, err = io.ReadFull(br, e.V0[:]); err != nil {
				return n + int64(k), fmt.Errorf("tracestore: reading call log slot %d: %w", i, err)
			}
			n += int64(k)
			if k, err = io.ReadFull(br, e.V1[:]); err != nil {
				return n + int64(k), fmt.Errorf("tracestore: reading call log slot %d: %w", i, err)
			}
			n += int64(k)
			k, err = io.ReadFull(br, buf[:2])
			n += int64(k)
			if err != nil {
				return n, fmt.Errorf("tracestore: reading call log slot %d: %w", i, err)
			}
			e.V0Len, e.V1Len = buf[0], buf[1]
		}
	}

	return n, nil
}
