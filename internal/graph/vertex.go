package graph

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/chaingraph/chaingraph/internal/gvalue"
	"github.com/chaingraph/chaingraph/internal/pager"
)

// RecordRef locates a record within a store: the page it lives on and its
// slot index on that page.
type RecordRef struct {
	Page pager.PageID
	Slot int
}

// Vertex is one node record (spec §3 "Vertex").
type Vertex struct {
	VID        uint64
	LabelID    uint32
	HasAddress bool
	Address    gvalue.Address
	Properties map[uint32]gvalue.Value // property-key id -> value
	OutHead    pager.PageID            // head of the outgoing adjacency chain
	InHead     pager.PageID            // head of the incoming adjacency chain
}

// EncodeVertex serializes v into its on-disk record body (spec §4.3).
func EncodeVertex(v *Vertex) []byte {
	buf := make([]byte, 0, 64+len(v.Properties)*16)
	buf = appendU64(buf, v.VID)
	buf = appendU32(buf, v.LabelID)
	if v.HasAddress {
		buf = append(buf, 1)
		buf = append(buf, v.Address[:]...)
	} else {
		buf = append(buf, 0)
		buf = append(buf, make([]byte, 20)...)
	}
	buf = appendU64(buf, uint64(v.OutHead))
	buf = appendU64(buf, uint64(v.InHead))
	buf = appendU32(buf, uint32(len(v.Properties)))
	for _, pid := range sortedPropertyIDs(v.Properties) {
		buf = appendU32(buf, pid)
		buf = gvalue.Encode(buf, v.Properties[pid])
	}
	return buf
}

// DecodeVertex parses a vertex record body produced by EncodeVertex.
func DecodeVertex(buf []byte) (*Vertex, error) {
	if len(buf) < 8+4+1+20+8+8+4 {
		return nil, fmt.Errorf("vertex record too short: %d bytes", len(buf))
	}
	v := &Vertex{Properties: map[uint32]gvalue.Value{}}
	off := 0
	v.VID, off = readU64(buf, off)
	var labelID uint32
	labelID, off = readU32(buf, off)
	v.LabelID = labelID
	hasAddr := buf[off] != 0
	off++
	v.HasAddress = hasAddr
	copy(v.Address[:], buf[off:off+20])
	off += 20
	var outHead, inHead uint64
	outHead, off = readU64(buf, off)
	inHead, off = readU64(buf, off)
	v.OutHead = pager.PageID(outHead)
	v.InHead = pager.PageID(inHead)
	var count uint32
	count, off = readU32(buf, off)
	for i := uint32(0); i < count; i++ {
		var pid uint32
		pid, off = readU32(buf, off)
		val, n, err := gvalue.Decode(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("vertex %d property %d: %w", v.VID, pid, err)
		}
		off += n
		v.Properties[pid] = val
	}
	return v, nil
}

func appendU64(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

func appendU32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func readU64(buf []byte, off int) (uint64, int) {
	return binary.LittleEndian.Uint64(buf[off:]), off + 8
}

func readU32(buf []byte, off int) (uint32, int) {
	return binary.LittleEndian.Uint32(buf[off:]), off + 4
}

func sortedPropertyIDs(m map[uint32]gvalue.Value) []uint32 {
	out := make([]uint32, 0, len(m))
	for pid := range m {
		out = append(out, pid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
