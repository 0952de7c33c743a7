package graph

import (
	"fmt"

	"github.com/chaingraph/chaingraph/internal/gvalue"
)

// Edge is one directed edge record (spec §3 "Edge").
type Edge struct {
	EID        uint64
	LabelID    uint32
	SourceVID  uint64
	TargetVID  uint64
	Properties map[uint32]gvalue.Value
}

// EncodeEdge serializes e into its on-disk record body (spec §4.3).
func EncodeEdge(e *Edge) []byte {
	buf := make([]byte, 0, 48+len(e.Properties)*16)
	buf = appendU64(buf, e.EID)
	buf = appendU32(buf, e.LabelID)
	buf = appendU64(buf, e.SourceVID)
	buf = appendU64(buf, e.TargetVID)
	buf = appendU32(buf, uint32(len(e.Properties)))
	for _, pid := range sortedPropertyIDs(e.Properties) {
		buf = appendU32(buf, pid)
		buf = gvalue.Encode(buf, e.Properties[pid])
	}
	return buf
}

// DecodeEdge parses an edge record body produced by EncodeEdge.
func DecodeEdge(buf []byte) (*Edge, error) {
	if len(buf) < 8+4+8+8+4 {
		return nil, fmt.Errorf("edge record too short: %d bytes", len(buf))
	}
	e := &Edge{Properties: map[uint32]gvalue.Value{}}
	off := 0
	e.EID, off = readU64(buf, off)
	e.LabelID, off = readU32(buf, off)
	e.SourceVID, off = readU64(buf, off)
	e.TargetVID, off = readU64(buf, off)
	var count uint32
	count, off = readU32(buf, off)
	for i := uint32(0); i < count; i++ {
		var pid uint32
		pid, off = readU32(buf, off)
		val, n, err := gvalue.Decode(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("edge %d property %d: %w", e.EID, pid, err)
		}
		off += n
		e.Properties[pid] = val
	}
	return e, nil
}
