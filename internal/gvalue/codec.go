package gvalue

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"sort"
)

// Encoding (spec §3): a one-byte tag followed by a tag-specific payload —
// fixed width for scalars, length-prefixed (uint32 LE) for
// strings/bytes/containers. Amount is always exactly 32 bytes, big-endian,
// unsigned.

const amountWidth = 32

// Encode appends the canonical byte encoding of v to dst and returns the
// result. This is also the canonical form used as a primary-key index key
// (spec §4.4).
func Encode(dst []byte, v Value) []byte {
	dst = append(dst, byte(v.tag))
	switch v.tag {
	case TagNull:
		// no payload
	case TagBool:
		if v.b {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	case TagInt64, TagTimestamp:
		dst = appendUint64(dst, uint64(v.i))
	case TagUint64:
		dst = appendUint64(dst, v.u)
	case TagFloat64:
		dst = appendUint64(dst, math.Float64bits(v.f))
	case TagString:
		dst = appendLenPrefixed(dst, []byte(v.s))
	case TagAddress:
		dst = append(dst, v.addr[:]...)
	case TagTxHash:
		dst = append(dst, v.txhash[:]...)
	case TagAmount:
		dst = append(dst, amountBytes(v.AsAmount())...)
	case TagBytes:
		dst = appendLenPrefixed(dst, v.bytes)
	case TagList:
		dst = appendUint32(dst, uint32(len(v.list)))
		for _, e := range v.list {
			dst = Encode(dst, e)
		}
	case TagMap:
		dst = appendUint32(dst, uint32(len(v.m)))
		for _, k := range sortedKeys(v.m) {
			dst = appendLenPrefixed(dst, []byte(k))
			dst = Encode(dst, v.m[k])
		}
	}
	return dst
}

// Decode reads one encoded Value from buf, returning the value and the
// number of bytes consumed.
func Decode(buf []byte) (Value, int, error) {
	if len(buf) < 1 {
		return Value{}, 0, fmt.Errorf("gvalue: empty buffer")
	}
	tag := Tag(buf[0])
	off := 1
	switch tag {
	case TagNull:
		return Null(), off, nil
	case TagBool:
		if off >= len(buf) {
			return Value{}, 0, errShort(tag)
		}
		return Bool(buf[off] != 0), off + 1, nil
	case TagInt64:
		u, n, err := readUint64(buf[off:])
		if err != nil {
			return Value{}, 0, err
		}
		return Int64(int64(u)), off + n, nil
	case TagTimestamp:
		u, n, err := readUint64(buf[off:])
		if err != nil {
			return Value{}, 0, err
		}
		return Timestamp(int64(u)), off + n, nil
	case TagUint64:
		u, n, err := readUint64(buf[off:])
		if err != nil {
			return Value{}, 0, err
		}
		return Uint64(u), off + n, nil
	case TagFloat64:
		u, n, err := readUint64(buf[off:])
		if err != nil {
			return Value{}, 0, err
		}
		return Float64(math.Float64frombits(u)), off + n, nil
	case TagString:
		b, n, err := readLenPrefixed(buf[off:])
		if err != nil {
			return Value{}, 0, err
		}
		return String(string(b)), off + n, nil
	case TagAddress:
		if len(buf[off:]) < 20 {
			return Value{}, 0, errShort(tag)
		}
		var a Address
		copy(a[:], buf[off:off+20])
		return AddressValue(a), off + 20, nil
	case TagTxHash:
		if len(buf[off:]) < 32 {
			return Value{}, 0, errShort(tag)
		}
		var h TxHash
		copy(h[:], buf[off:off+32])
		return TxHashValue(h), off + 32, nil
	case TagAmount:
		if len(buf[off:]) < amountWidth {
			return Value{}, 0, errShort(tag)
		}
		amt := new(big.Int).SetBytes(buf[off : off+amountWidth])
		return AmountValue(amt), off + amountWidth, nil
	case TagBytes:
		b, n, err := readLenPrefixed(buf[off:])
		if err != nil {
			return Value{}, 0, err
		}
		return Bytes(b), off + n, nil
	case TagList:
		count, n, err := readUint32(buf[off:])
		if err != nil {
			return Value{}, 0, err
		}
		off += n
		list := make([]Value, 0, count)
		for i := uint32(0); i < count; i++ {
			elem, n, err := Decode(buf[off:])
			if err != nil {
				return Value{}, 0, err
			}
			list = append(list, elem)
			off += n
		}
		return List(list), off, nil
	case TagMap:
		count, n, err := readUint32(buf[off:])
		if err != nil {
			return Value{}, 0, err
		}
		off += n
		m := make(map[string]Value, count)
		for i := uint32(0); i < count; i++ {
			key, n, err := readLenPrefixed(buf[off:])
			if err != nil {
				return Value{}, 0, err
			}
			off += n
			val, n, err := Decode(buf[off:])
			if err != nil {
				return Value{}, 0, err
			}
			off += n
			m[string(key)] = val
		}
		return Map(m), off, nil
	default:
		return Value{}, 0, fmt.Errorf("gvalue: unknown tag 0x%02x", byte(tag))
	}
}

// amountBytes renders a as a fixed amountWidth-byte big-endian unsigned
// integer, truncating silently if it somehow exceeds 256 bits (the GQL
// layer is responsible for range-checking amount literals).
func amountBytes(a *big.Int) []byte {
	out := make([]byte, amountWidth)
	b := a.Bytes()
	if len(b) > amountWidth {
		b = b[len(b)-amountWidth:]
	}
	copy(out[amountWidth-len(b):], b)
	return out
}

func appendUint64(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

func appendUint32(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

func appendLenPrefixed(dst []byte, b []byte) []byte {
	dst = appendUint32(dst, uint32(len(b)))
	return append(dst, b...)
}

func readUint64(buf []byte) (uint64, int, error) {
	if len(buf) < 8 {
		return 0, 0, fmt.Errorf("gvalue: short buffer for uint64")
	}
	return binary.LittleEndian.Uint64(buf[:8]), 8, nil
}

func readUint32(buf []byte) (uint32, int, error) {
	if len(buf) < 4 {
		return 0, 0, fmt.Errorf("gvalue: short buffer for uint32")
	}
	return binary.LittleEndian.Uint32(buf[:4]), 4, nil
}

func readLenPrefixed(buf []byte) ([]byte, int, error) {
	n, off, err := readUint32(buf)
	if err != nil {
		return nil, 0, err
	}
	if len(buf[off:]) < int(n) {
		return nil, 0, fmt.Errorf("gvalue: length-prefixed payload truncated")
	}
	return buf[off : off+int(n)], off + int(n), nil
}

func errShort(tag Tag) error {
	return fmt.Errorf("gvalue: short buffer decoding %s", tag)
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
