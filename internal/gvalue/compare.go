package gvalue

import (
	"bytes"
	"fmt"
)

// ErrIncomparable is returned when two values of different tags are
// compared or ordered (spec §3: "cross-tag comparisons fail at plan
// time").
type ErrIncomparable struct {
	A, B Tag
}

func (e *ErrIncomparable) Error() string {
	return fmt.Sprintf("cannot compare %s and %s", e.A, e.B)
}

// Equal reports whether a and b carry the same tag and payload.
func Equal(a, b Value) (bool, error) {
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

// Compare orders a and b, returning <0, 0, or >0. Lists and maps are not
// errors to compare, but map comparison only ever yields 0 (equal) or a
// non-zero placeholder — maps have no natural total order, so callers
// needing a stable sort key should compare by an explicit property
// instead.
func Compare(a, b Value) (int, error) {
	if a.tag != b.tag {
		if a.tag == TagNull || b.tag == TagNull {
			return compareNull(a, b), nil
		}
		return 0, &ErrIncomparable{A: a.tag, B: b.tag}
	}
	switch a.tag {
	case TagNull:
		return 0, nil
	case TagBool:
		return compareBool(a.b, b.b), nil
	case TagInt64, TagTimestamp:
		return compareInt64(a.i, b.i), nil
	case TagUint64:
		return compareUint64(a.u, b.u), nil
	case TagFloat64:
		return compareFloat64(a.f, b.f), nil
	case TagString:
		return compareBytes([]byte(a.s), []byte(b.s)), nil
	case TagAddress:
		return compareBytes(a.addr[:], b.addr[:]), nil
	case TagTxHash:
		return compareBytes(a.txhash[:], b.txhash[:]), nil
	case TagAmount:
		return a.AsAmount().Cmp(b.AsAmount()), nil
	case TagBytes:
		return compareBytes(a.bytes, b.bytes), nil
	case TagList:
		return compareLists(a.list, b.list)
	case TagMap:
		return compareMaps(a.m, b.m)
	default:
		return 0, fmt.Errorf("gvalue: unknown tag %s", a.tag)
	}
}

// compareNull orders null before any non-null value and treats two nulls
// as equal; it is only ever called when exactly one side (or both) is null.
func compareNull(a, b Value) int {
	switch {
	case a.tag == TagNull && b.tag == TagNull:
		return 0
	case a.tag == TagNull:
		return -1
	default:
		return 1
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBytes(a, b []byte) int { return bytes.Compare(a, b) }

func compareLists(a, b []Value) (int, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c, err := Compare(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return compareInt64(int64(len(a)), int64(len(b))), nil
}

func compareMaps(a, b map[string]Value) (int, error) {
	if len(a) != len(b) {
		return compareInt64(int64(len(a)), int64(len(b))), nil
	}
	for _, k := range sortedKeys(a) {
		bv, ok := b[k]
		if !ok {
			return 1, nil
		}
		c, err := Compare(a[k], bv)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}
