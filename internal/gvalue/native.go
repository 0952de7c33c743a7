package gvalue

import (
	"encoding/hex"
	"fmt"
)

// Native converts v into a plain Go value (nil, bool, int64, uint64,
// float64, string, or nested []any / map[string]any) suitable for
// json.Marshal or yaml.Marshal — used by DESCRIBE/SHOW output and result
// row serialization. Address, TxHash, and Amount render as their
// human-readable string forms rather than raw bytes.
func (v Value) Native() any {
	switch v.tag {
	case TagNull:
		return nil
	case TagBool:
		return v.b
	case TagInt64:
		return v.i
	case TagUint64:
		return v.u
	case TagFloat64:
		return v.f
	case TagString:
		return v.s
	case TagAddress:
		return "0x" + hex.EncodeToString(v.addr[:])
	case TagTxHash:
		return "0x" + hex.EncodeToString(v.txhash[:])
	case TagAmount:
		return v.AsAmount().String()
	case TagTimestamp:
		return v.i
	case TagBytes:
		return "0x" + hex.EncodeToString(v.bytes)
	case TagList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Native()
		}
		return out
	case TagMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.Native()
		}
		return out
	default:
		return fmt.Sprintf("<unknown gvalue tag %s>", v.tag)
	}
}

// String renders v for display in error messages, EXPLAIN output, and logs.
func (v Value) String() string {
	switch v.tag {
	case TagNull:
		return "null"
	case TagString:
		return fmt.Sprintf("%q", v.s)
	default:
		return fmt.Sprintf("%v", v.Native())
	}
}
