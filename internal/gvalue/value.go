// Package gvalue implements the property value tagged union shared by
// vertex and edge records, query bindings, and the GQL expression
// evaluator (spec §3 "Property value").
package gvalue

import (
	"fmt"
	"math/big"
)

// Tag identifies the concrete type carried by a Value.
type Tag uint8

const (
	TagNull Tag = iota
	TagBool
	TagInt64
	TagUint64
	TagFloat64
	TagString
	TagAddress   // 20-byte on-chain address
	TagTxHash    // 32-byte transaction hash
	TagAmount    // 256-bit unsigned integer
	TagTimestamp // int64, unix seconds
	TagBytes
	TagList
	TagMap
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagInt64:
		return "int64"
	case TagUint64:
		return "uint64"
	case TagFloat64:
		return "float64"
	case TagString:
		return "string"
	case TagAddress:
		return "address"
	case TagTxHash:
		return "txhash"
	case TagAmount:
		return "amount"
	case TagTimestamp:
		return "timestamp"
	case TagBytes:
		return "bytes"
	case TagList:
		return "list"
	case TagMap:
		return "map"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Address is a 20-byte on-chain account address.
type Address [20]byte

// TxHash is a 32-byte transaction hash.
type TxHash [32]byte

// Value is a single tagged property value. The zero Value is TagNull.
type Value struct {
	tag    Tag
	b      bool
	i      int64
	u      uint64
	f      float64
	s      string
	addr   Address
	txhash TxHash
	amount *big.Int
	bytes  []byte
	list   []Value
	m      map[string]Value
}

// Tag returns the value's type tag.
func (v Value) Tag() Tag { return v.tag }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.tag == TagNull }

func Null() Value { return Value{tag: TagNull} }

func Bool(b bool) Value { return Value{tag: TagBool, b: b} }

func Int64(i int64) Value { return Value{tag: TagInt64, i: i} }

func Uint64(u uint64) Value { return Value{tag: TagUint64, u: u} }

func Float64(f float64) Value { return Value{tag: TagFloat64, f: f} }

func String(s string) Value { return Value{tag: TagString, s: s} }

func AddressValue(a Address) Value { return Value{tag: TagAddress, addr: a} }

func TxHashValue(h TxHash) Value { return Value{tag: TagTxHash, txhash: h} }

// AmountValue wraps a 256-bit unsigned integer. The value is not range
// checked here; only the codec's encoding bounds it to 256 bits.
func AmountValue(a *big.Int) Value {
	if a == nil {
		a = new(big.Int)
	}
	return Value{tag: TagAmount, amount: new(big.Int).Set(a)}
}

func Timestamp(unixSeconds int64) Value { return Value{tag: TagTimestamp, i: unixSeconds} }

func Bytes(b []byte) Value { return Value{tag: TagBytes, bytes: append([]byte{}, b...)} }

func List(vs []Value) Value { return Value{tag: TagList, list: vs} }

func Map(m map[string]Value) Value { return Value{tag: TagMap, m: m} }

// AsBool returns the boolean payload. Caller must check Tag() == TagBool.
func (v Value) AsBool() bool { return v.b }

// AsInt64 returns the int64 payload (also used by TagTimestamp).
func (v Value) AsInt64() int64 { return v.i }

// AsUint64 returns the uint64 payload.
func (v Value) AsUint64() uint64 { return v.u }

// AsFloat64 returns the float64 payload.
func (v Value) AsFloat64() float64 { return v.f }

// AsString returns the string payload.
func (v Value) AsString() string { return v.s }

// AsAddress returns the address payload.
func (v Value) AsAddress() Address { return v.addr }

// AsTxHash returns the transaction hash payload.
func (v Value) AsTxHash() TxHash { return v.txhash }

// AsAmount returns the amount payload as a *big.Int. The returned pointer
// must not be mutated by the caller.
func (v Value) AsAmount() *big.Int {
	if v.amount == nil {
		return new(big.Int)
	}
	return v.amount
}

// AsBytes returns the byte-string payload.
func (v Value) AsBytes() []byte { return v.bytes }

// AsList returns the list payload.
func (v Value) AsList() []Value { return v.list }

// AsMap returns the map payload.
func (v Value) AsMap() map[string]Value { return v.m }

// TypeName returns the GQL-facing type name for this value's tag, used in
// error messages and DESCRIBE output.
func (v Value) TypeName() string { return v.tag.String() }
