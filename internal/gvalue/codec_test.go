package gvalue

import (
	"math/big"
	"testing"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	buf := Encode(nil, v)
	got, n, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
	return got
}

func TestCodec_ScalarRoundTrip(t *testing.T) {
	cases := []Value{
		Null(),
		Bool(true),
		Bool(false),
		Int64(-42),
		Uint64(42),
		Float64(3.5),
		String("hello, chaingraph"),
		Timestamp(1_700_000_000),
		Bytes([]byte{0xde, 0xad, 0xbe, 0xef}),
	}
	for _, v := range cases {
		got := roundTrip(t, v)
		eq, err := Equal(got, v)
		if err != nil {
			t.Fatalf("Equal(%v): %v", v, err)
		}
		if !eq {
			t.Fatalf("roundtrip mismatch: got %v, want %v", got.Native(), v.Native())
		}
	}
}

func TestCodec_AddressAndTxHash(t *testing.T) {
	var addr Address
	for i := range addr {
		addr[i] = byte(i)
	}
	got := roundTrip(t, AddressValue(addr))
	if got.AsAddress() != addr {
		t.Fatalf("address roundtrip mismatch")
	}

	var hash TxHash
	for i := range hash {
		hash[i] = byte(255 - i)
	}
	got2 := roundTrip(t, TxHashValue(hash))
	if got2.AsTxHash() != hash {
		t.Fatalf("txhash roundtrip mismatch")
	}
}

func TestCodec_Amount(t *testing.T) {
	big256, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	if !ok {
		t.Fatal("bad test constant")
	}
	got := roundTrip(t, AmountValue(big256))
	if got.AsAmount().Cmp(big256) != 0 {
		t.Fatalf("amount roundtrip mismatch: got %s, want %s", got.AsAmount(), big256)
	}

	zero := roundTrip(t, AmountValue(new(big.Int)))
	if zero.AsAmount().Sign() != 0 {
		t.Fatalf("zero amount roundtrip = %s, want 0", zero.AsAmount())
	}
}

func TestCodec_ListAndMap(t *testing.T) {
	list := List([]Value{Int64(1), String("two"), Bool(true)})
	got := roundTrip(t, list)
	if len(got.AsList()) != 3 {
		t.Fatalf("list length = %d, want 3", len(got.AsList()))
	}

	m := Map(map[string]Value{
		"a": Int64(1),
		"b": List([]Value{String("nested")}),
	})
	gotM := roundTrip(t, m)
	eq, err := Equal(gotM, m)
	if err != nil {
		t.Fatalf("Equal: %v", err)
	}
	if !eq {
		t.Fatalf("map roundtrip mismatch: got %v, want %v", gotM.Native(), m.Native())
	}
}

func TestCodec_DecodeTruncatedBuffer(t *testing.T) {
	buf := Encode(nil, String("truncate me"))
	if _, _, err := Decode(buf[:len(buf)-1]); err == nil {
		t.Fatal("expected an error decoding a truncated string payload")
	}
}

func TestCodec_DecodeUnknownTag(t *testing.T) {
	if _, _, err := Decode([]byte{0xff}); err == nil {
		t.Fatal("expected an error for an unknown tag byte")
	}
}
