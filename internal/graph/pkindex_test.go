package graph

import (
	"testing"

	"github.com/chaingraph/chaingraph/internal/gvalue"
)

func TestPrimaryKeyIndex_InsertLookupRemove(t *testing.T) {
	pgr := openTestPager(t)
	idx := NewPrimaryKeyIndex(pgr)

	addr := gvalue.AddressValue(gvalue.Address{0x01, 0x02})
	if err := idx.Insert(addr, 42); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	vid, ok := idx.Lookup(addr)
	if !ok || vid != 42 {
		t.Fatalf("Lookup = %d, %v, want 42, true", vid, ok)
	}

	if err := idx.Remove(addr); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := idx.Lookup(addr); ok {
		t.Fatalf("key still present after Remove")
	}
}

func TestPrimaryKeyIndex_DuplicateInsertFails(t *testing.T) {
	pgr := openTestPager(t)
	idx := NewPrimaryKeyIndex(pgr)

	key := gvalue.String("0xabc")
	if err := idx.Insert(key, 1); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := idx.Insert(key, 2); err == nil {
		t.Fatalf("expected duplicate-key Insert to fail")
	}
}

func TestPrimaryKeyIndex_PersistsAcrossReload(t *testing.T) {
	pgr := openTestPager(t)
	idx := NewPrimaryKeyIndex(pgr)
	for i := 0; i < 20; i++ {
		key := gvalue.Int64(int64(i))
		if err := idx.Insert(key, uint64(i)+100); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	reloaded, err := LoadPrimaryKeyIndex(pgr, idx.Head())
	if err != nil {
		t.Fatalf("LoadPrimaryKeyIndex: %v", err)
	}
	for i := 0; i < 20; i++ {
		vid, ok := reloaded.Lookup(gvalue.Int64(int64(i)))
		if !ok || vid != uint64(i)+100 {
			t.Fatalf("reloaded Lookup(%d) = %d, %v", i, vid, ok)
		}
	}
}
