package graph

import (
	"strconv"
	"testing"
)

func TestDictionary_InternIsIdempotent(t *testing.T) {
	pgr := openTestPager(t)
	d := NewDictionary(pgr)

	id1, err := d.Intern("Wallet")
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	id2, err := d.Intern("Wallet")
	if err != nil {
		t.Fatalf("Intern again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("Intern(Wallet) returned %d then %d, want same id", id1, id2)
	}

	name, ok := d.Name(id1)
	if !ok || name != "Wallet" {
		t.Fatalf("Name(%d) = %q, %v, want Wallet, true", id1, name, ok)
	}
}

func TestDictionary_PersistsAcrossReload(t *testing.T) {
	pgr := openTestPager(t)
	d := NewDictionary(pgr)

	ids := map[string]uint32{}
	for _, name := range []string{"Wallet", "Contract", "SENT", "APPROVED"} {
		id, err := d.Intern(name)
		if err != nil {
			t.Fatalf("Intern(%s): %v", name, err)
		}
		ids[name] = id
	}

	reloaded, err := LoadDictionary(pgr, d.Head())
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}
	for name, want := range ids {
		got, ok := reloaded.Lookup(name)
		if !ok || got != want {
			t.Fatalf("reloaded Lookup(%s) = %d, %v, want %d, true", name, got, ok, want)
		}
	}

	nextID, err := reloaded.Intern("NewLabel")
	if err != nil {
		t.Fatalf("Intern(NewLabel) after reload: %v", err)
	}
	for _, used := range ids {
		if nextID == used {
			t.Fatalf("newly interned id %d collides with existing id", nextID)
		}
	}
}

func TestDictionary_ManyEntriesSpanMultiplePages(t *testing.T) {
	pgr := openTestPager(t)
	d := NewDictionary(pgr)
	for i := 0; i < 500; i++ {
		if _, err := d.Intern(longName(i)); err != nil {
			t.Fatalf("Intern %d: %v", i, err)
		}
	}
	reloaded, err := LoadDictionary(pgr, d.Head())
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}
	if len(reloaded.Names()) != 500 {
		t.Fatalf("reloaded has %d names, want 500", len(reloaded.Names()))
	}
}

func longName(i int) string {
	const pad = "property-key-name-padding-to-force-chain-growth-"
	return pad + strconv.Itoa(i)
}
