package graph

import (
	"testing"

	"github.com/chaingraph/chaingraph/internal/gvalue"
	"github.com/chaingraph/chaingraph/internal/pager"
)

func TestCatalog_PutGetRoundTrip(t *testing.T) {
	pgr := openTestPager(t)
	cat := NewCatalog(pgr)

	schema := NewSchema()
	schema.NodeTypes["Wallet"] = NodeType{
		Label:      "Wallet",
		PrimaryKey: "address",
		Properties: []PropertyDef{{Name: "address", Type: gvalue.TagAddress, Required: true}},
	}
	entry := &CatalogEntry{
		Name:            "chain",
		Schema:          schema,
		VertexStoreRoot: pager.InvalidPageID,
		EdgeStoreRoot:   pager.InvalidPageID,
		LabelIndexRoots: map[uint32]pager.PageID{},
		PKIndexRoots:    map[uint32]pager.PageID{},
		NextVID:         1,
		NextEID:         1,
	}
	if err := cat.Put(entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reloaded, err := LoadCatalog(pgr, cat.Head())
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	got, ok := reloaded.Get("chain")
	if !ok {
		t.Fatalf("graph %q not found after reload", "chain")
	}
	if got.Schema == nil || got.Schema.NodeTypes["Wallet"].PrimaryKey != "address" {
		t.Fatalf("schema not preserved across reload: %+v", got.Schema)
	}
}

func TestCatalog_DropRemovesEntry(t *testing.T) {
	pgr := openTestPager(t)
	cat := NewCatalog(pgr)
	cat.Put(&CatalogEntry{Name: "a", LabelIndexRoots: map[uint32]pager.PageID{}, PKIndexRoots: map[uint32]pager.PageID{}})
	cat.Put(&CatalogEntry{Name: "b", LabelIndexRoots: map[uint32]pager.PageID{}, PKIndexRoots: map[uint32]pager.PageID{}})

	ok, err := cat.Drop("a")
	if err != nil || !ok {
		t.Fatalf("Drop(a) = %v, %v", ok, err)
	}
	if _, exists := cat.Get("a"); exists {
		t.Fatalf("graph a still present after Drop")
	}
	if _, exists := cat.Get("b"); !exists {
		t.Fatalf("graph b missing after unrelated Drop")
	}

	ok, err = cat.Drop("nope")
	if err != nil || ok {
		t.Fatalf("Drop(nope) = %v, %v, want false, nil", ok, err)
	}
}

func TestCatalog_NamesSorted(t *testing.T) {
	pgr := openTestPager(t)
	cat := NewCatalog(pgr)
	cat.Put(&CatalogEntry{Name: "zebra", LabelIndexRoots: map[uint32]pager.PageID{}, PKIndexRoots: map[uint32]pager.PageID{}})
	cat.Put(&CatalogEntry{Name: "alpha", LabelIndexRoots: map[uint32]pager.PageID{}, PKIndexRoots: map[uint32]pager.PageID{}})

	names := cat.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zebra" {
		t.Fatalf("Names() = %v, want [alpha zebra]", names)
	}
}
