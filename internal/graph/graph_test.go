package graph

import (
	"math/big"
	"testing"

	"github.com/chaingraph/chaingraph/internal/gvalue"
	"github.com/chaingraph/chaingraph/internal/pager"
)

func newTestGraph(t *testing.T, name string, schema *Schema) (*pager.Pager, *Catalog, *Graph) {
	t.Helper()
	pgr := openTestPager(t)
	cat := NewCatalog(pgr)
	g, err := CreateGraph(pgr, cat, name, schema)
	if err != nil {
		t.Fatalf("CreateGraph: %v", err)
	}
	return pgr, cat, g
}

func TestGraph_CreateAndGetVertex(t *testing.T) {
	_, _, g := newTestGraph(t, "chain", nil)

	vid, err := g.CreateVertex("Wallet", nil, map[string]gvalue.Value{
		"label": gvalue.String("cold-storage"),
	})
	if err != nil {
		t.Fatalf("CreateVertex: %v", err)
	}

	v, _, err := g.GetVertex(vid)
	if err != nil {
		t.Fatalf("GetVertex: %v", err)
	}
	name, _ := g.vertexLabels.Name(v.LabelID)
	if name != "Wallet" {
		t.Fatalf("label = %q, want Wallet", name)
	}
}

func TestGraph_CreateEdgeLinksAdjacency(t *testing.T) {
	_, _, g := newTestGraph(t, "chain", nil)

	a, err := g.CreateVertex("Wallet", nil, nil)
	if err != nil {
		t.Fatalf("CreateVertex a: %v", err)
	}
	b, err := g.CreateVertex("Wallet", nil, nil)
	if err != nil {
		t.Fatalf("CreateVertex b: %v", err)
	}

	eid, err := g.CreateEdge("SENT", a, b, map[string]gvalue.Value{
		"amount": gvalue.AmountValue(big.NewInt(1000)),
	})
	if err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	av, _, err := g.GetVertex(a)
	if err != nil {
		t.Fatalf("GetVertex a: %v", err)
	}
	if av.OutHead == pager.InvalidPageID {
		t.Fatalf("source vertex has no out-adjacency after CreateEdge")
	}
	var gotEid uint64
	g.adj.Iterate(av.OutHead, func(neighborVID, e uint64) bool {
		if neighborVID == b {
			gotEid = e
		}
		return true
	})
	if gotEid != eid {
		t.Fatalf("out-adjacency eid = %d, want %d", gotEid, eid)
	}

	bv, _, err := g.GetVertex(b)
	if err != nil {
		t.Fatalf("GetVertex b: %v", err)
	}
	if bv.InHead == pager.InvalidPageID {
		t.Fatalf("target vertex has no in-adjacency after CreateEdge")
	}
}

func TestGraph_DeleteVertexRefusesWithIncidentEdges(t *testing.T) {
	_, _, g := newTestGraph(t, "chain", nil)

	a, _ := g.CreateVertex("Wallet", nil, nil)
	b, _ := g.CreateVertex("Wallet", nil, nil)
	if _, err := g.CreateEdge("SENT", a, b, nil); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	if err := g.DeleteVertex(a, false); err == nil {
		t.Fatalf("expected DeleteVertex without DETACH to fail on a vertex with incident edges")
	}
	if err := g.DeleteVertex(a, true); err != nil {
		t.Fatalf("DeleteVertex with DETACH: %v", err)
	}
	if _, _, err := g.GetVertex(a); err == nil {
		t.Fatalf("vertex a still present after DETACH DELETE")
	}
	if _, _, err := g.GetVertex(b); err != nil {
		t.Fatalf("vertex b should survive detaching a's edges: %v", err)
	}
}

func TestGraph_DeleteEdgeUnlinksBothSides(t *testing.T) {
	_, _, g := newTestGraph(t, "chain", nil)

	a, _ := g.CreateVertex("Wallet", nil, nil)
	b, _ := g.CreateVertex("Wallet", nil, nil)
	eid, err := g.CreateEdge("SENT", a, b, nil)
	if err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	if err := g.DeleteEdge(eid); err != nil {
		t.Fatalf("DeleteEdge: %v", err)
	}

	av, _, _ := g.GetVertex(a)
	bv, _, _ := g.GetVertex(b)
	if av.OutHead != pager.InvalidPageID {
		t.Fatalf("source still has out-adjacency after DeleteEdge")
	}
	if bv.InHead != pager.InvalidPageID {
		t.Fatalf("target still has in-adjacency after DeleteEdge")
	}
}

func TestGraph_SchemaRejectsUnknownSourceLabel(t *testing.T) {
	schema := NewSchema()
	schema.EdgeTypes["SENT"] = EdgeType{
		Label:        "SENT",
		SourceLabels: []string{"Exchange"},
	}
	_, _, g := newTestGraph(t, "chain", schema)

	a, _ := g.CreateVertex("Wallet", nil, nil)
	b, _ := g.CreateVertex("Wallet", nil, nil)
	if _, err := g.CreateEdge("SENT", a, b, nil); err == nil {
		t.Fatalf("expected schema violation for disallowed source label")
	}
}

func TestGraph_PrimaryKeyCollisionRejected(t *testing.T) {
	schema := NewSchema()
	schema.NodeTypes["Wallet"] = NodeType{
		Label:      "Wallet",
		PrimaryKey: "address",
		Properties: []PropertyDef{{Name: "address", Type: gvalue.TagAddress}},
	}
	_, _, g := newTestGraph(t, "chain", schema)

	addr := gvalue.Address{0xAA}
	if _, err := g.CreateVertex("Wallet", nil, map[string]gvalue.Value{"address": gvalue.AddressValue(addr)}); err != nil {
		t.Fatalf("first CreateVertex: %v", err)
	}
	if _, err := g.CreateVertex("Wallet", nil, map[string]gvalue.Value{"address": gvalue.AddressValue(addr)}); err == nil {
		t.Fatalf("expected CONSTRAINT_VIOLATION on duplicate primary key")
	}
}

func TestOpenGraph_PreservesStateAcrossReload(t *testing.T) {
	pgr, cat, g := newTestGraph(t, "chain", nil)
	vid, err := g.CreateVertex("Wallet", nil, map[string]gvalue.Value{"label": gvalue.String("x")})
	if err != nil {
		t.Fatalf("CreateVertex: %v", err)
	}

	reopened, err := OpenGraph(pgr, cat, "chain")
	if err != nil {
		t.Fatalf("OpenGraph: %v", err)
	}
	v, _, err := reopened.GetVertex(vid)
	if err != nil {
		t.Fatalf("GetVertex after reopen: %v", err)
	}
	if v.VID != vid {
		t.Fatalf("vid = %d, want %d", v.VID, vid)
	}
}

func TestDropGraph_RemovesCatalogEntry(t *testing.T) {
	pgr, cat, g := newTestGraph(t, "chain", nil)
	g.CreateVertex("Wallet", nil, nil)

	if err := DropGraph(pgr, cat, "chain"); err != nil {
		t.Fatalf("DropGraph: %v", err)
	}
	if _, exists := cat.Get("chain"); exists {
		t.Fatalf("graph still present after DropGraph")
	}
}
