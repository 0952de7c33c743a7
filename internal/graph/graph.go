package graph

import (
	"fmt"
	"sync"

	"github.com/chaingraph/chaingraph/internal/gvalue"
	"github.com/chaingraph/chaingraph/internal/pager"
)

// Graph ties together one named graph's dictionaries, stores, indexes, and
// adjacency chains, and implements the vertex/edge lifecycle operations
// (spec §3 "Lifecycles", §4.4, §4.5).
type Graph struct {
	mu sync.RWMutex

	pgr   *pager.Pager
	cat   *Catalog
	entry *CatalogEntry

	vertexLabels *Dictionary
	edgeLabels   *Dictionary
	propKeys     *Dictionary

	vertices *Store
	edges    *Store

	labelIndex *LabelIndex
	pkIndexes  map[uint32]*PrimaryKeyIndex // vertex label id -> index

	adj *AdjacencyManager
}

// CreateGraph registers a new, empty named graph in cat, optionally with an
// inline schema. Returns an error if name already exists.
func CreateGraph(pgr *pager.Pager, cat *Catalog, name string, schema *Schema) (*Graph, error) {
	if _, exists := cat.Get(name); exists {
		return nil, fmt.Errorf("graph %q already exists", name)
	}
	entry := &CatalogEntry{
		Name:            name,
		Schema:          schema,
		VertexLabelDict: pager.InvalidPageID,
		EdgeLabelDict:   pager.InvalidPageID,
		PropKeyDict:     pager.InvalidPageID,
		VertexStoreRoot: pager.InvalidPageID,
		EdgeStoreRoot:   pager.InvalidPageID,
		LabelIndexRoots: map[uint32]pager.PageID{},
		PKIndexRoots:    map[uint32]pager.PageID{},
		NextVID:         1,
		NextEID:         1,
	}
	if err := cat.Put(entry); err != nil {
		return nil, err
	}
	return &Graph{
		pgr:          pgr,
		cat:          cat,
		entry:        entry,
		vertexLabels: NewDictionary(pgr),
		edgeLabels:   NewDictionary(pgr),
		propKeys:     NewDictionary(pgr),
		vertices:     NewStore(pgr, pager.PageKindVertex),
		edges:        NewStore(pgr, pager.PageKindEdge),
		labelIndex:   NewLabelIndex(pgr),
		pkIndexes:    map[uint32]*PrimaryKeyIndex{},
		adj:          NewAdjacencyManager(pgr),
	}, nil
}

// OpenGraph loads an existing named graph from cat.
func OpenGraph(pgr *pager.Pager, cat *Catalog, name string) (*Graph, error) {
	entry, ok := cat.Get(name)
	if !ok {
		return nil, fmt.Errorf("graph %q does not exist", name)
	}

	vertexLabels, err := LoadDictionary(pgr, entry.VertexLabelDict)
	if err != nil {
		return nil, fmt.Errorf("load vertex label dictionary: %w", err)
	}
	edgeLabels, err := LoadDictionary(pgr, entry.EdgeLabelDict)
	if err != nil {
		return nil, fmt.Errorf("load edge label dictionary: %w", err)
	}
	propKeys, err := LoadDictionary(pgr, entry.PropKeyDict)
	if err != nil {
		return nil, fmt.Errorf("load property key dictionary: %w", err)
	}
	vertices, err := OpenStore(pgr, pager.PageKindVertex, entry.VertexStoreRoot)
	if err != nil {
		return nil, fmt.Errorf("open vertex store: %w", err)
	}
	edges, err := OpenStore(pgr, pager.PageKindEdge, entry.EdgeStoreRoot)
	if err != nil {
		return nil, fmt.Errorf("open edge store: %w", err)
	}
	labelIndex, err := LoadLabelIndex(pgr, entry.LabelIndexRoots)
	if err != nil {
		return nil, fmt.Errorf("load label index: %w", err)
	}
	pkIndexes := map[uint32]*PrimaryKeyIndex{}
	for labelID, root := range entry.PKIndexRoots {
		idx, err := LoadPrimaryKeyIndex(pgr, root)
		if err != nil {
			return nil, fmt.Errorf("load primary key index for label %d: %w", labelID, err)
		}
		pkIndexes[labelID] = idx
	}

	return &Graph{
		pgr:          pgr,
		cat:          cat,
		entry:        entry,
		vertexLabels: vertexLabels,
		edgeLabels:   edgeLabels,
		propKeys:     propKeys,
		vertices:     vertices,
		edges:        edges,
		labelIndex:   labelIndex,
		pkIndexes:    pkIndexes,
		adj:          NewAdjacencyManager(pgr),
	}, nil
}

// DropGraph removes name and every page it roots: vertex and edge store
// pages, every adjacency chain reachable from a vertex, and the graph's
// dictionary/index chains.
func DropGraph(pgr *pager.Pager, cat *Catalog, name string) error {
	g, err := OpenGraph(pgr, cat, name)
	if err != nil {
		return err
	}

	g.vertices.Scan(func(_ RecordRef, body []byte) bool {
		v, err := DecodeVertex(body)
		if err != nil {
			return true
		}
		freeChain(pgr, v.OutHead)
		freeChain(pgr, v.InHead)
		return true
	})
	for _, pid := range g.vertices.pages.All() {
		pgr.FreePage(pid)
	}
	for _, pid := range g.edges.pages.All() {
		pgr.FreePage(pid)
	}
	freeChain(pgr, g.vertexLabels.Head())
	freeChain(pgr, g.edgeLabels.Head())
	freeChain(pgr, g.propKeys.Head())
	for _, root := range g.entry.LabelIndexRoots {
		freeChain(pgr, root)
	}
	for _, root := range g.entry.PKIndexRoots {
		freeChain(pgr, root)
	}

	ok, err := cat.Drop(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("graph %q does not exist", name)
	}
	return nil
}

// freeChain walks a next-pointer page chain (adjacency, dictionary, or
// page-id-set shaped) starting at head and frees every page on it.
func freeChain(pgr *pager.Pager, head pager.PageID) {
	pid := head
	for pid != pager.InvalidPageID {
		h, err := pgr.ReadPage(pid)
		if err != nil {
			return
		}
		next := readAdjNext(h.Buf) // next-pointer lives at the same offset in every chain shape
		pgr.UnpinPage(h, false)
		pgr.FreePage(pid)
		pid = next
	}
}

// Name returns the graph's catalog name.
func (g *Graph) Name() string { return g.entry.Name }

// Schema returns the graph's inline schema, or nil if it has none.
func (g *Graph) Schema() *Schema { return g.entry.Schema }

// persist writes the graph's current root pointers back to the catalog.
// Must be called with g.mu held (read or write — Put itself is safe for
// concurrent callers, but the entry fields it reads must be stable).
func (g *Graph) persist() error {
	g.entry.VertexLabelDict = g.vertexLabels.Head()
	g.entry.EdgeLabelDict = g.edgeLabels.Head()
	g.entry.PropKeyDict = g.propKeys.Head()
	g.entry.VertexStoreRoot = g.vertices.Root()
	g.entry.EdgeStoreRoot = g.edges.Root()
	g.entry.LabelIndexRoots = g.labelIndex.Roots()
	pkRoots := make(map[uint32]pager.PageID, len(g.pkIndexes))
	for labelID, idx := range g.pkIndexes {
		if idx.Head() != pager.InvalidPageID {
			pkRoots[labelID] = idx.Head()
		}
	}
	g.entry.PKIndexRoots = pkRoots
	return g.cat.Put(g.entry)
}

// CreateVertex allocates a new vertex with the given label and properties
// (keyed by property name), validating against the graph's inline schema
// and primary-key uniqueness, and returns its assigned vid.
func (g *Graph) CreateVertex(label string, address *gvalue.Address, props map[string]gvalue.Value) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.entry.Schema.ValidateVertexProperties(label, props); err != nil {
		return 0, err
	}

	labelID, err := g.vertexLabels.Intern(label)
	if err != nil {
		return 0, err
	}

	encodedProps, err := g.internProperties(props)
	if err != nil {
		return 0, err
	}

	vid := g.entry.NextVID
	v := &Vertex{
		VID:        vid,
		LabelID:    labelID,
		Properties: encodedProps,
		OutHead:    pager.InvalidPageID,
		InHead:     pager.InvalidPageID,
	}
	if address != nil {
		v.HasAddress = true
		v.Address = *address
	}

	if pkName, ok := g.entry.Schema.PrimaryKeyProperty(label); ok {
		if pkValue, present := props[pkName]; present {
			idx := g.pkIndexForLabel(labelID)
			if err := idx.Insert(pkValue, vid); err != nil {
				return 0, err
			}
		}
	}

	ref, err := g.vertices.Insert(EncodeVertex(v))
	if err != nil {
		return 0, err
	}
	if err := g.labelIndex.RecordPage(labelID, ref.Page); err != nil {
		return 0, err
	}

	g.entry.NextVID++
	return vid, g.persist()
}

// GetVertex locates and decodes the vertex with the given vid by scanning
// the whole vertex store.
func (g *Graph) GetVertex(vid uint64) (*Vertex, RecordRef, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var found *Vertex
	var foundRef RecordRef
	err := g.vertices.Scan(func(ref RecordRef, body []byte) bool {
		v, err := DecodeVertex(body)
		if err != nil || v.VID != vid {
			return true
		}
		found = v
		foundRef = ref
		return false
	})
	if err != nil {
		return nil, RecordRef{}, err
	}
	if found == nil {
		return nil, RecordRef{}, fmt.Errorf("vertex %d not found", vid)
	}
	return found, foundRef, nil
}

// DeleteVertex removes the vertex with the given vid. If detach is false
// and the vertex still has incident edges, it refuses with an error (spec
// §3 "a vertex with non-empty adjacency chains can only be destroyed with
// DETACH DELETE"); if detach is true, every incident edge is removed first.
func (g *Graph) DeleteVertex(vid uint64, detach bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	v, ref, err := g.getVertexLocked(vid)
	if err != nil {
		return err
	}

	hasEdges := v.OutHead != pager.InvalidPageID || v.InHead != pager.InvalidPageID
	if hasEdges && !detach {
		return fmt.Errorf("CONSTRAINT_VIOLATION(adjacency): vertex %d has incident edges, use DETACH DELETE", vid)
	}
	if hasEdges {
		seen := map[uint64]bool{}
		var eids []uint64
		collect := func(_, eid uint64) bool {
			if !seen[eid] { // self-loops appear in both the out-chain and the in-chain
				seen[eid] = true
				eids = append(eids, eid)
			}
			return true
		}
		g.adj.Iterate(v.OutHead, collect)
		g.adj.Iterate(v.InHead, collect)
		for _, eid := range eids {
			if err := g.deleteEdgeLocked(eid); err != nil {
				return err
			}
		}
		// Re-fetch: deleting incident edges mutates v's adjacency heads
		// via separate DecodeVertex/EncodeVertex round-trips.
		v, ref, err = g.getVertexLocked(vid)
		if err != nil {
			return err
		}
	}

	if pkName, ok := g.entry.Schema.PrimaryKeyProperty(mustLabelName(g.vertexLabels, v.LabelID)); ok {
		if propID, ok := g.propKeys.Lookup(pkName); ok {
			if val, present := v.Properties[propID]; present {
				idx := g.pkIndexForLabel(v.LabelID)
				idx.Remove(val)
			}
		}
	}

	if err := g.vertices.Delete(ref); err != nil {
		return err
	}
	return g.persist()
}

func (g *Graph) getVertexLocked(vid uint64) (*Vertex, RecordRef, error) {
	var found *Vertex
	var foundRef RecordRef
	err := g.vertices.Scan(func(ref RecordRef, body []byte) bool {
		v, err := DecodeVertex(body)
		if err != nil || v.VID != vid {
			return true
		}
		found = v
		foundRef = ref
		return false
	})
	if err != nil {
		return nil, RecordRef{}, err
	}
	if found == nil {
		return nil, RecordRef{}, fmt.Errorf("vertex %d not found", vid)
	}
	return found, foundRef, nil
}

// CreateEdge links sourceVID to targetVID with the given label and
// properties, registering twin adjacency entries in both directions.
func (g *Graph) CreateEdge(label string, sourceVID, targetVID uint64, props map[string]gvalue.Value) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	srcV, srcRef, err := g.getVertexLocked(sourceVID)
	if err != nil {
		return 0, fmt.Errorf("source: %w", err)
	}
	tgtV, tgtRef, err := g.getVertexLocked(targetVID)
	if err != nil {
		return 0, fmt.Errorf("target: %w", err)
	}
	sourceLabel := mustLabelName(g.vertexLabels, srcV.LabelID)
	targetLabel := mustLabelName(g.vertexLabels, tgtV.LabelID)

	if err := g.entry.Schema.ValidateEdgeProperties(label, sourceLabel, targetLabel, props); err != nil {
		return 0, err
	}

	labelID, err := g.edgeLabels.Intern(label)
	if err != nil {
		return 0, err
	}
	encodedProps, err := g.internProperties(props)
	if err != nil {
		return 0, err
	}

	eid := g.entry.NextEID
	e := &Edge{EID: eid, LabelID: labelID, SourceVID: sourceVID, TargetVID: targetVID, Properties: encodedProps}
	if _, err := g.edges.Insert(EncodeEdge(e)); err != nil {
		return 0, err
	}

	newOutHead, outRef, err := g.adj.AddEntry(srcV.OutHead, targetVID, eid)
	if err != nil {
		return 0, err
	}
	newInHead, inRef, err := g.adj.AddEntry(tgtV.InHead, sourceVID, eid)
	if err != nil {
		return 0, err
	}
	if err := g.adj.SetTwin(outRef, inRef); err != nil {
		return 0, err
	}

	srcV.OutHead = newOutHead
	if err := g.vertices.Update(srcRef, EncodeVertex(srcV)); err != nil {
		return 0, err
	}
	tgtV.InHead = newInHead
	if err := g.vertices.Update(tgtRef, EncodeVertex(tgtV)); err != nil {
		return 0, err
	}

	g.entry.NextEID++
	return eid, g.persist()
}

// DeleteEdge removes the edge with the given eid, unlinking both halves
// of its adjacency-chain twin pair.
func (g *Graph) DeleteEdge(eid uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deleteEdgeLocked(eid)
}

func (g *Graph) deleteEdgeLocked(eid uint64) error {
	var found *Edge
	var edgeRef RecordRef
	err := g.edges.Scan(func(ref RecordRef, body []byte) bool {
		e, err := DecodeEdge(body)
		if err != nil || e.EID != eid {
			return true
		}
		found = e
		edgeRef = ref
		return false
	})
	if err != nil {
		return err
	}
	if found == nil {
		return fmt.Errorf("edge %d not found", eid)
	}

	srcV, srcRef, err := g.getVertexLocked(found.SourceVID)
	if err != nil {
		return err
	}
	tgtV, tgtRef, err := g.getVertexLocked(found.TargetVID)
	if err != nil {
		return err
	}

	outRef, err := g.findAdjacencyRef(srcV.OutHead, found.TargetVID, eid)
	if err != nil {
		return err
	}
	inRef, err := g.findAdjacencyRef(tgtV.InHead, found.SourceVID, eid)
	if err != nil {
		return err
	}

	newOutHead, err := g.adj.RemoveEntry(srcV.OutHead, outRef)
	if err != nil {
		return err
	}
	newInHead, err := g.adj.RemoveEntry(tgtV.InHead, inRef)
	if err != nil {
		return err
	}

	srcV.OutHead = newOutHead
	if err := g.vertices.Update(srcRef, EncodeVertex(srcV)); err != nil {
		return err
	}
	tgtV.InHead = newInHead
	if err := g.vertices.Update(tgtRef, EncodeVertex(tgtV)); err != nil {
		return err
	}

	return g.edges.Delete(edgeRef)
}

// findAdjacencyRef locates the slot for (neighborVID, eid) within the
// chain rooted at head. Used by deleteEdgeLocked, which knows the edge's
// endpoints but not which page/slot its adjacency entries live on.
func (g *Graph) findAdjacencyRef(head pager.PageID, neighborVID, eid uint64) (AdjacencyRef, error) {
	var ref AdjacencyRef
	pid := head
	for pid != pager.InvalidPageID {
		h, err := g.pgr.ReadPage(pid)
		if err != nil {
			return AdjacencyRef{}, err
		}
		count := int(readAdjCount(h.Buf))
		next := readAdjNext(h.Buf)
		for i := 0; i < count; i++ {
			nv, e, flags, _, _ := readEntry(h.Buf, i)
			if flags&adjFlagUsed != 0 && nv == neighborVID && e == eid {
				ref = AdjacencyRef{Page: pid, Slot: i}
				g.pgr.UnpinPage(h, false)
				return ref, nil
			}
		}
		g.pgr.UnpinPage(h, false)
		pid = next
	}
	return AdjacencyRef{}, fmt.Errorf("adjacency entry for edge %d not found in chain rooted at %d", eid, head)
}

func (g *Graph) pkIndexForLabel(labelID uint32) *PrimaryKeyIndex {
	idx, ok := g.pkIndexes[labelID]
	if !ok {
		idx = NewPrimaryKeyIndex(g.pgr)
		g.pkIndexes[labelID] = idx
	}
	return idx
}

func (g *Graph) internProperties(props map[string]gvalue.Value) (map[uint32]gvalue.Value, error) {
	out := make(map[uint32]gvalue.Value, len(props))
	for name, v := range props {
		id, err := g.propKeys.Intern(name)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

func mustLabelName(d *Dictionary, id uint32) string {
	name, _ := d.Name(id)
	return name
}

// VertexLabelName returns the name registered for a vertex label id.
func (g *Graph) VertexLabelName(id uint32) (string, bool) { return g.vertexLabels.Name(id) }

// VertexLabelID returns the id registered for a vertex label name.
func (g *Graph) VertexLabelID(name string) (uint32, bool) { return g.vertexLabels.Lookup(name) }

// EdgeLabelName returns the name registered for an edge label id.
func (g *Graph) EdgeLabelName(id uint32) (string, bool) { return g.edgeLabels.Name(id) }

// EdgeLabelID returns the id registered for an edge label name.
func (g *Graph) EdgeLabelID(name string) (uint32, bool) { return g.edgeLabels.Lookup(name) }

// PropertyKeyName returns the name registered for a property-key id.
func (g *Graph) PropertyKeyName(id uint32) (string, bool) { return g.propKeys.Name(id) }

// PropertyKeyID returns the id registered for a property-key name.
func (g *Graph) PropertyKeyID(name string) (uint32, bool) { return g.propKeys.Lookup(name) }

// PropertiesByName converts a record's id-keyed property map into a
// name-keyed one, for WHERE/RETURN evaluation against GQL source text.
func (g *Graph) PropertiesByName(props map[uint32]gvalue.Value) map[string]gvalue.Value {
	out := make(map[string]gvalue.Value, len(props))
	for id, v := range props {
		if name, ok := g.propKeys.Name(id); ok {
			out[name] = v
		}
	}
	return out
}

// GetEdge locates and decodes the edge with the given eid.
func (g *Graph) GetEdge(eid uint64) (*Edge, RecordRef, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.getEdgeLocked(eid)
}

func (g *Graph) getEdgeLocked(eid uint64) (*Edge, RecordRef, error) {
	var found *Edge
	var foundRef RecordRef
	err := g.edges.Scan(func(ref RecordRef, body []byte) bool {
		e, err := DecodeEdge(body)
		if err != nil || e.EID != eid {
			return true
		}
		found = e
		foundRef = ref
		return false
	})
	if err != nil {
		return nil, RecordRef{}, err
	}
	if found == nil {
		return nil, RecordRef{}, fmt.Errorf("edge %d not found", eid)
	}
	return found, foundRef, nil
}

// ScanVertices visits every vertex matching label (or every vertex, if
// label is empty), using the label index to restrict the scan to
// candidate pages when a label is given (spec §4.4's driving-scan
// strategy). An unregistered label yields no vertices. fn returning false
// stops the scan early.
func (g *Graph) ScanVertices(label string, fn func(*Vertex, RecordRef) bool) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if label == "" {
		return g.vertices.Scan(func(ref RecordRef, body []byte) bool {
			v, err := DecodeVertex(body)
			if err != nil {
				return true
			}
			return fn(v, ref)
		})
	}
	labelID, ok := g.vertexLabels.Lookup(label)
	if !ok {
		return nil
	}
	for _, pid := range g.labelIndex.Pages(labelID) {
		stop := false
		err := g.vertices.ScanPage(pid, func(ref RecordRef, body []byte) bool {
			v, err := DecodeVertex(body)
			if err != nil || v.LabelID != labelID {
				return true
			}
			if !fn(v, ref) {
				stop = true
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// Neighbors visits every (neighborVID, eid) pair adjacent to vid in the
// given direction ("out", "in", or "both"; any other value is treated as
// "both"). fn returning false stops iteration early.
func (g *Graph) Neighbors(vid uint64, dir string, fn func(neighborVID, eid uint64) bool) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	v, _, err := g.getVertexLocked(vid)
	if err != nil {
		return err
	}
	switch dir {
	case "out":
		return g.adj.Iterate(v.OutHead, fn)
	case "in":
		return g.adj.Iterate(v.InHead, fn)
	default:
		stop := false
		wrapped := func(neighborVID, eid uint64) bool {
			if !fn(neighborVID, eid) {
				stop = true
				return false
			}
			return true
		}
		if err := g.adj.Iterate(v.OutHead, wrapped); err != nil || stop {
			return err
		}
		return g.adj.Iterate(v.InHead, wrapped)
	}
}
