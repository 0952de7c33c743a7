package gql

import (
	"fmt"
	"sort"

	"github.com/chaingraph/chaingraph/internal/graph"
	"github.com/chaingraph/chaingraph/internal/gvalue"
	"github.com/chaingraph/chaingraph/internal/session"
)

// maxUnboundedQuantHops bounds how many hops a quantified pattern with no
// upper bound (`*`, `+`, `{n,}`) will actually explore; an explicit upper
// bound above it is lowered to it as well. A genuinely
// unbounded DFS over a cyclic graph never terminates; this cap keeps
// MATCH total while still covering any realistic trace-forward depth.
const maxUnboundedQuantHops = 50

// AdminProvider performs engine-scoped catalog operations that sit above
// any single graph: creating/dropping named graphs, listing them, and
// describing a schema. Implemented by the root engine type, kept separate
// from session.GraphProvider so this package never imports the engine
// (which itself depends on session and gql).
type AdminProvider interface {
	CreateGraph(name string, schema *graph.Schema) error
	DropGraph(name string) error
	GraphNames() []string
	DescribeGraph(name string) (*graph.Schema, error)
}

// Row is one result row, keyed by column name.
type Row map[string]gvalue.Value

// Result is the outcome of executing one statement.
type Result struct {
	Columns []string
	Rows    []Row
	// Message carries a short human-readable summary for statements that
	// don't produce rows (CREATE, DELETE, COMMIT, ...).
	Message string
}

// Execute parses nothing itself — stmt must already be the output of
// Parser.ParseStatement — and carries it out against sess and admin.
func Execute(sess *session.Session, admin AdminProvider, stmt Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *UseGraphStatement:
		if err := sess.UseGraph(s.Name); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("using graph %q", s.Name)}, nil

	case *CreateGraphStatement:
		if err := admin.CreateGraph(s.Name, nil); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("graph %q created", s.Name)}, nil

	case *DropGraphStatement:
		if err := admin.DropGraph(s.Name); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("graph %q dropped", s.Name)}, nil

	case *ShowGraphsStatement:
		names := admin.GraphNames()
		sort.Strings(names)
		rows := make([]Row, len(names))
		for i, n := range names {
			rows[i] = Row{"name": gvalue.String(n)}
		}
		return &Result{Columns: []string{"name"}, Rows: rows}, nil

	case *DescribeGraphStatement:
		schema, err := admin.DescribeGraph(s.Name)
		if err != nil {
			return nil, err
		}
		return describeSchema(schema), nil

	case *StartTransactionStatement:
		mode := session.ReadWrite
		if s.ReadOnly {
			mode = session.ReadOnly
		}
		if err := sess.Begin(mode); err != nil {
			return nil, err
		}
		return &Result{Message: "transaction started"}, nil

	case *CommitStatement:
		if err := sess.Commit(); err != nil {
			return nil, err
		}
		return &Result{Message: "committed"}, nil

	case *RollbackStatement:
		if err := sess.Rollback(); err != nil {
			return nil, err
		}
		return &Result{Message: "rolled back"}, nil

	case *CreateVertexStatement:
		return execCreateVertex(sess, s)

	case *CreateEdgeStatement:
		return execCreateEdge(sess, s)

	case *DeleteStatement:
		return execDelete(sess, s)

	case *MatchStatement:
		return execMatch(sess, s)

	case *CallStatement:
		return execCall(sess, s)

	case *CompositeStatement:
		return execComposite(sess, admin, s)

	default:
		return nil, fmt.Errorf("INTERNAL: unhandled statement type %T", stmt)
	}
}

func describeSchema(schema *graph.Schema) *Result {
	if schema == nil {
		return &Result{Columns: []string{"kind", "name"}}
	}
	var rows []Row
	for _, nt := range schema.NodeTypes {
		rows = append(rows, Row{"kind": gvalue.String("node"), "name": gvalue.String(nt.Label)})
	}
	for _, et := range schema.EdgeTypes {
		rows = append(rows, Row{"kind": gvalue.String("edge"), "name": gvalue.String(et.Label)})
	}
	return &Result{Columns: []string{"kind", "name"}, Rows: rows}
}

// ─── literals and property maps ────────────────────────────────────────

func literalToValue(lit *Literal) (gvalue.Value, error) {
	switch v := lit.Value.(type) {
	case nil:
		return gvalue.Null(), nil
	case bool:
		return gvalue.Bool(v), nil
	case int64:
		return gvalue.Int64(v), nil
	case float64:
		return gvalue.Float64(v), nil
	case string:
		return gvalue.String(v), nil
	default:
		return gvalue.Value{}, fmt.Errorf("INTERNAL: unsupported literal type %T", lit.Value)
	}
}

// evalConstProperties evaluates a property map whose expressions must all
// be constant (no bound variables available) — the case for CREATE.
func evalConstProperties(m map[string]Expr) (map[string]gvalue.Value, error) {
	out := make(map[string]gvalue.Value, len(m))
	for k, e := range m {
		lit, ok := e.(*Literal)
		if !ok {
			return nil, fmt.Errorf("BIND_ERROR: property %q must be a literal in CREATE", k)
		}
		v, err := literalToValue(lit)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// popAddress returns the "address" value from props, if it is an address,
// for passing separately to graph.Graph.CreateVertex; the key stays in props.
func popAddress(props map[string]gvalue.Value) *gvalue.Address {
	v, ok := props["address"]
	if !ok || v.Tag() != gvalue.TagAddress {
		return nil
	}
	a := v.AsAddress()
	return &a
}

// ─── CREATE ─────────────────────────────────────────────────────────────

// bareLabel extracts a single literal label from a pattern's label
// expression, for the write statements (CREATE) that need a concrete
// label rather than a match predicate.
func bareLabel(le *LabelExpr) (string, error) {
	name, ok := le.BareLabel()
	if !ok {
		return "", fmt.Errorf("BIND_ERROR: CREATE requires a single literal label, not a label expression")
	}
	return name, nil
}

func execCreateVertex(sess *session.Session, s *CreateVertexStatement) (*Result, error) {
	label, err := bareLabel(s.Node.Label)
	if err != nil {
		return nil, err
	}
	props, err := evalConstProperties(s.Node.Properties)
	if err != nil {
		return nil, err
	}
	addr := popAddress(props)
	vid, err := sess.CreateVertex(label, addr, props)
	if err != nil {
		return nil, err
	}
	return &Result{
		Columns: []string{"vid"},
		Rows:    []Row{{"vid": gvalue.Uint64(vid)}},
		Message: fmt.Sprintf("vertex %d created", vid),
	}, nil
}

// resolveEndpoint finds the vid a CREATE edge's endpoint refers to: either
// a literal vid, or a variable bound by a MATCH earlier in the batch. This
// package executes one statement at a time, so only the literal-vid form
// is currently reachable; the variable form awaits multi-statement batch
// support.
func resolveEndpoint(n *NodePattern) (uint64, error) {
	if n.VID != nil {
		return *n.VID, nil
	}
	return 0, fmt.Errorf("BIND_ERROR: variable %q is not bound (MATCH-then-CREATE batches are not supported)", n.Var)
}

func execCreateEdge(sess *session.Session, s *CreateEdgeStatement) (*Result, error) {
	src, err := resolveEndpoint(&s.Source)
	if err != nil {
		return nil, err
	}
	dst, err := resolveEndpoint(&s.Target)
	if err != nil {
		return nil, err
	}
	label, err := bareLabel(s.Edge.Label)
	if err != nil {
		return nil, err
	}
	props, err := evalConstProperties(s.Edge.Properties)
	if err != nil {
		return nil, err
	}

	switch s.Edge.Direction {
	case DirIn:
		src, dst = dst, src
	case DirEither:
		// Undirected edges are stored as a single directed record
		// (src -> dst in pattern-write order); Neighbors("both") makes
		// either endpoint discover it regardless of storage direction.
	}

	eid, err := sess.CreateEdge(label, src, dst, props)
	if err != nil {
		return nil, err
	}
	return &Result{
		Columns: []string{"eid"},
		Rows:    []Row{{"eid": gvalue.Uint64(eid)}},
		Message: fmt.Sprintf("edge %d created", eid),
	}, nil
}

// ─── DELETE ─────────────────────────────────────────────────────────────

// execDelete supports the common single-variable form bound to a literal
// vid written as the variable name's numeric text (e.g. `DELETE DETACH
// 42`), since this package has no cross-statement variable binding yet.
func execDelete(sess *session.Session, s *DeleteStatement) (*Result, error) {
	deleted := 0
	for _, v := range s.Vars {
		vid, err := parseVarAsVID(v)
		if err != nil {
			return nil, err
		}
		if err := sess.DeleteVertex(vid, s.Detach); err != nil {
			return nil, err
		}
		deleted++
	}
	return &Result{Message: fmt.Sprintf("%d vertex(es) deleted", deleted)}, nil
}

func parseVarAsVID(s string) (uint64, error) {
	var vid uint64
	if len(s) == 0 {
		return 0, fmt.Errorf("BIND_ERROR: empty DELETE target")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("BIND_ERROR: DELETE target %q is not a bound vid (MATCH-then-DELETE batches are not supported)", s)
		}
		vid = vid*10 + uint64(r-'0')
	}
	return vid, nil
}

// ─── MATCH ──────────────────────────────────────────────────────────────

// quantPath is one candidate variable-length path discovered while
// extending a quantified edge pattern: the vertices and edges it crosses,
// in traversal order (vids[0] is the starting vertex).
type quantPath struct {
	vids []uint64
	eids []uint64
}

// binding is one candidate solution for a pattern: the vars bound so far,
// mapped to their vertex/edge/quantified-path.
type binding struct {
	vertices map[string]*graph.Vertex
	edges    map[string]*graph.Edge
	paths    map[string]quantPath
}

func matchesVertexLabel(g *graph.Graph, v *graph.Vertex, le *LabelExpr) bool {
	if le == nil {
		return true
	}
	name, ok := g.VertexLabelName(v.LabelID)
	return ok && le.Match(name)
}

func matchesEdgeLabel(g *graph.Graph, e *graph.Edge, le *LabelExpr) bool {
	if le == nil {
		return true
	}
	name, ok := g.EdgeLabelName(e.LabelID)
	return ok && le.Match(name)
}

// scanLabelHint returns the single literal label to drive ScanVertices'
// index lookup, or "" for a full scan — used when le is unconstrained, a
// wildcard, or a compound expression that a plain label-equality index
// lookup can't serve.
func scanLabelHint(le *LabelExpr) string {
	if name, ok := le.BareLabel(); ok {
		return name
	}
	return ""
}

func edgeDirString(d Direction) string {
	switch d {
	case DirIn:
		return "in"
	case DirEither:
		return "both"
	default:
		return "out"
	}
}

func execMatch(sess *session.Session, s *MatchStatement) (*Result, error) {
	g, err := sess.Graph()
	if err != nil {
		if s.Optional {
			return emptyMatchResult(s), nil
		}
		return nil, err
	}

	var bindings []binding
	if len(s.Pattern.Elements) == 0 {
		return nil, fmt.Errorf("BIND_ERROR: empty MATCH pattern")
	}

	first := s.Pattern.Elements[0].Node
	err = g.ScanVertices(scanLabelHint(first.Label), func(v *graph.Vertex, _ graph.RecordRef) bool {
		if !matchesVertexLabel(g, v, first.Label) {
			return true
		}
		b := binding{vertices: map[string]*graph.Vertex{}, edges: map[string]*graph.Edge{}}
		if first.Var != "" {
			b.vertices[first.Var] = v
		}
		bindings = append(bindings, b)
		return true
	})
	if err != nil {
		return nil, err
	}

	if len(s.Pattern.Elements) > 1 {
		second := s.Pattern.Elements[1]
		if second.Edge.Quant != nil {
			bindings, err = extendQuantified(g, bindings, first, second, s.Search)
		} else {
			bindings, err = extendOneHop(g, bindings, first, second)
		}
		if err != nil {
			return nil, err
		}
	}

	// A node pattern's property map filters its bound vertex by equality,
	// ANDed with WHERE; a node without a variable is not filtered.
	where := s.Where
	for _, el := range s.Pattern.Elements {
		if el.Node == nil || el.Node.Var == "" {
			continue
		}
		for k, e := range el.Node.Properties {
			cond := &BinaryExpr{Op: "=", Left: &PropertyAccess{Var: el.Node.Var, Property: k}, Right: e}
			if where != nil {
				cond = &BinaryExpr{Op: "AND", Left: cond, Right: where}
			}
			where = cond
		}
	}

	if where != nil {
		filtered := bindings[:0]
		for _, b := range bindings {
			ok, err := evalBool(g, where, b)
			if err != nil {
				return nil, err
			}
			if ok {
				filtered = append(filtered, b)
			}
		}
		bindings = filtered
	}

	return projectRows(g, s, bindings)
}

// extendOneHop expands each single-node binding across the pattern's one
// edge hop, producing a new binding per matching (neighbor, edge) pair.
func extendOneHop(g *graph.Graph, bindings []binding, firstNode *NodePattern, second PatternElement) ([]binding, error) {
	dir := edgeDirString(second.Edge.Direction)

	var out []binding
	for _, b := range bindings {
		v, ok := b.vertices[firstNode.Var]
		if !ok {
			continue
		}
		var iterErr error
		err := g.Neighbors(v.VID, dir, func(neighborVID, eid uint64) bool {
			edge, _, err := g.GetEdge(eid)
			if err != nil {
				iterErr = err
				return false
			}
			if !matchesEdgeLabel(g, edge, second.Edge.Label) {
				return true
			}
			neighbor, _, err := g.GetVertex(neighborVID)
			if err != nil {
				iterErr = err
				return false
			}
			if !matchesVertexLabel(g, neighbor, second.Node.Label) {
				return true
			}
			nb := binding{
				vertices: cloneVertexBindings(b.vertices),
				edges:    cloneEdgeBindings(b.edges),
				paths:    clonePathBindings(b.paths),
			}
			if second.Node.Var != "" {
				nb.vertices[second.Node.Var] = neighbor
			}
			if second.Edge.Var != "" {
				nb.edges[second.Edge.Var] = edge
			}
			out = append(out, nb)
			return true
		})
		if err != nil {
			return nil, err
		}
		if iterErr != nil {
			return nil, iterErr
		}
	}
	return out, nil
}

// extendQuantified expands each single-node binding across a quantified
// edge pattern, enumerating every candidate path whose hop count lies in
// [Quant.Min, Quant.Max], grouping them by (source, target) pair, and
// keeping only the paths s.Search selects from each group.
func extendQuantified(g *graph.Graph, bindings []binding, firstNode *NodePattern, second PatternElement, search *PathSearch) ([]binding, error) {
	dir := edgeDirString(second.Edge.Direction)
	min, max := second.Edge.Quant.Min, second.Edge.Quant.Max
	simple := search != nil && (search.Mode == PathShortest || search.Mode == PathAllShortest ||
		search.Mode == PathShortestK || search.Mode == PathShortestKGroups)

	var out []binding
	for _, b := range bindings {
		v, ok := b.vertices[firstNode.Var]
		if !ok {
			continue
		}
		paths, err := enumerateQuantifiedPaths(g, v.VID, second.Edge, second.Node, dir, min, max, simple)
		if err != nil {
			return nil, err
		}
		for _, group := range groupPathsByEnd(paths) {
			for _, qp := range selectPaths(group, search) {
				endVertex, _, err := g.GetVertex(qp.vids[len(qp.vids)-1])
				if err != nil {
					return nil, err
				}
				nb := binding{
					vertices: cloneVertexBindings(b.vertices),
					edges:    cloneEdgeBindings(b.edges),
					paths:    clonePathBindings(b.paths),
				}
				if second.Node.Var != "" {
					nb.vertices[second.Node.Var] = endVertex
				}
				if second.Edge.Var != "" {
					if nb.paths == nil {
						nb.paths = map[string]quantPath{}
					}
					nb.paths[second.Edge.Var] = qp
				}
				out = append(out, nb)
			}
		}
	}
	return out, nil
}

// enumerateQuantifiedPaths DFS-walks from start, yielding every path whose
// edge count lies in [min, max] and whose final vertex matches endNode.
// Edges are never revisited within a single path; vertices are also never
// revisited when simple is set (the SHORTEST/ALL SHORTEST/SHORTEST k/
// SHORTEST k GROUPS prefixes require simple paths).
func enumerateQuantifiedPaths(g *graph.Graph, start uint64, edgePat *EdgePattern, endNode *NodePattern, dir string, min, max int, simple bool) ([]quantPath, error) {
	effectiveMax := max
	if effectiveMax < 0 || effectiveMax > maxUnboundedQuantHops {
		effectiveMax = maxUnboundedQuantHops
	}

	var results []quantPath
	visitedEdges := map[uint64]bool{}
	visitedVerts := map[uint64]bool{start: true}

	var walk func(vids, eids []uint64) error
	walk = func(vids, eids []uint64) error {
		depth := len(eids)
		if depth >= min {
			endV, _, err := g.GetVertex(vids[len(vids)-1])
			if err != nil {
				return err
			}
			if matchesVertexLabel(g, endV, endNode.Label) {
				results = append(results, quantPath{
					vids: append([]uint64(nil), vids...),
					eids: append([]uint64(nil), eids...),
				})
			}
		}
		if depth >= effectiveMax {
			return nil
		}
		cur := vids[len(vids)-1]
		var innerErr error
		err := g.Neighbors(cur, dir, func(neighborVID, eid uint64) bool {
			if visitedEdges[eid] {
				return true
			}
			if simple && visitedVerts[neighborVID] {
				return true
			}
			edge, _, err := g.GetEdge(eid)
			if err != nil {
				innerErr = err
				return false
			}
			if !matchesEdgeLabel(g, edge, edgePat.Label) {
				return true
			}
			visitedEdges[eid] = true
			visitedVerts[neighborVID] = true
			err = walk(append(vids, neighborVID), append(eids, eid))
			delete(visitedEdges, eid)
			delete(visitedVerts, neighborVID)
			if err != nil {
				innerErr = err
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		return innerErr
	}

	if err := walk([]uint64{start}, nil); err != nil {
		return nil, err
	}
	return results, nil
}

// groupPathsByEnd partitions paths by their final vertex, preserving
// first-seen order — the path-search prefix applies per (source, target)
// pair, and every path here already shares the same source.
func groupPathsByEnd(paths []quantPath) [][]quantPath {
	groups := map[uint64][]quantPath{}
	var order []uint64
	for _, p := range paths {
		end := p.vids[len(p.vids)-1]
		if _, ok := groups[end]; !ok {
			order = append(order, end)
		}
		groups[end] = append(groups[end], p)
	}
	out := make([][]quantPath, len(order))
	for i, end := range order {
		out[i] = groups[end]
	}
	return out
}

// selectPaths applies search's path-search mode to one (source, target)
// group of candidate paths, already DFS-ordered; they are stably sorted by
// hop count, so paths of equal length keep their DFS order.
func selectPaths(paths []quantPath, search *PathSearch) []quantPath {
	if len(paths) == 0 {
		return nil
	}
	sorted := append([]quantPath(nil), paths...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i].eids) < len(sorted[j].eids) })

	if search == nil {
		return sorted
	}

	k := search.K
	if k <= 0 {
		k = 1
	}
	switch search.Mode {
	case PathAll:
		return sorted
	case PathAny:
		if k > len(sorted) {
			k = len(sorted)
		}
		return sorted[:k]
	case PathShortest:
		minLen := len(sorted[0].eids)
		for _, p := range sorted {
			if len(p.eids) == minLen {
				return []quantPath{p}
			}
		}
		return sorted[:1]
	case PathAllShortest:
		minLen := len(sorted[0].eids)
		var out []quantPath
		for _, p := range sorted {
			if len(p.eids) != minLen {
				break
			}
			out = append(out, p)
		}
		return out
	case PathShortestK:
		if k > len(sorted) {
			k = len(sorted)
		}
		return sorted[:k]
	case PathShortestKGroups:
		var out []quantPath
		distinctSeen := 0
		lastLen := -1
		for _, p := range sorted {
			l := len(p.eids)
			if l != lastLen {
				distinctSeen++
				lastLen = l
			}
			if distinctSeen > k {
				break
			}
			out = append(out, p)
		}
		return out
	default:
		return sorted
	}
}

func cloneVertexBindings(m map[string]*graph.Vertex) map[string]*graph.Vertex {
	out := make(map[string]*graph.Vertex, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneEdgeBindings(m map[string]*graph.Edge) map[string]*graph.Edge {
	out := make(map[string]*graph.Edge, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clonePathBindings(m map[string]quantPath) map[string]quantPath {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]quantPath, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func emptyMatchResult(s *MatchStatement) *Result {
	cols := make([]string, len(s.Return))
	for i, item := range s.Return {
		cols[i] = returnColumnName(item, i)
	}
	return &Result{Columns: cols}
}

// ─── expression evaluation ──────────────────────────────────────────────

func evalValue(g *graph.Graph, e Expr, b binding) (gvalue.Value, error) {
	switch ex := e.(type) {
	case *Literal:
		return literalToValue(ex)
	case *VarRef:
		if v, ok := b.vertices[ex.Name]; ok {
			return vertexRefValue(v), nil
		}
		if ed, ok := b.edges[ex.Name]; ok {
			return edgeRefValue(ed), nil
		}
		if pth, ok := b.paths[ex.Name]; ok {
			return vidList(pth.eids), nil
		}
		return gvalue.Value{}, fmt.Errorf("BIND_ERROR: unbound variable %q", ex.Name)
	case *PropertyAccess:
		return propertyValue(g, ex, b)
	case *UnaryExpr:
		if ex.Op == "NOT" {
			v, err := evalBool(g, ex.Operand, b)
			if err != nil {
				return gvalue.Value{}, err
			}
			return gvalue.Bool(!v), nil
		}
		return gvalue.Value{}, fmt.Errorf("INTERNAL: unknown unary operator %q", ex.Op)
	case *BinaryExpr:
		return evalBinary(g, ex, b)
	case *FuncCallExpr:
		return gvalue.Value{}, fmt.Errorf("BIND_ERROR: aggregate function %s is only valid in RETURN/HAVING/ORDER BY of a grouped query", ex.Name)
	default:
		return gvalue.Value{}, fmt.Errorf("INTERNAL: unhandled expression type %T", e)
	}
}

func vertexRefValue(v *graph.Vertex) gvalue.Value {
	return gvalue.Uint64(v.VID)
}

func edgeRefValue(e *graph.Edge) gvalue.Value {
	return gvalue.Uint64(e.EID)
}

func propertyValue(g *graph.Graph, ex *PropertyAccess, b binding) (gvalue.Value, error) {
	if v, ok := b.vertices[ex.Var]; ok {
		named := g.PropertiesByName(v.Properties)
		if pv, ok := named[ex.Property]; ok {
			return pv, nil
		}
		return gvalue.Null(), nil
	}
	if ed, ok := b.edges[ex.Var]; ok {
		named := g.PropertiesByName(ed.Properties)
		if pv, ok := named[ex.Property]; ok {
			return pv, nil
		}
		return gvalue.Null(), nil
	}
	if _, ok := b.paths[ex.Var]; ok {
		return gvalue.Value{}, fmt.Errorf("BIND_ERROR: property access on quantified relationship variable %q is not supported", ex.Var)
	}
	return gvalue.Value{}, fmt.Errorf("BIND_ERROR: unbound variable %q", ex.Var)
}

func evalBool(g *graph.Graph, e Expr, b binding) (bool, error) {
	v, err := evalValue(g, e, b)
	if err != nil {
		return false, err
	}
	if v.Tag() != gvalue.TagBool {
		return false, fmt.Errorf("BIND_ERROR: expression does not evaluate to a boolean (got %s)", v.TypeName())
	}
	return v.AsBool(), nil
}

func evalBinary(g *graph.Graph, ex *BinaryExpr, b binding) (gvalue.Value, error) {
	switch ex.Op {
	case "AND":
		l, err := evalBool(g, ex.Left, b)
		if err != nil {
			return gvalue.Value{}, err
		}
		if !l {
			return gvalue.Bool(false), nil
		}
		r, err := evalBool(g, ex.Right, b)
		if err != nil {
			return gvalue.Value{}, err
		}
		return gvalue.Bool(r), nil
	case "OR":
		l, err := evalBool(g, ex.Left, b)
		if err != nil {
			return gvalue.Value{}, err
		}
		if l {
			return gvalue.Bool(true), nil
		}
		r, err := evalBool(g, ex.Right, b)
		if err != nil {
			return gvalue.Value{}, err
		}
		return gvalue.Bool(r), nil
	}

	lv, err := evalValue(g, ex.Left, b)
	if err != nil {
		return gvalue.Value{}, err
	}
	rv, err := evalValue(g, ex.Right, b)
	if err != nil {
		return gvalue.Value{}, err
	}
	return compareOp(ex.Op, lv, rv)
}

func compareOp(op string, l, r gvalue.Value) (gvalue.Value, error) {
	if op == "=" || op == "<>" || op == "!=" {
		eq, err := gvalue.Equal(l, r)
		if err != nil {
			return gvalue.Value{}, fmt.Errorf("BIND_ERROR: %w", err)
		}
		if op == "=" {
			return gvalue.Bool(eq), nil
		}
		return gvalue.Bool(!eq), nil
	}

	c, err := gvalue.Compare(l, r)
	if err != nil {
		return gvalue.Value{}, fmt.Errorf("BIND_ERROR: %w", err)
	}
	switch op {
	case "<":
		return gvalue.Bool(c < 0), nil
	case "<=":
		return gvalue.Bool(c <= 0), nil
	case ">":
		return gvalue.Bool(c > 0), nil
	case ">=":
		return gvalue.Bool(c >= 0), nil
	default:
		return gvalue.Value{}, fmt.Errorf("INTERNAL: unknown comparison operator %q", op)
	}
}

// ─── projection ─────────────────────────────────────────────────────────

func returnColumnName(item ReturnItem, i int) string {
	if item.Alias != "" {
		return item.Alias
	}
	switch e := item.Expr.(type) {
	case *VarRef:
		return e.Name
	case *PropertyAccess:
		return e.Var + "." + e.Property
	case *FuncCallExpr:
		return funcCallColumnName(e)
	default:
		return fmt.Sprintf("col%d", i)
	}
}

func funcCallColumnName(e *FuncCallExpr) string {
	if e.Star {
		return e.Name + "(*)"
	}
	if len(e.Args) == 1 {
		switch a := e.Args[0].(type) {
		case *VarRef:
			return e.Name + "(" + a.Name + ")"
		case *PropertyAccess:
			return e.Name + "(" + a.Var + "." + a.Property + ")"
		}
	}
	return e.Name + "(...)"
}

// hasAggregates reports whether s needs partitioned (GROUP BY/aggregate)
// projection rather than the plain per-binding projection.
func hasAggregates(s *MatchStatement) bool {
	if len(s.GroupBy) > 0 || s.Having != nil {
		return true
	}
	for _, item := range s.Return {
		if containsAgg(item.Expr) {
			return true
		}
	}
	for _, oi := range s.OrderBy {
		if containsAgg(oi.Expr) {
			return true
		}
	}
	return false
}

func containsAgg(e Expr) bool {
	switch ex := e.(type) {
	case *FuncCallExpr:
		return true
	case *BinaryExpr:
		return containsAgg(ex.Left) || containsAgg(ex.Right)
	case *UnaryExpr:
		return containsAgg(ex.Operand)
	default:
		return false
	}
}

func projectRows(g *graph.Graph, s *MatchStatement, bindings []binding) (*Result, error) {
	if hasAggregates(s) {
		return projectAggregated(g, s, bindings)
	}
	return projectPlain(g, s, bindings)
}

// sortableRow pairs a finished projection row with its ORDER BY key
// values, so sortRows can reorder without re-evaluating expressions.
type sortableRow struct {
	row  Row
	keys []gvalue.Value
}

func sortRows(rows []sortableRow, order []OrderItem) error {
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		for k := range order {
			c, err := gvalue.Compare(rows[i].keys[k], rows[j].keys[k])
			if err != nil {
				sortErr = fmt.Errorf("BIND_ERROR: %w", err)
				return false
			}
			if c == 0 {
				continue
			}
			if order[k].Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return sortErr
}

func applyLimitOffset(s *MatchStatement, rows []Row) []Row {
	if s.Offset != nil {
		off := *s.Offset
		if off > len(rows) {
			off = len(rows)
		}
		rows = rows[off:]
	}
	if s.Limit != nil && *s.Limit < len(rows) {
		rows = rows[:*s.Limit]
	}
	return rows
}

// returnAliasIndex maps each aliased RETURN item's alias to its column
// name, so a later GROUP BY/HAVING/ORDER BY expression that is just a
// bare reference to that alias (`ORDER BY cnt` for `COUNT(*) AS cnt`) can
// reuse the already-projected value instead of re-evaluating against a
// binding, which wouldn't resolve (an alias isn't a pattern variable).
func returnAliasIndex(s *MatchStatement, cols []string) map[string]string {
	idx := map[string]string{}
	for i, item := range s.Return {
		if item.Alias != "" {
			idx[item.Alias] = cols[i]
		}
	}
	return idx
}

// projectPlain is the non-aggregated RETURN path: one output row per
// binding, with DISTINCT/ORDER BY/LIMIT/OFFSET applied afterward.
func projectPlain(g *graph.Graph, s *MatchStatement, bindings []binding) (*Result, error) {
	cols := make([]string, len(s.Return))
	for i, item := range s.Return {
		cols[i] = returnColumnName(item, i)
	}
	aliases := returnAliasIndex(s, cols)

	var sortable []sortableRow
	seen := map[string]bool{}
	for _, b := range bindings {
		row := make(Row, len(s.Return))
		for i, item := range s.Return {
			v, err := evalValue(g, item.Expr, b)
			if err != nil {
				return nil, err
			}
			row[cols[i]] = v
		}
		if s.Distinct {
			key := rowKey(row, cols)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		var keys []gvalue.Value
		if len(s.OrderBy) > 0 {
			keys = make([]gvalue.Value, len(s.OrderBy))
			for i, oi := range s.OrderBy {
				if vr, ok := oi.Expr.(*VarRef); ok {
					if col, ok2 := aliases[vr.Name]; ok2 {
						keys[i] = row[col]
						continue
					}
				}
				v, err := evalValue(g, oi.Expr, b)
				if err != nil {
					return nil, err
				}
				keys[i] = v
			}
		}
		sortable = append(sortable, sortableRow{row: row, keys: keys})
	}

	if len(s.OrderBy) > 0 {
		if err := sortRows(sortable, s.OrderBy); err != nil {
			return nil, err
		}
	}

	rows := make([]Row, len(sortable))
	for i, sr := range sortable {
		rows[i] = sr.row
	}
	rows = applyLimitOffset(s, rows)
	return &Result{Columns: cols, Rows: rows}, nil
}

// partition is one GROUP BY bucket: the bindings that share a group key,
// plus a representative binding used to evaluate non-aggregate
// expressions (which must be functionally dependent on the group key).
type partition struct {
	rep  binding
	rows []binding
}

func groupKey(g *graph.Graph, exprs []Expr, b binding) (string, error) {
	if len(exprs) == 0 {
		return "", nil
	}
	key := ""
	for _, e := range exprs {
		v, err := evalValue(g, e, b)
		if err != nil {
			return "", err
		}
		key += v.TypeName() + ":" + fmt.Sprint(valueKeyPart(v)) + "|"
	}
	return key, nil
}

// projectAggregated is the GROUP BY/aggregate RETURN path: bindings are
// partitioned by GroupBy, COUNT/SUM/AVG/MIN/MAX are evaluated per
// partition, HAVING filters partitions, and ORDER BY/LIMIT/OFFSET apply
// to the resulting one-row-per-partition output.
func projectAggregated(g *graph.Graph, s *MatchStatement, bindings []binding) (*Result, error) {
	groups := map[string]*partition{}
	var order []string
	for _, b := range bindings {
		key, err := groupKey(g, s.GroupBy, b)
		if err != nil {
			return nil, err
		}
		part, ok := groups[key]
		if !ok {
			part = &partition{rep: b}
			groups[key] = part
			order = append(order, key)
		}
		part.rows = append(part.rows, b)
	}
	// Aggregates over zero bindings with no GROUP BY still produce one
	// output row (COUNT(*) = 0, SUM = 0, ...), matching SQL.
	if len(bindings) == 0 && len(s.GroupBy) == 0 {
		order = []string{""}
		groups[""] = &partition{}
	}

	cols := make([]string, len(s.Return))
	for i, item := range s.Return {
		cols[i] = returnColumnName(item, i)
	}
	aliases := returnAliasIndex(s, cols)

	var sortable []sortableRow
	for _, key := range order {
		part := groups[key]
		row := make(Row, len(s.Return))
		for i, item := range s.Return {
			v, err := evalAggAware(g, item.Expr, part.rows, part.rep)
			if err != nil {
				return nil, err
			}
			row[cols[i]] = v
		}
		if s.Having != nil {
			ok, err := evalHavingResolved(g, s.Having, part.rows, part.rep, row, aliases)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		var keys []gvalue.Value
		if len(s.OrderBy) > 0 {
			keys = make([]gvalue.Value, len(s.OrderBy))
			for i, oi := range s.OrderBy {
				if vr, ok := oi.Expr.(*VarRef); ok {
					if col, ok2 := aliases[vr.Name]; ok2 {
						keys[i] = row[col]
						continue
					}
				}
				v, err := evalAggAware(g, oi.Expr, part.rows, part.rep)
				if err != nil {
					return nil, err
				}
				keys[i] = v
			}
		}
		sortable = append(sortable, sortableRow{row: row, keys: keys})
	}

	if len(s.OrderBy) > 0 {
		if err := sortRows(sortable, s.OrderBy); err != nil {
			return nil, err
		}
	}

	rows := make([]Row, len(sortable))
	for i, sr := range sortable {
		rows[i] = sr.row
	}
	rows = applyLimitOffset(s, rows)
	return &Result{Columns: cols, Rows: rows}, nil
}

func asBool(v gvalue.Value) (bool, error) {
	if v.Tag() != gvalue.TagBool {
		return false, fmt.Errorf("BIND_ERROR: expression does not evaluate to a boolean (got %s)", v.TypeName())
	}
	return v.AsBool(), nil
}

// evalHavingResolved evaluates a HAVING expression, resolving a bare
// reference to a RETURN alias against the already-projected row before
// falling back to aggregate-aware evaluation against the partition.
func evalHavingResolved(g *graph.Graph, e Expr, rows []binding, rep binding, row Row, aliases map[string]string) (bool, error) {
	if vr, ok := e.(*VarRef); ok {
		if col, ok2 := aliases[vr.Name]; ok2 {
			return asBool(row[col])
		}
	}
	v, err := evalAggAware(g, e, rows, rep)
	if err != nil {
		return false, err
	}
	return asBool(v)
}

// evalAggAware evaluates e against a whole partition: a FuncCallExpr is
// computed over rows (the partition's bindings); anything else is
// evaluated against rep, the partition's representative binding.
func evalAggAware(g *graph.Graph, e Expr, rows []binding, rep binding) (gvalue.Value, error) {
	switch ex := e.(type) {
	case *FuncCallExpr:
		return evalAggregate(g, ex, rows)
	case *BinaryExpr:
		if ex.Op == "AND" || ex.Op == "OR" {
			l, err := evalAggAware(g, ex.Left, rows, rep)
			if err != nil {
				return gvalue.Value{}, err
			}
			lb, err := asBool(l)
			if err != nil {
				return gvalue.Value{}, err
			}
			if ex.Op == "AND" && !lb {
				return gvalue.Bool(false), nil
			}
			if ex.Op == "OR" && lb {
				return gvalue.Bool(true), nil
			}
			r, err := evalAggAware(g, ex.Right, rows, rep)
			if err != nil {
				return gvalue.Value{}, err
			}
			return asBoolValue(r)
		}
		l, err := evalAggAware(g, ex.Left, rows, rep)
		if err != nil {
			return gvalue.Value{}, err
		}
		r, err := evalAggAware(g, ex.Right, rows, rep)
		if err != nil {
			return gvalue.Value{}, err
		}
		return compareOp(ex.Op, l, r)
	case *UnaryExpr:
		if ex.Op == "NOT" {
			v, err := evalAggAware(g, ex.Operand, rows, rep)
			if err != nil {
				return gvalue.Value{}, err
			}
			b, err := asBool(v)
			if err != nil {
				return gvalue.Value{}, err
			}
			return gvalue.Bool(!b), nil
		}
		return gvalue.Value{}, fmt.Errorf("INTERNAL: unknown unary operator %q", ex.Op)
	default:
		return evalValue(g, e, rep)
	}
}

func asBoolValue(v gvalue.Value) (gvalue.Value, error) {
	b, err := asBool(v)
	if err != nil {
		return gvalue.Value{}, err
	}
	return gvalue.Bool(b), nil
}

func numericFloat(v gvalue.Value) (float64, error) {
	switch v.Tag() {
	case gvalue.TagInt64:
		return float64(v.AsInt64()), nil
	case gvalue.TagUint64:
		return float64(v.AsUint64()), nil
	case gvalue.TagFloat64:
		return v.AsFloat64(), nil
	default:
		return 0, fmt.Errorf("BIND_ERROR: %s is not numeric", v.TypeName())
	}
}

func evalAggregate(g *graph.Graph, fc *FuncCallExpr, rows []binding) (gvalue.Value, error) {
	switch fc.Name {
	case "COUNT":
		if fc.Star || len(fc.Args) == 0 {
			return gvalue.Int64(int64(len(rows))), nil
		}
		n := 0
		seen := map[string]bool{}
		for _, b := range rows {
			v, err := evalValue(g, fc.Args[0], b)
			if err != nil {
				return gvalue.Value{}, err
			}
			if v.Tag() == gvalue.TagNull {
				continue
			}
			if fc.Distinct {
				key := fmt.Sprint(valueKeyPart(v))
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			n++
		}
		return gvalue.Int64(int64(n)), nil
	case "SUM", "AVG":
		if len(fc.Args) != 1 {
			return gvalue.Value{}, fmt.Errorf("BIND_ERROR: %s takes exactly one argument", fc.Name)
		}
		sum := 0.0
		count := 0
		for _, b := range rows {
			v, err := evalValue(g, fc.Args[0], b)
			if err != nil {
				return gvalue.Value{}, err
			}
			if v.Tag() == gvalue.TagNull {
				continue
			}
			f, err := numericFloat(v)
			if err != nil {
				return gvalue.Value{}, err
			}
			sum += f
			count++
		}
		if fc.Name == "AVG" {
			if count == 0 {
				return gvalue.Null(), nil
			}
			return gvalue.Float64(sum / float64(count)), nil
		}
		return gvalue.Float64(sum), nil
	case "MIN", "MAX":
		if len(fc.Args) != 1 {
			return gvalue.Value{}, fmt.Errorf("BIND_ERROR: %s takes exactly one argument", fc.Name)
		}
		var best gvalue.Value
		have := false
		for _, b := range rows {
			v, err := evalValue(g, fc.Args[0], b)
			if err != nil {
				return gvalue.Value{}, err
			}
			if v.Tag() == gvalue.TagNull {
				continue
			}
			if !have {
				best, have = v, true
				continue
			}
			c, err := gvalue.Compare(v, best)
			if err != nil {
				return gvalue.Value{}, fmt.Errorf("BIND_ERROR: %w", err)
			}
			if (fc.Name == "MIN" && c < 0) || (fc.Name == "MAX" && c > 0) {
				best = v
			}
		}
		if !have {
			return gvalue.Null(), nil
		}
		return best, nil
	default:
		return gvalue.Value{}, fmt.Errorf("BIND_ERROR: unknown aggregate function %q", fc.Name)
	}
}

func rowKey(row Row, cols []string) string {
	key := ""
	for _, c := range cols {
		key += row[c].TypeName() + ":" + fmt.Sprint(valueKeyPart(row[c])) + "|"
	}
	return key
}

func valueKeyPart(v gvalue.Value) any {
	switch v.Tag() {
	case gvalue.TagString:
		return v.AsString()
	case gvalue.TagInt64:
		return v.AsInt64()
	case gvalue.TagUint64:
		return v.AsUint64()
	case gvalue.TagFloat64:
		return v.AsFloat64()
	case gvalue.TagBool:
		return v.AsBool()
	default:
		return v.TypeName()
	}
}

// ─── Composite queries ──────────────────────────────────────────────────

// execComposite runs both sides of a UNION/EXCEPT/INTERSECT/OTHERWISE
// independently and combines their row sets. The two sides combine by
// column POSITION, not name — `MATCH (a:Account) RETURN a UNION MATCH
// (c:Contract) RETURN c` is valid even though the column names differ.
func execComposite(sess *session.Session, admin AdminProvider, s *CompositeStatement) (*Result, error) {
	left, err := Execute(sess, admin, s.Left)
	if err != nil {
		return nil, err
	}
	right, err := Execute(sess, admin, s.Right)
	if err != nil {
		return nil, err
	}
	if err := checkCompositeColumns(left, right); err != nil {
		return nil, err
	}

	rightRows := remapRowColumns(right.Rows, right.Columns, left.Columns)

	switch s.Op {
	case "UNION":
		rows := append(append([]Row{}, left.Rows...), rightRows...)
		if !s.All {
			rows = dedupRows(rows, left.Columns)
		}
		return &Result{Columns: left.Columns, Rows: rows}, nil
	case "EXCEPT":
		rows := rowsExcept(left.Rows, rightRows, left.Columns)
		return &Result{Columns: left.Columns, Rows: rows}, nil
	case "INTERSECT":
		rows := rowsIntersect(left.Rows, rightRows, left.Columns)
		return &Result{Columns: left.Columns, Rows: rows}, nil
	case "OTHERWISE":
		if len(left.Rows) > 0 {
			return left, nil
		}
		return &Result{Columns: left.Columns, Rows: rightRows}, nil
	default:
		return nil, fmt.Errorf("INTERNAL: unknown composite operator %q", s.Op)
	}
}

// checkCompositeColumns enforces the plan-time column-count check a
// composite query needs before its two sides can be combined positionally.
func checkCompositeColumns(left, right *Result) error {
	if len(left.Columns) != len(right.Columns) {
		return fmt.Errorf("BIND_ERROR: composite query sides return %d and %d columns", len(left.Columns), len(right.Columns))
	}
	return nil
}

// remapRowColumns renames each row's keys from fromCols to toCols by
// position, so the right side of a composite query reads under the
// left side's column names.
func remapRowColumns(rows []Row, fromCols, toCols []string) []Row {
	if len(fromCols) == len(toCols) {
		same := true
		for i := range fromCols {
			if fromCols[i] != toCols[i] {
				same = false
				break
			}
		}
		if same {
			return rows
		}
	}
	out := make([]Row, len(rows))
	for i, row := range rows {
		nr := make(Row, len(toCols))
		for j, col := range toCols {
			nr[col] = row[fromCols[j]]
		}
		out[i] = nr
	}
	return out
}

func dedupRows(rows []Row, cols []string) []Row {
	seen := map[string]bool{}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		key := rowKey(row, cols)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

// rowsExcept returns left rows (deduplicated) whose key does not appear
// anywhere in right.
func rowsExcept(left, right []Row, cols []string) []Row {
	exclude := map[string]bool{}
	for _, row := range right {
		exclude[rowKey(row, cols)] = true
	}
	seen := map[string]bool{}
	out := make([]Row, 0, len(left))
	for _, row := range left {
		key := rowKey(row, cols)
		if exclude[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

// rowsIntersect returns left rows (deduplicated) whose key also appears
// in right.
func rowsIntersect(left, right []Row, cols []string) []Row {
	present := map[string]bool{}
	for _, row := range right {
		present[rowKey(row, cols)] = true
	}
	seen := map[string]bool{}
	out := make([]Row, 0)
	for _, row := range left {
		key := rowKey(row, cols)
		if !present[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

// ─── CALL ───────────────────────────────────────────────────────────────

func execCall(sess *session.Session, s *CallStatement) (*Result, error) {
	g, err := sess.Graph()
	if err != nil {
		if s.Optional {
			return &Result{Columns: s.Yield}, nil
		}
		return nil, err
	}

	args := make([]gvalue.Value, len(s.Args))
	for i, a := range s.Args {
		lit, ok := a.(*Literal)
		if !ok {
			return nil, fmt.Errorf("BIND_ERROR: CALL arguments must be literals")
		}
		v, err := literalToValue(lit)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	row, err := runProcedure(g, s.Procedure, args)
	if err != nil {
		if s.Optional {
			return &Result{Columns: s.Yield}, nil
		}
		return nil, err
	}

	cols := s.Yield
	if len(cols) == 0 {
		for k := range row {
			cols = append(cols, k)
		}
		sort.Strings(cols)
	}
	out := make(Row, len(cols))
	for _, c := range cols {
		out[c] = row[c]
	}
	return &Result{Columns: cols, Rows: []Row{out}}, nil
}
