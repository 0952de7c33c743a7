package gql

import (
	"fmt"
	"math"
	"math/big"

	"github.com/chaingraph/chaingraph/internal/graph"
	"github.com/chaingraph/chaingraph/internal/gvalue"
)

// Built-in algorithm procedures (spec §4.8), invoked via CALL. Each takes
// the already-evaluated call arguments and returns its YIELD-able columns
// as a Row. Traversal shape (parent maps, visited sets, plain-slice
// queues) follows the BFS/Edmonds–Karp style used elsewhere in the
// example corpus for graph search.

type procedureFunc func(g *graph.Graph, args []gvalue.Value) (Row, error)

var procedures = map[string]procedureFunc{
	"neighbors":     procNeighbors,
	"degree":        procDegree,
	"connected":     procConnected,
	"shortest_path": procShortestPath,
	"all_paths":     procAllPaths,
	"trace":         procTrace,
	"max_flow":      procMaxFlow,
}

func runProcedure(g *graph.Graph, name string, args []gvalue.Value) (Row, error) {
	fn, ok := procedures[name]
	if !ok {
		return nil, fmt.Errorf("BIND_ERROR: unknown procedure %q", name)
	}
	return fn(g, args)
}

func argVID(args []gvalue.Value, i int) (uint64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("BIND_ERROR: missing argument %d", i)
	}
	switch args[i].Tag() {
	case gvalue.TagUint64:
		return args[i].AsUint64(), nil
	case gvalue.TagInt64:
		return uint64(args[i].AsInt64()), nil
	default:
		return 0, fmt.Errorf("BIND_ERROR: argument %d must be a vertex id", i)
	}
}

func argStringOr(args []gvalue.Value, i int, def string) string {
	if i >= len(args) || args[i].Tag() != gvalue.TagString {
		return def
	}
	return args[i].AsString()
}

func argIntOr(args []gvalue.Value, i int, def int) int {
	if i >= len(args) {
		return def
	}
	switch args[i].Tag() {
	case gvalue.TagInt64:
		return int(args[i].AsInt64())
	case gvalue.TagUint64:
		return int(args[i].AsUint64())
	default:
		return def
	}
}

func vidList(vids []uint64) gvalue.Value {
	vals := make([]gvalue.Value, len(vids))
	for i, v := range vids {
		vals[i] = gvalue.Uint64(v)
	}
	return gvalue.List(vals)
}

// neighbors(vid, direction = 'both') — the vids adjacent to vid.
func procNeighbors(g *graph.Graph, args []gvalue.Value) (Row, error) {
	vid, err := argVID(args, 0)
	if err != nil {
		return nil, err
	}
	dir := argStringOr(args, 1, "both")
	var out []uint64
	if err := g.Neighbors(vid, dir, func(neighborVID, _ uint64) bool {
		out = append(out, neighborVID)
		return true
	}); err != nil {
		return nil, err
	}
	return Row{"vid": gvalue.Uint64(vid), "neighbors": vidList(out)}, nil
}

// degree(vid, direction = 'both') — the number of incident edges.
func procDegree(g *graph.Graph, args []gvalue.Value) (Row, error) {
	vid, err := argVID(args, 0)
	if err != nil {
		return nil, err
	}
	dir := argStringOr(args, 1, "both")
	count := 0
	if err := g.Neighbors(vid, dir, func(_, _ uint64) bool {
		count++
		return true
	}); err != nil {
		return nil, err
	}
	return Row{"vid": gvalue.Uint64(vid), "degree": gvalue.Int64(int64(count))}, nil
}

// connected(src, dst) — whether dst is reachable from src ignoring
// direction.
func procConnected(g *graph.Graph, args []gvalue.Value) (Row, error) {
	src, err := argVID(args, 0)
	if err != nil {
		return nil, err
	}
	dst, err := argVID(args, 1)
	if err != nil {
		return nil, err
	}
	visited := map[uint64]bool{src: true}
	queue := []uint64{src}
	found := src == dst
	for len(queue) > 0 && !found {
		v := queue[0]
		queue = queue[1:]
		var iterErr error
		g.Neighbors(v, "both", func(neighborVID, _ uint64) bool {
			if neighborVID == dst {
				found = true
				return false
			}
			if !visited[neighborVID] {
				visited[neighborVID] = true
				queue = append(queue, neighborVID)
			}
			return true
		})
		if iterErr != nil {
			return nil, iterErr
		}
	}
	return Row{"connected": gvalue.Bool(found)}, nil
}

// shortest_path(src, dst, direction = 'both') — a minimum-hop path from
// src to dst, found via BFS (unweighted: every edge costs one hop).
func procShortestPath(g *graph.Graph, args []gvalue.Value) (Row, error) {
	src, err := argVID(args, 0)
	if err != nil {
		return nil, err
	}
	dst, err := argVID(args, 1)
	if err != nil {
		return nil, err
	}
	dir := argStringOr(args, 2, "both")

	if src == dst {
		return Row{"path": vidList([]uint64{src}), "length": gvalue.Int64(0)}, nil
	}

	parent := map[uint64]uint64{src: src}
	visited := map[uint64]bool{src: true}
	queue := []uint64{src}
	found := false
	for len(queue) > 0 && !found {
		v := queue[0]
		queue = queue[1:]
		g.Neighbors(v, dir, func(neighborVID, _ uint64) bool {
			if visited[neighborVID] {
				return true
			}
			visited[neighborVID] = true
			parent[neighborVID] = v
			if neighborVID == dst {
				found = true
				return false
			}
			queue = append(queue, neighborVID)
			return true
		})
	}
	if !found {
		return Row{"path": gvalue.List(nil), "length": gvalue.Null()}, nil
	}

	var path []uint64
	for cur := dst; ; cur = parent[cur] {
		path = append([]uint64{cur}, path...)
		if cur == src {
			break
		}
	}
	return Row{"path": vidList(path), "length": gvalue.Int64(int64(len(path) - 1))}, nil
}

// all_paths(src, dst, max_depth = 10) — every simple path from src to dst
// with at most max_depth hops, found via bounded DFS.
func procAllPaths(g *graph.Graph, args []gvalue.Value) (Row, error) {
	src, err := argVID(args, 0)
	if err != nil {
		return nil, err
	}
	dst, err := argVID(args, 1)
	if err != nil {
		return nil, err
	}
	maxDepth := argIntOr(args, 2, 10)

	var paths [][]uint64
	visiting := map[uint64]bool{src: true}
	var dfs func(cur uint64, path []uint64) error
	dfs = func(cur uint64, path []uint64) error {
		if cur == dst {
			paths = append(paths, append([]uint64{}, path...))
			return nil
		}
		if len(path) > maxDepth {
			return nil
		}
		var iterErr error
		g.Neighbors(cur, "out", func(neighborVID, _ uint64) bool {
			if visiting[neighborVID] {
				return true
			}
			visiting[neighborVID] = true
			path = append(path, neighborVID)
			if err := dfs(neighborVID, path); err != nil {
				iterErr = err
			}
			path = path[:len(path)-1]
			visiting[neighborVID] = false
			return iterErr == nil
		})
		return iterErr
	}
	if err := dfs(src, []uint64{src}); err != nil {
		return nil, err
	}

	pathValues := make([]gvalue.Value, len(paths))
	for i, p := range paths {
		pathValues[i] = vidList(p)
	}
	return Row{"paths": gvalue.List(pathValues), "count": gvalue.Int64(int64(len(paths)))}, nil
}

// trace(start, direction = 'forward', max_depth = 10) — every vid
// reachable from start within max_depth hops, following in-edges for
// 'backward', both directions for 'both', or out-edges for anything else.
func procTrace(g *graph.Graph, args []gvalue.Value) (Row, error) {
	start, err := argVID(args, 0)
	if err != nil {
		return nil, err
	}
	direction := argStringOr(args, 1, "forward")
	maxDepth := argIntOr(args, 2, 10)

	dir := "out"
	switch direction {
	case "backward":
		dir = "in"
	case "both":
		dir = "both"
	}

	visited := map[uint64]bool{start: true}
	order := []uint64{start}
	type item struct {
		vid   uint64
		depth int
	}
	queue := []item{{start, 0}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if it.depth >= maxDepth {
			continue
		}
		g.Neighbors(it.vid, dir, func(neighborVID, _ uint64) bool {
			if visited[neighborVID] {
				return true
			}
			visited[neighborVID] = true
			order = append(order, neighborVID)
			queue = append(queue, item{neighborVID, it.depth + 1})
			return true
		})
	}
	return Row{"start": gvalue.Uint64(start), "visited": vidList(order)}, nil
}

// ─── max_flow ───────────────────────────────────────────────────────────

type flowEdge struct {
	to   uint64
	cap  float64
	flow float64
	rev  int
}

// max_flow(src, sink) — maximum flow from src to sink via Edmonds–Karp,
// using each out-edge's amount property as capacity (default 1.0 for
// edges without one).
func procMaxFlow(g *graph.Graph, args []gvalue.Value) (Row, error) {
	src, err := argVID(args, 0)
	if err != nil {
		return nil, err
	}
	sink, err := argVID(args, 1)
	if err != nil {
		return nil, err
	}

	adj, err := buildFlowNetwork(g, src)
	if err != nil {
		return nil, err
	}

	total := 0.0
	const eps = 1e-9
	for {
		parentEdge := map[uint64]*flowEdge{}
		parentVertex := map[uint64]uint64{}
		visited := map[uint64]bool{src: true}
		queue := []uint64{src}
		found := false
		for len(queue) > 0 && !found {
			v := queue[0]
			queue = queue[1:]
			for _, e := range adj[v] {
				if visited[e.to] || e.cap-e.flow <= eps {
					continue
				}
				visited[e.to] = true
				parentEdge[e.to] = e
				parentVertex[e.to] = v
				if e.to == sink {
					found = true
					break
				}
				queue = append(queue, e.to)
			}
		}
		if !found {
			break
		}
		bottleneck := math.Inf(1)
		for v := sink; v != src; v = parentVertex[v] {
			e := parentEdge[v]
			if r := e.cap - e.flow; r < bottleneck {
				bottleneck = r
			}
		}
		for v := sink; v != src; v = parentVertex[v] {
			e := parentEdge[v]
			e.flow += bottleneck
			adj[e.to][e.rev].flow -= bottleneck
		}
		total += bottleneck
	}
	return Row{"src": gvalue.Uint64(src), "sink": gvalue.Uint64(sink), "max_flow": gvalue.Float64(total)}, nil
}

// buildFlowNetwork discovers, via BFS over out-edges starting at src, the
// subgraph reachable from src and builds its residual-capacity adjacency
// list for Edmonds–Karp.
func buildFlowNetwork(g *graph.Graph, src uint64) (map[uint64][]*flowEdge, error) {
	adj := map[uint64][]*flowEdge{}
	visited := map[uint64]bool{src: true}
	queue := []uint64{src}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		var iterErr error
		g.Neighbors(v, "out", func(neighborVID, eid uint64) bool {
			edge, _, err := g.GetEdge(eid)
			if err != nil {
				iterErr = err
				return false
			}
			addFlowEdge(adj, v, neighborVID, edgeCapacity(g, edge))
			if !visited[neighborVID] {
				visited[neighborVID] = true
				queue = append(queue, neighborVID)
			}
			return true
		})
		if iterErr != nil {
			return nil, iterErr
		}
	}
	return adj, nil
}

func addFlowEdge(adj map[uint64][]*flowEdge, from, to uint64, cap float64) {
	fwd := &flowEdge{to: to, cap: cap}
	bwd := &flowEdge{to: from, cap: 0}
	adj[from] = append(adj[from], fwd)
	adj[to] = append(adj[to], bwd)
	fwd.rev = len(adj[to]) - 1
	bwd.rev = len(adj[from]) - 1
}

func edgeCapacity(g *graph.Graph, e *graph.Edge) float64 {
	props := g.PropertiesByName(e.Properties)
	v, ok := props["amount"]
	if !ok {
		return 1.0
	}
	switch v.Tag() {
	case gvalue.TagAmount:
		f, _ := new(big.Float).SetInt(v.AsAmount()).Float64()
		return f
	case gvalue.TagFloat64:
		return v.AsFloat64()
	case gvalue.TagInt64:
		return float64(v.AsInt64())
	case gvalue.TagUint64:
		return float64(v.AsUint64())
	default:
		return 1.0
	}
}
