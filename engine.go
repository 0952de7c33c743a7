// Package chaingraph is the embeddable single-node property-graph engine
// for on-chain link-tracing (spec §1). Open a database file, select or
// create a named graph, and issue GQL through a Session.
//
//	eng, err := chaingraph.Open(chaingraph.EngineConfig{Pager: chaingraph.PagerConfig{Path: "chain.db"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	sess := eng.NewSession()
//	sess.UseGraph("mainnet")
//	rs, err := eng.Execute(sess, "MATCH (w:Wallet) RETURN w.address LIMIT 10")
package chaingraph

import (
	"fmt"
	"sync"
	"time"

	"github.com/chaingraph/chaingraph/internal/gql"
	"github.com/chaingraph/chaingraph/internal/graph"
	"github.com/chaingraph/chaingraph/internal/maintenance"
	"github.com/chaingraph/chaingraph/internal/pager"
	"github.com/chaingraph/chaingraph/internal/session"
)

// Row and Result re-export the gql package's query-result types so
// callers outside this module tree never need to import internal/gql
// directly.
type Row = gql.Row
type Result = gql.Result

// Engine is the top-level handle on one ChainGraph data file. It owns the
// pager, the graph catalog, every open *graph.Graph, and the maintenance
// scheduler. Safe for concurrent use; callers interact with it through
// per-client Sessions (spec §4.9).
type Engine struct {
	mu      sync.Mutex
	pgr     *pager.Pager
	cat     *graph.Catalog
	graphs  map[string]*graph.Graph
	sched   *maintenance.Scheduler
	started time.Time

	stats statsCounters
}

type statsCounters struct {
	mu           sync.Mutex
	queries      uint64
	verticesMade uint64
	edgesMade    uint64
}

// Open opens or creates a ChainGraph data file at cfg.Pager.Path and
// starts its maintenance scheduler.
func Open(cfg EngineConfig) (*Engine, error) {
	pgr, err := pager.Open(pager.PagerConfig{
		Path:               cfg.Pager.Path,
		BufferPoolCapacity: cfg.BufferPool.Capacity,
	})
	if err != nil {
		return nil, newEngineError(ErrStorageCorruption, err)
	}

	cat, err := graph.LoadCatalog(pgr, pgr.Meta().CatalogRoot)
	if err != nil {
		pgr.Close()
		return nil, newEngineError(ErrStorageCorruption, err)
	}

	e := &Engine{
		pgr:     pgr,
		cat:     cat,
		graphs:  map[string]*graph.Graph{},
		started: startTime(),
	}

	e.sched = maintenance.New(pgr, cfg.maintenanceConfig())
	if err := e.sched.Start(); err != nil {
		pgr.Close()
		return nil, newEngineError(ErrInternal, err)
	}

	return e, nil
}

// startTime exists so tests can see Engine.started is set via a single
// call site; Engine never calls time.Now() anywhere else.
func startTime() time.Time { return timeNow() }

// timeNow is the engine's only call to the wall clock, isolated so the
// rest of the package stays deterministic to reason about.
var timeNow = time.Now

// Close stops the maintenance scheduler and flushes and closes the
// underlying data file.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sched.Stop()
	return e.pgr.Close()
}

// NewSession creates a client session against this engine with no graph
// selected.
func (e *Engine) NewSession() *session.Session {
	return session.New(e)
}

// Execute parses and runs query against sess.
func (e *Engine) Execute(sess *session.Session, query string) (*Result, error) {
	e.stats.mu.Lock()
	e.stats.queries++
	e.stats.mu.Unlock()

	p, err := gql.NewParser(query)
	if err != nil {
		return nil, newEngineError(ErrParse, err)
	}
	stmt, err := p.ParseStatement()
	if err != nil {
		return nil, newEngineError(ErrParse, err)
	}

	res, err := gql.Execute(sess, e, stmt)
	if err != nil {
		return nil, classifyExecError(err)
	}

	switch stmt.(type) {
	case *gql.CreateVertexStatement:
		e.stats.mu.Lock()
		e.stats.verticesMade++
		e.stats.mu.Unlock()
	case *gql.CreateEdgeStatement:
		e.stats.mu.Lock()
		e.stats.edgesMade++
		e.stats.mu.Unlock()
	}
	return res, nil
}

// classifyExecError wraps a raw executor error in the EngineError kind
// its BIND_ERROR/CONSTRAINT_VIOLATION/INTERNAL prefix names, falling back
// to NOT_FOUND. The executor's errors are plain fmt.Errorf text rather than
// typed sentinels (spec §7's kinds are a client-facing vocabulary, not an
// internal control-flow mechanism), so classification here is a simple
// prefix match.
func classifyExecError(err error) *EngineError {
	msg := err.Error()
	switch {
	case hasPrefix(msg, "BIND_ERROR"):
		return newEngineError(ErrBind, err)
	case hasPrefix(msg, "CONSTRAINT_VIOLATION"):
		return newEngineError(ErrConstraintViolation, err)
	case hasPrefix(msg, "INTERNAL"):
		return newEngineError(ErrInternal, err)
	default:
		return newEngineError(ErrNotFound, err)
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// ─── session.GraphProvider ──────────────────────────────────────────────

// Graph resolves name to an open *graph.Graph, opening it from the
// catalog on first use.
func (e *Engine) Graph(name string) (*graph.Graph, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if g, ok := e.graphs[name]; ok {
		return g, nil
	}
	g, err := graph.OpenGraph(e.pgr, e.cat, name)
	if err != nil {
		return nil, newEngineError(ErrNotFound, err)
	}
	e.graphs[name] = g
	return g, nil
}

// ─── gql.AdminProvider ──────────────────────────────────────────────────

// CreateGraph registers a new named graph, optionally with an inline
// schema, and persists the catalog's new root.
func (e *Engine) CreateGraph(name string, schema *graph.Schema) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := graph.CreateGraph(e.pgr, e.cat, name, schema)
	if err != nil {
		return newEngineError(ErrConstraintViolation, err)
	}
	e.graphs[name] = g
	return e.pgr.SetRoot("catalog", e.cat.Head())
}

// DropGraph removes a named graph and frees its storage.
func (e *Engine) DropGraph(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := graph.DropGraph(e.pgr, e.cat, name); err != nil {
		return newEngineError(ErrNotFound, err)
	}
	delete(e.graphs, name)
	return e.pgr.SetRoot("catalog", e.cat.Head())
}

// GraphNames lists every graph currently in the catalog.
func (e *Engine) GraphNames() []string {
	return e.cat.Names()
}

// DescribeGraph returns the inline schema registered for name.
func (e *Engine) DescribeGraph(name string) (*graph.Schema, error) {
	entry, ok := e.cat.Get(name)
	if !ok {
		return nil, newEngineError(ErrNotFound, fmt.Errorf("graph %q does not exist", name))
	}
	return entry.Schema, nil
}

// ─── stats ──────────────────────────────────────────────────────────────

// StatsSnapshot is a point-in-time view of the engine's counters (spec
// §6 "Stats").
type StatsSnapshot struct {
	Uptime          time.Duration
	BufferPoolHits  uint64
	BufferPoolMiss  uint64
	WatermarkStatus string
	ResidentPages   int
	PoolCapacity    int
	Queries         uint64
	VerticesCreated uint64
	EdgesCreated    uint64
}

// Stats returns a snapshot of the engine's buffer pool and query counters.
func (e *Engine) Stats() StatsSnapshot {
	poolStats := e.pgr.PoolStats()
	resident, capacity, status := e.pgr.Watermark()

	e.stats.mu.Lock()
	defer e.stats.mu.Unlock()
	return StatsSnapshot{
		Uptime:          timeNow().Sub(e.started),
		BufferPoolHits:  poolStats.Hits,
		BufferPoolMiss:  poolStats.Misses,
		WatermarkStatus: status.String(),
		ResidentPages:   resident,
		PoolCapacity:    capacity,
		Queries:         e.stats.queries,
		VerticesCreated: e.stats.verticesMade,
		EdgesCreated:    e.stats.edgesMade,
	}
}
