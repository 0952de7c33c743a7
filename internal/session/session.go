// Package session implements per-client session state (spec §4.9): the
// session's current graph, its transaction envelope, and its parameters.
// Sessions are independent; the only state they share is the engine's
// graph catalog, reached through the GraphProvider they were created with.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chaingraph/chaingraph/internal/graph"
	"github.com/chaingraph/chaingraph/internal/gvalue"
)

// GraphProvider resolves graph names to open *graph.Graph handles, without
// tying this package to the root engine type (which in turn depends on
// session) — implemented by the engine.
type GraphProvider interface {
	Graph(name string) (*graph.Graph, error)
}

// Params holds per-session tunables (spec §4.9 "per-session parameters").
type Params struct {
	// Timeout bounds how long a single statement may run before the
	// session cancels it. Zero means no timeout.
	Timeout time.Duration
}

// Session owns one client's current graph selection and transaction
// envelope. The zero value is not usable; construct with New.
type Session struct {
	ID uuid.UUID

	mu        sync.Mutex
	provider  GraphProvider
	graphName string
	g         *graph.Graph
	tx        *Transaction
	params    Params
}

// New creates a session with no graph selected and default parameters.
func New(provider GraphProvider) *Session {
	return &Session{ID: uuid.New(), provider: provider}
}

// Params returns the session's current parameters.
func (s *Session) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetParams replaces the session's parameters (SESSION SET ...).
func (s *Session) SetParams(p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
}

// UseGraph selects name as the session's current graph (USE GRAPH /
// SESSION SET GRAPH). Fails if a transaction is open or the graph does
// not exist.
func (s *Session) UseGraph(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return fmt.Errorf("cannot switch graphs with an open transaction")
	}
	g, err := s.provider.Graph(name)
	if err != nil {
		return err
	}
	s.g = g
	s.graphName = name
	return nil
}

// CurrentGraphName returns the name of the session's current graph, or ""
// if none is selected.
func (s *Session) CurrentGraphName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graphName
}

func (s *Session) requireGraph() (*graph.Graph, error) {
	if s.g == nil {
		return nil, fmt.Errorf("no graph selected: issue USE GRAPH first")
	}
	return s.g, nil
}

// InTransaction reports whether a transaction envelope is currently open.
func (s *Session) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// Begin opens a transaction envelope in the given mode (spec §4.7 "START
// TRANSACTION READ WRITE|READ ONLY").
func (s *Session) Begin(mode TransactionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return fmt.Errorf("transaction already open")
	}
	s.tx = &Transaction{Mode: mode}
	return nil
}

// Commit finalizes the open transaction. Writes made during the
// transaction are already applied to the graph (see Transaction's doc
// comment); Commit simply discards the undo log that would otherwise
// reverse them.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return fmt.Errorf("no transaction open")
	}
	s.tx = nil
	return nil
}

// Rollback undoes every undoable write made during the open transaction,
// in reverse order, and closes the transaction envelope.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return fmt.Errorf("no transaction open")
	}
	err := s.tx.undoAll()
	s.tx = nil
	return err
}

// CreateVertex creates a vertex in the session's current graph. Inside a
// transaction, the vertex's removal is pushed onto the undo log so
// Rollback can reverse it.
func (s *Session) CreateVertex(label string, address *gvalue.Address, props map[string]gvalue.Value) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.requireGraph()
	if err != nil {
		return 0, err
	}
	vid, err := g.CreateVertex(label, address, props)
	if err != nil {
		return 0, err
	}
	if s.tx != nil {
		s.tx.pushUndo(func() error { return g.DeleteVertex(vid, true) })
	}
	return vid, nil
}

// CreateEdge creates an edge in the session's current graph. Inside a
// transaction, the edge's removal is pushed onto the undo log.
func (s *Session) CreateEdge(label string, sourceVID, targetVID uint64, props map[string]gvalue.Value) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.requireGraph()
	if err != nil {
		return 0, err
	}
	eid, err := g.CreateEdge(label, sourceVID, targetVID, props)
	if err != nil {
		return 0, err
	}
	if s.tx != nil {
		s.tx.pushUndo(func() error { return g.DeleteEdge(eid) })
	}
	return eid, nil
}

// DeleteVertex deletes a vertex. Deletions are not undoable — a vertex id
// is never reissued, so a Rollback after a delete cannot restore the
// exact original vid — and so are refused inside an open transaction.
func (s *Session) DeleteVertex(vid uint64, detach bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return fmt.Errorf("DELETE is not permitted inside a transaction (not undoable); commit or rollback first")
	}
	g, err := s.requireGraph()
	if err != nil {
		return err
	}
	return g.DeleteVertex(vid, detach)
}

// DeleteEdge deletes an edge. See DeleteVertex for why deletions are
// refused inside an open transaction.
func (s *Session) DeleteEdge(eid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return fmt.Errorf("DELETE is not permitted inside a transaction (not undoable); commit or rollback first")
	}
	g, err := s.requireGraph()
	if err != nil {
		return err
	}
	return g.DeleteEdge(eid)
}

// Graph returns the session's current graph for read-only use (MATCH,
// CALL procedures), erroring if none is selected.
func (s *Session) Graph() (*graph.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requireGraph()
}
