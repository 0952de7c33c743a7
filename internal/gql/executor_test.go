package gql

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaingraph/chaingraph/internal/graph"
	"github.com/chaingraph/chaingraph/internal/pager"
	"github.com/chaingraph/chaingraph/internal/session"
)

type fakeProvider struct {
	pgr *pager.Pager
	cat *graph.Catalog
}

func (p *fakeProvider) Graph(name string) (*graph.Graph, error) {
	return graph.OpenGraph(p.pgr, p.cat, name)
}

func (p *fakeProvider) CreateGraph(name string, schema *graph.Schema) error {
	_, err := graph.CreateGraph(p.pgr, p.cat, name, schema)
	return err
}

func (p *fakeProvider) DropGraph(name string) error {
	return graph.DropGraph(p.pgr, p.cat, name)
}

func (p *fakeProvider) GraphNames() []string { return p.cat.Names() }

func (p *fakeProvider) DescribeGraph(name string) (*graph.Schema, error) {
	entry, ok := p.cat.Get(name)
	if !ok {
		return nil, errNotFoundTest(name)
	}
	return entry.Schema, nil
}

type errNotFoundTest string

func (e errNotFoundTest) Error() string { return "graph not found: " + string(e) }

func newTestFixture(t *testing.T) (*session.Session, *fakeProvider) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.chgrph")
	pgr, err := pager.Open(pager.PagerConfig{Path: path})
	if err != nil {
		t.Fatalf("pager.Open: %v", err)
	}
	t.Cleanup(func() { pgr.Close() })
	cat := graph.NewCatalog(pgr)
	provider := &fakeProvider{pgr: pgr, cat: cat}
	sess := session.New(provider)
	return sess, provider
}

func mustExecute(t *testing.T, sess *session.Session, admin AdminProvider, query string) *Result {
	t.Helper()
	p, err := NewParser(query)
	if err != nil {
		t.Fatalf("NewParser(%q): %v", query, err)
	}
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement(%q): %v", query, err)
	}
	res, err := Execute(sess, admin, stmt)
	if err != nil {
		t.Fatalf("Execute(%q): %v", query, err)
	}
	return res
}

func TestExecutor_CreateGraphUseGraphCreateVertex(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")
	res := mustExecute(t, sess, admin, `CREATE (w:Wallet {address: '0xabc', balance: 100})`)
	require.Len(t, res.Rows, 1)
}

func TestExecutor_ShowGraphs(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH a")
	mustExecute(t, sess, admin, "CREATE GRAPH b")
	res := mustExecute(t, sess, admin, "SHOW GRAPHS")
	require.Len(t, res.Rows, 2)
}

func TestExecutor_MatchReturnsCreatedVertex(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")
	mustExecute(t, sess, admin, `CREATE (w:Wallet {address: '0xabc', balance: 100})`)
	mustExecute(t, sess, admin, `CREATE (w:Wallet {address: '0xdef', balance: 5})`)

	res := mustExecute(t, sess, admin, `MATCH (w:Wallet) WHERE w.balance > 10 RETURN w.address`)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "0xabc", res.Rows[0]["w.address"].AsString())
}

func TestExecutor_MatchOneHop(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")
	mustExecute(t, sess, admin, `CREATE (w:Wallet {address: '0xa'})`)
	mustExecute(t, sess, admin, `CREATE (w:Wallet {address: '0xb'})`)
	mustExecute(t, sess, admin, `CREATE (1)-[t:Transfer {amount: 10}]->(2)`)

	res := mustExecute(t, sess, admin, `MATCH (a:Wallet)-[t:Transfer]->(b:Wallet) RETURN t.amount`)
	require.Len(t, res.Rows, 1)
}

func TestExecutor_TransactionCommitAndRollback(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")

	mustExecute(t, sess, admin, "START TRANSACTION READ WRITE")
	mustExecute(t, sess, admin, `CREATE (w:Wallet {address: '0xa'})`)
	mustExecute(t, sess, admin, "COMMIT")

	res := mustExecute(t, sess, admin, `MATCH (w:Wallet) RETURN w.address`)
	require.Len(t, res.Rows, 1, "row should survive COMMIT")

	mustExecute(t, sess, admin, "START TRANSACTION READ WRITE")
	mustExecute(t, sess, admin, `CREATE (w:Wallet {address: '0xb'})`)
	mustExecute(t, sess, admin, "ROLLBACK")

	res = mustExecute(t, sess, admin, `MATCH (w:Wallet) RETURN w.address`)
	require.Len(t, res.Rows, 1, "row created in a rolled-back transaction should be gone")
}

func TestExecutor_DeleteRemovesVertex(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")
	created := mustExecute(t, sess, admin, `CREATE (w:Wallet {address: '0xa'})`)
	vid := created.Rows[0]["vid"].AsUint64()

	mustExecute(t, sess, admin, "DELETE DETACH "+uintToStr(vid))

	res := mustExecute(t, sess, admin, `MATCH (w:Wallet) RETURN w.address`)
	require.Empty(t, res.Rows, "vertex should be gone after DELETE DETACH")
}

func TestExecutor_CompositeUnion(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")
	mustExecute(t, sess, admin, `CREATE (a:Account {name: 'alice'})`)
	mustExecute(t, sess, admin, `CREATE (c:Contract {name: 'dex'})`)

	res := mustExecute(t, sess, admin, `MATCH (a:Account) RETURN a UNION MATCH (c:Contract) RETURN c`)
	require.Len(t, res.Rows, 2)
	require.Equal(t, []string{"a"}, res.Columns)

	resAll := mustExecute(t, sess, admin, `MATCH (a:Account) RETURN a.name UNION ALL MATCH (a:Account) RETURN a.name`)
	require.Len(t, resAll.Rows, 2, "UNION ALL must preserve duplicates")

	resDedup := mustExecute(t, sess, admin, `MATCH (a:Account) RETURN a.name UNION MATCH (a:Account) RETURN a.name`)
	require.Len(t, resDedup.Rows, 1, "plain UNION must deduplicate")
}

func TestExecutor_QuantifiedPathMatch(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")
	mustExecute(t, sess, admin, `CREATE (a:Wallet {address: '0xa'})`)
	mustExecute(t, sess, admin, `CREATE (b:Wallet {address: '0xb'})`)
	mustExecute(t, sess, admin, `CREATE (c:Wallet {address: '0xc'})`)
	mustExecute(t, sess, admin, `CREATE (1)-[t:Transfer]->(2)`)
	mustExecute(t, sess, admin, `CREATE (2)-[t:Transfer]->(3)`)

	res := mustExecute(t, sess, admin, `MATCH (a:Wallet {address: '0xa'})-[t:Transfer*1..5]->(b:Wallet {address: '0xc'}) RETURN b.address`)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "0xc", res.Rows[0]["b.address"].AsString())
}

func TestExecutor_GroupByAggregateHaving(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")
	mustExecute(t, sess, admin, `CREATE (w:Wallet {address: '0xa', owner: 'alice', balance: 10})`)
	mustExecute(t, sess, admin, `CREATE (w:Wallet {address: '0xb', owner: 'alice', balance: 20})`)
	mustExecute(t, sess, admin, `CREATE (w:Wallet {address: '0xc', owner: 'bob', balance: 5})`)

	res := mustExecute(t, sess, admin,
		`MATCH (w:Wallet) RETURN w.owner AS owner, COUNT(*) AS cnt, SUM(w.balance) AS total `+
			`GROUP BY w.owner HAVING COUNT(*) > 1 ORDER BY owner`)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "alice", res.Rows[0]["owner"].AsString())
	require.Equal(t, int64(2), res.Rows[0]["cnt"].AsInt64())
	require.Equal(t, float64(30), res.Rows[0]["total"].AsFloat64())
}

func TestExecutor_LabelExpressionMatch(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")
	mustExecute(t, sess, admin, `CREATE (a:Account {name: 'alice'})`)
	mustExecute(t, sess, admin, `CREATE (c:Contract {name: 'dex'})`)
	mustExecute(t, sess, admin, `CREATE (w:Wallet {name: 'hot'})`)

	res := mustExecute(t, sess, admin, `MATCH (n:Account|Contract) RETURN n.name ORDER BY n.name`)
	require.Len(t, res.Rows, 2)
}

func uintToStr(u uint64) string {
	if u == 0 {
		return "0"
	}
	var digits []byte
	for u > 0 {
		digits = append([]byte{byte('0' + u%10)}, digits...)
		u /= 10
	}
	return string(digits)
}
