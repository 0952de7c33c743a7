package gql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcedures_ShortestPathAndConnected(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")
	mustExecute(t, sess, admin, `CREATE (a:Wallet {address: '0xa'})`)
	mustExecute(t, sess, admin, `CREATE (b:Wallet {address: '0xb'})`)
	mustExecute(t, sess, admin, `CREATE (c:Wallet {address: '0xc'})`)
	mustExecute(t, sess, admin, `CREATE (1)-[t:Transfer]->(2)`)
	mustExecute(t, sess, admin, `CREATE (2)-[t:Transfer]->(3)`)

	res := mustExecute(t, sess, admin, `CALL shortest_path(1, 3) YIELD path, length`)
	require.Len(t, res.Rows, 1)
	require.Equal(t, int64(2), res.Rows[0]["length"].AsInt64())

	res = mustExecute(t, sess, admin, `CALL connected(1, 3) YIELD connected`)
	require.True(t, res.Rows[0]["connected"].AsBool())
}

func TestProcedures_DegreeAndNeighbors(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")
	mustExecute(t, sess, admin, `CREATE (a:Wallet {address: '0xa'})`)
	mustExecute(t, sess, admin, `CREATE (b:Wallet {address: '0xb'})`)
	mustExecute(t, sess, admin, `CREATE (c:Wallet {address: '0xc'})`)
	mustExecute(t, sess, admin, `CREATE (1)-[t:Transfer]->(2)`)
	mustExecute(t, sess, admin, `CREATE (1)-[t:Transfer]->(3)`)

	res := mustExecute(t, sess, admin, `CALL degree(1) YIELD degree`)
	require.Equal(t, int64(2), res.Rows[0]["degree"].AsInt64())

	res = mustExecute(t, sess, admin, `CALL neighbors(1) YIELD neighbors`)
	require.Len(t, res.Rows[0]["neighbors"].AsList(), 2)
}

func TestProcedures_MaxFlow(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")
	mustExecute(t, sess, admin, `CREATE (a:Wallet {address: '0xa'})`)
	mustExecute(t, sess, admin, `CREATE (b:Wallet {address: '0xb'})`)
	mustExecute(t, sess, admin, `CREATE (c:Wallet {address: '0xc'})`)
	mustExecute(t, sess, admin, `CREATE (1)-[t:Transfer {amount: 5}]->(2)`)
	mustExecute(t, sess, admin, `CREATE (1)-[t:Transfer {amount: 3}]->(2)`)
	mustExecute(t, sess, admin, `CREATE (2)-[t:Transfer {amount: 4}]->(3)`)

	res := mustExecute(t, sess, admin, `CALL max_flow(1, 3) YIELD max_flow`)
	require.Equal(t, float64(4), res.Rows[0]["max_flow"].AsFloat64(),
		"max flow should be bottlenecked by the single 2->3 edge")
}

func TestProcedures_OptionalCallOnMissingVertexYieldsEmpty(t *testing.T) {
	sess, admin := newTestFixture(t)
	mustExecute(t, sess, admin, "CREATE GRAPH mainnet")
	mustExecute(t, sess, admin, "USE GRAPH mainnet")

	res := mustExecute(t, sess, admin, `OPTIONAL CALL degree(999) YIELD degree`)
	require.Empty(t, res.Rows)
}
