package gql

// Statement is the root of any parsed GQL statement.
type Statement interface{ statementNode() }

// Direction is an edge pattern's traversal direction.
type Direction int

const (
	DirOut Direction = iota
	DirIn
	DirEither
)

// LabelExpr is a label expression from a node/edge pattern slot: a bare
// label, the wildcard `%` (matches any label), or a combination built from
// `|` (or), `&` (and), and `!` (not). A nil *LabelExpr means unconstrained.
type LabelExpr struct {
	Wildcard bool   // '%'
	Label    string // leaf: a bare label name
	Op       string // "", "|", "&", "!" — "" means this node is a Label leaf
	Left     *LabelExpr
	Right    *LabelExpr // unused for Op == "!"
}

// Match reports whether name satisfies le. A nil receiver is unconstrained.
func (le *LabelExpr) Match(name string) bool {
	if le == nil {
		return true
	}
	switch le.Op {
	case "|":
		return le.Left.Match(name) || le.Right.Match(name)
	case "&":
		return le.Left.Match(name) && le.Right.Match(name)
	case "!":
		return !le.Left.Match(name)
	default:
		if le.Wildcard {
			return true
		}
		return le.Label == name
	}
}

// BareLabel returns le's single literal label, for statements (CREATE) that
// need a concrete label rather than a match predicate. ok is false for a
// compound expression or a wildcard; a nil (unconstrained) expression
// yields "" with ok true.
func (le *LabelExpr) BareLabel() (name string, ok bool) {
	if le == nil {
		return "", true
	}
	if le.Op == "" && !le.Wildcard {
		return le.Label, true
	}
	return "", false
}

// NodePattern is one node slot in a MATCH pattern: `(var:Label {props})`.
// Outside a MATCH (a bare CREATE edge statement has no bound variables to
// reference), a node slot may instead hold a literal vid: `(123)`.
type NodePattern struct {
	Var        string
	VID        *uint64    // set instead of Var for a literal-vid node slot
	Label      *LabelExpr // nil = unconstrained
	Properties map[string]Expr
}

// Quantifier bounds the number of hops a quantified edge pattern may span:
// `{n,m}`, `*` ({0,unbounded}), `+` ({1,unbounded}), `?` ({0,1}). Max < 0
// means unbounded.
type Quantifier struct {
	Min int
	Max int
}

// EdgePattern is one relationship slot in a MATCH pattern:
// `-[var:Label {props}]->` (or the reverse/either-direction arrows). Quant
// is nil for an ordinary single-hop edge.
type EdgePattern struct {
	Var        string
	Label      *LabelExpr
	Direction  Direction
	Properties map[string]Expr
	Quant      *Quantifier
}

// PatternElement is one (node, edge) step of a path pattern. Edge is nil
// for a pattern containing only a single node.
type PatternElement struct {
	Node *NodePattern
	Edge *EdgePattern // the edge leading INTO Node from the previous element
}

// Pattern is a full path pattern: a chain of node/edge steps.
type Pattern struct {
	Elements []PatternElement
}

// PathSearchMode selects which of a quantified pattern's candidate paths
// between a bound (source, target) pair survive, per the path-search
// prefix written before the pattern (SHORTEST, ALL SHORTEST, ANY, ...).
type PathSearchMode int

const (
	// PathAll keeps every candidate path in the quantifier's hop range —
	// also the behavior when no prefix is written at all.
	PathAll PathSearchMode = iota
	// PathAny keeps one (or, with K set, up to K) arbitrary paths.
	PathAny
	// PathShortest keeps one min-hop path (ANY SHORTEST is an alias).
	PathShortest
	// PathAllShortest keeps every path tied for the minimum hop count.
	PathAllShortest
	// PathShortestK keeps up to K paths in non-decreasing hop order.
	PathShortestK
	// PathShortestKGroups keeps every path from the K smallest distinct
	// hop-count groups.
	PathShortestKGroups
)

// PathSearch is the optional prefix written between MATCH and a quantified
// pattern: SHORTEST, ALL SHORTEST, ANY, ANY k, ANY SHORTEST, SHORTEST k,
// SHORTEST k GROUPS, ALL. K is 0 when the prefix carries no count.
type PathSearch struct {
	Mode PathSearchMode
	K    int
}

// OrderItem is one ORDER BY expression, ascending unless Desc is set.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// MatchStatement is
// `MATCH [<search>] <pattern> [WHERE <expr>] RETURN <items>
//  [GROUP BY <exprs>] [HAVING <expr>] [ORDER BY <items>] [LIMIT n] [OFFSET n]`.
type MatchStatement struct {
	Optional bool
	Search   *PathSearch
	Pattern  Pattern
	Where    Expr
	Return   []ReturnItem
	Distinct bool
	GroupBy  []Expr
	Having   Expr
	OrderBy  []OrderItem
	Limit    *int
	Offset   *int
}

func (*MatchStatement) statementNode() {}

// CompositeStatement is `<left> UNION [ALL] | EXCEPT | INTERSECT | OTHERWISE
// <right>`, combining two row-producing statements' result sets.
type CompositeStatement struct {
	Op    string // UNION, EXCEPT, INTERSECT, OTHERWISE
	All   bool   // only meaningful for UNION
	Left  Statement
	Right Statement
}

func (*CompositeStatement) statementNode() {}

// ReturnItem is one projected expression, optionally aliased.
type ReturnItem struct {
	Expr  Expr
	Alias string
}

// CreateVertexStatement is `CREATE (n:Label {props})`, outside any MATCH.
type CreateVertexStatement struct {
	Node NodePattern
}

func (*CreateVertexStatement) statementNode() {}

// CreateEdgeStatement is `CREATE (a)-[e:Label {props}]->(b)`, where a and
// b are each a literal vid (`(123)`). A variable endpoint parses, but the
// executor rejects it with BIND_ERROR.
type CreateEdgeStatement struct {
	Source NodePattern
	Target NodePattern
	Edge   EdgePattern
}

func (*CreateEdgeStatement) statementNode() {}

// DeleteStatement is `DELETE [DETACH] <var>`. Each entry in Vars is
// either a bound variable name or the decimal text of a literal vid, for
// a standalone DELETE with no preceding MATCH.
type DeleteStatement struct {
	Detach bool
	Vars   []string
}

func (*DeleteStatement) statementNode() {}

// UseGraphStatement is `USE GRAPH <name>`.
type UseGraphStatement struct{ Name string }

func (*UseGraphStatement) statementNode() {}

// CreateGraphStatement is `CREATE GRAPH <name>`.
type CreateGraphStatement struct{ Name string }

func (*CreateGraphStatement) statementNode() {}

// DropGraphStatement is `DROP GRAPH <name>`.
type DropGraphStatement struct{ Name string }

func (*DropGraphStatement) statementNode() {}

// ShowGraphsStatement is `SHOW GRAPHS`.
type ShowGraphsStatement struct{}

func (*ShowGraphsStatement) statementNode() {}

// DescribeGraphStatement is `DESCRIBE GRAPH <name>`.
type DescribeGraphStatement struct{ Name string }

func (*DescribeGraphStatement) statementNode() {}

// StartTransactionStatement is `START TRANSACTION READ WRITE|READ ONLY`.
type StartTransactionStatement struct{ ReadOnly bool }

func (*StartTransactionStatement) statementNode() {}

// CommitStatement is `COMMIT`.
type CommitStatement struct{}

func (*CommitStatement) statementNode() {}

// RollbackStatement is `ROLLBACK`.
type RollbackStatement struct{}

func (*RollbackStatement) statementNode() {}

// CallStatement is `[OPTIONAL] CALL proc(args) [YIELD names]`.
type CallStatement struct {
	Optional  bool
	Procedure string
	Args      []Expr
	Yield     []string
}

func (*CallStatement) statementNode() {}

// ─── Expressions ────────────────────────────────────────────────────────

// Expr is any scalar expression: literal, variable reference, property
// access, or binary operation.
type Expr interface{ exprNode() }

// Literal is an integer/float/string/bool/null literal.
type Literal struct{ Value any }

func (*Literal) exprNode() {}

// VarRef references a bound pattern variable.
type VarRef struct{ Name string }

func (*VarRef) exprNode() {}

// PropertyAccess is `var.property`.
type PropertyAccess struct {
	Var      string
	Property string
}

func (*PropertyAccess) exprNode() {}

// BinaryExpr is a binary comparison/logical expression.
type BinaryExpr struct {
	Op    string // =, <>, <, <=, >, >=, AND, OR
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is `NOT <expr>`.
type UnaryExpr struct {
	Op      string
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// FuncCallExpr is `NAME(args...)` or `NAME(*)` — covers the built-in
// aggregates (COUNT, SUM, AVG, MIN, MAX) a RETURN/GROUP BY clause may use.
type FuncCallExpr struct {
	Name     string
	Args     []Expr
	Star     bool
	Distinct bool
}

func (*FuncCallExpr) exprNode() {}
