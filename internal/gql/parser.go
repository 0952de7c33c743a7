package gql

import (
	"fmt"
	"strings"
)

// Parser consumes tokens from a Lexer and produces a Statement.
//
// It covers the statement and pattern grammar the planner/executor in this
// package runs: MATCH (with quantified and single-hop patterns, label
// expressions, path-search prefixes, GROUP BY/aggregates/HAVING/ORDER BY),
// composite queries (UNION/UNION ALL/EXCEPT/INTERSECT/OTHERWISE),
// CREATE/DELETE, the graph-DDL statements, the transaction statements, and
// CALL. A MATCH pattern is still limited to a single node or a single
// (node, edge, node) chain — the quantifier on that one edge is what
// stands in for an arbitrary-length path.
type Parser struct {
	lex  *Lexer
	tok  Token
	peek *Token
}

// NewParser creates a Parser over src.
func NewParser(src string) (*Parser, error) {
	p := &Parser{lex: NewLexer(src)}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) next() error {
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return nil
	}
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *Parser) lookahead() (Token, error) {
	if p.peek == nil {
		t, err := p.lex.Next()
		if err != nil {
			return Token{}, err
		}
		p.peek = &t
	}
	return *p.peek, nil
}

func (p *Parser) errf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%d:%d: %s (at %q)", p.tok.Line, p.tok.Column, msg, p.tok.Text)
}

func (p *Parser) isKeyword(kw string) bool { return p.tok.Kind == TokKeyword && p.tok.Text == kw }
func (p *Parser) isPunct(s string) bool    { return p.tok.Kind == TokPunct && p.tok.Text == s }

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.errf("expected keyword %s", kw)
	}
	return p.next()
}

func (p *Parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return p.errf("expected %q", s)
	}
	return p.next()
}

func (p *Parser) expectIdent() (string, error) {
	if p.tok.Kind != TokIdent {
		return "", p.errf("expected identifier")
	}
	name := p.tok.Text
	return name, p.next()
}

// ParseStatement parses exactly one statement, including any trailing
// composite-query operators (UNION [ALL] / EXCEPT / INTERSECT / OTHERWISE)
// chaining further statements onto it.
func (p *Parser) ParseStatement() (Statement, error) {
	left, err := p.parseSimpleStatement()
	if err != nil {
		return nil, err
	}
	for {
		op, all, ok, err := p.parseCompositeOp()
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseSimpleStatement()
		if err != nil {
			return nil, err
		}
		left = &CompositeStatement{Op: op, All: all, Left: left, Right: right}
	}
}

// parseCompositeOp consumes a UNION [ALL] / EXCEPT / INTERSECT / OTHERWISE
// keyword if the current token starts one, reporting which.
func (p *Parser) parseCompositeOp() (op string, all bool, ok bool, err error) {
	switch {
	case p.isKeyword("UNION"):
		if err := p.next(); err != nil {
			return "", false, false, err
		}
		if p.isKeyword("ALL") {
			if err := p.next(); err != nil {
				return "", false, false, err
			}
			return "UNION", true, true, nil
		}
		return "UNION", false, true, nil
	case p.isKeyword("EXCEPT"):
		if err := p.next(); err != nil {
			return "", false, false, err
		}
		return "EXCEPT", false, true, nil
	case p.isKeyword("INTERSECT"):
		if err := p.next(); err != nil {
			return "", false, false, err
		}
		return "INTERSECT", false, true, nil
	case p.isKeyword("OTHERWISE"):
		if err := p.next(); err != nil {
			return "", false, false, err
		}
		return "OTHERWISE", false, true, nil
	default:
		return "", false, false, nil
	}
}

func (p *Parser) parseSimpleStatement() (Statement, error) {
	switch {
	case p.isKeyword("USE"):
		return p.parseUseGraph()
	case p.isKeyword("CREATE"):
		return p.parseCreate()
	case p.isKeyword("DROP"):
		return p.parseDropGraph()
	case p.isKeyword("SHOW"):
		return p.parseShowGraphs()
	case p.isKeyword("DESCRIBE"):
		return p.parseDescribeGraph()
	case p.isKeyword("START"):
		return p.parseStartTransaction()
	case p.isKeyword("COMMIT"):
		if err := p.next(); err != nil {
			return nil, err
		}
		return &CommitStatement{}, nil
	case p.isKeyword("ROLLBACK"):
		if err := p.next(); err != nil {
			return nil, err
		}
		return &RollbackStatement{}, nil
	case p.isKeyword("DELETE"):
		return p.parseDelete()
	case p.isKeyword("CALL"):
		return p.parseCall()
	case p.isKeyword("MATCH"):
		return p.parseMatch()
	case p.isKeyword("OPTIONAL"):
		nxt, err := p.lookahead()
		if err != nil {
			return nil, err
		}
		if nxt.Kind == TokKeyword && nxt.Text == "CALL" {
			return p.parseCall()
		}
		return p.parseMatch()
	default:
		return nil, p.errf("unexpected token at start of statement")
	}
}

func (p *Parser) parseUseGraph() (Statement, error) {
	if err := p.expectKeyword("USE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("GRAPH"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &UseGraphStatement{Name: name}, nil
}

func (p *Parser) parseDropGraph() (Statement, error) {
	if err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("GRAPH"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &DropGraphStatement{Name: name}, nil
}

func (p *Parser) parseShowGraphs() (Statement, error) {
	if err := p.expectKeyword("SHOW"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("GRAPHS"); err != nil {
		return nil, err
	}
	return &ShowGraphsStatement{}, nil
}

func (p *Parser) parseDescribeGraph() (Statement, error) {
	if err := p.expectKeyword("DESCRIBE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("GRAPH"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &DescribeGraphStatement{Name: name}, nil
}

func (p *Parser) parseStartTransaction() (Statement, error) {
	if err := p.expectKeyword("START"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TRANSACTION"); err != nil {
		return nil, err
	}
	readOnly := false
	switch {
	case p.isKeyword("READ"):
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.isKeyword("ONLY") {
			readOnly = true
			if err := p.next(); err != nil {
				return nil, err
			}
		} else if err := p.expectKeyword("WRITE"); err != nil {
			return nil, err
		}
	}
	return &StartTransactionStatement{ReadOnly: readOnly}, nil
}

// parseCreate disambiguates `CREATE GRAPH <name>` from a pattern-creating
// `CREATE (...)`/`CREATE (...)-[...]->(...)`.
func (p *Parser) parseCreate() (Statement, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	if p.isKeyword("GRAPH") {
		if err := p.next(); err != nil {
			return nil, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if p.isKeyword("OPTIONS") {
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
		}
		return &CreateGraphStatement{Name: name}, nil
	}

	first, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	if !(p.isPunct("-[") || p.isPunct("<-[")) {
		return &CreateVertexStatement{Node: *first}, nil
	}
	edge, err := p.parseEdgePattern()
	if err != nil {
		return nil, err
	}
	second, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	return &CreateEdgeStatement{Source: *first, Target: *second, Edge: *edge}, nil
}

// skipBalanced consumes a `{ ... }` block without interpreting it — used
// for CREATE GRAPH OPTIONS blocks, whose content is discarded: a graph
// created by CREATE GRAPH has no schema.
func (p *Parser) skipBalanced() error {
	if err := p.expectKeyword("OPTIONS"); err != nil {
		return err
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		if p.tok.Kind == TokEOF {
			return p.errf("unterminated OPTIONS block")
		}
		if p.isPunct("{") {
			depth++
		} else if p.isPunct("}") {
			depth--
		}
		if err := p.next(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseDelete() (Statement, error) {
	if err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	detach := false
	if p.isKeyword("DETACH") {
		detach = true
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	var vars []string
	for {
		var v string
		switch {
		case p.tok.Kind == TokIdent:
			v = p.tok.Text
			if err := p.next(); err != nil {
				return nil, err
			}
		case p.tok.Kind == TokInt:
			v = p.tok.Text // a literal vid, for DELETE without a preceding MATCH
			if err := p.next(); err != nil {
				return nil, err
			}
		default:
			return nil, p.errf("expected a variable or vertex id in DELETE")
		}
		vars = append(vars, v)
		if p.isPunct(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return &DeleteStatement{Detach: detach, Vars: vars}, nil
}

func (p *Parser) parseCall() (Statement, error) {
	optional := false
	if p.isKeyword("OPTIONAL") {
		optional = true
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("CALL"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []Expr
	if !p.isPunct(")") {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if p.isPunct(",") {
				if err := p.next(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	var yield []string
	if p.isKeyword("YIELD") {
		if err := p.next(); err != nil {
			return nil, err
		}
		for {
			y, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			yield = append(yield, y)
			if p.isPunct(",") {
				if err := p.next(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	return &CallStatement{Optional: optional, Procedure: name, Args: args, Yield: yield}, nil
}

func (p *Parser) parseMatch() (Statement, error) {
	optional := false
	if p.isKeyword("OPTIONAL") {
		optional = true
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("MATCH"); err != nil {
		return nil, err
	}
	search, err := p.parsePathSearch()
	if err != nil {
		return nil, err
	}
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}

	stmt := &MatchStatement{Optional: optional, Search: search, Pattern: *pattern}

	if p.isKeyword("WHERE") {
		if err := p.next(); err != nil {
			return nil, err
		}
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	if p.isKeyword("RETURN") || p.isKeyword("SELECT") {
		if p.isKeyword("SELECT") {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else if err := p.next(); err != nil {
			return nil, err
		}
		if p.isKeyword("DISTINCT") {
			stmt.Distinct = true
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		items, err := p.parseReturnItems()
		if err != nil {
			return nil, err
		}
		stmt.Return = items
	}

	if p.isKeyword("GROUP") {
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		exprs, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		stmt.GroupBy = exprs
	}

	if p.isKeyword("HAVING") {
		if err := p.next(); err != nil {
			return nil, err
		}
		having, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Having = having
	}

	if p.isKeyword("ORDER") {
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderItems()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = items
	}

	if p.isKeyword("LIMIT") {
		if err := p.next(); err != nil {
			return nil, err
		}
		n, err := p.expectIntLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Limit = &n
	}
	if p.isKeyword("OFFSET") {
		if err := p.next(); err != nil {
			return nil, err
		}
		n, err := p.expectIntLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Offset = &n
	}
	return stmt, nil
}

func (p *Parser) expectIntLiteral() (int, error) {
	if p.tok.Kind != TokInt {
		return 0, p.errf("expected integer literal")
	}
	n := parseIntLiteral(p.tok.Text)
	return n, p.next()
}

func (p *Parser) parseReturnItems() ([]ReturnItem, error) {
	var items []ReturnItem
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := ReturnItem{Expr: e}
		if p.isKeyword("AS") {
			if err := p.next(); err != nil {
				return nil, err
			}
			alias, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			item.Alias = alias
		}
		items = append(items, item)
		if p.isPunct(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseExprList() ([]Expr, error) {
	var out []Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.isPunct(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return out, nil
}

func (p *Parser) parseOrderItems() ([]OrderItem, error) {
	var out []OrderItem
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := OrderItem{Expr: e}
		switch {
		case p.isKeyword("DESC"):
			item.Desc = true
			if err := p.next(); err != nil {
				return nil, err
			}
		case p.isKeyword("ASC"):
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		out = append(out, item)
		if p.isPunct(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return out, nil
}

// parsePathSearch parses the optional path-search prefix between MATCH
// and its pattern: SHORTEST, ALL SHORTEST, ANY, ANY k, ANY SHORTEST,
// SHORTEST k, SHORTEST k GROUPS, ALL. It returns (nil, nil) when no prefix
// is present.
func (p *Parser) parsePathSearch() (*PathSearch, error) {
	switch {
	case p.isKeyword("ALL"):
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.isKeyword("SHORTEST") {
			if err := p.next(); err != nil {
				return nil, err
			}
			return &PathSearch{Mode: PathAllShortest}, nil
		}
		return &PathSearch{Mode: PathAll}, nil
	case p.isKeyword("ANY"):
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.isKeyword("SHORTEST") {
			if err := p.next(); err != nil {
				return nil, err
			}
			return &PathSearch{Mode: PathShortest}, nil
		}
		if p.tok.Kind == TokInt {
			k, err := p.expectIntLiteral()
			if err != nil {
				return nil, err
			}
			return &PathSearch{Mode: PathAny, K: k}, nil
		}
		return &PathSearch{Mode: PathAny}, nil
	case p.isKeyword("SHORTEST"):
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.tok.Kind == TokInt {
			k, err := p.expectIntLiteral()
			if err != nil {
				return nil, err
			}
			if p.isKeyword("GROUPS") {
				if err := p.next(); err != nil {
					return nil, err
				}
				return &PathSearch{Mode: PathShortestKGroups, K: k}, nil
			}
			return &PathSearch{Mode: PathShortestK, K: k}, nil
		}
		return &PathSearch{Mode: PathShortest}, nil
	default:
		return nil, nil
	}
}

// ─── Patterns ───────────────────────────────────────────────────────────

func (p *Parser) parsePattern() (*Pattern, error) {
	first, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	pat := &Pattern{Elements: []PatternElement{{Node: first}}}
	for p.isPunct("-[") || p.isPunct("<-[") {
		edge, err := p.parseEdgePattern()
		if err != nil {
			return nil, err
		}
		node, err := p.parseNodePattern()
		if err != nil {
			return nil, err
		}
		pat.Elements = append(pat.Elements, PatternElement{Node: node, Edge: edge})
	}
	return pat, nil
}

func (p *Parser) parseNodePattern() (*NodePattern, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	n := &NodePattern{}
	switch {
	case p.tok.Kind == TokIdent:
		n.Var = p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
	case p.tok.Kind == TokInt:
		vid := parseUint64Literal(p.tok.Text)
		n.VID = &vid
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if p.isPunct(":") {
		if err := p.next(); err != nil {
			return nil, err
		}
		label, err := p.parseLabelExpr()
		if err != nil {
			return nil, err
		}
		n.Label = label
	}
	if p.isPunct("{") {
		props, err := p.parsePropertyMap()
		if err != nil {
			return nil, err
		}
		n.Properties = props
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return n, nil
}

// parseLabelExpr parses a pattern label expression: a bare label, `%`
// (matches any label), or a combination built from `|`, `&`, `!`.
func (p *Parser) parseLabelExpr() (*LabelExpr, error) { return p.parseLabelOr() }

func (p *Parser) parseLabelOr() (*LabelExpr, error) {
	left, err := p.parseLabelAnd()
	if err != nil {
		return nil, err
	}
	for p.isPunct("|") {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseLabelAnd()
		if err != nil {
			return nil, err
		}
		left = &LabelExpr{Op: "|", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseLabelAnd() (*LabelExpr, error) {
	left, err := p.parseLabelNot()
	if err != nil {
		return nil, err
	}
	for p.isPunct("&") {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseLabelNot()
		if err != nil {
			return nil, err
		}
		left = &LabelExpr{Op: "&", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseLabelNot() (*LabelExpr, error) {
	if p.isPunct("!") {
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseLabelNot()
		if err != nil {
			return nil, err
		}
		return &LabelExpr{Op: "!", Left: operand}, nil
	}
	return p.parseLabelAtom()
}

func (p *Parser) parseLabelAtom() (*LabelExpr, error) {
	switch {
	case p.isPunct("%"):
		if err := p.next(); err != nil {
			return nil, err
		}
		return &LabelExpr{Wildcard: true}, nil
	case p.isPunct("("):
		if err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.parseLabelExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	case p.tok.Kind == TokIdent:
		name := p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		return &LabelExpr{Label: name}, nil
	default:
		return nil, p.errf("expected a label, %%, or (")
	}
}

func (p *Parser) parseEdgePattern() (*EdgePattern, error) {
	dir := DirOut
	switch {
	case p.isPunct("<-["):
		dir = DirIn
		if err := p.next(); err != nil {
			return nil, err
		}
	case p.isPunct("-["):
		if err := p.next(); err != nil {
			return nil, err
		}
	default:
		return nil, p.errf("expected an edge pattern")
	}

	e := &EdgePattern{Direction: dir}
	if p.tok.Kind == TokIdent {
		e.Var = p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if p.isPunct(":") {
		if err := p.next(); err != nil {
			return nil, err
		}
		label, err := p.parseLabelExpr()
		if err != nil {
			return nil, err
		}
		e.Label = label
	}
	if p.isPunct("{") {
		props, err := p.parsePropertyMap()
		if err != nil {
			return nil, err
		}
		e.Properties = props
	}

	// Neo4j-style quantifier, written inside the brackets: `*`, `*1..5`,
	// `+`, `?`.
	switch {
	case p.isPunct("*"):
		if err := p.next(); err != nil {
			return nil, err
		}
		q, err := p.parseStarRange()
		if err != nil {
			return nil, err
		}
		e.Quant = q
	case p.isPunct("+"):
		if err := p.next(); err != nil {
			return nil, err
		}
		e.Quant = &Quantifier{Min: 1, Max: -1}
	case p.isPunct("?"):
		if err := p.next(); err != nil {
			return nil, err
		}
		e.Quant = &Quantifier{Min: 0, Max: 1}
	}

	switch {
	case p.isPunct("]->"):
		if dir == DirIn {
			return nil, p.errf("edge pattern has both a leading <- and a trailing ->")
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	case p.isPunct("]-"):
		if dir != DirIn {
			dir = DirEither
			e.Direction = DirEither
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	default:
		return nil, p.errf("expected closing edge bracket")
	}

	// ISO-style quantifier, written after the arrow: `->{1,5}`. Source
	// text may use either form (never both on the same edge).
	if e.Quant == nil && p.isPunct("{") {
		q, err := p.parseBraceQuant()
		if err != nil {
			return nil, err
		}
		e.Quant = q
	}
	return e, nil
}

// parseStarRange parses the range that may follow a Neo4j-style `*`
// quantifier: nothing (bare `*` = {0, unbounded}), `n` ({n,n}), or
// `n..m`/`n..` ({n,m} / {n, unbounded}).
func (p *Parser) parseStarRange() (*Quantifier, error) {
	if p.tok.Kind != TokInt {
		return &Quantifier{Min: 0, Max: -1}, nil
	}
	n, err := p.expectIntLiteral()
	if err != nil {
		return nil, err
	}
	min, max := n, n
	if p.isPunct("..") {
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.tok.Kind == TokInt {
			m, err := p.expectIntLiteral()
			if err != nil {
				return nil, err
			}
			max = m
		} else {
			max = -1
		}
	}
	return &Quantifier{Min: min, Max: max}, nil
}

// parseBraceQuant parses an ISO-style `{n}` / `{n,}` / `{,m}` / `{n,m}`
// quantifier.
func (p *Parser) parseBraceQuant() (*Quantifier, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	min, max := 0, -1
	haveMin := false
	if p.tok.Kind == TokInt {
		n, err := p.expectIntLiteral()
		if err != nil {
			return nil, err
		}
		min, max = n, n
		haveMin = true
	}
	if p.isPunct(",") {
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.tok.Kind == TokInt {
			m, err := p.expectIntLiteral()
			if err != nil {
				return nil, err
			}
			max = m
		} else {
			max = -1
		}
	} else if !haveMin {
		return nil, p.errf("expected a quantifier bound")
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &Quantifier{Min: min, Max: max}, nil
}

func (p *Parser) parsePropertyMap() (map[string]Expr, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	props := map[string]Expr{}
	for !p.isPunct("}") {
		key, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		props[key] = val
		if p.isPunct(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return props, p.expectPunct("}")
}

// ─── Expressions ────────────────────────────────────────────────────────

func (p *Parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.isKeyword("NOT") {
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{
	"=": true, "<>": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind == TokPunct && comparisonOps[p.tok.Text] {
		op := p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	switch {
	case p.tok.Kind == TokInt:
		n := parseIntLiteral(p.tok.Text)
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Literal{Value: int64(n)}, nil
	case p.tok.Kind == TokFloat:
		f := parseFloatLiteral(p.tok.Text)
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Literal{Value: f}, nil
	case p.tok.Kind == TokString:
		s := p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Literal{Value: s}, nil
	case p.isKeyword("TRUE"):
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Literal{Value: true}, nil
	case p.isKeyword("FALSE"):
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Literal{Value: false}, nil
	case p.isKeyword("NULL"):
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Literal{Value: nil}, nil
	case p.isPunct("("):
		if err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	case p.tok.Kind == TokIdent:
		name := p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.isPunct("(") {
			return p.parseFuncCall(name)
		}
		if p.isPunct(".") {
			if err := p.next(); err != nil {
				return nil, err
			}
			prop, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			return &PropertyAccess{Var: name, Property: prop}, nil
		}
		return &VarRef{Name: name}, nil
	default:
		return nil, p.errf("expected an expression")
	}
}

// parseFuncCall parses `name(*)` or `name([DISTINCT] expr, ...)` — the
// RETURN/HAVING/ORDER BY aggregate-call syntax (COUNT, SUM, AVG, MIN, MAX).
func (p *Parser) parseFuncCall(name string) (Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	fc := &FuncCallExpr{Name: strings.ToUpper(name)}
	switch {
	case p.isPunct("*"):
		fc.Star = true
		if err := p.next(); err != nil {
			return nil, err
		}
	case p.isPunct(")"):
		// no arguments
	default:
		if p.isKeyword("DISTINCT") {
			fc.Distinct = true
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		args, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		fc.Args = args
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return fc, nil
}

func parseUint64Literal(s string) uint64 {
	var n uint64
	for _, r := range s {
		n = n*10 + uint64(r-'0')
	}
	return n
}

func parseIntLiteral(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func parseFloatLiteral(s string) float64 {
	whole := 0.0
	frac := 0.0
	scale := 1.0
	afterDot := false
	for _, r := range s {
		if r == '.' {
			afterDot = true
			continue
		}
		d := float64(r - '0')
		if afterDot {
			scale *= 10
			frac += d / scale
		} else {
			whole = whole*10 + d
		}
	}
	return whole + frac
}
