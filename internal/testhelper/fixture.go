// Package testhelper runs YAML-described GQL fixtures against a fresh
// in-memory graph. It mirrors the teacher's table/rows/queries fixture
// shape, adapted to ChainGraph's setup-statements/queries shape: a
// fixture has no schema-inference step because CREATE statements in the
// setup section already carry their own properties.
package testhelper

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/chaingraph/chaingraph/internal/gql"
	"github.com/chaingraph/chaingraph/internal/graph"
	"github.com/chaingraph/chaingraph/internal/pager"
	"github.com/chaingraph/chaingraph/internal/session"
)

// fixtureFile mirrors the shape of a fixture YAML file.
type fixtureFile struct {
	Setup   []string    `yaml:"setup"`
	Queries []queryCase `yaml:"queries"`
}

type queryCase struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Query       string   `yaml:"query"`
	Expected    expected `yaml:"expected"`
}

type expected struct {
	Columns []string                 `yaml:"columns"`
	Rows    []map[string]interface{} `yaml:"rows"`
}

// fixtureAdmin adapts a pager+catalog pair to gql.AdminProvider and
// session.GraphProvider, the same shape internal/gql's own test fixture
// uses.
type fixtureAdmin struct {
	pgr *pager.Pager
	cat *graph.Catalog
}

func (a *fixtureAdmin) Graph(name string) (*graph.Graph, error) {
	return graph.OpenGraph(a.pgr, a.cat, name)
}

func (a *fixtureAdmin) CreateGraph(name string, schema *graph.Schema) error {
	_, err := graph.CreateGraph(a.pgr, a.cat, name, schema)
	return err
}

func (a *fixtureAdmin) DropGraph(name string) error {
	return graph.DropGraph(a.pgr, a.cat, name)
}

func (a *fixtureAdmin) GraphNames() []string { return a.cat.Names() }

func (a *fixtureAdmin) DescribeGraph(name string) (*graph.Schema, error) {
	entry, ok := a.cat.Get(name)
	if !ok {
		return nil, fmt.Errorf("graph %q not found", name)
	}
	return entry.Schema, nil
}

// NewFixture opens a fresh, temp-file-backed pager/catalog/session triple
// for a single test.
func NewFixture(t *testing.T) (*session.Session, gql.AdminProvider) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.chgrph")
	pgr, err := pager.Open(pager.PagerConfig{Path: path})
	if err != nil {
		t.Fatalf("pager.Open: %v", err)
	}
	t.Cleanup(func() { pgr.Close() })
	cat := graph.NewCatalog(pgr)
	admin := &fixtureAdmin{pgr: pgr, cat: cat}
	return session.New(admin), admin
}

// Run executes a single GQL statement against sess, failing the test on
// any parse or execution error.
func Run(t *testing.T, sess *session.Session, admin gql.AdminProvider, query string) *gql.Result {
	t.Helper()
	p, err := gql.NewParser(query)
	if err != nil {
		t.Fatalf("NewParser(%q): %v", query, err)
	}
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement(%q): %v", query, err)
	}
	res, err := gql.Execute(sess, admin, stmt)
	if err != nil {
		t.Fatalf("Execute(%q): %v", query, err)
	}
	return res
}

// RunFixtureFile loads the fixture at path, replays its setup statements
// against a fresh graph, then runs every query case as its own subtest,
// comparing columns and row values against the case's expected section.
func RunFixtureFile(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading fixture %s: %v", path, err)
	}
	var fx fixtureFile
	if err := yaml.Unmarshal(b, &fx); err != nil {
		t.Fatalf("parsing fixture %s: %v", path, err)
	}

	sess, admin := NewFixture(t)
	for _, stmt := range fx.Setup {
		Run(t, sess, admin, stmt)
	}

	for _, q := range fx.Queries {
		q := q
		t.Run(q.ID, func(t *testing.T) {
			res := Run(t, sess, admin, q.Query)

			gotCols := append([]string(nil), res.Columns...)
			wantCols := append([]string(nil), q.Expected.Columns...)
			sort.Strings(gotCols)
			sort.Strings(wantCols)
			if len(wantCols) > 0 && !reflect.DeepEqual(wantCols, gotCols) {
				t.Fatalf("columns differ\nexpected: %v\ngot: %v", q.Expected.Columns, res.Columns)
			}

			if len(q.Expected.Rows) != len(res.Rows) {
				t.Fatalf("%s: row count differs: expected %d, got %d (%#v)", q.Description, len(q.Expected.Rows), len(res.Rows), res.Rows)
			}

			for i, wantRow := range q.Expected.Rows {
				gotRow := res.Rows[i]
				for k, wantVal := range wantRow {
					gv, ok := gotRow[k]
					if !ok {
						t.Fatalf("%s: missing column %q in result row %d: got %v", q.Description, k, i, rowKeys(gotRow))
					}
					if !valueEqual(wantVal, gv.Native()) {
						t.Fatalf("%s: mismatch at row %d column %q: expected=%v (%T) got=%v (%T)",
							q.Description, i, k, wantVal, wantVal, gv.Native(), gv.Native())
					}
				}
			}
		})
	}
}

func rowKeys(row gql.Row) []string {
	ks := make([]string, 0, len(row))
	for k := range row {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

// valueEqual compares a YAML-decoded expected value against a gvalue
// Native() result, normalizing across Go's int/int64/float64 YAML
// decoding choices.
func valueEqual(want, got interface{}) bool {
	switch w := want.(type) {
	case int:
		switch g := got.(type) {
		case int64:
			return int64(w) == g
		case uint64:
			return uint64(w) == g
		case float64:
			return float64(w) == g
		}
	case float64:
		switch g := got.(type) {
		case int64:
			return w == float64(g)
		case uint64:
			return w == float64(g)
		case float64:
			return w == g
		}
	case string:
		s, ok := got.(string)
		return ok && w == s
	case bool:
		bb, ok := got.(bool)
		return ok && w == bb
	case nil:
		return got == nil
	}
	return reflect.DeepEqual(want, got)
}
