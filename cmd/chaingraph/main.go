// Command chaingraph is a thin CLI over the engine's programmatic API.
// It exposes each engine-visible operation as a subcommand; it does not
// implement an interactive REPL loop (spec's Non-goals carve that out —
// only the command contract the REPL would drive is implemented here).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/chaingraph/chaingraph"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	path := flag.String("path", "chaingraph.db", "data file path")
	switch os.Args[1] {
	case "create-graph":
		fs := flag.NewFlagSet("create-graph", flag.ExitOnError)
		p := fs.String("path", *path, "data file path")
		fs.Parse(os.Args[2:])
		name := requireArg(fs, 0, "graph name")
		runCreateGraph(*p, name)
	case "drop-graph":
		fs := flag.NewFlagSet("drop-graph", flag.ExitOnError)
		p := fs.String("path", *path, "data file path")
		fs.Parse(os.Args[2:])
		name := requireArg(fs, 0, "graph name")
		runDropGraph(*p, name)
	case "show-graphs":
		fs := flag.NewFlagSet("show-graphs", flag.ExitOnError)
		p := fs.String("path", *path, "data file path")
		fs.Parse(os.Args[2:])
		runShowGraphs(*p)
	case "describe-graph":
		fs := flag.NewFlagSet("describe-graph", flag.ExitOnError)
		p := fs.String("path", *path, "data file path")
		fs.Parse(os.Args[2:])
		name := requireArg(fs, 0, "graph name")
		runDescribeGraph(*p, name)
	case "exec":
		fs := flag.NewFlagSet("exec", flag.ExitOnError)
		p := fs.String("path", *path, "data file path")
		graphName := fs.String("graph", "", "graph to USE before running query")
		query := fs.String("query", "", "GQL statement to run")
		fs.Parse(os.Args[2:])
		runExec(*p, *graphName, *query)
	case "stats":
		fs := flag.NewFlagSet("stats", flag.ExitOnError)
		p := fs.String("path", *path, "data file path")
		fs.Parse(os.Args[2:])
		runStats(*p)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `chaingraph <command> [flags]

Commands:
  create-graph <name>     create a named graph
  drop-graph <name>       drop a named graph
  show-graphs             list graphs in the data file
  describe-graph <name>   show a graph's inline schema
  exec -graph NAME -query "..."   run one GQL statement
  stats                   print engine counters`)
}

func requireArg(fs *flag.FlagSet, i int, what string) string {
	if fs.NArg() <= i {
		fmt.Fprintf(os.Stderr, "missing %s\n", what)
		os.Exit(1)
	}
	return fs.Arg(i)
}

func openEngine(path string) *chaingraph.Engine {
	eng, err := chaingraph.Open(chaingraph.EngineConfig{Pager: chaingraph.PagerConfig{Path: path}})
	if err != nil {
		fmt.Fprintln(os.Stderr, "open error:", err)
		os.Exit(1)
	}
	return eng
}

func runCreateGraph(path, name string) {
	eng := openEngine(path)
	defer eng.Close()
	if err := eng.CreateGraph(name, nil); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Printf("graph %q created\n", name)
}

func runDropGraph(path, name string) {
	eng := openEngine(path)
	defer eng.Close()
	if err := eng.DropGraph(name); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Printf("graph %q dropped\n", name)
}

func runShowGraphs(path string) {
	eng := openEngine(path)
	defer eng.Close()
	for _, name := range eng.GraphNames() {
		fmt.Println(name)
	}
}

func runDescribeGraph(path, name string) {
	eng := openEngine(path)
	defer eng.Close()
	schema, err := eng.DescribeGraph(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if schema == nil {
		fmt.Println("(no inline schema)")
		return
	}
	for _, nt := range schema.NodeTypes {
		fmt.Printf("node %s (pk=%s)\n", nt.Label, nt.PrimaryKey)
	}
	for _, et := range schema.EdgeTypes {
		fmt.Printf("edge %s\n", et.Label)
	}
}

func runExec(path, graphName, query string) {
	if query == "" {
		fmt.Fprintln(os.Stderr, "missing -query")
		os.Exit(1)
	}
	eng := openEngine(path)
	defer eng.Close()

	sess := eng.NewSession()
	if graphName != "" {
		if err := sess.UseGraph(graphName); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}

	res, err := eng.Execute(sess, query)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if res.Message != "" {
		fmt.Println(res.Message)
	}
	printRows(res.Columns, res.Rows)
}

func printRows(cols []string, rows []chaingraph.Row) {
	if len(cols) == 0 {
		return
	}
	for _, c := range cols {
		fmt.Printf("%s\t", c)
	}
	fmt.Println()
	for _, row := range rows {
		for _, c := range cols {
			fmt.Printf("%v\t", row[c])
		}
		fmt.Println()
	}
}

func runStats(path string) {
	eng := openEngine(path)
	defer eng.Close()
	s := eng.Stats()
	fmt.Printf("uptime:           %s\n", s.Uptime.Round(1e6))
	fmt.Printf("queries:          %s\n", humanize.Comma(int64(s.Queries)))
	fmt.Printf("vertices created: %s\n", humanize.Comma(int64(s.VerticesCreated)))
	fmt.Printf("edges created:    %s\n", humanize.Comma(int64(s.EdgesCreated)))
	fmt.Printf("buffer pool:      %d/%d pages resident, %s status\n", s.ResidentPages, s.PoolCapacity, s.WatermarkStatus)
	fmt.Printf("pool hits/misses: %s / %s\n", humanize.Comma(int64(s.BufferPoolHits)), humanize.Comma(int64(s.BufferPoolMiss)))
}
