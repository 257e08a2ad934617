// Command axexpr evaluates, type-checks and formats template expressions
// from the shell.
//
//	axexpr eval  [-dialect axml] [-vars data.yaml] [-types types.yaml] 'item.price * count'
//	axexpr type  [-dialect axml] [-types types.yaml] 'a ? b : c'
//	axexpr check [-dialect mist] [-json] 'count.foo()'
//	axexpr fmt   [-pretty] [-ast] '{a:1,b:[1,2]}'
//	axexpr repl  [-dialect axml] [-vars data.yaml]
//
// Variable files are YAML (JSON is accepted too). A types file maps names to
// type annotations such as "string[]" or "{name: string; age?: number}";
// those names are known by type only.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/oarkflow/json"
	"github.com/peterh/liner"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"gopkg.in/yaml.v3"

	"github.com/zhangrenfeng/axexpr"
	"github.com/zhangrenfeng/axexpr/pkg/dialect"
	"github.com/zhangrenfeng/axexpr/pkg/evaluator"
	"github.com/zhangrenfeng/axexpr/pkg/metrics"
	"github.com/zhangrenfeng/axexpr/pkg/types"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

const (
	appName     = "axexpr"
	historyFile = ".axexpr_history"
	promptMain  = "axexpr> "
)

var colour = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

func paint(code, s string) string {
	if !colour {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func red(s string) string    { return paint("31", s) }
func yellow(s string) string { return paint("33", s) }
func blue(s string) string   { return paint("94", s) }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "eval":
		os.Exit(cmdEval(os.Args[2:]))
	case "type":
		os.Exit(cmdType(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(axexpr.Version())
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s <command> [flags] [expression]

commands:
  eval     evaluate an expression (-partial keeps unknowns indeterminate)
  type     print the inferred type of an expression
  check    print the diagnostics of an expression
  fmt      print an expression in canonical form
  repl     evaluate expressions interactively
  version  print the version

dialects: %s
`, appName, strings.Join(dialect.Names(), ", "))
}

// common holds the flags shared by the engine commands.
type common struct {
	dialect  string
	vars     string
	types    string
	verbose  bool
	metrics  bool
	asJSON   bool
	registry *prometheus.Registry
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.dialect, "dialect", axexpr.AXML, "dialect: "+strings.Join(dialect.Names(), ", "))
	fs.StringVar(&c.vars, "vars", "", "YAML or JSON file with variable values")
	fs.StringVar(&c.types, "types", "", "YAML file mapping variable names to type annotations")
	fs.BoolVar(&c.verbose, "v", false, "debug logging on stderr")
	fs.BoolVar(&c.metrics, "metrics", false, "print engine counters on exit")
	fs.BoolVar(&c.asJSON, "json", false, "JSON output")
}

func (c *common) engine() (*axexpr.Engine, error) {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []axexpr.Option{axexpr.WithLogger(logger), axexpr.WithDebug(c.verbose)}
	if c.metrics {
		m := metrics.New(appName)
		c.registry = prometheus.NewRegistry()
		if err := c.registry.Register(m); err != nil {
			return nil, err
		}
		opts = append(opts, axexpr.WithMetrics(m))
	}
	return axexpr.New(c.dialect, opts...)
}

// scope builds the expression context from the -vars and -types files.
func (c *common) scope(reg *typesystem.Registry) (*evaluator.EvalContext, error) {
	scope := evaluator.NewContext()
	if c.vars != "" {
		var vars map[string]interface{}
		if err := readYAML(c.vars, &vars); err != nil {
			return nil, err
		}
		for name, v := range vars {
			scope.Push(name, typesystem.Normalize(v))
		}
	}
	if c.types != "" {
		var annotations map[string]string
		if err := readYAML(c.types, &annotations); err != nil {
			return nil, err
		}
		for name, src := range annotations {
			t, err := typesystem.ParseAnnotation(reg, src)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", c.types, name, err)
			}
			scope.Push(name, t)
		}
	}
	return scope, nil
}

func (c *common) printMetrics() {
	if c.registry == nil {
		return
	}
	families, err := c.registry.Gather()
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(os.Stderr, "%s%s %g\n", mf.GetName(), labels(m), m.GetCounter().GetValue())
		}
	}
}

func labels(m *dto.Metric) string {
	if len(m.GetLabel()) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// setup parses flags and returns the engine, scope and expression source.
func setup(name string, args []string, extra func(*flag.FlagSet)) (*common, *axexpr.Engine, *evaluator.EvalContext, string, bool) {
	var c common
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c.register(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, "", false
	}
	engine, err := c.engine()
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return nil, nil, nil, "", false
	}
	scope, err := c.scope(engine.Registry())
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return nil, nil, nil, "", false
	}
	src, err := source(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return nil, nil, nil, "", false
	}
	return &c, engine, scope, src, true
}

// source joins the arguments, or reads stdin when there are none.
func source(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func cmdEval(args []string) int {
	var partial bool
	c, engine, scope, src, ok := setup("eval", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&partial, "partial", false, "print \"indeterminate\" instead of null for unknown results")
	})
	if !ok {
		return 2
	}
	defer c.printMetrics()

	ctx := context.Background()
	var value interface{}
	if partial {
		r, err := engine.Compute(ctx, src, scope)
		if err != nil {
			return reportParseError(src, err)
		}
		if !r.IsKnown() {
			fmt.Println(yellow("indeterminate"))
			return 0
		}
		value, _ = r.Value()
	} else {
		var err error
		if value, err = engine.ComputeValue(ctx, src, scope); err != nil {
			return reportParseError(src, err)
		}
	}
	return printValue(value, c.asJSON)
}

func cmdType(args []string) int {
	c, engine, scope, src, ok := setup("type", args, nil)
	if !ok {
		return 2
	}
	defer c.printMetrics()

	t, err := engine.TypeOf(context.Background(), src, scope)
	if err != nil {
		return reportParseError(src, err)
	}
	if c.asJSON {
		return printJSON(map[string]string{"type": t.String()})
	}
	fmt.Println(blue(t.String()))
	return 0
}

func cmdCheck(args []string) int {
	c, engine, scope, src, ok := setup("check", args, nil)
	if !ok {
		return 2
	}
	defer c.printMetrics()

	diags := engine.Diagnose(context.Background(), src, scope)
	if c.asJSON {
		if diags == nil {
			diags = []types.Diagnostic{}
		}
		if code := printJSON(diags); code != 0 {
			return code
		}
	} else {
		for _, d := range diags {
			printDiagnostic(src, d)
		}
	}
	for _, d := range diags {
		if d.Severity == types.SeverityError {
			return 1
		}
	}
	return 0
}

func cmdFmt(args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	pretty := fs.Bool("pretty", false, "spaces around operators and after commas")
	ast := fs.Bool("ast", false, "dump the syntax tree instead")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	src, err := source(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 2
	}
	expr, err := axexpr.Parse(src)
	if err != nil {
		return reportParseError(src, err)
	}
	if *ast {
		dumpAST(os.Stdout, expr.AST())
		return 0
	}
	fmt.Println(expr.Format(*pretty))
	return 0
}

func dumpAST(w io.Writer, root *types.ASTNode) {
	depth := map[*types.ASTNode]int{root: 0}
	types.Walk(root, func(n *types.ASTNode) bool {
		d := depth[n]
		for _, child := range children(n) {
			depth[child] = d + 1
		}
		fmt.Fprintf(w, "%s%s [%d:%d] %s\n", strings.Repeat("  ", d), n.Type, n.Offset, n.Length, n.String())
		return true
	})
}

func children(n *types.ASTNode) []*types.ASTNode {
	var out []*types.ASTNode
	switch n.Type {
	case types.NodeArray:
		out = n.Elements
	case types.NodeObject:
		for _, p := range n.Pairs {
			out = append(out, p.Key, p.Value)
		}
	case types.NodeConditional:
		out = []*types.ASTNode{n.Condition, n.Then, n.Else}
	case types.NodeUnary:
		out = []*types.ASTNode{n.LHS}
	case types.NodeBinary:
		out = []*types.ASTNode{n.LHS, n.RHS}
	case types.NodeFunctionCall:
		out = append([]*types.ASTNode{n.LHS}, n.Arguments...)
	}
	return out
}

func cmdRepl(args []string) int {
	var c common
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	engine, err := c.engine()
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	scope, err := c.scope(engine.Registry())
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	defer c.printMetrics()

	fmt.Printf("axexpr %s (%s). Ctrl+D exits; :type EXPR, :check EXPR, :let NAME EXPR.\n", axexpr.Version(), c.dialect)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ctx := context.Background()
	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return 1
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if !replLine(ctx, engine, scope, line) {
			return 0
		}
	}
}

// replLine runs one REPL input and reports whether to keep reading.
func replLine(ctx context.Context, engine *axexpr.Engine, scope *evaluator.EvalContext, line string) bool {
	cmd, rest := line, ""
	if i := strings.IndexByte(line, ' '); i > 0 {
		cmd, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	switch cmd {
	case ":quit":
		return false
	case ":vars":
		names := scope.Names()
		sort.Strings(names)
		for _, name := range names {
			v, _ := scope.Lookup(name)
			fmt.Printf("%s = %s\n", name, describe(v))
		}
	case ":type":
		t, err := engine.TypeOf(ctx, rest, scope)
		if err != nil {
			reportParseError(rest, err)
			return true
		}
		fmt.Println(blue(t.String()))
	case ":check":
		diags := engine.Diagnose(ctx, rest, scope)
		if len(diags) == 0 {
			fmt.Println("ok")
		}
		for _, d := range diags {
			printDiagnostic(rest, d)
		}
	case ":let":
		name, src := rest, ""
		if i := strings.IndexByte(rest, ' '); i > 0 {
			name, src = rest[:i], strings.TrimSpace(rest[i+1:])
		}
		if !types.IsIdentifier(name) || src == "" {
			fmt.Fprintln(os.Stderr, red("usage: :let NAME EXPR"))
			return true
		}
		v, err := engine.ComputeValue(ctx, src, scope)
		if err != nil {
			reportParseError(src, err)
			return true
		}
		scope.Push(name, v)
	default:
		if strings.HasPrefix(cmd, ":") {
			fmt.Fprintf(os.Stderr, "unknown command %s\n", cmd)
			return true
		}
		r, err := engine.Compute(ctx, line, scope)
		if err != nil {
			reportParseError(line, err)
			return true
		}
		if !r.IsKnown() {
			fmt.Println(yellow("indeterminate"))
			return true
		}
		v, _ := r.Value()
		printValue(v, false)
	}
	return true
}

func describe(v interface{}) string {
	switch x := v.(type) {
	case typesystem.Type:
		return "<" + x.String() + ">"
	case []interface{}, map[string]interface{}:
		data, err := json.Marshal(x)
		if err != nil {
			return err.Error()
		}
		return string(data)
	}
	if v == evaluator.Undefined {
		return "undefined"
	}
	return types.FormatLiteral(v)
}

func printValue(v interface{}, asJSON bool) int {
	if asJSON {
		return printJSON(v)
	}
	switch v.(type) {
	case []interface{}, map[string]interface{}:
		return printJSON(v)
	}
	fmt.Println(blue(types.FormatLiteral(v)))
	return 0
}

func printJSON(v interface{}) int {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	fmt.Println(string(data))
	return 0
}

func printDiagnostic(src string, d types.Diagnostic) {
	sev := d.Severity.String()
	switch d.Severity {
	case types.SeverityError:
		sev = red(sev)
	case types.SeverityWarning:
		sev = yellow(sev)
	}
	fmt.Printf("%s: %s\n", sev, d.Message)
	fmt.Printf("  %s\n  %s%s\n", src, strings.Repeat(" ", columns(src, d.Offset)), strings.Repeat("^", max(1, columns(src[min(d.Offset, len(src)):], d.Length))))
}

// columns counts the runes in the first n bytes of s.
func columns(s string, n int) int {
	if n > len(s) {
		n = len(s)
	}
	return len([]rune(s[:n]))
}

func reportParseError(src string, err error) int {
	var perr *types.Error
	if errors.As(err, &perr) {
		printDiagnostic(src, perr.Diagnostic())
		return 1
	}
	fmt.Fprintln(os.Stderr, red(err.Error()))
	return 1
}
