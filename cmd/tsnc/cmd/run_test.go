package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/compiler"
	"github.com/tsn-lang/tsn/internal/config"
	"github.com/tsn-lang/tsn/internal/diag"
	"github.com/tsn-lang/tsn/internal/source"
)

func typeExprRT(name string) *ast.TypeExpression { return &ast.TypeExpression{Name: name} }

func compiledAddContext(t *testing.T) *compiler.Context {
	t.Helper()
	ctx := compiler.NewContext()
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.ReturnStatement{Value: &ast.BinaryExpression{
			Left: &ast.Identifier{Name: "a"}, Right: &ast.Identifier{Name: "b"}, Operator: "+",
		}},
	}}
	fn := &ast.FunctionDecl{
		Name:    "add",
		Params:  []*ast.Param{{Name: "a", Type: typeExprRT("i32")}, {Name: "b", Type: typeExprRT("i32")}},
		RetType: typeExprRT("i32"),
		Body:    body,
	}
	prog := &ast.Program{ModuleName: "main", Decls: []ast.Decl{fn}}
	if err := compiler.Compile(ctx, prog); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return ctx
}

func TestDumpTypesAndFuncsProduceValidJSON(t *testing.T) {
	ctx := compiledAddContext(t)
	dump := config.NewJSONDump()

	dumpTypes(dump, ctx.Registry)
	dumpFuncs(dump, ctx.Registry)
	dumpCode(dump, ctx)

	if !json.Valid([]byte(dump.String())) {
		t.Fatalf("expected the dump to be valid JSON, got %s", dump.String())
	}
	if !strings.Contains(dump.String(), "\"add\"") {
		t.Fatalf("expected the dump to mention function add, got %s", dump.String())
	}
	if !strings.Contains(dump.String(), "i32") {
		t.Fatalf("expected the dump to mention type i32, got %s", dump.String())
	}
}

func TestDumpLogsFiltersInfoUnlessDebug(t *testing.T) {
	sink := diag.NewSink()
	sink.Infof(source.Position{}, 1, "an info message")
	sink.Errorf(source.Position{}, 2, "an error message")

	dump := config.NewJSONDump()
	dumpLogs(dump, sink, false)
	if strings.Contains(dump.String(), "an info message") {
		t.Fatalf("expected info messages to be filtered without -d")
	}
	if !strings.Contains(dump.String(), "an error message") {
		t.Fatalf("expected the error message to survive filtering")
	}

	dump = config.NewJSONDump()
	dumpLogs(dump, sink, true)
	if !strings.Contains(dump.String(), "an info message") {
		t.Fatalf("expected info messages to appear with -d")
	}
}

func TestCountErrorsCountsOnlyErrorSeverity(t *testing.T) {
	sink := diag.NewSink()
	sink.Infof(source.Position{}, 1, "info")
	sink.Warnf(source.Position{}, 2, "warn")
	sink.Errorf(source.Position{}, 3, "err1")
	sink.Errorf(source.Position{}, 4, "err2")

	if n := countErrors(sink); n != 2 {
		t.Fatalf("expected 2 errors, got %d", n)
	}
}

func TestJSONKeyEscapesPathSeparators(t *testing.T) {
	if got := jsonKey("Foo.Bar#1"); got != "Foo_Bar_1" {
		t.Fatalf("expected Foo_Bar_1, got %q", got)
	}
}
