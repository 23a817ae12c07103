package pipeline

import (
	"fmt"
	"testing"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/compiler"
)

// mapLoader resolves modules from an in-memory table, standing in for the
// external lexer/parser collaborator the real CLI driver would use.
type mapLoader map[string]*ast.Program

func (m mapLoader) Load(name string) (*ast.Program, error) {
	prog, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("no such module %q", name)
	}
	return prog, nil
}

func typeExpr(name string) *ast.TypeExpression { return &ast.TypeExpression{Name: name} }

func voidFunction(name string) *ast.FunctionDecl {
	return &ast.FunctionDecl{
		Name:    name,
		RetType: typeExpr("void"),
		Body:    &ast.BlockStatement{},
	}
}

func TestPipelineRunSingleModule(t *testing.T) {
	loader := mapLoader{
		"main": {ModuleName: "main", Decls: []ast.Decl{voidFunction("entry")}},
	}
	ctx := compiler.NewContext()
	p := New(ctx, loader)

	mod, prog, err := p.Run("main")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mod.State() != Ready {
		t.Fatalf("expected entry module to reach Ready, got %s", mod.State())
	}
	if prog == nil || len(prog.Functions) == 0 {
		t.Fatalf("expected a linked vm.Program with at least one function")
	}
}

func TestPipelineResolvesImportsBeforeEntry(t *testing.T) {
	loader := mapLoader{
		"util": {ModuleName: "util", Decls: []ast.Decl{voidFunction("helper")}},
		"main": {
			ModuleName: "main",
			Imports:    []*ast.ImportDecl{{Module: "util"}},
			Decls:      []ast.Decl{voidFunction("entry")},
		},
	}
	ctx := compiler.NewContext()
	p := New(ctx, loader)

	if _, _, err := p.Run("main"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(p.order) != 2 || p.order[0] != "util" || p.order[1] != "main" {
		t.Fatalf("expected util to compile before main, got order %v", p.order)
	}
}

func TestPipelineDetectsImportCycle(t *testing.T) {
	loader := mapLoader{
		"a": {ModuleName: "a", Imports: []*ast.ImportDecl{{Module: "b"}}, Decls: []ast.Decl{voidFunction("fa")}},
		"b": {ModuleName: "b", Imports: []*ast.ImportDecl{{Module: "a"}}, Decls: []ast.Decl{voidFunction("fb")}},
	}
	ctx := compiler.NewContext()
	p := New(ctx, loader)

	_, _, err := p.Run("a")
	if err == nil {
		t.Fatalf("expected an import cycle error")
	}

	found := false
	for _, m := range ctx.Diag.Messages() {
		if m.Code == compiler.CodeImportCycle {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a diagnostic reported under compiler.CodeImportCycle")
	}
}

func TestPipelineMissingModuleFreezesAtUnloaded(t *testing.T) {
	loader := mapLoader{}
	ctx := compiler.NewContext()
	p := New(ctx, loader)

	mod, _, err := p.Run("missing")
	if err == nil {
		t.Fatalf("expected an error loading a missing module")
	}
	if mod.State() != Unloaded {
		t.Fatalf("expected module to freeze at Unloaded, got %s", mod.State())
	}
}
