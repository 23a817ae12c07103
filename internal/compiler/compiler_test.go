package compiler

import (
	"testing"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/source"
	"github.com/tsn-lang/tsn/internal/types"
)

func typeExpr(name string) *ast.TypeExpression { return &ast.TypeExpression{Name: name} }

// addFunctionProgram builds `function add(a: i32, b: i32): i32 { return a + b; }`.
func addFunctionProgram() *ast.Program {
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.ReturnStatement{Value: &ast.BinaryExpression{
			Left:     &ast.Identifier{Name: "a"},
			Right:    &ast.Identifier{Name: "b"},
			Operator: "+",
		}},
	}}
	fn := &ast.FunctionDecl{
		Name: "add",
		Params: []*ast.Param{
			{Name: "a", Type: typeExpr("i32")},
			{Name: "b", Type: typeExpr("i32")},
		},
		RetType: typeExpr("i32"),
		Body:    body,
	}
	return &ast.Program{ModuleName: "main", Decls: []ast.Decl{fn}}
}

func TestCompileSimpleFunction(t *testing.T) {
	ctx := NewContext()
	prog := addFunctionProgram()

	if err := Compile(ctx, prog); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	fns := ctx.Registry.FunctionsByName("add")
	if len(fns) != 1 {
		t.Fatalf("expected exactly one function named add, got %d", len(fns))
	}

	code, ok := ctx.Code[fns[0]]
	if !ok {
		t.Fatalf("expected a CodeHolder for add")
	}
	if code.Len() == 0 {
		t.Fatalf("expected add's body to lower to at least one instruction")
	}
}

func TestCompileUndefinedIdentifierReportsDiagnostic(t *testing.T) {
	ctx := NewContext()
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.ReturnStatement{Value: &ast.Identifier{Name: "missing", Position: source.Position{Line: 1}}},
	}}
	fn := &ast.FunctionDecl{Name: "f", RetType: typeExpr("i32"), Body: body}
	prog := &ast.Program{ModuleName: "main", Decls: []ast.Decl{fn}}

	if err := Compile(ctx, prog); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !ctx.Diag.HasErrors() {
		t.Fatalf("expected a diagnostic for a reference to an undefined identifier")
	}
}

func TestResolveTypePrimitive(t *testing.T) {
	ctx := NewContext()
	c := &Compiler{ctx: ctx, block: &Block{scope: ctx.Globals}}

	ty, err := c.resolveType(typeExpr("i32"))
	if err != nil {
		t.Fatalf("resolveType: %v", err)
	}
	if ty != ctx.Registry.GetPrimitive(types.I32) {
		t.Fatalf("expected resolveType(i32) to return the interned i32 type")
	}
}
