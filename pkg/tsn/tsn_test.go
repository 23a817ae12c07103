package tsn

import (
	"testing"

	"github.com/tsn-lang/tsn/internal/ast"
)

type mapLoader map[string]*ast.Program

func (m mapLoader) Load(name string) (*ast.Program, error) {
	if prog, ok := m[name]; ok {
		return prog, nil
	}
	return nil, errUnknownModule(name)
}

type errUnknownModule string

func (e errUnknownModule) Error() string { return "tsn_test: no module named " + string(e) }

func typeExpr(name string) *ast.TypeExpression { return &ast.TypeExpression{Name: name} }

func addModule() *ast.Program {
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.ReturnStatement{Value: &ast.BinaryExpression{
			Left: &ast.Identifier{Name: "a"}, Right: &ast.Identifier{Name: "b"}, Operator: "+",
		}},
	}}
	fn := &ast.FunctionDecl{
		Name:    "main",
		Params:  []*ast.Param{{Name: "a", Type: typeExpr("i32")}, {Name: "b", Type: typeExpr("i32")}},
		RetType: typeExpr("i32"),
		Body:    body,
	}
	return &ast.Program{ModuleName: "main", Decls: []ast.Decl{fn}}
}

func TestContextCompileProducesRunnableProgram(t *testing.T) {
	loader := mapLoader{"main": addModule()}
	ctx := NewContext(WithLoader(loader))

	prog, err := ctx.Compile("main")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if prog.Backend == nil {
		t.Fatalf("expected a linked backend program")
	}

	if err := prog.Run("main"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestContextCompileWithoutLoaderFails(t *testing.T) {
	ctx := NewContext()
	if _, err := ctx.Compile("main"); err == nil {
		t.Fatalf("expected an error compiling without a Loader")
	}
}

func TestProgramDisassembleListsInstructions(t *testing.T) {
	loader := mapLoader{"main": addModule()}
	ctx := NewContext(WithLoader(loader))

	prog, err := ctx.Compile("main")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	listing := prog.Disassemble()
	if listing == "" {
		t.Fatalf("expected a non-empty disassembly listing")
	}
}

func TestDiagnosticsSurfacesPipelineMessages(t *testing.T) {
	loader := mapLoader{"main": addModule()}
	ctx := NewContext(WithLoader(loader))

	if _, err := ctx.Compile("main"); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(ctx.Diagnostics()) == 0 {
		t.Fatalf("expected pipeline stage-transition diagnostics to be recorded")
	}
}
