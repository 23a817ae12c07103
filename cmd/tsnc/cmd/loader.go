package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/source"
)

// fileLoader resolves a module name to `<root>/<name>.json`, a JSON
// encoding of the AST input contract (internal/ast). The lexer and parser
// that would normally produce this tree from TSN source text are out of
// scope here; this loader stands in as the external module-resolution
// collaborator so the pipeline has something concrete to drive against.
//
// The JSON schema covers every statement and expression kind the compiler
// lowers except class declarations, lambdas, `new`, and templates — those
// remain reachable only by constructing *ast.Program directly (as the test
// suites do), not through this CLI front end.
type fileLoader struct {
	root string
}

func newFileLoader(root string) *fileLoader {
	return &fileLoader{root: root}
}

func (l *fileLoader) Load(name string) (*ast.Program, error) {
	path := filepath.Join(l.root, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading module %q: %w", name, err)
	}

	var jp jsonProgram
	if err := json.Unmarshal(data, &jp); err != nil {
		return nil, fmt.Errorf("parsing module %q: %w", name, err)
	}
	return jp.toAST(name)
}

type jsonPos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p jsonPos) toAST(file string) source.Position {
	return source.Position{File: file, Line: p.Line, Column: p.Column}
}

type jsonImport struct {
	Module string  `json:"module"`
	Alias  string  `json:"alias"`
	Pos    jsonPos `json:"pos"`
}

type jsonType struct {
	Name string     `json:"name"`
	Args []jsonType `json:"args"`
	Pos  jsonPos    `json:"pos"`
}

func (t *jsonType) toAST(file string) *ast.TypeExpression {
	if t == nil {
		return nil
	}
	out := &ast.TypeExpression{Position: t.Pos.toAST(file), Name: t.Name}
	for _, a := range t.Args {
		out.Args = append(out.Args, a.toAST(file))
	}
	return out
}

type jsonParam struct {
	Name      string   `json:"name"`
	Type      jsonType `json:"type"`
	ByPointer bool     `json:"byPointer"`
	Pos       jsonPos  `json:"pos"`
}

func (p *jsonParam) toAST(file string) *ast.Param {
	return &ast.Param{Position: p.Pos.toAST(file), Name: p.Name, Type: p.Type.toAST(file), ByPointer: p.ByPointer}
}

type jsonFunction struct {
	Name     string      `json:"name"`
	MethodOf string      `json:"methodOf"`
	Params   []jsonParam `json:"params"`
	RetType  jsonType    `json:"retType"`
	Static   bool        `json:"static"`
	Access   int         `json:"access"`
	Body     jsonStmt    `json:"body"`
	Pos      jsonPos     `json:"pos"`
}

func (f *jsonFunction) toAST(file string) (*ast.FunctionDecl, error) {
	body, err := f.Body.toAST(file)
	if err != nil {
		return nil, err
	}
	block, ok := body.(*ast.BlockStatement)
	if !ok {
		return nil, fmt.Errorf("function %q: body must be a block statement", f.Name)
	}

	params := make([]*ast.Param, 0, len(f.Params))
	for i := range f.Params {
		params = append(params, f.Params[i].toAST(file))
	}

	return &ast.FunctionDecl{
		Position: f.Pos.toAST(file),
		Name:     f.Name,
		MethodOf: f.MethodOf,
		Params:   params,
		RetType:  f.RetType.toAST(file),
		IsStatic: f.Static,
		Access:   ast.Access(f.Access),
		Body:     block,
	}, nil
}

type jsonProgram struct {
	Module  string       `json:"module"`
	Imports []jsonImport `json:"imports"`
	Funcs   []jsonFunction `json:"funcs"`
}

func (p *jsonProgram) toAST(fallbackName string) (*ast.Program, error) {
	name := p.Module
	if name == "" {
		name = fallbackName
	}

	prog := &ast.Program{ModuleName: name}
	for _, imp := range p.Imports {
		prog.Imports = append(prog.Imports, &ast.ImportDecl{
			Position: imp.Pos.toAST(name),
			Module:   imp.Module,
			Alias:    imp.Alias,
		})
	}
	for i := range p.Funcs {
		fn, err := p.Funcs[i].toAST(name)
		if err != nil {
			return nil, err
		}
		prog.Decls = append(prog.Decls, fn)
	}
	return prog, nil
}

// jsonStmt is a tagged union over every statement kind the compiler lowers
// (statements.go), keyed by its "stmt" field.
type jsonStmt struct {
	Stmt string  `json:"stmt"`
	Pos  jsonPos `json:"pos"`

	Stmts []jsonStmt `json:"stmts"`  // block
	Expr *jsonExpr  `json:"expr"`   // expr, return, throw
	Name string     `json:"name"`   // let
	Type *jsonType  `json:"type"`   // let
	Init *jsonExpr  `json:"init"`   // let
	Target   *jsonExpr `json:"target"`   // assign
	Value    *jsonExpr `json:"value"`    // assign
	Operator string    `json:"operator"` // assign
	Cond     *jsonExpr `json:"cond"`     // if, while, dowhile, for
	Then     *jsonStmt `json:"then"`     // if
	Else     *jsonStmt `json:"else"`     // if
	Loop     *jsonStmt `json:"loop"`     // while, dowhile, for: the loop body block
	InitStmt *jsonStmt `json:"initStmt"` // for
	Post     *jsonStmt `json:"post"`     // for
}

func (s *jsonStmt) toAST(file string) (ast.Statement, error) {
	if s == nil {
		return nil, nil
	}
	pos := s.Pos.toAST(file)

	switch s.Stmt {
	case "block":
		block := &ast.BlockStatement{Position: pos}
		for i := range s.Stmts {
			st, err := s.Stmts[i].toAST(file)
			if err != nil {
				return nil, err
			}
			block.Statements = append(block.Statements, st)
		}
		return block, nil

	case "expr":
		val, err := s.Expr.toAST(file)
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Position: pos, Expr: val}, nil

	case "let":
		init, err := s.Init.toAST(file)
		if err != nil {
			return nil, err
		}
		return &ast.LetStatement{Position: pos, Name: s.Name, Type: s.Type.toAST(file), Init: init}, nil

	case "assign":
		target, err := s.Target.toAST(file)
		if err != nil {
			return nil, err
		}
		value, err := s.Value.toAST(file)
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentStatement{Position: pos, Target: target, Value: value, Operator: s.Operator}, nil

	case "if":
		cond, err := s.Cond.toAST(file)
		if err != nil {
			return nil, err
		}
		thenStmt, err := s.Then.toAST(file)
		if err != nil {
			return nil, err
		}
		thenBlock, ok := thenStmt.(*ast.BlockStatement)
		if !ok {
			return nil, fmt.Errorf("if statement: then branch must be a block")
		}
		elseStmt, err := s.Else.toAST(file)
		if err != nil {
			return nil, err
		}
		return &ast.IfStatement{Position: pos, Cond: cond, Then: thenBlock, Else: elseStmt}, nil

	case "while":
		cond, err := s.Cond.toAST(file)
		if err != nil {
			return nil, err
		}
		bodyStmt, err := s.Loop.toAST(file)
		if err != nil {
			return nil, err
		}
		body, ok := bodyStmt.(*ast.BlockStatement)
		if !ok {
			return nil, fmt.Errorf("while statement: body must be a block")
		}
		return &ast.WhileStatement{Position: pos, Cond: cond, Body: body}, nil

	case "dowhile":
		cond, err := s.Cond.toAST(file)
		if err != nil {
			return nil, err
		}
		bodyStmt, err := s.Loop.toAST(file)
		if err != nil {
			return nil, err
		}
		body, ok := bodyStmt.(*ast.BlockStatement)
		if !ok {
			return nil, fmt.Errorf("do-while statement: body must be a block")
		}
		return &ast.DoWhileStatement{Position: pos, Cond: cond, Body: body}, nil

	case "for":
		initStmt, err := s.InitStmt.toAST(file)
		if err != nil {
			return nil, err
		}
		cond, err := s.Cond.toAST(file)
		if err != nil {
			return nil, err
		}
		postStmt, err := s.Post.toAST(file)
		if err != nil {
			return nil, err
		}
		bodyStmt, err := s.Loop.toAST(file)
		if err != nil {
			return nil, err
		}
		body, ok := bodyStmt.(*ast.BlockStatement)
		if !ok {
			return nil, fmt.Errorf("for statement: body must be a block")
		}
		return &ast.ForStatement{Position: pos, Init: initStmt, Cond: cond, Post: postStmt, Body: body}, nil

	case "return":
		val, err := s.Expr.toAST(file)
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStatement{Position: pos, Value: val}, nil

	case "break":
		return &ast.BreakStatement{Position: pos}, nil

	case "continue":
		return &ast.ContinueStatement{Position: pos}, nil

	case "throw":
		val, err := s.Expr.toAST(file)
		if err != nil {
			return nil, err
		}
		return &ast.ThrowStatement{Position: pos, Value: val}, nil

	default:
		return nil, fmt.Errorf("unknown statement kind %q", s.Stmt)
	}
}

// jsonExpr is a tagged union over every expression kind the compiler lowers
// (expressions.go), keyed by its "expr" field.
type jsonExpr struct {
	Expr string  `json:"expr"`
	Pos  jsonPos `json:"pos"`

	Name     string      `json:"name"`     // ident, member
	IntVal   int64       `json:"intVal"`   // int
	UintVal  uint64      `json:"uintVal"`  // uint
	F32Val   float32     `json:"f32Val"`   // f32
	F64Val   float64     `json:"f64Val"`   // f64
	StrVal   string      `json:"strVal"`   // string
	BoolVal  bool        `json:"boolVal"`  // bool
	Left     *jsonExpr   `json:"left"`     // binary
	Right    *jsonExpr   `json:"right"`    // binary
	Operand  *jsonExpr   `json:"operand"`  // unary
	Operator string      `json:"operator"` // binary, unary
	Cond     *jsonExpr   `json:"cond"`     // ternary
	Then     *jsonExpr   `json:"then"`     // ternary
	Else     *jsonExpr   `json:"else"`     // ternary
	Callee   *jsonExpr   `json:"callee"`   // call
	Args     []jsonExpr  `json:"args"`     // call
	Object   *jsonExpr   `json:"object"`   // member, index
	Index    *jsonExpr   `json:"index"`    // index
}

func (e *jsonExpr) toAST(file string) (ast.Expression, error) {
	if e == nil {
		return nil, nil
	}
	pos := e.Pos.toAST(file)

	switch e.Expr {
	case "ident":
		return &ast.Identifier{Position: pos, Name: e.Name}, nil
	case "int":
		return &ast.IntegerLiteral{Position: pos, Value: e.IntVal}, nil
	case "uint":
		return &ast.UnsignedLiteral{Position: pos, Value: e.UintVal}, nil
	case "f32":
		return &ast.FloatLiteral{Position: pos, Value: e.F32Val}, nil
	case "f64":
		return &ast.DoubleLiteral{Position: pos, Value: e.F64Val}, nil
	case "string":
		return &ast.StringLiteral{Position: pos, Value: e.StrVal}, nil
	case "bool":
		return &ast.BoolLiteral{Position: pos, Value: e.BoolVal}, nil
	case "this":
		return &ast.ThisExpression{Position: pos}, nil
	case "binary":
		left, err := e.Left.toAST(file)
		if err != nil {
			return nil, err
		}
		right, err := e.Right.toAST(file)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpression{Position: pos, Left: left, Right: right, Operator: e.Operator}, nil
	case "unary":
		operand, err := e.Operand.toAST(file)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Position: pos, Operand: operand, Operator: e.Operator}, nil
	case "ternary":
		cond, err := e.Cond.toAST(file)
		if err != nil {
			return nil, err
		}
		then, err := e.Then.toAST(file)
		if err != nil {
			return nil, err
		}
		els, err := e.Else.toAST(file)
		if err != nil {
			return nil, err
		}
		return &ast.TernaryExpression{Position: pos, Cond: cond, Then: then, Else: els}, nil
	case "call":
		callee, err := e.Callee.toAST(file)
		if err != nil {
			return nil, err
		}
		args := make([]ast.Expression, 0, len(e.Args))
		for i := range e.Args {
			arg, err := e.Args[i].toAST(file)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return &ast.CallExpression{Position: pos, Callee: callee, Args: args}, nil
	case "member":
		object, err := e.Object.toAST(file)
		if err != nil {
			return nil, err
		}
		return &ast.MemberExpression{Position: pos, Object: object, Name: e.Name}, nil
	case "index":
		object, err := e.Object.toAST(file)
		if err != nil {
			return nil, err
		}
		index, err := e.Index.toAST(file)
		if err != nil {
			return nil, err
		}
		return &ast.IndexExpression{Position: pos, Object: object, Index: index}, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", e.Expr)
	}
}
