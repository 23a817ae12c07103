package ast

import "github.com/tsn-lang/tsn/internal/source"

// BlockStatement is a brace-delimited sequence of statements; the compiler
// pushes one Block (compiler package) per BlockStatement it lowers.
type BlockStatement struct {
	Statements []Statement
	Position   source.Position
}

func (s *BlockStatement) Pos() source.Position { return s.Position }
func (s *BlockStatement) String() string       { return "{...}" }
func (s *BlockStatement) statementNode()       {}

// ExpressionStatement is an expression evaluated for its side effects.
type ExpressionStatement struct {
	Expr     Expression
	Position source.Position
}

func (s *ExpressionStatement) Pos() source.Position { return s.Position }
func (s *ExpressionStatement) String() string       { return s.Expr.String() + ";" }
func (s *ExpressionStatement) statementNode()       {}

// LetStatement declares a local variable with an optional initializer.
// Values marked non-trivially-destructible are tracked as stack objects by
// the compiler.
type LetStatement struct {
	Init     Expression
	Type     *TypeExpression
	Position source.Position
	Name     string
}

func (s *LetStatement) Pos() source.Position { return s.Position }
func (s *LetStatement) String() string       { return "let " + s.Name }
func (s *LetStatement) statementNode()       {}

// AssignmentStatement assigns Value to Target. Target may be an Identifier,
// a MemberExpression, or an IndexExpression — each follows a distinct
// lowering rule.
type AssignmentStatement struct {
	Target   Expression
	Value    Expression
	Operator string
	Position source.Position
}

func (s *AssignmentStatement) Pos() source.Position { return s.Position }
func (s *AssignmentStatement) String() string       { return s.Target.String() + " " + s.Operator + " ..." }
func (s *AssignmentStatement) statementNode()       {}

// IfStatement is lowered to meta_if_branch-bracketed control flow.
type IfStatement struct {
	Cond     Expression
	Then     *BlockStatement
	Else     Statement // *BlockStatement or *IfStatement, nil if absent
	Position source.Position
}

func (s *IfStatement) Pos() source.Position { return s.Position }
func (s *IfStatement) String() string       { return "if (...)" }
func (s *IfStatement) statementNode()       {}

// ForStatement is a C-style counted loop, lowered to meta_for_loop.
type ForStatement struct {
	Init     Statement
	Cond     Expression
	Post     Statement
	Body     *BlockStatement
	Position source.Position
}

func (s *ForStatement) Pos() source.Position { return s.Position }
func (s *ForStatement) String() string       { return "for (...)" }
func (s *ForStatement) statementNode()       {}

// WhileStatement is lowered to meta_while_loop.
type WhileStatement struct {
	Cond     Expression
	Body     *BlockStatement
	Position source.Position
}

func (s *WhileStatement) Pos() source.Position { return s.Position }
func (s *WhileStatement) String() string       { return "while (...)" }
func (s *WhileStatement) statementNode()       {}

// DoWhileStatement is lowered to meta_do_while_loop.
type DoWhileStatement struct {
	Body     *BlockStatement
	Cond     Expression
	Position source.Position
}

func (s *DoWhileStatement) Pos() source.Position { return s.Position }
func (s *DoWhileStatement) String() string       { return "do {...} while (...)" }
func (s *DoWhileStatement) statementNode()       {}

// ReturnStatement exits the enclosing function, running stack-object
// teardown for every enclosing block up to the function body.
type ReturnStatement struct {
	Value    Expression // nil for a void return
	Position source.Position
}

func (s *ReturnStatement) Pos() source.Position { return s.Position }
func (s *ReturnStatement) String() string       { return "return" }
func (s *ReturnStatement) statementNode()       {}

// BreakStatement exits the nearest enclosing loop.
type BreakStatement struct{ Position source.Position }

func (s *BreakStatement) Pos() source.Position { return s.Position }
func (s *BreakStatement) String() string       { return "break" }
func (s *BreakStatement) statementNode()       {}

// ContinueStatement jumps to the nearest enclosing loop's post/condition.
type ContinueStatement struct{ Position source.Position }

func (s *ContinueStatement) Pos() source.Position { return s.Position }
func (s *ContinueStatement) String() string       { return "continue" }
func (s *ContinueStatement) statementNode()       {}

// ThrowStatement raises a script-level exception.
type ThrowStatement struct {
	Value    Expression
	Position source.Position
}

func (s *ThrowStatement) Pos() source.Position { return s.Position }
func (s *ThrowStatement) String() string       { return "throw" }
func (s *ThrowStatement) statementNode()       {}
