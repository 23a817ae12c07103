package ast

import "github.com/tsn-lang/tsn/internal/source"

// Identifier is a bare name reference: a variable, a function, a module, or
// a type, disambiguated by the symbol table at compile time.
type Identifier struct {
	Position source.Position
	Name     string
}

func (e *Identifier) Pos() source.Position { return e.Position }
func (e *Identifier) String() string       { return e.Name }
func (e *Identifier) expressionNode()      {}

// IntegerLiteral is a signed integer constant.
type IntegerLiteral struct {
	Position source.Position
	Value    int64
}

func (e *IntegerLiteral) Pos() source.Position { return e.Position }
func (e *IntegerLiteral) String() string       { return "<int>" }
func (e *IntegerLiteral) expressionNode()      {}

// UnsignedLiteral is an unsigned integer constant (the 'u' suffix forms).
type UnsignedLiteral struct {
	Position source.Position
	Value    uint64
}

func (e *UnsignedLiteral) Pos() source.Position { return e.Position }
func (e *UnsignedLiteral) String() string       { return "<uint>" }
func (e *UnsignedLiteral) expressionNode()      {}

// FloatLiteral is a 32-bit floating point constant.
type FloatLiteral struct {
	Position source.Position
	Value    float32
}

func (e *FloatLiteral) Pos() source.Position { return e.Position }
func (e *FloatLiteral) String() string       { return "<f32>" }
func (e *FloatLiteral) expressionNode()      {}

// DoubleLiteral is a 64-bit floating point constant.
type DoubleLiteral struct {
	Position source.Position
	Value    float64
}

func (e *DoubleLiteral) Pos() source.Position { return e.Position }
func (e *DoubleLiteral) String() string       { return "<f64>" }
func (e *DoubleLiteral) expressionNode()      {}

// StringLiteral is a string constant.
type StringLiteral struct {
	Position source.Position
	Value    string
}

func (e *StringLiteral) Pos() source.Position { return e.Position }
func (e *StringLiteral) String() string       { return "<string>" }
func (e *StringLiteral) expressionNode()      {}

// BoolLiteral is a boolean constant.
type BoolLiteral struct {
	Position source.Position
	Value    bool
}

func (e *BoolLiteral) Pos() source.Position { return e.Position }
func (e *BoolLiteral) String() string       { return "<bool>" }
func (e *BoolLiteral) expressionNode()      {}

// ThisExpression refers to the implicit this_ptr in a method body.
type ThisExpression struct {
	Position source.Position
}

func (e *ThisExpression) Pos() source.Position { return e.Position }
func (e *ThisExpression) String() string       { return "this" }
func (e *ThisExpression) expressionNode()      {}

// BinaryExpression is any two-operand operator, including && and ||, which
// the compiler lowers to explicit branches rather than an opcode.
type BinaryExpression struct {
	Left     Expression
	Right    Expression
	Operator string
	Position source.Position
}

func (e *BinaryExpression) Pos() source.Position { return e.Position }
func (e *BinaryExpression) String() string       { return "(" + e.Left.String() + " " + e.Operator + " " + e.Right.String() + ")" }
func (e *BinaryExpression) expressionNode()      {}

// UnaryExpression is a one-operand prefix operator: -, !, ~.
type UnaryExpression struct {
	Operand  Expression
	Operator string
	Position source.Position
}

func (e *UnaryExpression) Pos() source.Position { return e.Position }
func (e *UnaryExpression) String() string       { return e.Operator + e.Operand.String() }
func (e *UnaryExpression) expressionNode()      {}

// TernaryExpression is cond ? then : else, lowered identically to an
// if/else producing a value.
type TernaryExpression struct {
	Cond     Expression
	Then     Expression
	Else     Expression
	Position source.Position
}

func (e *TernaryExpression) Pos() source.Position { return e.Position }
func (e *TernaryExpression) String() string        { return e.Cond.String() + " ? " + e.Then.String() + " : " + e.Else.String() }
func (e *TernaryExpression) expressionNode()       {}

// CallExpression is `Callee(Args...)`, where Callee's shape drives which of
// the compiler's call-resolution patterns applies.
type CallExpression struct {
	Callee   Expression
	Args     []Expression
	Position source.Position
}

func (e *CallExpression) Pos() source.Position { return e.Position }
func (e *CallExpression) String() string       { return e.Callee.String() + "(...)" }
func (e *CallExpression) expressionNode()      {}

// MemberExpression is `Object.Name`: a property, a static member, or a
// qualified module/type lookup depending on what Object resolves to.
type MemberExpression struct {
	Object   Expression
	Name     string
	Position source.Position
}

func (e *MemberExpression) Pos() source.Position { return e.Position }
func (e *MemberExpression) String() string       { return e.Object.String() + "." + e.Name }
func (e *MemberExpression) expressionNode()      {}

// IndexExpression is `Object[Index]`.
type IndexExpression struct {
	Object   Expression
	Index    Expression
	Position source.Position
}

func (e *IndexExpression) Pos() source.Position { return e.Position }
func (e *IndexExpression) String() string       { return e.Object.String() + "[" + e.Index.String() + "]" }
func (e *IndexExpression) expressionNode()      {}

// NewExpression constructs an instance of Type, passing Args to its
// constructor.
type NewExpression struct {
	Type     *TypeExpression
	Args     []Expression
	Position source.Position
}

func (e *NewExpression) Pos() source.Position { return e.Position }
func (e *NewExpression) String() string       { return "new " + e.Type.String() + "(...)" }
func (e *NewExpression) expressionNode()      {}

// LambdaExpression is an anonymous function literal; free variables not
// declared in Body become its capture list at compile time.
type LambdaExpression struct {
	Params   []*Param
	RetType  *TypeExpression
	Body     *BlockStatement
	Position source.Position
}

func (e *LambdaExpression) Pos() source.Position { return e.Position }
func (e *LambdaExpression) String() string       { return "lambda(...)" }
func (e *LambdaExpression) expressionNode()      {}

// Param is one formal parameter of a function, method, or lambda.
type Param struct {
	Position  source.Position
	Name      string
	Type      *TypeExpression
	ByPointer bool
}
