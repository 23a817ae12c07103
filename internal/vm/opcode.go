package vm

// OpCode is one VM bytecode opcode: fixed-width, opcode in the low bits of
// a 64-bit-aligned instruction word. The full ~230-entry opcode list is
// represented here by one representative opcode per category
// the IR opcode table (internal/ir) actually emits; categories the compiler
// never lowers to (vector ops, the f32/f64-vs-imm comparison split) are
// named in DESIGN.md rather than encoded, since nothing in this module
// produces IR that would exercise them.
type OpCode byte

const (
	OpNull OpCode = iota
	OpTerm

	// Memory: ld/st width is carried by the operand Type, mirroring ir.OpLoad/OpStore.
	OpLd
	OpSt
	OpMptr // move pointer (stack_alloc result into a register)
	OpMtfp // move to floating-point register
	OpMffp // move from floating-point register

	// Signed integer arithmetic.
	OpAdd
	OpSub
	OpSubIr // reversed-immediate subtract: D = K - S
	OpMul
	OpDiv
	OpDivIr
	OpMod
	OpNeg

	// Unsigned integer arithmetic.
	OpAddu
	OpSubu
	OpMulu
	OpDivu
	OpModu

	// Numeric conversions.
	OpCvtIf
	OpCvtId
	OpCvtIu
	OpCvtUf
	OpCvtUd
	OpCvtUi
	OpCvtFi
	OpCvtFu
	OpCvtFd
	OpCvtDi
	OpCvtDu
	OpCvtDf

	// f32 arithmetic.
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFMod
	OpFNeg

	// f64 arithmetic.
	OpDAdd
	OpDSub
	OpDMul
	OpDDiv
	OpDMod
	OpDNeg

	// Comparisons (integer; unsigned/f32/f64 share the same shape, selected
	// by the operand type the lowering pass recorded).
	OpLt
	OpLte
	OpGt
	OpGte
	OpCmp  // equal
	OpNcmp // not-equal

	// Boolean / bitwise.
	OpAnd
	OpOr
	OpNot
	OpBand
	OpBor
	OpXor
	OpInv
	OpSl
	OpSr

	// Control flow.
	OpBeqz
	OpBneqz
	OpJmp
	OpJmpr
	OpJal
	OpJalr

	// Stack.
	OpPush
	OpPop

	opCodeCount
)

var opcodeNames = [opCodeCount]string{
	OpNull: "null", OpTerm: "term",
	OpLd: "ld", OpSt: "st", OpMptr: "mptr", OpMtfp: "mtfp", OpMffp: "mffp",
	OpAdd: "add", OpSub: "sub", OpSubIr: "subir", OpMul: "mul", OpDiv: "div", OpDivIr: "divir", OpMod: "mod", OpNeg: "neg",
	OpAddu: "addu", OpSubu: "subu", OpMulu: "mulu", OpDivu: "divu", OpModu: "modu",
	OpCvtIf: "cvt_if", OpCvtId: "cvt_id", OpCvtIu: "cvt_iu", OpCvtUf: "cvt_uf", OpCvtUd: "cvt_ud", OpCvtUi: "cvt_ui",
	OpCvtFi: "cvt_fi", OpCvtFu: "cvt_fu", OpCvtFd: "cvt_fd", OpCvtDi: "cvt_di", OpCvtDu: "cvt_du", OpCvtDf: "cvt_df",
	OpFAdd: "fadd", OpFSub: "fsub", OpFMul: "fmul", OpFDiv: "fdiv", OpFMod: "fmod", OpFNeg: "fneg",
	OpDAdd: "dadd", OpDSub: "dsub", OpDMul: "dmul", OpDDiv: "ddiv", OpDMod: "dmod", OpDNeg: "dneg",
	OpLt: "lt", OpLte: "lte", OpGt: "gt", OpGte: "gte", OpCmp: "cmp", OpNcmp: "ncmp",
	OpAnd: "and", OpOr: "or", OpNot: "not", OpBand: "band", OpBor: "bor", OpXor: "xor", OpInv: "inv", OpSl: "sl", OpSr: "sr",
	OpBeqz: "beqz", OpBneqz: "bneqz", OpJmp: "jmp", OpJmpr: "jmpr", OpJal: "jal", OpJalr: "jalr",
	OpPush: "push", OpPop: "pop",
}

func (op OpCode) String() string {
	if int(op) < 0 || int(op) >= int(opCodeCount) {
		return "unknown"
	}
	return opcodeNames[op]
}
