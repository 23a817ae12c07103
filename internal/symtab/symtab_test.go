package symtab

import (
	"testing"

	"github.com/tsn-lang/tsn/internal/types"
)

func TestDefineAndGet(t *testing.T) {
	reg := types.NewRegistry()
	i32, _ := reg.Intern(types.Descriptor{SimpleName: "i32", FQName: "i32"})

	root := New()
	if err := root.DefineVar("x", i32, false); err != nil {
		t.Fatalf("DefineVar: %v", err)
	}

	sym, ok := root.Get("x")
	if !ok {
		t.Fatal("expected to find 'x'")
	}
	if sym.VarType != i32 {
		t.Errorf("wrong type for 'x'")
	}
}

func TestGetSearchesOuterScope(t *testing.T) {
	reg := types.NewRegistry()
	i32, _ := reg.Intern(types.Descriptor{SimpleName: "i32", FQName: "i32"})

	outer := New()
	outer.DefineVar("x", i32, false)
	inner := NewEnclosed(outer)

	if _, ok := inner.Get("x"); !ok {
		t.Error("expected inner scope to see outer-scope symbol")
	}
	if inner.DeclaredHere("x") {
		t.Error("DeclaredHere should not see outer-scope symbols")
	}
}

func TestCaseSensitiveLookup(t *testing.T) {
	reg := types.NewRegistry()
	i32, _ := reg.Intern(types.Descriptor{SimpleName: "i32", FQName: "i32"})

	root := New()
	root.DefineVar("Foo", i32, false)

	if _, ok := root.Get("foo"); ok {
		t.Error("lookup must be case-sensitive: 'foo' should not resolve 'Foo'")
	}
	if _, ok := root.Get("Foo"); !ok {
		t.Error("expected exact-case lookup to succeed")
	}
}

func TestQualifiedModuleLookup(t *testing.T) {
	reg := types.NewRegistry()
	i32, _ := reg.Intern(types.Descriptor{SimpleName: "i32", FQName: "i32"})

	mod := New()
	mod.DefineVar("value", i32, false)

	root := New()
	root.DefineModule("math", mod)

	sym, ok := root.Qualified("math.value")
	if !ok {
		t.Fatal("expected qualified lookup to find math.value")
	}
	if sym.VarType != i32 {
		t.Error("wrong type resolved through qualified lookup")
	}

	if _, ok := root.Qualified("math.missing"); ok {
		t.Error("qualified lookup must not fall back past the module boundary")
	}
}

func TestGetFuncExactMatchWins(t *testing.T) {
	reg := types.NewRegistry()
	i32, _ := reg.Intern(types.Descriptor{SimpleName: "i32", FQName: "i32", Flags: types.Flags{IsIntegral: true, IsPrimitive: true}, Size: 4})
	f64, _ := reg.Intern(types.Descriptor{SimpleName: "f64", FQName: "f64", Flags: types.Flags{IsFloatingPoint: true, IsPrimitive: true}, Size: 8})

	sigInt, _ := reg.InternSignature(&types.Signature{Args: []types.SigArg{{Type: i32}}, Return: i32})
	sigFloat, _ := reg.InternSignature(&types.Signature{Args: []types.SigArg{{Type: f64}}, Return: i32})

	fnInt := reg.NewFunction(types.Function{SimpleName: "abs", FQName: "abs", Signature: sigInt})
	fnFloat := reg.NewFunction(types.Function{SimpleName: "abs", FQName: "abs", Signature: sigFloat})

	root := New()
	root.DefineFunc("abs", fnInt)
	root.DefineFunc("abs", fnFloat)

	resolved, err := root.GetFunc("abs", nil, []*types.Type{i32}, false)
	if err != nil {
		t.Fatalf("GetFunc: %v", err)
	}
	if resolved != fnInt {
		t.Error("expected the exact-match int overload to win")
	}
}

func TestGetFuncUnequalScoresAreNotAmbiguous(t *testing.T) {
	reg := types.NewRegistry()
	i32, _ := reg.Intern(types.Descriptor{SimpleName: "i32", FQName: "i32", Flags: types.Flags{IsIntegral: true, IsPrimitive: true}, Size: 4})
	i64, _ := reg.Intern(types.Descriptor{SimpleName: "i64", FQName: "i64", Flags: types.Flags{IsIntegral: true, IsPrimitive: true}, Size: 8})
	u32, _ := reg.Intern(types.Descriptor{SimpleName: "u32", FQName: "u32", Flags: types.Flags{IsIntegral: true, IsUnsigned: true, IsPrimitive: true}, Size: 4})

	sigI64, _ := reg.InternSignature(&types.Signature{Args: []types.SigArg{{Type: i64}}, Return: i32})
	sigU32, _ := reg.InternSignature(&types.Signature{Args: []types.SigArg{{Type: u32}}, Return: i32})

	fnA := reg.NewFunction(types.Function{SimpleName: "f", FQName: "f", Signature: sigI64})
	fnB := reg.NewFunction(types.Function{SimpleName: "f", FQName: "f", Signature: sigU32})

	root := New()
	root.DefineFunc("f", fnA)
	root.DefineFunc("f", fnB)

	// i32 -> i64 is an implicit widening-integral conversion (score 1);
	// i32 -> u32 is a cross-signedness conversion, also scored as widening
	// (score 2). These are deliberately unequal so this asserts the
	// non-ambiguous case; see TestGetFuncNoFeasibleOverload for the
	// impossible-conversion path.
	_, err := root.GetFunc("f", nil, []*types.Type{i32}, false)
	if err != nil {
		t.Fatalf("GetFunc: %v", err)
	}
}

func TestGetFuncNoFeasibleOverload(t *testing.T) {
	reg := types.NewRegistry()
	i32, _ := reg.Intern(types.Descriptor{SimpleName: "i32", FQName: "i32", Flags: types.Flags{IsIntegral: true, IsPrimitive: true}, Size: 4})
	str, _ := reg.Intern(types.Descriptor{SimpleName: "string", FQName: "string"})

	sig, _ := reg.InternSignature(&types.Signature{Args: []types.SigArg{{Type: str}}, Return: i32})
	fn := reg.NewFunction(types.Function{SimpleName: "len", FQName: "len", Signature: sig})

	root := New()
	root.DefineFunc("len", fn)

	if _, err := root.GetFunc("len", nil, []*types.Type{i32}, false); err == nil {
		t.Error("expected an error: no overload of 'len' accepts an i32 argument")
	}
}

func TestGetFuncStrictRejectsConversion(t *testing.T) {
	reg := types.NewRegistry()
	i32, _ := reg.Intern(types.Descriptor{SimpleName: "i32", FQName: "i32", Flags: types.Flags{IsIntegral: true, IsPrimitive: true}, Size: 4})
	i64, _ := reg.Intern(types.Descriptor{SimpleName: "i64", FQName: "i64", Flags: types.Flags{IsIntegral: true, IsPrimitive: true}, Size: 8})

	sig, _ := reg.InternSignature(&types.Signature{Args: []types.SigArg{{Type: i64}}, Return: i32})
	fn := reg.NewFunction(types.Function{SimpleName: "f", FQName: "f", Signature: sig})

	root := New()
	root.DefineFunc("f", fn)

	if _, err := root.GetFunc("f", nil, []*types.Type{i32}, true); err == nil {
		t.Error("strict mode should reject a non-exact conversion")
	}
	if _, err := root.GetFunc("f", nil, []*types.Type{i64}, true); err != nil {
		t.Errorf("strict mode should accept an exact match: %v", err)
	}
}
