package types

import (
	"strings"
	"testing"
)

func TestRegistryAllTypesAndAllFunctionsAscendingID(t *testing.T) {
	r := NewRegistry()
	foo, err := r.Intern(Descriptor{SimpleName: "Foo", FQName: "Foo"})
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	r.NewFunction(Function{SimpleName: "bar", FQName: "bar"})

	types := r.AllTypes()
	if len(types) == 0 || types[len(types)-1].FQName != foo.FQName {
		t.Fatalf("expected the most recently interned type last, got %+v", types)
	}

	funcs := r.AllFunctions()
	if len(funcs) != 1 || funcs[0].FQName != "bar" {
		t.Fatalf("expected exactly one function named bar, got %+v", funcs)
	}
}

func TestRegistryDumpIncludesTypesAndFunctions(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Intern(Descriptor{SimpleName: "Foo", FQName: "Foo"}); err != nil {
		t.Fatalf("Intern: %v", err)
	}
	r.NewFunction(Function{SimpleName: "bar", FQName: "bar"})

	var b strings.Builder
	if err := r.Dump(&b); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "Foo") {
		t.Fatalf("expected dump to mention type Foo, got %s", out)
	}
	if !strings.Contains(out, "bar") {
		t.Fatalf("expected dump to mention function bar, got %s", out)
	}
}
