package ffi

import (
	"errors"
	"reflect"
	"testing"
)

func TestDescriptorInvoke(t *testing.T) {
	d := &Descriptor{
		Name:     "add",
		ArgKinds: []ArgKind{ArgValue, ArgValue},
		Native:   func(a, b int64) int64 { return a + b },
	}

	result, err := d.Invoke([]any{int64(3), int64(4)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result.(int64) != 7 {
		t.Errorf("expected 7, got %v", result)
	}
}

func TestDescriptorInvokeErrorReturn(t *testing.T) {
	d := &Descriptor{
		Name:     "fail",
		ArgKinds: []ArgKind{ArgValue},
		Native: func(code int64) (int64, error) {
			if code != 0 {
				return 0, errors.New("boom")
			}
			return code, nil
		},
	}

	if _, err := d.Invoke([]any{int64(1)}); err == nil {
		t.Error("expected the native error to surface")
	}
	result, err := d.Invoke([]any{int64(0)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result.(int64) != 0 {
		t.Errorf("expected 0, got %v", result)
	}
}

func TestDescriptorInvokeArgCountMismatch(t *testing.T) {
	d := &Descriptor{
		Name:     "one-arg",
		ArgKinds: []ArgKind{ArgValue},
		Native:   func(a int64) int64 { return a },
	}
	if _, err := d.Invoke([]any{int64(1), int64(2)}); err == nil {
		t.Error("expected an arity mismatch error")
	}
}

func TestRegistryRegisterAndCall(t *testing.T) {
	r := NewRegistry()
	err := r.Register(&Descriptor{
		Name:     "double",
		ArgKinds: []ArgKind{ArgValue},
		Native:   func(a int64) int64 { return a * 2 },
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	result, err := r.Call("double", []any{int64(5)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.(int64) != 10 {
		t.Errorf("expected 10, got %v", result)
	}

	if err := r.Register(&Descriptor{Name: "double", Native: func() {}}); err == nil {
		t.Error("expected a duplicate-registration error")
	}
	if _, err := r.Call("missing", nil); err == nil {
		t.Error("expected an error calling an unregistered function")
	}
}

type fakeVM struct {
	result any
	err    error
	gotID  uint32
	gotPtr uintptr
	gotIn  []any
}

func (f *fakeVM) CallScript(functionID uint32, dataPtr uintptr, args []any) (any, error) {
	f.gotID, f.gotPtr, f.gotIn = functionID, dataPtr, args
	return f.result, f.err
}

func TestWrapAsGoFunc(t *testing.T) {
	vm := &fakeVM{result: int64(42)}
	wrapped, err := WrapAsGoFunc(vm, 7, 0xBEEF, reflect.TypeOf(func(int64) int64 { return 0 }))
	if err != nil {
		t.Fatalf("WrapAsGoFunc: %v", err)
	}

	fn := wrapped.(func(int64) int64)
	if got := fn(9); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if vm.gotID != 7 || vm.gotPtr != 0xBEEF {
		t.Errorf("wrapper did not forward functionID/dataPtr correctly")
	}
	if len(vm.gotIn) != 1 || vm.gotIn[0].(int64) != 9 {
		t.Errorf("wrapper did not forward arguments correctly")
	}
}

func TestWrapAsGoFuncPropagatesError(t *testing.T) {
	vm := &fakeVM{err: errors.New("script panic")}
	wrapped, _ := WrapAsGoFunc(vm, 1, 0, reflect.TypeOf(func(int64) (int64, error) { return 0, nil }))
	fn := wrapped.(func(int64) (int64, error))
	if _, err := fn(1); err == nil {
		t.Error("expected the script-side error to propagate")
	}
}
