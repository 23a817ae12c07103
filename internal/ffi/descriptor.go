// Package ffi implements the foreign-function-interface bridge's
// registration-time product: the runtime descriptor a host call is
// marshaled through. The binding-template layer that would generate these
// descriptors from host-language types is out of scope; only the shape
// the VM's FFI bridge reads is.
package ffi

import (
	"fmt"
	"reflect"

	"github.com/tsn-lang/tsn/internal/types"
)

// ArgKind tags how one argument of a host function is represented on the
// VM side for marshaling purposes.
type ArgKind int

const (
	ArgValue ArgKind = iota
	ArgPointer
	ArgRetPointer
	ArgEctxPointer
	ArgThisPointer
	ArgCaptureData
	ArgModuleTypeID
)

// Descriptor is the registration-time record a host binding produces:
// return kind, per-argument kinds, and the native callable the VM's FFI
// bridge invokes through reflection in place of a libffi-style
// native-call shim.
type Descriptor struct {
	Name     string
	Return   *types.Type
	RetKind  ArgKind
	Args     []*types.Type
	ArgKinds []ArgKind

	// Native is the bound Go function, called via reflection. It must be a
	// func value; its arity must match len(Args) once implicit-kind
	// arguments (ectx/this/capture-data/ret pointers) are excluded, since
	// those are supplied by the VM bridge rather than marshaled from
	// script-visible registers.
	Native any

	nativeValue reflect.Value
	nativeType  reflect.Type
}

// Bind checks only that Native is a function (its parameter and result
// types are not compared with Args or Return) and caches its reflected form
// for repeated Invoke calls.
func (d *Descriptor) Bind() error {
	v := reflect.ValueOf(d.Native)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("ffi: %s: Native must be a function, got %s", d.Name, v.Kind())
	}
	d.nativeValue = v
	d.nativeType = v.Type()
	return nil
}

// explicitArgCount returns how many of Args are marshaled from script
// register values, as opposed to supplied by the bridge itself.
func (d *Descriptor) explicitArgCount() int {
	n := 0
	for _, k := range d.ArgKinds {
		switch k {
		case ArgValue, ArgPointer:
			n++
		}
	}
	return n
}

// Invoke calls the bound native function with scriptArgs (already marshaled
// Go values corresponding to this descriptor's explicit ArgValue/ArgPointer
// arguments, in order) and returns its single result, or nil for a void
// function.
func (d *Descriptor) Invoke(scriptArgs []any) (any, error) {
	if d.nativeValue.Kind() != reflect.Func {
		if err := d.Bind(); err != nil {
			return nil, err
		}
	}
	if want := d.explicitArgCount(); len(scriptArgs) != want {
		return nil, fmt.Errorf("ffi: %s: expected %d explicit argument(s), got %d", d.Name, want, len(scriptArgs))
	}

	in := make([]reflect.Value, len(scriptArgs))
	for i, a := range scriptArgs {
		if a == nil {
			in[i] = reflect.Zero(d.nativeType.In(i))
			continue
		}
		in[i] = reflect.ValueOf(a)
	}

	out := d.nativeValue.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		// Convention: a (T, error) native function surfaces its error as a
		// Go error rather than a script value.
		last := out[len(out)-1]
		if err, ok := last.Interface().(error); ok && err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	}
}
