// Package compiler lowers a typed AST into the three-address IR:
// expressions, statements, functions, closures, classes, and template
// instantiation.
package compiler

import (
	"github.com/tsn-lang/tsn/internal/diag"
	"github.com/tsn-lang/tsn/internal/ffi"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/symtab"
	"github.com/tsn-lang/tsn/internal/types"
)

// Context is the compile-scoped state a Compiler reads and writes: the
// Type Registry, the root Symbol Table, the host FFI registry, and the
// diagnostic sink every pass reports into. Every one of these is owned by
// the Context, never a package-level global, so two Contexts can compile
// concurrently without sharing state.
type Context struct {
	Registry *types.Registry
	Globals  *symtab.Table
	FFI      *ffi.Registry
	Diag     *diag.Sink

	// Code holds one CodeHolder per compiled Function, populated as the
	// Compiler lowers each function body.
	Code map[*types.Function]*ir.CodeHolder
}

// NewContext creates an empty compile context with its own Registry,
// global scope, FFI registry, and diagnostic sink.
func NewContext() *Context {
	return &Context{
		Registry: types.NewRegistry(),
		Globals:  symtab.New(),
		FFI:      ffi.NewRegistry(),
		Diag:     diag.NewSink(),
		Code:     make(map[*types.Function]*ir.CodeHolder),
	}
}
