package ffi

import "fmt"

// Registry owns every host function descriptor registered for one Context,
// keyed by fully-qualified name.
type Registry struct {
	byName map[string]*Descriptor
}

// NewRegistry returns an empty host-function registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register binds and stores d. It is an error to register two host
// functions under the same name; overload sets are resolved at the
// symbol-table level before an FFI call is ever compiled, so the bridge
// itself never disambiguates by signature.
func (r *Registry) Register(d *Descriptor) error {
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("ffi: %q is already registered", d.Name)
	}
	if err := d.Bind(); err != nil {
		return err
	}
	r.byName[d.Name] = d
	return nil
}

// Lookup returns the descriptor registered under name, if any.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Call resolves name and invokes it, for callers (e.g. the VM bridge) that
// don't already hold the Descriptor.
func (r *Registry) Call(name string, scriptArgs []any) (any, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("ffi: no host function named %q", name)
	}
	return d.Invoke(scriptArgs)
}
