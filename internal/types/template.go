package types

import (
	"fmt"
	"strings"
)

// TemplateParamPlaceholder returns (creating if necessary) the Type that
// stands in for paramName inside base's unsubstituted method signatures,
// the "subtype" placeholder. Each template type owns its own placeholders,
// scoped by the template's FQName so two unrelated templates never collide
// on a parameter named "T".
func (r *Registry) TemplateParamPlaceholder(base *Type, paramName string) (*Type, error) {
	name := base.FQName + "#" + paramName
	return r.Intern(Descriptor{
		SimpleName: paramName,
		FQName:     name,
		Flags:      Flags{IsTemplate: true, IsAnonymous: true},
	})
}

func templateInstanceName(base *Type, args []*Type) string {
	var b strings.Builder
	b.WriteString(base.SimpleName)
	b.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.FQName)
	}
	b.WriteByte('>')
	return b.String()
}

// InstantiateTemplate produces (or returns the already-interned) Type for
// base<args...>: it builds the full name, checks the registry for an
// existing instantiation, and otherwise clones base's method list,
// substituting each "subtype" placeholder with the matching argument, and
// interns the result. Idempotent: calling this twice with the same base
// and args returns the identical *Type.
func (r *Registry) InstantiateTemplate(base *Type, args []*Type) (*Type, error) {
	if !base.Flags.IsTemplate {
		return nil, fmt.Errorf("types: %s is not a template type", base.FQName)
	}
	if len(args) != len(base.TemplateParamNames) {
		return nil, fmt.Errorf("types: %s expects %d template argument(s), got %d",
			base.SimpleName, len(base.TemplateParamNames), len(args))
	}

	name := templateInstanceName(base, args)
	if existing, ok := r.LookupByName(name); ok {
		return existing, nil
	}

	subst := make(map[*Type]*Type, len(args))
	for i, paramName := range base.TemplateParamNames {
		ph, err := r.TemplateParamPlaceholder(base, paramName)
		if err != nil {
			return nil, err
		}
		subst[ph] = args[i]
	}

	properties := make([]Property, len(base.Properties))
	copy(properties, base.Properties)
	for i := range properties {
		if repl, ok := subst[properties[i].Type]; ok {
			properties[i].Type = repl
		}
	}

	methods := make([]Method, 0, len(base.Methods))
	for _, m := range base.Methods {
		methods = append(methods, Method{Function: r.cloneFunctionSubstituting(m.Function, subst, name)})
	}

	instFlags := base.Flags
	instFlags.IsTemplate = false

	return r.Intern(Descriptor{
		SimpleName: base.SimpleName,
		FQName:     name,
		Size:       base.Size,
		Access:     base.Access,
		Flags:      instFlags,
		Bases:      base.Bases,
		Properties: properties,
		Methods:    methods,
	})
}

// cloneFunctionSubstituting copies a template method, replacing every
// placeholder type in its signature with its concrete substitution and
// re-registering it under the instantiated type's name.
func (r *Registry) cloneFunctionSubstituting(fn *Function, subst map[*Type]*Type, ownerName string) *Function {
	var newSig *Type
	if fn.Signature != nil && fn.Signature.Signature != nil {
		orig := fn.Signature.Signature
		args := make([]SigArg, len(orig.Args))
		for i, a := range orig.Args {
			args[i] = a
			if repl, ok := subst[a.Type]; ok {
				args[i].Type = repl
			}
		}
		ret := orig.Return
		if repl, ok := subst[ret]; ok {
			ret = repl
		}
		newSig, _ = r.InternSignature(&Signature{Args: args, Return: ret, ReturnLocReg: orig.ReturnLocReg})
	}

	return r.NewFunction(Function{
		SimpleName:  fn.SimpleName,
		DisplayName: fn.DisplayName,
		FQName:      ownerName + "." + fn.SimpleName,
		Signature:   newSig,
		IsStatic:    fn.IsStatic,
		IsThisCall:  fn.IsThisCall,
		Visibility:  fn.Visibility,
	})
}

// InstantiateTemplateFunction is the function-level analogue of
// InstantiateTemplate: the same substitution rule applies to templated
// functions.
func (r *Registry) InstantiateTemplateFunction(base *Function, args []*Type) (*Function, error) {
	if !base.IsTemplate {
		return nil, fmt.Errorf("types: %s is not a template function", base.FQName)
	}
	name := base.FQName + "<" + joinNames(args) + ">"
	if existing := r.funcsByName[name]; len(existing) == 1 {
		return existing[0], nil
	}
	subst := make(map[*Type]*Type)
	// Template functions declare their own placeholders the same way
	// template types do, scoped by the function's own FQName.
	for i := range args {
		phName := fmt.Sprintf("%s#T%d", base.FQName, i)
		ph, err := r.Intern(Descriptor{SimpleName: phName, FQName: phName, Flags: Flags{IsTemplate: true, IsAnonymous: true}})
		if err != nil {
			return nil, err
		}
		subst[ph] = args[i]
	}
	return r.cloneFunctionSubstituting(base, subst, name), nil
}

func joinNames(types_ []*Type) string {
	var b strings.Builder
	for i, t := range types_ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.FQName)
	}
	return b.String()
}
