package vm

// callHost marshals explicit argument registers into Go values per the
// descriptor's declared argument types, invokes the host function through
// the FFI registry, and copies the result back into v0/vf0.
func (v *VM) callHost(name string, ip int) *RuntimeError {
	if v.FFI == nil {
		return &RuntimeError{Code: ErrHostCallFailed, IP: ip, Msg: "no FFI registry configured"}
	}
	d, ok := v.FFI.Lookup(name)
	if !ok {
		return &RuntimeError{Code: ErrUnresolvedCallTarget, IP: ip, Msg: "host function " + name + " not registered"}
	}

	intIdx, floatIdx := 0, 0
	args := make([]any, 0, len(d.Args))
	for i, t := range d.Args {
		if i >= len(d.ArgKinds) || d.ArgKinds[i] != 0 { // ArgValue == 0
			continue
		}
		if t != nil && t.Flags.IsFloatingPoint {
			args = append(args, v.float(FA(floatIdx)))
			floatIdx++
			continue
		}
		word := v.regs.Get(A(intIdx))
		intIdx++
		if t != nil && t.Flags.IsUnsigned {
			args = append(args, word)
		} else {
			args = append(args, int64(word))
		}
	}

	result, err := d.Invoke(args)
	if err != nil {
		return &RuntimeError{Code: ErrHostCallFailed, IP: ip, Msg: err.Error()}
	}

	if d.Return == nil || result == nil {
		return nil
	}
	if d.Return.Flags.IsFloatingPoint {
		if f, ok := result.(float64); ok {
			v.setFloat(RegVF0, f)
		}
		return nil
	}
	switch n := result.(type) {
	case int64:
		v.setSigned(RegV0, n)
	case int:
		v.setSigned(RegV0, int64(n))
	case uint64:
		v.regs.Set(RegV0, n)
	case bool:
		v.setBool(RegV0, n)
	}
	return nil
}
