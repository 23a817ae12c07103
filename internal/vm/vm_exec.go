package vm

// Run executes the program starting at entry, returning when a jmpr $ra
// unwinds past the outermost call — jmpr $ra is the canonical return
// instruction.
func (v *VM) Run(entry int) *RuntimeError {
	ip := entry
	v.callStack = v.callStack[:0]

	for {
		if ip < 0 || ip >= len(v.Program.Instructions) {
			return &RuntimeError{Code: ErrInvalidOpcode, IP: ip, Msg: "instruction pointer out of range"}
		}
		in := v.Program.Instructions[ip]
		next := ip + 1

		switch in.Op {
		case OpNull:
			// no-op

		case OpTerm:
			if len(v.callStack) == 0 {
				return nil
			}
			fr := v.callStack[len(v.callStack)-1]
			v.callStack = v.callStack[:len(v.callStack)-1]
			next = fr.returnIP

		case OpLd:
			addr := v.regs.Get(in.Src1) + in.Imm
			val, err := v.loadU64(addr, ip)
			if err != nil {
				return err
			}
			v.regs.Set(in.Dst, val)

		case OpSt:
			addr := v.regs.Get(in.Src1) + in.Imm
			if err := v.storeU64(addr, v.regs.Get(in.Dst), ip); err != nil {
				return err
			}

		case OpMptr, OpMtfp, OpMffp:
			v.regs.Set(in.Dst, v.regs.Get(in.Src1))

		case OpAdd:
			v.setSigned(in.Dst, v.signed(in.Src1)+v.signed(in.Src2))
		case OpSub:
			v.setSigned(in.Dst, v.signed(in.Src1)-v.signed(in.Src2))
		case OpSubIr:
			v.setSigned(in.Dst, int64(in.Imm)-v.signed(in.Src1))
		case OpMul:
			v.setSigned(in.Dst, v.signed(in.Src1)*v.signed(in.Src2))
		case OpDiv:
			if v.signed(in.Src2) == 0 {
				return &RuntimeError{Code: ErrDivisionByZero, IP: ip}
			}
			v.setSigned(in.Dst, v.signed(in.Src1)/v.signed(in.Src2))
		case OpDivIr:
			if v.signed(in.Src1) == 0 {
				return &RuntimeError{Code: ErrDivisionByZero, IP: ip}
			}
			v.setSigned(in.Dst, int64(in.Imm)/v.signed(in.Src1))
		case OpMod:
			if v.signed(in.Src2) == 0 {
				return &RuntimeError{Code: ErrDivisionByZero, IP: ip}
			}
			v.setSigned(in.Dst, v.signed(in.Src1)%v.signed(in.Src2))
		case OpNeg:
			v.setSigned(in.Dst, -v.signed(in.Src1))

		case OpAddu:
			v.regs.Set(in.Dst, v.regs.Get(in.Src1)+v.regs.Get(in.Src2))
		case OpSubu:
			v.regs.Set(in.Dst, v.regs.Get(in.Src1)-v.regs.Get(in.Src2))
		case OpMulu:
			v.regs.Set(in.Dst, v.regs.Get(in.Src1)*v.regs.Get(in.Src2))
		case OpDivu:
			if v.regs.Get(in.Src2) == 0 {
				return &RuntimeError{Code: ErrDivisionByZero, IP: ip}
			}
			v.regs.Set(in.Dst, v.regs.Get(in.Src1)/v.regs.Get(in.Src2))
		case OpModu:
			if v.regs.Get(in.Src2) == 0 {
				return &RuntimeError{Code: ErrDivisionByZero, IP: ip}
			}
			v.regs.Set(in.Dst, v.regs.Get(in.Src1)%v.regs.Get(in.Src2))

		case OpCvtIf:
			v.setFloat(in.Dst, float64(v.signed(in.Src1)))
		case OpCvtId:
			v.setFloat(in.Dst, float64(v.signed(in.Src1)))
		case OpCvtIu:
			v.regs.Set(in.Dst, uint64(v.signed(in.Src1)))
		case OpCvtUf:
			v.setFloat(in.Dst, float64(v.regs.Get(in.Src1)))
		case OpCvtUd:
			v.setFloat(in.Dst, float64(v.regs.Get(in.Src1)))
		case OpCvtUi:
			v.setSigned(in.Dst, int64(v.regs.Get(in.Src1)))
		case OpCvtFi, OpCvtDi:
			v.setSigned(in.Dst, int64(v.float(in.Src1)))
		case OpCvtFu, OpCvtDu:
			v.regs.Set(in.Dst, uint64(v.float(in.Src1)))
		case OpCvtFd, OpCvtDf:
			v.setFloat(in.Dst, v.float(in.Src1))

		case OpFAdd, OpDAdd:
			v.setFloat(in.Dst, v.float(in.Src1)+v.float(in.Src2))
		case OpFSub, OpDSub:
			v.setFloat(in.Dst, v.float(in.Src1)-v.float(in.Src2))
		case OpFMul, OpDMul:
			v.setFloat(in.Dst, v.float(in.Src1)*v.float(in.Src2))
		case OpFDiv, OpDDiv:
			v.setFloat(in.Dst, v.float(in.Src1)/v.float(in.Src2))
		case OpFMod, OpDMod:
			a, b := v.float(in.Src1), v.float(in.Src2)
			v.setFloat(in.Dst, a-b*float64(int64(a/b)))
		case OpFNeg, OpDNeg:
			v.setFloat(in.Dst, -v.float(in.Src1))

		case OpLt:
			v.setBool(in.Dst, v.signed(in.Src1) < v.signed(in.Src2))
		case OpLte:
			v.setBool(in.Dst, v.signed(in.Src1) <= v.signed(in.Src2))
		case OpGt:
			v.setBool(in.Dst, v.signed(in.Src1) > v.signed(in.Src2))
		case OpGte:
			v.setBool(in.Dst, v.signed(in.Src1) >= v.signed(in.Src2))
		case OpCmp:
			v.setBool(in.Dst, v.regs.Get(in.Src1) == v.regs.Get(in.Src2))
		case OpNcmp:
			v.setBool(in.Dst, v.regs.Get(in.Src1) != v.regs.Get(in.Src2))

		case OpAnd:
			v.setBool(in.Dst, v.regs.Get(in.Src1) != 0 && v.regs.Get(in.Src2) != 0)
		case OpOr:
			v.setBool(in.Dst, v.regs.Get(in.Src1) != 0 || v.regs.Get(in.Src2) != 0)
		case OpNot:
			v.setBool(in.Dst, v.regs.Get(in.Src1) == 0)
		case OpBand:
			v.regs.Set(in.Dst, v.regs.Get(in.Src1)&v.regs.Get(in.Src2))
		case OpBor:
			v.regs.Set(in.Dst, v.regs.Get(in.Src1)|v.regs.Get(in.Src2))
		case OpXor:
			v.regs.Set(in.Dst, v.regs.Get(in.Src1)^v.regs.Get(in.Src2))
		case OpInv:
			v.regs.Set(in.Dst, ^v.regs.Get(in.Src1))
		case OpSl:
			v.regs.Set(in.Dst, v.regs.Get(in.Src1)<<v.regs.Get(in.Src2))
		case OpSr:
			v.regs.Set(in.Dst, v.regs.Get(in.Src1)>>v.regs.Get(in.Src2))

		case OpBeqz:
			if v.regs.Get(in.Src1) == 0 {
				next = int(in.Imm)
			}
		case OpBneqz:
			if v.regs.Get(in.Src1) != 0 {
				next = int(in.Imm)
			}
		case OpJmp:
			next = int(in.Imm)
		case OpJmpr:
			if in.Dst == RegRA {
				if len(v.callStack) == 0 {
					return nil
				}
				fr := v.callStack[len(v.callStack)-1]
				v.callStack = v.callStack[:len(v.callStack)-1]
				next = fr.returnIP
			} else {
				next = int(v.regs.Get(in.Dst))
			}

		case OpJal:
			fnID := int(in.Imm)
			if fnID < 0 || fnID >= len(v.Program.Functions) {
				return &RuntimeError{Code: ErrUnresolvedCallTarget, IP: ip}
			}
			fn := v.Program.Functions[fnID]
			if fn.HostName != "" {
				if err := v.callHost(fn.HostName, ip); err != nil {
					return err
				}
			} else {
				v.callStack = append(v.callStack, frame{returnIP: next})
				next = fn.Entry
			}

		case OpJalr:
			// Raw-callback unwrap: Src1 holds the function_pointer's
			// function_id word, Src2 the capture data pointer, loaded by the
			// lowering pass's offset-chain layout.
			fnID := int(v.regs.Get(in.Src1))
			if fnID < 0 || fnID >= len(v.Program.Functions) {
				return &RuntimeError{Code: ErrUnresolvedCallTarget, IP: ip}
			}
			fn := v.Program.Functions[fnID]
			if fn.HostName != "" {
				if err := v.callHost(fn.HostName, ip); err != nil {
					return err
				}
			} else {
				v.callStack = append(v.callStack, frame{returnIP: next})
				next = fn.Entry
			}

		case OpPush:
			sp := v.regs.Get(RegSP) - 8
			if err := v.storeU64(sp, v.regs.Get(in.Src1), ip); err != nil {
				return err
			}
			v.regs.Set(RegSP, sp)
		case OpPop:
			sp := v.regs.Get(RegSP)
			val, err := v.loadU64(sp, ip)
			if err != nil {
				return err
			}
			v.regs.Set(in.Dst, val)
			v.regs.Set(RegSP, sp+8)

		default:
			return &RuntimeError{Code: ErrInvalidOpcode, IP: ip}
		}

		ip = next
	}
}

func (v *VM) signed(r Reg) int64    { return int64(v.regs.Get(r)) }
func (v *VM) setSigned(r Reg, n int64) { v.regs.Set(r, uint64(n)) }
func (v *VM) float(r Reg) float64   { return f64(v.regs.Get(r)) }
func (v *VM) setFloat(r Reg, f float64) { v.regs.Set(r, bitsOf(f)) }

func (v *VM) setBool(r Reg, b bool) {
	if b {
		v.regs.Set(r, 1)
	} else {
		v.regs.Set(r, 0)
	}
}
