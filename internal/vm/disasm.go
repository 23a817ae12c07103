package vm

import (
	"fmt"
	"strings"
)

// Disassemble renders prog as a human-readable listing, feeding the CLI's
// `-o backend` output mode, one function per block and one instruction
// per line.
func Disassemble(prog *Program) string {
	var b strings.Builder

	entryToFunc := make(map[int]string, len(prog.Functions))
	for _, fn := range prog.Functions {
		if fn.HostName == "" {
			entryToFunc[fn.Entry] = fn.Name
		}
	}

	for i, in := range prog.Instructions {
		if name, ok := entryToFunc[i]; ok {
			fmt.Fprintf(&b, "%s:\n", name)
		}
		fmt.Fprintf(&b, "  %04d  %s\n", i, in.String())
	}

	for _, fn := range prog.Functions {
		if fn.HostName != "" {
			fmt.Fprintf(&b, "%s: <host: %s>\n", fn.Name, fn.HostName)
		}
	}

	return b.String()
}
