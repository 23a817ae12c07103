// Command tsnc is the TSN compiler driver: it resolves an entry module
// through internal/pipeline, then dumps the requested compilation
// artifacts (AST, types, functions, IR, backend code, logs) as JSON, and
// optionally runs the result on the VM backend.
package main

import (
	"fmt"
	"os"

	"github.com/tsn-lang/tsn/cmd/tsnc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmd.ExitCodeFor(err))
	}
}
