package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tsn-lang/tsn/internal/compiler"
	"github.com/tsn-lang/tsn/internal/config"
	"github.com/tsn-lang/tsn/internal/diag"
	"github.com/tsn-lang/tsn/internal/ffi"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/pipeline"
	"github.com/tsn-lang/tsn/internal/types"
	"github.com/tsn-lang/tsn/internal/vm"
)

func runCompile(_ *cobra.Command, _ []string) error {
	log := traceLogger()

	cfg, err := loadConfig()
	if err != nil {
		return exitWithError(ExitConfigParse, "config: %v", err)
	}
	if noOptimize {
		cfg.Optimize = false
	}
	log.Debug("config resolved", "moduleRoot", cfg.ModuleRoot, "optimize", cfg.Optimize, "maxPassIterations", cfg.MaxPassIterations)

	ctx := compiler.NewContext()
	if err := ffi.RegisterStdString(ctx.FFI, ctx.Registry); err != nil {
		return exitWithError(ExitUnknownError, "registering std.string builtins: %v", err)
	}
	pl := pipeline.New(ctx, newFileLoader(cfg.ModuleRoot))
	pl.Optimize = cfg.Optimize
	if cfg.MaxPassIterations > 0 {
		pl.MaxPassIterations = cfg.MaxPassIterations
	}

	log.Debug("compiling", "entry", scriptPath)
	_, prog, runErr := pl.Run(scriptPath)
	if runErr != nil {
		log.Debug("pipeline run failed", "error", runErr)
	}

	dump := config.NewJSONDump()
	mode := outputMode

	if mode == "all" || mode == "ast" {
		dumpAST(dump, ctx)
	}
	if mode == "all" || mode == "types" {
		dumpTypes(dump, ctx.Registry)
	}
	if mode == "all" || mode == "funcs" {
		dumpFuncs(dump, ctx.Registry)
	}
	if mode == "all" || mode == "code" {
		dumpCode(dump, ctx)
	}
	if mode == "all" || mode == "logs" {
		dumpLogs(dump, ctx.Diag, debugLog)
	}
	if (mode == "all" || mode == "backend") && prog != nil {
		_ = dump.Set("backend", vm.Disassemble(prog))
	}

	if err := printDump(dump); err != nil {
		return exitWithError(ExitUnknownError, "writing output: %v", err)
	}

	if runErr != nil {
		return exitWithError(ExitCompileError, "compilation failed: %v", runErr)
	}
	if ctx.Diag.HasErrors() {
		return exitWithError(ExitCompileError, "compilation failed with %d error(s)", countErrors(ctx.Diag))
	}

	if backendName == "vm" && (mode == "all" || mode == "exec") {
		log.Debug("executing on the vm backend", "entry", scriptPath)
		if err := execProgram(prog, ctx, cfg); err != nil {
			return exitWithError(ExitUnknownError, "execution failed: %v", err)
		}
	}

	return nil
}

// loadConfig reads -c's file, falling back to config.Default() when it is
// absent (mirroring the original driver's "config file is optional"
// behavior) but failing with ExitConfigParse when it exists and is malformed.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func countErrors(sink *diag.Sink) int {
	n := 0
	for _, m := range sink.Messages() {
		if m.Severity == diag.Error {
			n++
		}
	}
	return n
}

func dumpAST(dump *config.JSONDump, ctx *compiler.Context) {
	for fn := range ctx.Code {
		_ = dump.Set("ast.functions.-1", fn.DisplayName)
	}
}

func dumpTypes(dump *config.JSONDump, reg *types.Registry) {
	for _, t := range reg.AllTypes() {
		_ = dump.Set("types.-1", t.FQName)
	}
}

func dumpFuncs(dump *config.JSONDump, reg *types.Registry) {
	for _, fn := range reg.AllFunctions() {
		_ = dump.Set("funcs.-1", fn.DisplayName)
	}
}

func dumpCode(dump *config.JSONDump, ctx *compiler.Context) {
	for fn, holder := range ctx.Code {
		_ = dump.Set("code."+jsonKey(fn.DisplayName), instructionLines(holder))
	}
}

func instructionLines(holder *ir.CodeHolder) []string {
	lines := make([]string, 0, holder.Len())
	for i := 0; i < holder.Len(); i++ {
		lines = append(lines, holder.Instructions[i].String())
	}
	return lines
}

// jsonKey replaces characters sjson's dotted path syntax would otherwise
// interpret as path separators.
func jsonKey(name string) string {
	out := []byte(name)
	for i, c := range out {
		if c == '.' || c == '*' || c == '#' {
			out[i] = '_'
		}
	}
	return string(out)
}

func dumpLogs(dump *config.JSONDump, sink *diag.Sink, includeInfo bool) {
	for _, m := range sink.Messages() {
		if !includeInfo && m.Severity == diag.Info {
			continue
		}
		_ = dump.Set("logs.-1", m.String())
	}
}

func printDump(dump *config.JSONDump) error {
	if minify {
		fmt.Println(dump.String())
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(dump.String()), &v); err != nil {
		return err
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	return nil
}

func execProgram(prog *vm.Program, ctx *compiler.Context, cfg config.Config) error {
	if prog == nil {
		return fmt.Errorf("no backend program produced")
	}
	entry := -1
	for i, f := range prog.Functions {
		if f.Name == "main" || f.Name == scriptPath {
			entry = i
			break
		}
	}
	if entry == -1 {
		return fmt.Errorf("no entry function named %q found", scriptPath)
	}

	machine := vm.NewVM(prog, ctx.FFI, vm.Config{StackSize: cfg.StackSize, StackPadding: cfg.StackPadding})
	if rerr := machine.Run(prog.Functions[entry].Entry); rerr != nil {
		return rerr
	}
	return nil
}
