package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.0.2"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Exit codes returned by the driver, one per distinct failure class.
const (
	ExitSuccess        = 0
	ExitCompileError   = -1
	ExitUnknownError   = -2
	ExitFailedOpenFile = -3
	ExitFileEmpty      = -4
	ExitFailedReadFile = -5
	ExitFailedAllocBuf = -6
	ExitArgumentError  = -7
	ExitConfigParse    = -8
	ExitConfigValue    = -9
	ExitEarly          = 1
)

// exitError carries a specific process exit code alongside the error text
// cobra prints.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func wrapExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// ExitCodeFor extracts the exit code an error carries, defaulting to
// ExitUnknownError for anything not wrapped by wrapExit.
func ExitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUnknownError
}

var (
	scriptPath  string
	configPath  string
	backendName string
	outputMode  string
	minify      bool
	debugLog    bool
	noOptimize  bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "tsnc",
	Short:         "TSN compiler driver",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `tsnc compiles and validates TSN scripts.

It resolves the entry module and its imports, runs the AST through the
middle-end compiler, optimizer, and (optionally) the register VM backend,
and emits the requested metadata — AST, types, functions, IR, backend code,
logs, or the script's own output — as JSON.`,
	RunE: runCompile,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.Flags().StringVarP(&scriptPath, "script", "s", "main", "entrypoint module to compile")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "./tsnc.json", "compiler configuration file (JSON or YAML)")
	rootCmd.Flags().StringVarP(&backendName, "backend", "b", "none", "execution backend: none|vm")
	rootCmd.Flags().StringVarP(&outputMode, "output", "o", "all", "output mode: all|ast|funcs|types|code|logs|backend|exec")
	rootCmd.Flags().BoolVarP(&minify, "minify", "m", false, "emit minified JSON instead of pretty-printed JSON")
	rootCmd.Flags().BoolVarP(&debugLog, "debug", "d", false, "enable debug log messages (overrides configuration file)")
	rootCmd.Flags().BoolVarP(&noOptimize, "no-optimize", "u", false, "disable optimization passes (overrides configuration file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "trace pipeline stage transitions to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func exitWithError(code int, msg string, args ...any) error {
	return wrapExit(code, fmt.Errorf(msg, args...))
}
