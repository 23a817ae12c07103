package cmd

import "testing"

func TestTraceLoggerLevelFollowsVerboseFlag(t *testing.T) {
	old := verbose
	defer func() { verbose = old }()

	verbose = false
	if traceLogger().Enabled(nil, -4) {
		t.Fatalf("expected debug-level logging to be disabled without -v")
	}

	verbose = true
	if !traceLogger().Enabled(nil, -4) {
		t.Fatalf("expected debug-level logging to be enabled with -v")
	}
}
