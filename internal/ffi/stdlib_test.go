package ffi

import (
	"testing"

	"github.com/tsn-lang/tsn/internal/types"
)

func TestRegisterStdStringCompareLocale(t *testing.T) {
	tr := types.NewRegistry()
	r := NewRegistry()
	if err := RegisterStdString(r, tr); err != nil {
		t.Fatalf("RegisterStdString: %v", err)
	}

	result, err := r.Call("std.string.compareLocale", []any{"abc", "ABC", "en", true})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.(int32) != 0 {
		t.Errorf("expected case-insensitive compare to report equal, got %d", result)
	}

	result, err = r.Call("std.string.compareLocale", []any{"abc", "ABC", "en", false})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.(int32) == 0 {
		t.Errorf("expected case-sensitive compare to report a difference")
	}
}

func TestRegisterStdStringNormalize(t *testing.T) {
	tr := types.NewRegistry()
	r := NewRegistry()
	if err := RegisterStdString(r, tr); err != nil {
		t.Fatalf("RegisterStdString: %v", err)
	}

	result, err := r.Call("std.string.normalize", []any{"é", "NFC"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.(string) != "é" {
		t.Errorf("expected NFC-composed e-acute, got %q", result)
	}
}
