package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

const addModuleJSON = `{
  "module": "main",
  "funcs": [
    {
      "name": "add",
      "retType": {"name": "i32"},
      "params": [
        {"name": "a", "type": {"name": "i32"}},
        {"name": "b", "type": {"name": "i32"}}
      ],
      "body": {
        "stmt": "block",
        "stmts": [
          {
            "stmt": "return",
            "expr": {
              "expr": "binary",
              "operator": "+",
              "left": {"expr": "ident", "name": "a"},
              "right": {"expr": "ident", "name": "b"}
            }
          }
        ]
      }
    }
  ]
}`

func writeModule(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestFileLoaderParsesFunctionBody(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "main", addModuleJSON)

	loader := newFileLoader(dir)
	prog, err := loader.Load("main")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if prog.ModuleName != "main" {
		t.Fatalf("expected module name main, got %q", prog.ModuleName)
	}
	if len(prog.Decls) != 1 {
		t.Fatalf("expected exactly one decl, got %d", len(prog.Decls))
	}
}

func TestFileLoaderMissingModule(t *testing.T) {
	loader := newFileLoader(t.TempDir())
	if _, err := loader.Load("missing"); err == nil {
		t.Fatalf("expected an error loading a missing module file")
	}
}

func TestFileLoaderRejectsUnknownStatementKind(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "bad", `{
		"module": "bad",
		"funcs": [{
			"name": "f",
			"retType": {"name": "void"},
			"body": {"stmt": "block", "stmts": [{"stmt": "nonsense"}]}
		}]
	}`)

	loader := newFileLoader(dir)
	if _, err := loader.Load("bad"); err == nil {
		t.Fatalf("expected an error for an unrecognized statement kind")
	}
}
