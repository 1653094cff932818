// Package driver ties the lexer/parser/compiler/vm pipeline together into
// one persistent session, the way nooga-paserati's pkg/driver does for its
// own interpreter (spec.md §4 "Pipeline"). ardan carries no static type
// checker (spec.md's dynamically-typed design, SPEC_FULL.md §D), so a
// Session is simply parse -> compile -> run against one long-lived VM
// whose globals persist across calls, which is what lets a REPL build up
// state across inputs.
package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardan-lang/ardan/pkg/ast"
	"github.com/ardan-lang/ardan/pkg/builtins"
	"github.com/ardan-lang/ardan/pkg/compiler"
	"github.com/ardan-lang/ardan/pkg/errors"
	"github.com/ardan-lang/ardan/pkg/module"
	"github.com/ardan-lang/ardan/pkg/parser"
	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// Session is a persistent ardan interpreter: one VM, one set of globals,
// reused across every RunString call (REPL-friendly).
type Session struct {
	VM *vm.VM
}

// NewSession creates a session with a fresh VM and every host global
// registered (spec.md §6 "Host-provided globals").
func NewSession() *Session {
	v := vm.New(module.NewModule())
	builtins.Register(v)
	return &Session{VM: v}
}

// Compile parses and compiles source into a Module without executing it;
// RunString uses it (spec.md §4.2/§4.3). The CLI's file-based modes go
// through CompileFile instead, which also resolves imports.
func Compile(source string) (*module.Module, []error) {
	prog, errs := parser.ParseProgram(source)
	if len(errs) > 0 {
		return nil, errs
	}
	return compiler.Compile(prog)
}

// RunString compiles source against this session's persistent globals and
// executes it, returning what the VM's Run returns. Compiled top-level code
// ends with an implicit `return undefined`, so the result is Undefined; the
// value of a final expression statement is not reported.
func (s *Session) RunString(source string) (value.Value, error) {
	mod, errs := Compile(source)
	if len(errs) > 0 {
		return value.Undefined, errs[0]
	}
	s.VM.LoadModule(mod)
	return s.VM.Run()
}

// RunModule executes an already-compiled module (e.g. one loaded from a
// `bin.ardar` file via module.Read), backing `--compile_run`.
func (s *Session) RunModule(mod *module.Module) (value.Value, error) {
	s.VM.LoadModule(mod)
	return s.VM.Run()
}

// CompileFile parses path and every file it (transitively) imports,
// splicing each import's top-level statements in place of its
// ImportDeclaration node before compiling the merged program (spec.md §4.2
// "Imports": "resolves the path against the importer's directory,
// canonicalizes it, checks a visited set, and, if unseen, parses and
// appends the imported file's statements ... before continuing").
func CompileFile(path string) (*module.Module, []error) {
	prog, err := resolveFile(path, map[string]bool{})
	if err != nil {
		return nil, []error{err}
	}
	return compiler.Compile(prog)
}

// RunFile compiles path (resolving imports) and executes it against this
// session's persistent globals, backing `--interpret`.
func (s *Session) RunFile(path string) (value.Value, error) {
	mod, errs := CompileFile(path)
	if len(errs) > 0 {
		return value.Undefined, errs[0]
	}
	s.VM.LoadModule(mod)
	return s.VM.Run()
}

// resolveFile parses one file and recursively splices its imports,
// canonicalizing each import path to break cycles: a path already in
// visited is simply dropped (spec.md's "visited set (cycle break)"), on
// the assumption its statements were already spliced in by the time any
// later import of the same file is reached.
func resolveFile(path string, visited map[string]bool) (*ast.Program, error) {
	abs, err := canonicalImportPath(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("import %q: %w", path, err)
	}
	visited[abs] = true

	prog, errs := parser.ParseProgram(string(src))
	if len(errs) > 0 {
		return nil, errs[0]
	}

	dir := filepath.Dir(abs)
	var body []ast.Statement
	for _, stmt := range prog.Body {
		imp, ok := stmt.(*ast.ImportDeclaration)
		if !ok {
			body = append(body, stmt)
			continue
		}
		target, err := canonicalImportPath(filepath.Join(dir, imp.Source))
		if err != nil {
			return nil, err
		}
		if visited[target] {
			continue
		}
		nested, err := resolveFile(target, visited)
		if err != nil {
			return nil, err
		}
		body = append(body, nested.Body...)
	}
	prog.Body = body
	return prog, nil
}

// canonicalImportPath resolves path to an absolute, cleaned file path,
// appending ".ardan" when the bare path doesn't resolve to an existing
// file (SPEC_FULL.md §C "Import path resolution detail": "no extension
// inference beyond appending .ardan if the bare path does not resolve").
func canonicalImportPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err == nil {
		return abs, nil
	}
	withExt := abs + ".ardan"
	if _, err := os.Stat(withExt); err == nil {
		return withExt, nil
	}
	return "", fmt.Errorf("cannot resolve import %q", path)
}

// DisplayError formats err the way the CLI/REPL surfaces it to the user,
// using the richer PaseratiError shape when available (spec.md §7).
func DisplayError(err error) string {
	if pe, ok := err.(errors.PaseratiError); ok {
		return pe.Error()
	}
	return err.Error()
}
