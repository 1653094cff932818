package driver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardan-lang/ardan/pkg/driver"
)

// writeFile is a small helper for laying out a multi-file import fixture
// under a temp directory.
func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// TestRunFileResolvesRelativeImport covers spec.md §4.2 "Imports": resolving
// an import path against the importer's own directory and splicing the
// imported file's top-level statements in before the importer's own code.
func TestRunFileResolvesRelativeImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "math_helpers.ardan", `
		function double(n) { return n * 2; }
	`)
	main := writeFile(t, dir, "main.ardan", `
		import "math_helpers";
		print(double(21));
	`)

	sess := driver.NewSession()
	_, err := sess.RunFile(main)
	require.NoError(t, err)
}

// TestRunFileAppliesArdanExtensionFallback confirms canonicalImportPath
// appends ".ardan" when the bare import path doesn't resolve to an existing
// file (SPEC_FULL.md §C "Import path resolution detail").
func TestRunFileAppliesArdanExtensionFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.ardan", `
		let greeting = "hi";
	`)
	main := writeFile(t, dir, "entry.ardan", `
		import "util";
		print(greeting);
	`)

	sess := driver.NewSession()
	_, err := sess.RunFile(main)
	require.NoError(t, err)
}

// TestRunFileBreaksImportCycle confirms a cyclic import (a imports b, b
// imports a back) does not recurse forever: the second, already-visited
// occurrence is simply dropped (spec.md §4.2 "visited set (cycle break)").
func TestRunFileBreaksImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.ardan", `
		import "b";
		let fromA = 1;
	`)
	writeFile(t, dir, "b.ardan", `
		import "a";
		let fromB = 2;
	`)
	entry := writeFile(t, dir, "entry.ardan", `
		import "a";
		print(fromA, fromB);
	`)

	sess := driver.NewSession()
	_, err := sess.RunFile(entry)
	require.NoError(t, err)
}

// TestCompileFileMissingImportErrors confirms an unresolvable import path
// surfaces as a compile error rather than panicking.
func TestCompileFileMissingImportErrors(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.ardan", `
		import "does_not_exist";
	`)

	_, errs := driver.CompileFile(main)
	assert.NotEmpty(t, errs)
}
