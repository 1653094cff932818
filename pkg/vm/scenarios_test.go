package vm_test

import (
	"bufio"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardan-lang/ardan/pkg/builtins"
	"github.com/ardan-lang/ardan/pkg/compiler"
	"github.com/ardan-lang/ardan/pkg/module"
	"github.com/ardan-lang/ardan/pkg/parser"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// runAndCapture compiles and executes src against a fresh VM with every
// host global registered, returning whatever print/console.log wrote to
// stdout plus any error escaping Run (spec.md §8 "Testable properties").
func runAndCapture(t *testing.T, src string) (string, error) {
	t.Helper()
	prog, errs := parser.ParseProgram(src)
	require.Empty(t, errs, "parse errors")
	mod, cerrs := compiler.Compile(prog)
	require.Empty(t, cerrs, "compile errors")

	r, w, err := os.Pipe()
	require.NoError(t, err)
	oldStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	v := vm.New(mod)
	builtins.Register(v)

	_, runErr := v.Run()

	w.Close()
	os.Stdout = oldStdout

	var buf strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		buf.WriteString(sc.Text())
		buf.WriteString("\n")
	}
	return strings.TrimRight(buf.String(), "\n"), runErr
}

func TestClosureCapturesLoopVariable(t *testing.T) {
	out, err := runAndCapture(t, `
		let fs = [];
		for (let i = 0; i < 3; i++) { fs.push(() => i); }
		print(fs[0](), fs[1](), fs[2]());
	`)
	require.NoError(t, err)
	assert.Equal(t, "0 1 2", out)
}

func TestClassVisibility(t *testing.T) {
	out, err := runAndCapture(t, `
		class A { private var s = 1; get() { return this.s; } }
		let a = new A();
		print(a.get());
	`)
	require.NoError(t, err)
	assert.Equal(t, "1", out)

	_, err = runAndCapture(t, `
		class A { private var s = 1; get() { return this.s; } }
		let a = new A();
		print(a.s);
	`)
	assert.Error(t, err, "reading a private field from outside its class must fail")
}

func TestSuperclassChain(t *testing.T) {
	out, err := runAndCapture(t, `
		class P { greet() { return "p"; } }
		class C extends P {}
		print(new C().greet());
	`)
	require.NoError(t, err)
	assert.Equal(t, "p", out)
}

func TestTryCatchFinallyOrdering(t *testing.T) {
	out, err := runAndCapture(t, `
		try { throw "x"; } catch (e) { print("c", e); } finally { print("f"); }
	`)
	require.NoError(t, err)
	assert.Equal(t, "c x\nf", out)
}

func TestRestAndDefaultParameters(t *testing.T) {
	out, err := runAndCapture(t, `
		function f(a, b = 10, ...r) { return a + b + r.length; }
		print(f(1), f(1, 2, 3, 4));
	`)
	require.NoError(t, err)
	assert.Equal(t, "11 5", out)
}

func TestModuleRoundTrip(t *testing.T) {
	src := `print(1 + 2);`
	prog, errs := parser.ParseProgram(src)
	require.Empty(t, errs)
	mod, cerrs := compiler.Compile(prog)
	require.Empty(t, cerrs)

	var buf strings.Builder
	require.NoError(t, module.Write(&buf, mod))

	read, err := module.Read(strings.NewReader(buf.String()))
	require.NoError(t, err)

	r, w, _ := os.Pipe()
	oldStdout := os.Stdout
	os.Stdout = w
	v := vm.New(read)
	builtins.Register(v)
	_, runErr := v.Run()
	w.Close()
	os.Stdout = oldStdout
	require.NoError(t, runErr)

	out, _ := io.ReadAll(r)
	assert.Equal(t, "3\n", string(out))
}
