package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDoWhileRunsBodyAtLeastOnce pins spec_full.md §C's do/while addition: the
// body executes once before the condition is ever checked.
func TestDoWhileRunsBodyAtLeastOnce(t *testing.T) {
	out, err := runAndCapture(t, `
		let n = 0;
		let count = 0;
		do {
			count = count + 1;
		} while (n > 0);
		print(count);
	`)
	require.NoError(t, err)
	assert.Equal(t, "1", out)
}

// TestSwitchFallsThroughUntilBreak exercises case matching, fallthrough
// absent an explicit break, the default arm, and break terminating a case.
func TestSwitchFallsThroughUntilBreak(t *testing.T) {
	out, err := runAndCapture(t, `
		function classify(n) {
			let label = "";
			switch (n) {
				case 1:
					label = label + "one";
				case 2:
					label = label + "two";
					break;
				case 3:
					label = label + "three";
					break;
				default:
					label = "other";
			}
			return label;
		}
		print(classify(1), classify(3), classify(9));
	`)
	require.NoError(t, err)
	assert.Equal(t, "onetwo three other", out)
}

// TestTernaryConditionalExpression confirms `?:` evaluates exactly one
// branch and yields its value as an expression.
func TestTernaryConditionalExpression(t *testing.T) {
	out, err := runAndCapture(t, `
		let x = 5;
		print(x > 3 ? "big" : "small", x > 10 ? "big" : "small");
	`)
	require.NoError(t, err)
	assert.Equal(t, "big small", out)
}

// TestPrefixAndPostfixUpdateExpressions confirms prefix ++/-- yield the
// updated value while postfix yields the value from before the update, and
// that both still mutate the underlying binding.
func TestPrefixAndPostfixUpdateExpressions(t *testing.T) {
	out, err := runAndCapture(t, `
		let i = 5;
		print(i++, i, ++i, i, i--, i, --i, i);
	`)
	require.NoError(t, err)
	assert.Equal(t, "5 6 7 7 7 6 5 5", out)
}

// TestCommaSequenceExpression confirms the comma operator evaluates every
// operand left to right and yields the last one.
func TestCommaSequenceExpression(t *testing.T) {
	out, err := runAndCapture(t, `
		let a = 0;
		let b = (a = 1, a = a + 2, a = a + 3);
		print(a, b);
	`)
	require.NoError(t, err)
	assert.Equal(t, "6 6", out)
}

// TestObjectLiteralShorthandAndComputedKeys covers both forms spec_full.md
// §C's object-literal addition names: `{ x }` binding to an in-scope `x`,
// and `{ [expr]: value }` computing the property name at runtime.
func TestObjectLiteralShorthandAndComputedKeys(t *testing.T) {
	out, err := runAndCapture(t, `
		let x = 1;
		let y = 2;
		let key = "dyn";
		let o = { x, y, [key]: 3, plain: 4 };
		print(o.x, o.y, o.dyn, o.plain);
	`)
	require.NoError(t, err)
	assert.Equal(t, "1 2 3 4", out)
}

// TestSpreadInArrayLiteralAndCallArguments covers both spread sites
// spec_full.md §C names: flattening into an array literal and expanding
// into a call's argument list.
func TestSpreadInArrayLiteralAndCallArguments(t *testing.T) {
	out, err := runAndCapture(t, `
		function sum3(a, b, c) { return a + b + c; }
		let head = [1, 2];
		let all = [...head, 3, 4];
		print(all.length, all[0], all[3]);
		let args = [10, 20, 30];
		print(sum3(...args));
	`)
	require.NoError(t, err)
	assert.Equal(t, "4 1 4\n60", out)
}
