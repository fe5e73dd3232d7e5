package witness

import (
	"fmt"
	"testing"

	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiweb3dev/zk-circuit-compiler/internal/circuit"
)

const squareSum = `name square_sum
input x 5
input y 3
output result 14
output check 1
const one 1
const two 2
const sixteen 16
mul x two x2
mul y two y2
add x2 y2 sum
sub sum two result
eq sum sixteen check
`

func elem(v int64) fr.Element {
	var e fr.Element
	e.SetInt64(v)
	return e
}

func mustParse(t *testing.T, src string) *circuit.Circuit {
	t.Helper()
	c, err := circuit.ParseString(src)
	require.NoError(t, err)
	return c
}

func wireValue(t *testing.T, c *circuit.Circuit, w *Witness, name string) fr.Element {
	t.Helper()
	idx, ok := c.Lookup(name)
	require.True(t, ok, "variable %s", name)
	return w.Values[idx]
}

func TestComputeSquareSum(t *testing.T) {
	c := mustParse(t, squareSum)
	w, err := Compute(c)
	require.NoError(t, err)

	require.Len(t, w.Values, c.NumWires())
	assert.True(t, w.Values[circuit.OneWire].IsOne())

	want := map[string]int64{
		"x": 5, "y": 3,
		"one": 1, "two": 2, "sixteen": 16,
		"x2": 10, "y2": 6, "sum": 16, "result": 14, "check": 1,
	}
	for name, v := range want {
		assert.Equal(t, elem(v), wireValue(t, c, w, name), "wire %s", name)
	}
	// sum == sixteen, so the auxiliary inverse is zero.
	assert.True(t, w.Values[c.NumVariables()].IsZero())
}

func TestComputeOutputMismatch(t *testing.T) {
	c := mustParse(t, `name square_sum
input x 5
input y 3
output result 17
const two 2
mul x two x2
mul y two y2
add x2 y2 sum
sub sum two result
`)
	_, err := Compute(c)
	var mismatch *OutputMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "result", mismatch.Name)
	assert.Equal(t, int64(17), mismatch.Expected)
	assert.Equal(t, "14", mismatch.Actual)
}

func TestComputeXorTruthTable(t *testing.T) {
	cases := []struct {
		a, b, r int64
	}{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	for _, tc := range cases {
		src := fmt.Sprintf("name xb\ninput a %d\ninput b %d\noutput r %d\nxor a b r\n", tc.a, tc.b, tc.r)
		c := mustParse(t, src)
		w, err := Compute(c)
		require.NoError(t, err)
		assert.Equal(t, elem(tc.r), wireValue(t, c, w, "r"), "%d xor %d", tc.a, tc.b)
	}
}

func TestComputeXorRejectsNonBooleanOperand(t *testing.T) {
	c := mustParse(t, `name bad
input a 2
input b 1
output r 3
xor a b r
`)
	_, err := Compute(c)
	var unsat *UnsatisfiedConstraintError
	require.ErrorAs(t, err, &unsat)
	assert.Equal(t, "a", unsat.Name)
	assert.Equal(t, "2", unsat.Value)
}

func TestComputeEqUnequal(t *testing.T) {
	c := mustParse(t, `name neq
input x 5
input y 3
output r 0
eq x y r
`)
	w, err := Compute(c)
	require.NoError(t, err)
	r := wireValue(t, c, w, "r")
	assert.True(t, r.IsZero())

	// The auxiliary wire holds (x - y)^-1.
	var diff, prod fr.Element
	diff.SetInt64(2)
	inv := w.Values[c.NumVariables()]
	prod.Mul(&diff, &inv)
	assert.True(t, prod.IsOne())
}

func TestComputeHash(t *testing.T) {
	c := mustParse(t, `name hashed
input x 3
output h 21
hash x h
`)
	w, err := Compute(c)
	require.NoError(t, err)
	assert.Equal(t, elem(21), wireValue(t, c, w, "h"))
}

func TestComputeNegativeValues(t *testing.T) {
	// 3 - 5 wraps in the field; the declared output -2 reduces to the same
	// element.
	c := mustParse(t, `name neg
input x 3
input y 5
output d -2
sub x y d
`)
	w, err := Compute(c)
	require.NoError(t, err)
	assert.Equal(t, elem(-2), wireValue(t, c, w, "d"))
}

func TestPublicVectorOrder(t *testing.T) {
	c := mustParse(t, squareSum)
	w, err := Compute(c)
	require.NoError(t, err)

	// Inputs in declaration order, then outputs in declaration order.
	assert.Equal(t, []fr.Element{elem(5), elem(3), elem(14), elem(1)}, w.Public())
}

func TestVectorIsFullWidth(t *testing.T) {
	c := mustParse(t, squareSum)
	w, err := Compute(c)
	require.NoError(t, err)
	assert.Len(t, w.Vector(), 12)
}
