package r1cs

import (
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

func compile(t *testing.T, src string) (*circuit.Circuit, *System) {
	t.Helper()
	c, err := circuit.ParseString(src)
	require.NoError(t, err)
	s, err := Compile(c)
	require.NoError(t, err)
	return c, s
}

func elem(v int64) fr.Element {
	var e fr.Element
	e.SetInt64(v)
	return e
}

func TestCompileSquareSumShape(t *testing.T) {
	_, s := compile(t, squareSum)

	// 2 input pins + 3 constant pins, 4 arithmetic rows, then the eq gadget:
	// booleanity on check plus its two product rows.
	assert.Equal(t, 12, s.NbConstraints())
	assert.Equal(t, 12, s.NbWires)
	assert.Equal(t, []int{1, 2, 9, 10}, s.Public)
}

func TestCompileDeterministic(t *testing.T) {
	_, first := compile(t, squareSum)
	_, second := compile(t, squareSum)
	require.Equal(t, first, second)
}

func TestCompilePinRows(t *testing.T) {
	_, s := compile(t, squareSum)

	// Pins come first, inputs then constants, each (value·1) * 1 = wire.
	pins := []struct {
		wire  int
		value int64
	}{
		{1, 5}, {2, 3}, {3, 1}, {4, 2}, {5, 16},
	}
	for i, p := range pins {
		row := s.Constraints[i]
		require.Len(t, row.A, 1)
		assert.Equal(t, circuit.OneWire, row.A[0].Wire)
		assert.Equal(t, elem(p.value), row.A[0].Coeff)
		require.Len(t, row.B, 1)
		assert.Equal(t, circuit.OneWire, row.B[0].Wire)
		require.Len(t, row.C, 1)
		assert.Equal(t, p.wire, row.C[0].Wire)
	}
}

func TestCompileArithmeticRows(t *testing.T) {
	_, s := compile(t, squareSum)

	// Row 5: mul x two x2 is x * two = x2.
	mul := s.Constraints[5]
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: 1}}, mul.A)
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: 4}}, mul.B)
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: 6}}, mul.C)

	// Row 7: add x2 y2 sum is (x2 + y2) * 1 = sum.
	add := s.Constraints[7]
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: 6}, {Coeff: elem(1), Wire: 7}}, add.A)
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: circuit.OneWire}}, add.B)
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: 8}}, add.C)

	// Row 8: sub sum two result is (sum - two) * 1 = result.
	sub := s.Constraints[8]
	require.Len(t, sub.A, 2)
	assert.Equal(t, 8, sub.A[0].Wire)
	assert.Equal(t, elem(-1), sub.A[1].Coeff)
	assert.Equal(t, 4, sub.A[1].Wire)
}

func TestCompileEqRows(t *testing.T) {
	_, s := compile(t, squareSum)

	// The eq gadget: booleanity on check, then (sum - sixteen) * inv = 1 - check
	// and (sum - sixteen) * check = 0, with inv the auxiliary wire 11.
	boolRow := s.Constraints[9]
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: 10}}, boolRow.A)
	assert.Equal(t, boolRow.A, boolRow.B)
	assert.Equal(t, boolRow.A, boolRow.C)

	invRow := s.Constraints[10]
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: 8}, {Coeff: elem(-1), Wire: 5}}, invRow.A)
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: 11}}, invRow.B)
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: circuit.OneWire}, {Coeff: elem(-1), Wire: 10}}, invRow.C)

	zeroRow := s.Constraints[11]
	assert.Equal(t, invRow.A, zeroRow.A)
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: 10}}, zeroRow.B)
	assert.Empty(t, zeroRow.C)
}

func TestCompileHashRow(t *testing.T) {
	_, s := compile(t, `name hashed
input x 3
output h 21
hash x h
`)
	require.Equal(t, 2, s.NbConstraints())
	row := s.Constraints[1]
	assert.Equal(t, LinearExpression{{Coeff: elem(7), Wire: 1}}, row.A)
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: circuit.OneWire}}, row.B)
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: 2}}, row.C)
}

func TestCompileXorBooleanityOncePerWire(t *testing.T) {
	_, s := compile(t, `name chained
input a 1
input b 0
output r 0
xor a b s
xor s a r
`)
	// 2 pins, then for the first xor: booleanity on a and b plus the identity
	// row. The second xor's operands are already proven boolean (s is an xor
	// result, a was constrained by the first xor), so it adds one row only.
	require.Equal(t, 6, s.NbConstraints())

	boolWires := []int{}
	for _, row := range s.Constraints[2:] {
		if len(row.A) == 1 && len(row.B) == 1 && len(row.C) == 1 &&
			row.A[0].Wire == row.B[0].Wire && row.B[0].Wire == row.C[0].Wire {
			boolWires = append(boolWires, row.A[0].Wire)
		}
	}
	assert.Equal(t, []int{1, 2}, boolWires)
}

func TestCompileXorIdentityRow(t *testing.T) {
	_, s := compile(t, `name x
input a 1
input b 1
output r 0
xor a b r
`)
	// Last row: (2a) * b = a + b - r.
	row := s.Constraints[s.NbConstraints()-1]
	assert.Equal(t, LinearExpression{{Coeff: elem(2), Wire: 1}}, row.A)
	assert.Equal(t, LinearExpression{{Coeff: elem(1), Wire: 2}}, row.B)
	assert.Equal(t, LinearExpression{
		{Coeff: elem(1), Wire: 1},
		{Coeff: elem(1), Wire: 2},
		{Coeff: elem(-1), Wire: 3},
	}, row.C)
}

func TestCompileRejectsWireOrderViolation(t *testing.T) {
	c, err := circuit.ParseString(`name bad
input x 2
output r 4
add x x r
`)
	require.NoError(t, err)

	// A hand-patched operation whose operand does not precede its result.
	c.Operations = append(c.Operations, circuit.Operation{Op: circuit.OpAdd, A: 2, B: 2, Result: 1})
	_, err = Compile(c)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.OpIndex)
}

func TestCompileRejectsOutOfRangeWire(t *testing.T) {
	c, err := circuit.ParseString(`name bad
input x 2
output r 4
add x x r
`)
	require.NoError(t, err)

	c.Operations[0].A = 99
	_, err = Compile(c)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, ce.OpIndex)
}
