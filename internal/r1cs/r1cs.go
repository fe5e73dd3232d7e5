// Package r1cs defines the rank-1 constraint system produced by the
// constraint compiler: sparse A/B/C rows over the BN254 scalar field such
// that a witness w satisfies the system iff (A·w) ∘ (B·w) = (C·w)
// elementwise. Row order is append-only and part of the external contract
// with the proving backend's setup.
package r1cs

import (
	"fmt"

	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Term is a single coefficient applied to one wire.
type Term struct {
	Coeff fr.Element
	Wire  int
}

// LinearExpression is a sparse linear combination of wires. An empty
// expression evaluates to zero.
type LinearExpression []Term

// R1C is one constraint row: A * B = C.
type R1C struct {
	A, B, C LinearExpression
}

// System is the compiled constraint system. Constraints are stored row-wise;
// the three sparse matrices of the usual formulation are the per-row A, B
// and C expressions stacked in order.
type System struct {
	Constraints []R1C

	// NbWires is the witness width: declared circuit variables plus
	// compiler-allocated auxiliaries. Wire 0 is the constant 1.
	NbWires int

	// Public holds the wire indices of the public-input vector, in the
	// order exposed to the proving backend (inputs first, then outputs,
	// each in declaration order).
	Public []int
}

// NbConstraints returns the number of constraint rows.
func (s *System) NbConstraints() int {
	return len(s.Constraints)
}

// Eval computes the dot product of a linear expression with a witness
// vector.
func Eval(le LinearExpression, w []fr.Element) fr.Element {
	var acc, tmp fr.Element
	for _, t := range le {
		tmp.Mul(&t.Coeff, &w[t.Wire])
		acc.Add(&acc, &tmp)
	}
	return acc
}

// IsSatisfied checks every constraint row against w and reports the first
// violated row. This is the soundness oracle the proving backend's accepted
// assignments must agree with.
func (s *System) IsSatisfied(w []fr.Element) error {
	if len(w) != s.NbWires {
		return fmt.Errorf("witness width mismatch: have %d values, system has %d wires", len(w), s.NbWires)
	}
	for i, c := range s.Constraints {
		a := Eval(c.A, w)
		b := Eval(c.B, w)
		cv := Eval(c.C, w)
		var prod fr.Element
		prod.Mul(&a, &b)
		if !prod.Equal(&cv) {
			return &UnsatisfiedConstraintError{
				Row:   i,
				Left:  a.String(),
				Right: b.String(),
				Out:   cv.String(),
			}
		}
	}
	return nil
}

// UnsatisfiedConstraintError reports a constraint row whose Hadamard
// equality does not hold for the supplied witness.
type UnsatisfiedConstraintError struct {
	Row   int
	Left  string
	Right string
	Out   string
}

func (e *UnsatisfiedConstraintError) Error() string {
	return fmt.Sprintf("constraint %d unsatisfied: (%s) * (%s) != (%s)", e.Row, e.Left, e.Right, e.Out)
}

// CompileError reports a constraint-emission failure, e.g. an operation
// whose result wire does not follow its operands in allocation order.
type CompileError struct {
	OpIndex int
	Detail  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at operation %d: %s", e.OpIndex, e.Detail)
}
