// Package witness computes a satisfying assignment for a circuit instance.
// The evaluator walks the circuit in the same order the compiler walks it,
// so both sides agree on every wire index without sharing state. The
// resulting vector is the functional oracle against which the constraint
// system's soundness is checked.
package witness

import (
	"fmt"

	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/saiweb3dev/zk-circuit-compiler/internal/circuit"
)

// Witness is a dense vector of field elements indexed identically to the
// constraint system's wires. Values[0] is always 1. Immutable once Compute
// returns it.
type Witness struct {
	Values []fr.Element

	public []int
}

// OutputMismatchError reports a declared output whose expected value does
// not match the value computed for its wire.
type OutputMismatchError struct {
	Name     string
	Expected int64
	Actual   string
}

func (e *OutputMismatchError) Error() string {
	return fmt.Sprintf("output %q mismatch: expected %d, got %s", e.Name, e.Expected, e.Actual)
}

// UnsatisfiedConstraintError reports a witness value that violates the
// intended semantics of an operation, currently a non-boolean xor operand.
// Booleanness is a property of the value, not the declaration, so this is a
// runtime witness failure rather than a compile-time rejection.
type UnsatisfiedConstraintError struct {
	Name   string
	Value  string
	Detail string
}

func (e *UnsatisfiedConstraintError) Error() string {
	return fmt.Sprintf("witness violates circuit at %q: %s (value %s)", e.Name, e.Detail, e.Value)
}

// Compute evaluates the circuit with its declared input and constant values
// and returns the full witness vector, auxiliary wires included. Every
// declared output is checked against its computed value before returning.
func Compute(c *circuit.Circuit) (*Witness, error) {
	values := make([]fr.Element, c.NumWires())
	values[circuit.OneWire].SetOne()

	for _, in := range c.Inputs {
		idx, _ := c.Lookup(in.Name)
		values[idx].SetInt64(in.Value)
	}
	for _, k := range c.Constants {
		idx, _ := c.Lookup(k.Name)
		values[idx].SetInt64(k.Value)
	}

	nbDeclared := c.NumVariables()
	eqSeen := 0

	for _, op := range c.Operations {
		switch op.Op {
		case circuit.OpAdd:
			values[op.Result].Add(&values[op.A], &values[op.B])

		case circuit.OpSub:
			values[op.Result].Sub(&values[op.A], &values[op.B])

		case circuit.OpMul:
			values[op.Result].Mul(&values[op.A], &values[op.B])

		case circuit.OpHash:
			var seven fr.Element
			seven.SetInt64(7)
			values[op.Result].Mul(&values[op.A], &seven)

		case circuit.OpXor:
			if err := requireBoolean(c, op.A, &values[op.A]); err != nil {
				return nil, err
			}
			if err := requireBoolean(c, op.B, &values[op.B]); err != nil {
				return nil, err
			}
			// x + y - 2xy
			var prod, twice fr.Element
			prod.Mul(&values[op.A], &values[op.B])
			twice.Double(&prod)
			values[op.Result].Add(&values[op.A], &values[op.B])
			values[op.Result].Sub(&values[op.Result], &twice)

		case circuit.OpEq:
			inv := nbDeclared + eqSeen
			eqSeen++
			var diff fr.Element
			diff.Sub(&values[op.A], &values[op.B])
			if diff.IsZero() {
				values[op.Result].SetOne()
				values[inv].SetZero()
			} else {
				values[op.Result].SetZero()
				values[inv].Inverse(&diff)
			}

		default:
			return nil, fmt.Errorf("unsupported operation %s", op.Op)
		}
	}

	for _, o := range c.Outputs {
		idx, _ := c.Lookup(o.Name)
		var expected fr.Element
		expected.SetInt64(o.Value)
		if !values[idx].Equal(&expected) {
			return nil, &OutputMismatchError{
				Name:     o.Name,
				Expected: o.Value,
				Actual:   values[idx].String(),
			}
		}
	}

	return &Witness{Values: values, public: c.PublicIndices()}, nil
}

// Vector returns the full witness vector.
func (w *Witness) Vector() []fr.Element {
	return w.Values
}

// Public returns the public-input sub-vector, in the allocation order the
// proving backend expects (inputs first, then outputs).
func (w *Witness) Public() []fr.Element {
	out := make([]fr.Element, len(w.public))
	for i, idx := range w.public {
		out[i] = w.Values[idx]
	}
	return out
}

func requireBoolean(c *circuit.Circuit, wire int, v *fr.Element) error {
	if v.IsZero() || v.IsOne() {
		return nil
	}
	return &UnsatisfiedConstraintError{
		Name:   c.Variable(wire).Name,
		Value:  v.String(),
		Detail: "xor operand is not boolean",
	}
}
