package r1cs

import (
	"fmt"

	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/saiweb3dev/zk-circuit-compiler/internal/circuit"
)

// hashMultiplier is the coefficient of the toy linear hash gate h = 7*x.
const hashMultiplier = 7

// Compile walks the circuit once, in operation order, and emits R1CS rows:
//
//	add  (x + y) * 1 = r
//	sub  (x - y) * 1 = r
//	mul   x * y      = r
//	hash (7x) * 1    = r
//	xor  booleanity v*v = v for each operand not already proven boolean,
//	     then (2x) * y = x + y - r
//	eq   booleanity r*r = r, then (x-y) * inv = 1 - r and (x-y) * r = 0,
//	     with inv an auxiliary private wire
//
// Before any operation rows, every declared input and constant is pinned
// with (value·1) * 1 = v so that no witness entry is left unconstrained.
// Compilation is deterministic: the same circuit always yields identical
// rows in identical order.
func Compile(c *circuit.Circuit) (*System, error) {
	s := &System{
		NbWires: c.NumWires(),
		Public:  c.PublicIndices(),
	}

	// Pinning rows, declaration order: inputs then constants.
	for _, in := range c.Inputs {
		idx, _ := c.Lookup(in.Name)
		s.pin(idx, in.Value)
	}
	for _, k := range c.Constants {
		idx, _ := c.Lookup(k.Name)
		s.pin(idx, k.Value)
	}

	// Wires already forced to 0/1 by an emitted constraint; booleanity rows
	// are emitted at most once per wire.
	boolean := make(map[int]bool)

	nbDeclared := c.NumVariables()
	eqSeen := 0

	for i, op := range c.Operations {
		if err := checkWireOrder(c, i, op); err != nil {
			return nil, err
		}

		switch op.Op {
		case circuit.OpAdd:
			s.append(R1C{
				A: LinearExpression{one(op.A), one(op.B)},
				B: LinearExpression{one(circuit.OneWire)},
				C: LinearExpression{one(op.Result)},
			})

		case circuit.OpSub:
			s.append(R1C{
				A: LinearExpression{one(op.A), minusOne(op.B)},
				B: LinearExpression{one(circuit.OneWire)},
				C: LinearExpression{one(op.Result)},
			})

		case circuit.OpMul:
			s.append(R1C{
				A: LinearExpression{one(op.A)},
				B: LinearExpression{one(op.B)},
				C: LinearExpression{one(op.Result)},
			})

		case circuit.OpHash:
			s.append(R1C{
				A: LinearExpression{term(hashMultiplier, op.A)},
				B: LinearExpression{one(circuit.OneWire)},
				C: LinearExpression{one(op.Result)},
			})

		case circuit.OpXor:
			// Booleanness of the operand *values* is enforced here, not at
			// parse time: a non-0/1 witness value fails these rows (and the
			// evaluator rejects it first).
			for _, v := range []int{op.A, op.B} {
				if !boolean[v] {
					s.booleanity(v)
					boolean[v] = true
				}
			}
			// 2x * y = x + y - r  <=>  r = x + y - 2xy
			s.append(R1C{
				A: LinearExpression{term(2, op.A)},
				B: LinearExpression{one(op.B)},
				C: LinearExpression{one(op.A), one(op.B), minusOne(op.Result)},
			})
			boolean[op.Result] = true

		case circuit.OpEq:
			inv := nbDeclared + eqSeen
			eqSeen++
			s.booleanity(op.Result)
			boolean[op.Result] = true
			// (x - y) * inv = 1 - r forces r = 1 when x == y;
			// (x - y) * r = 0 forces r = 0 when x != y.
			diff := LinearExpression{one(op.A), minusOne(op.B)}
			s.append(R1C{
				A: diff,
				B: LinearExpression{one(inv)},
				C: LinearExpression{one(circuit.OneWire), minusOne(op.Result)},
			})
			s.append(R1C{
				A: diff,
				B: LinearExpression{one(op.Result)},
				C: nil,
			})

		default:
			return nil, &CompileError{OpIndex: i, Detail: fmt.Sprintf("unsupported operation %s", op.Op)}
		}
	}

	return s, nil
}

// checkWireOrder enforces the append-only allocation invariant: operands
// must have been allocated before the result. The parser already guarantees
// this; a violation here means a hand-built circuit with a dependency cycle.
func checkWireOrder(c *circuit.Circuit, i int, op circuit.Operation) error {
	operands := []int{op.A}
	if op.B != circuit.NoOperand {
		operands = append(operands, op.B)
	}
	for _, w := range operands {
		if w < 0 || w >= c.NumVariables() {
			return &CompileError{OpIndex: i, Detail: fmt.Sprintf("operand wire %d out of range", w)}
		}
		if w >= op.Result {
			return &CompileError{OpIndex: i, Detail: fmt.Sprintf("operand wire %d does not precede result wire %d", w, op.Result)}
		}
	}
	if op.Result >= c.NumVariables() {
		return &CompileError{OpIndex: i, Detail: fmt.Sprintf("result wire %d out of range", op.Result)}
	}
	return nil
}

func (s *System) append(c R1C) {
	s.Constraints = append(s.Constraints, c)
}

// pin emits (value·1) * 1 = wire.
func (s *System) pin(wire int, value int64) {
	s.append(R1C{
		A: LinearExpression{term(value, circuit.OneWire)},
		B: LinearExpression{one(circuit.OneWire)},
		C: LinearExpression{one(wire)},
	})
}

// booleanity emits v * v = v.
func (s *System) booleanity(wire int) {
	s.append(R1C{
		A: LinearExpression{one(wire)},
		B: LinearExpression{one(wire)},
		C: LinearExpression{one(wire)},
	})
}

func term(coeff int64, wire int) Term {
	var e fr.Element
	e.SetInt64(coeff)
	return Term{Coeff: e, Wire: wire}
}

func one(wire int) Term {
	return term(1, wire)
}

func minusOne(wire int) Term {
	return term(-1, wire)
}
