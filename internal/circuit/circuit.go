// Package circuit holds the parsed, validated in-memory representation of a
// circuit description: declared variables, their values and visibility, and
// an ordered list of operations. The parser is the only producer of a
// Circuit; the constraint compiler and the witness evaluator borrow it
// read-only.
package circuit

import "fmt"

// Visibility classifies a circuit variable.
type Visibility uint8

const (
	// Constant is a value fixed in the circuit text (`const` lines, and the
	// implicit constant 1 at index 0).
	Constant Visibility = iota
	// Public variables form the public-input vector handed to the proving
	// backend: declared inputs and declared outputs.
	Public
	// Private covers every operation-derived intermediate, including xor/eq
	// results not named by an output line.
	Private
)

func (v Visibility) String() string {
	switch v {
	case Constant:
		return "constant"
	case Public:
		return "public"
	case Private:
		return "private"
	default:
		return "unknown"
	}
}

// Variable is a named wire with a dense, zero-based index fixed at parse
// time. Indices are never reused or reordered after allocation.
type Variable struct {
	Name       string
	Index      int
	Visibility Visibility
}

// Binding pairs a declared name with its integer literal from the circuit
// text. For outputs the value is the *expected* value, checked by the
// witness evaluator after all operations have run.
type Binding struct {
	Name  string
	Value int64
}

// Op identifies an operation kind.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpXor
	OpEq
	OpHash
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpXor:
		return "xor"
	case OpEq:
		return "eq"
	case OpHash:
		return "hash"
	default:
		return "unknown"
	}
}

// NoOperand marks the unused second operand slot of unary operations.
const NoOperand = -1

// Operation references its operands and result by variable index. Operands
// always resolve to lower indices than the result, which structurally rules
// out forward references and dependency cycles.
type Operation struct {
	Op     Op
	A      int
	B      int // NoOperand for hash
	Result int
}

// Circuit is the validated IR. Immutable once the parser returns it.
type Circuit struct {
	Name       string
	Inputs     []Binding
	Outputs    []Binding
	Constants  []Binding
	Operations []Operation

	vars   []Variable
	byName map[string]int
}

// OneWire is the reserved index of the implicit constant 1.
const OneWire = 0

// New returns an empty circuit with the constant-1 wire pre-allocated at
// index 0.
func New(name string) *Circuit {
	c := &Circuit{
		Name:   name,
		byName: make(map[string]int),
	}
	c.vars = append(c.vars, Variable{Name: "1", Index: OneWire, Visibility: Constant})
	c.byName["1"] = OneWire
	return c
}

// allocate assigns the next dense index to name. Allocation order is an
// external contract: it fixes both witness layout and public-input ordering.
func (c *Circuit) allocate(name string, vis Visibility) (int, error) {
	if _, ok := c.byName[name]; ok {
		return 0, &DuplicateVariableError{Name: name}
	}
	idx := len(c.vars)
	c.vars = append(c.vars, Variable{Name: name, Index: idx, Visibility: vis})
	c.byName[name] = idx
	return idx, nil
}

// Lookup resolves a name to its variable index.
func (c *Circuit) Lookup(name string) (int, bool) {
	idx, ok := c.byName[name]
	return idx, ok
}

// Variable returns the variable at idx.
func (c *Circuit) Variable(idx int) Variable {
	return c.vars[idx]
}

// Variables returns all declared variables in allocation order.
func (c *Circuit) Variables() []Variable {
	return c.vars
}

// NumVariables is the number of declared variables, including the constant-1
// wire at index 0 but excluding compiler-allocated auxiliaries.
func (c *Circuit) NumVariables() int {
	return len(c.vars)
}

// NumWires is the full witness width: declared variables plus one auxiliary
// inverse wire per eq operation. The k-th eq operation (in operation order)
// owns auxiliary index NumVariables()+k; the constraint compiler and the
// witness evaluator both derive auxiliary indices from this rule, so they
// need no shared state.
func (c *Circuit) NumWires() int {
	nbEq := 0
	for _, op := range c.Operations {
		if op.Op == OpEq {
			nbEq++
		}
	}
	return len(c.vars) + nbEq
}

// PublicIndices returns the indices of the public-input vector in the order
// exposed to the proving backend: input declaration order followed by output
// declaration order. A mismatched ordering produces an unverifiable proof
// even when the constraints are numerically correct.
func (c *Circuit) PublicIndices() []int {
	out := make([]int, 0, len(c.Inputs)+len(c.Outputs))
	for _, in := range c.Inputs {
		out = append(out, c.byName[in.Name])
	}
	for _, o := range c.Outputs {
		out = append(out, c.byName[o.Name])
	}
	return out
}

// resolveOutputs is called at the end of parsing: every output line must
// name a variable that was declared or produced somewhere in the file, and
// that variable becomes part of the public-input vector.
func (c *Circuit) resolveOutputs() error {
	for _, o := range c.Outputs {
		idx, ok := c.byName[o.Name]
		if !ok {
			return &UndefinedVariableError{Name: o.Name}
		}
		if c.vars[idx].Visibility == Private {
			c.vars[idx].Visibility = Public
		}
	}
	return nil
}

// String implements fmt.Stringer for log output.
func (c *Circuit) String() string {
	return fmt.Sprintf("circuit %s (%d variables, %d operations, %d public)",
		c.Name, len(c.vars), len(c.Operations), len(c.Inputs)+len(c.Outputs))
}
