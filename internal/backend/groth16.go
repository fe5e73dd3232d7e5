package backend

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	gnarkr1cs "github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/saiweb3dev/zk-circuit-compiler/internal/circuit"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/r1cs"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/witness"
)

// Groth16Prover proves circuits with gnark's Groth16 implementation. gnark
// builds its own constraint system from a frontend circuit definition, so
// the adapter replays the circuit IR through frontend.API instead of
// feeding it our matrices; the IR is the shared source of truth for both
// systems, and the public-variable order is the IR's public order on both
// sides.
type Groth16Prover struct {
	curve ecc.ID

	circ *circuit.Circuit
	ccs  constraint.ConstraintSystem
	pk   groth16.ProvingKey
	vk   groth16.VerifyingKey
}

// NewGroth16Prover creates a Groth16 backend. Only bn254 is supported: the
// core's field arithmetic is fixed to the BN254 scalar field.
func NewGroth16Prover(curveName string) (*Groth16Prover, error) {
	switch curveName {
	case "bn254":
		return &Groth16Prover{curve: ecc.BN254}, nil
	default:
		return nil, fmt.Errorf("unsupported curve %q: the circuit core is fixed to the bn254 scalar field", curveName)
	}
}

// Setup compiles the replayed circuit and runs the Groth16 trusted setup.
func (p *Groth16Prover) Setup(circ *circuit.Circuit, cs *r1cs.System) error {
	if got, want := len(cs.Public), len(circ.PublicIndices()); got != want {
		return fmt.Errorf("constraint system has %d public wires, circuit declares %d", got, want)
	}

	shape := &replayCircuit{
		Public: make([]frontend.Variable, len(cs.Public)),
		circ:   circ,
	}

	ccs, err := frontend.Compile(p.curve.ScalarField(), gnarkr1cs.NewBuilder, shape)
	if err != nil {
		return fmt.Errorf("failed to compile circuit for groth16: %w", err)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return fmt.Errorf("failed to run groth16 setup: %w", err)
	}

	p.circ = circ
	p.ccs = ccs
	p.pk = pk
	p.vk = vk
	return nil
}

// Prove generates a proof for the evaluated witness and serializes it.
func (p *Groth16Prover) Prove(w *witness.Witness) (*Proof, error) {
	if p.ccs == nil {
		return nil, fmt.Errorf("groth16 prover is not set up")
	}

	public := w.Public()
	assignment := &replayCircuit{
		Public: make([]frontend.Variable, len(public)),
		circ:   p.circ,
	}
	publicStrings := make([]string, len(public))
	for i := range public {
		v := public[i].BigInt(new(big.Int))
		assignment.Public[i] = v
		publicStrings[i] = v.String()
	}

	fullWitness, err := frontend.NewWitness(assignment, p.curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to build witness: %w", err)
	}

	proof, err := groth16.Prove(p.ccs, p.pk, fullWitness)
	if err != nil {
		return nil, fmt.Errorf("failed to generate proof: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize proof: %w", err)
	}

	return &Proof{
		ProofData:    buf.Bytes(),
		PublicInputs: publicStrings,
		CircuitName:  p.circ.Name,
		Curve:        p.curve.String(),
		Backend:      "groth16",
	}, nil
}

// Verify deserializes the proof and checks it against the public inputs it
// carries. A false return with a nil error means the proof is well-formed
// but does not verify.
func (p *Groth16Prover) Verify(pr *Proof) (bool, error) {
	if p.vk == nil {
		return false, fmt.Errorf("groth16 prover is not set up")
	}

	proof := groth16.NewProof(p.curve)
	if _, err := proof.ReadFrom(bytes.NewReader(pr.ProofData)); err != nil {
		return false, fmt.Errorf("failed to deserialize proof: %w", err)
	}

	assignment := &replayCircuit{
		Public: make([]frontend.Variable, len(pr.PublicInputs)),
		circ:   p.circ,
	}
	for i, s := range pr.PublicInputs {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return false, fmt.Errorf("malformed public input %q", s)
		}
		assignment.Public[i] = v
	}

	publicWitness, err := frontend.NewWitness(assignment, p.curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("failed to build public witness: %w", err)
	}

	if err := groth16.Verify(proof, p.vk, publicWitness); err != nil {
		return false, nil
	}
	return true, nil
}

// replayCircuit re-emits the circuit IR through gnark's frontend API. The
// Public slice holds inputs then outputs, in declaration order, the same
// ordering the core exposes, so the verifier sees an identical public
// vector either way.
type replayCircuit struct {
	Public []frontend.Variable `gnark:",public"`

	circ *circuit.Circuit
}

func (rc *replayCircuit) Define(api frontend.API) error {
	c := rc.circ
	vals := make([]frontend.Variable, c.NumVariables())
	vals[circuit.OneWire] = 1

	for i, in := range c.Inputs {
		idx, _ := c.Lookup(in.Name)
		vals[idx] = rc.Public[i]
	}
	for _, k := range c.Constants {
		idx, _ := c.Lookup(k.Name)
		vals[idx] = k.Value
	}

	for _, op := range c.Operations {
		switch op.Op {
		case circuit.OpAdd:
			vals[op.Result] = api.Add(vals[op.A], vals[op.B])
		case circuit.OpSub:
			vals[op.Result] = api.Sub(vals[op.A], vals[op.B])
		case circuit.OpMul:
			vals[op.Result] = api.Mul(vals[op.A], vals[op.B])
		case circuit.OpHash:
			vals[op.Result] = api.Mul(vals[op.A], 7)
		case circuit.OpXor:
			// api.Xor asserts both operands boolean, matching the
			// booleanity rows the core compiler emits.
			vals[op.Result] = api.Xor(vals[op.A], vals[op.B])
		case circuit.OpEq:
			vals[op.Result] = api.IsZero(api.Sub(vals[op.A], vals[op.B]))
		default:
			return fmt.Errorf("unsupported operation %s", op.Op)
		}
	}

	// Declared outputs are public: bind each to its computed wire.
	for j, o := range c.Outputs {
		idx, _ := c.Lookup(o.Name)
		api.AssertIsEqual(vals[idx], rc.Public[len(c.Inputs)+j])
	}
	return nil
}
