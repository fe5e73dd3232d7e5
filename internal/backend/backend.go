// Package backend defines the proving-backend boundary. The core hands a
// backend the compiled constraint system at setup time and the completed
// witness (plus its public sub-vector) at proving time; everything the
// backend produces (keys, proof bytes) is opaque to the core.
package backend

import (
	"github.com/saiweb3dev/zk-circuit-compiler/internal/circuit"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/r1cs"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/witness"
)

// Proof is the opaque artifact returned by a backend, plus the metadata
// needed to verify it later.
type Proof struct {
	ProofData []byte `json:"proof_data"`
	// PublicInputs are the public values in allocation order (inputs first,
	// then outputs), as decimal strings.
	PublicInputs []string `json:"public_inputs"`
	CircuitName  string   `json:"circuit_name"`
	Curve        string   `json:"curve"`
	Backend      string   `json:"backend"`
}

// Prover is implemented by proving backends. Setup is called once per
// compiled circuit; Prove and Verify may then be called any number of
// times. Implementations must respect the public-input ordering of
// witness.Public().
type Prover interface {
	Setup(circ *circuit.Circuit, cs *r1cs.System) error
	Prove(w *witness.Witness) (*Proof, error)
	Verify(p *Proof) (bool, error)
}
