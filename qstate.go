package qhash

import (
	"math"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

const (
	// NormTolerance is how far the total probability may drift from 1.
	NormTolerance = 1e-9

	maxQubits = 30
)

var pauliX = operator{b: 1, c: 1}

/*
StateVector is the amplitude buffer of an n-qubit register. Index s holds the
amplitude of the basis state whose n-bit binary value is s, bit i belonging
to qubit i. A StateVector belongs to exactly one hash call and is never
shared.
*/
type StateVector struct {
	Qubits     int
	Amplitudes []complex128

	// Strict panics on norm drift instead of renormalizing.
	Strict bool
	// Debug dumps the leading amplitudes when drift is detected.
	Debug bool
}

// NewStateVector allocates |0…0⟩ over the given number of qubits.
func NewStateVector(qubits int) *StateVector {
	if qubits < 1 || qubits > maxQubits {
		panic(errors.Errorf("qhash: cannot allocate a %d qubit state", qubits))
	}

	amplitudes := make([]complex128, 1<<qubits)
	amplitudes[0] = 1

	return &StateVector{
		Qubits:     qubits,
		Amplitudes: amplitudes,
	}
}

// Run replays every gate of the circuit in order.
func (sv *StateVector) Run(circuit *Circuit) {
	if circuit.Qubits != sv.Qubits {
		panic(errors.Errorf(
			"qhash: circuit over %d qubits run on a %d qubit state",
			circuit.Qubits, sv.Qubits,
		))
	}

	for _, gate := range circuit.Gates {
		sv.Apply(gate)
	}
}

/*
Apply mutates the amplitudes in place. A gate that addresses a qubit outside
the register or carries a non-finite angle is a defect in whoever built it,
so Apply panics rather than returning an error.
*/
func (sv *StateVector) Apply(g Gate) {
	sv.validate(g)

	switch g.Kind {
	case KindRotateY:
		sv.applyOperator(-1, g.Target, ry(g.Theta))
	case KindRotateZ:
		sv.applyOperator(-1, g.Target, rz(g.Theta))
	case KindControlledNot:
		sv.applyOperator(g.Control, g.Target, pauliX)
	case KindControlledZ:
		sv.applyOperator(g.Control, g.Target, operator{a: 1, d: -1})
	case KindControlledRotateY:
		sv.applyOperator(g.Control, g.Target, ry(g.Theta))
	case KindControlledRotateZ:
		sv.applyOperator(g.Control, g.Target, rz(g.Theta))
	case KindApproxQFT:
		sv.applyQFT(g.NoSwap, g.Degree)
	default:
		panic(errors.Errorf("qhash: unknown gate kind %d", g.Kind))
	}

	sv.guard(g)
}

func (sv *StateVector) validate(g Gate) {
	if g.Kind == KindApproxQFT {
		return
	}

	if g.Target < 0 || g.Target >= sv.Qubits {
		panic(errors.Errorf("qhash: %s target %d outside [0, %d)", g.Kind, g.Target, sv.Qubits))
	}

	if g.controlled() {
		if g.Control < 0 || g.Control >= sv.Qubits {
			panic(errors.Errorf("qhash: %s control %d outside [0, %d)", g.Kind, g.Control, sv.Qubits))
		}

		if g.Control == g.Target {
			panic(errors.Errorf("qhash: %s control and target are both %d", g.Kind, g.Target))
		}
	}

	if math.IsNaN(g.Theta) || math.IsInf(g.Theta, 0) {
		panic(errors.Errorf("qhash: %s has non-finite angle %v", g.Kind, g.Theta))
	}
}

/*
applyOperator runs op on the target qubit of every basis pair whose control
bit is set, or of every pair when control is negative. Pair indices are
generated directly by inserting zero bits at the control and target
positions, so no index is visited only to be skipped.
*/
func (sv *StateVector) applyOperator(control, target int, op operator) {
	tbit := 1 << target
	amps := sv.Amplitudes

	if control < 0 {
		for k := 0; k < len(amps)>>1; k++ {
			i := insertZero(k, target)
			j := i | tbit
			amps[i], amps[j] = op.apply(amps[i], amps[j])
		}

		return
	}

	cbit := 1 << control
	lo, hi := min(control, target), max(control, target)

	for k := 0; k < len(amps)>>2; k++ {
		i := insertZero(insertZero(k, lo), hi) | cbit
		j := i | tbit
		amps[i], amps[j] = op.apply(amps[i], amps[j])
	}
}

// insertZero shifts the bits of k at and above pos up by one, leaving a 0 at pos.
func insertZero(k, pos int) int {
	low := k & (1<<pos - 1)
	return (k>>pos)<<(pos+1) | low
}

// Norm returns the total probability mass Σ|a|².
func (sv *StateVector) Norm() float64 {
	var total float64
	for _, a := range sv.Amplitudes {
		total += real(a)*real(a) + imag(a)*imag(a)
	}
	return total
}

// Probabilities returns |a|² for every basis state.
func (sv *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(sv.Amplitudes))
	for i, a := range sv.Amplitudes {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}

func (sv *StateVector) guard(g Gate) {
	norm := sv.Norm()
	if math.Abs(norm-1) <= NormTolerance {
		return
	}

	if sv.Strict {
		panic(errors.Errorf("qhash: norm %.12f after %s", norm, g))
	}

	errnie.Warn("norm drifted to %.12f after %s, renormalizing", norm, g)

	if sv.Debug {
		head := sv.Amplitudes[:min(8, len(sv.Amplitudes))]
		errnie.Debug("leading amplitudes:\n%s", spew.Sdump(head))
	}

	sv.renormalize(norm)
}

func (sv *StateVector) renormalize(norm float64) {
	if norm == 0 {
		panic(errors.New("qhash: state vector collapsed to zero"))
	}

	scale := complex(1/math.Sqrt(norm), 0)
	for i := range sv.Amplitudes {
		sv.Amplitudes[i] *= scale
	}
}
