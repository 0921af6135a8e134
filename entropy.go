package qhash

import "math"

const entropyEpsilon = 1e-10

/*
Entropy is the Shannon entropy of the basis-state distribution divided by the
qubit count. 1 means the state is uniform over all 2^n outcomes, 0 means it
sits on a single basis state. It is a diagnostic only and never feeds the
hash output.
*/
func Entropy(sv *StateVector) float64 {
	var h float64
	for _, p := range sv.Probabilities() {
		h -= p * math.Log2(p+entropyEpsilon)
	}

	// the epsilon pushes a pure state a hair below zero
	return math.Max(0, math.Min(1, h/float64(sv.Qubits)))
}
