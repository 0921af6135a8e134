package qhash

import (
	"math"
	"math/cmplx"
)

func phase(phi float64) operator {
	return operator{a: 1, d: cmplx.Exp(complex(0, phi))}
}

/*
applyQFT runs the textbook quantum Fourier transform over the whole register:
qubits are visited from the most significant down, each gets a Hadamard
followed by controlled phases π/2^d from every lower qubit at distance d.
Rotations with d > n-1-degree are dropped. When noSwap is set the closing
bit-reversal is skipped, which leaves the output in reversed qubit order.
*/
func (sv *StateVector) applyQFT(noSwap bool, degree int) {
	n := sv.Qubits
	maxDistance := n - 1 - max(degree, 0)
	h := hadamard()

	for j := n - 1; j >= 0; j-- {
		sv.applyOperator(-1, j, h)

		for k := j - 1; k >= 0; k-- {
			d := j - k
			if d > maxDistance {
				continue
			}

			sv.applyOperator(k, j, phase(math.Ldexp(math.Pi, -d)))
		}
	}

	if noSwap {
		return
	}

	for q := 0; q < n/2; q++ {
		sv.swap(q, n-1-q)
	}
}

func (sv *StateVector) swap(p, q int) {
	if p == q {
		return
	}

	pbit, qbit := 1<<p, 1<<q
	lo, hi := min(p, q), max(p, q)
	amps := sv.Amplitudes

	for k := 0; k < len(amps)>>2; k++ {
		base := insertZero(insertZero(k, lo), hi)
		i, j := base|pbit, base|qbit
		amps[i], amps[j] = amps[j], amps[i]
	}
}
