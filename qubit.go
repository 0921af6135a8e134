package qhash

import (
	"math"
	"math/cmplx"
)

/*
operator is a 2x2 unitary acting on one qubit:

	[a b]
	[c d]

It is applied to an (alpha, beta) pair, where alpha is the amplitude with the
target bit clear and beta the amplitude with the target bit set.
*/
type operator struct {
	a, b, c, d complex128
}

func (op operator) apply(alpha, beta complex128) (complex128, complex128) {
	return op.a*alpha + op.b*beta, op.c*alpha + op.d*beta
}

func ry(theta float64) operator {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)

	return operator{a: c, b: -s, c: s, d: c}
}

func rz(theta float64) operator {
	return operator{
		a: cmplx.Exp(complex(0, -theta/2)),
		d: cmplx.Exp(complex(0, theta/2)),
	}
}

// H = 1/√2 * [1  1]
//            [1 -1]
func hadamard() operator {
	h := complex(1/math.Sqrt2, 0)
	return operator{a: h, b: h, c: h, d: -h}
}
