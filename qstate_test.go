package qhash

import (
	"math"
	"math/cmplx"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-12

func TestStateVector(t *testing.T) {
	Convey("Given a fresh three qubit state", t, func() {
		sv := NewStateVector(3)

		Convey("It should start in |000⟩", func() {
			So(len(sv.Amplitudes), ShouldEqual, 8)
			So(sv.Amplitudes[0], ShouldEqual, complex(1, 0))
			So(sv.Norm(), ShouldAlmostEqual, 1, tolerance)
		})

		Convey("When a qubit index is out of range", func() {
			So(func() { sv.Apply(RotateY(3, 0)) }, ShouldPanic)
			So(func() { sv.Apply(RotateY(-1, 0)) }, ShouldPanic)
			So(func() { sv.Apply(ControlledNot(4, 0)) }, ShouldPanic)
		})

		Convey("When an angle is not finite", func() {
			So(func() { sv.Apply(RotateY(0, math.NaN())) }, ShouldPanic)
			So(func() { sv.Apply(ControlledRotateZ(0, 1, math.Inf(1))) }, ShouldPanic)
		})

		Convey("When control and target coincide", func() {
			So(func() { sv.Apply(ControlledZ(1, 1)) }, ShouldPanic)
		})
	})

	Convey("Given a zero or oversized register", t, func() {
		So(func() { NewStateVector(0) }, ShouldPanic)
		So(func() { NewStateVector(maxQubits + 1) }, ShouldPanic)
	})
}

func TestSingleQubitRotations(t *testing.T) {
	Convey("Given a single qubit", t, func() {
		sv := NewStateVector(1)

		Convey("RY(π) should move |0⟩ to |1⟩", func() {
			sv.Apply(RotateY(0, math.Pi))
			So(cmplx.Abs(sv.Amplitudes[0]), ShouldAlmostEqual, 0, tolerance)
			So(real(sv.Amplitudes[1]), ShouldAlmostEqual, 1, tolerance)
		})

		Convey("RY(π/3) should split by cos and sin of θ/2", func() {
			sv.Apply(RotateY(0, math.Pi/3))
			So(real(sv.Amplitudes[0]), ShouldAlmostEqual, math.Cos(math.Pi/6), tolerance)
			So(real(sv.Amplitudes[1]), ShouldAlmostEqual, 0.5, tolerance)
		})

		Convey("RZ should only change phases", func() {
			sv.Apply(RotateY(0, math.Pi/2))
			sv.Apply(RotateZ(0, math.Pi/2))

			So(cmplx.Abs(sv.Amplitudes[0]), ShouldAlmostEqual, math.Sqrt(0.5), tolerance)
			So(cmplx.Abs(sv.Amplitudes[1]), ShouldAlmostEqual, math.Sqrt(0.5), tolerance)
			So(cmplx.Phase(sv.Amplitudes[0]), ShouldAlmostEqual, -math.Pi/4, tolerance)
			So(cmplx.Phase(sv.Amplitudes[1]), ShouldAlmostEqual, math.Pi/4, tolerance)
		})
	})
}

func TestControlledGates(t *testing.T) {
	Convey("Given two qubits", t, func() {
		sv := NewStateVector(2)

		Convey("CX with the control clear should do nothing", func() {
			sv.Apply(ControlledNot(0, 1))
			So(sv.Amplitudes[0], ShouldEqual, complex(1, 0))
		})

		Convey("CX with the control set should flip the target", func() {
			sv.Apply(RotateY(0, math.Pi))
			sv.Apply(ControlledNot(0, 1))
			So(real(sv.Amplitudes[3]), ShouldAlmostEqual, 1, tolerance)
			So(cmplx.Abs(sv.Amplitudes[1]), ShouldAlmostEqual, 0, tolerance)
		})

		Convey("CZ should negate only |11⟩", func() {
			sv.Apply(RotateY(0, math.Pi))
			sv.Apply(RotateY(1, math.Pi))
			before := sv.Amplitudes[3]

			sv.Apply(ControlledZ(0, 1))
			So(real(sv.Amplitudes[3]), ShouldAlmostEqual, -real(before), tolerance)
		})

		Convey("CRY with the control set should rotate the target", func() {
			sv.Apply(RotateY(1, math.Pi))
			sv.Apply(ControlledRotateY(1, 0, math.Pi))
			So(real(sv.Amplitudes[3]), ShouldAlmostEqual, 1, tolerance)
		})

		Convey("CRY and CRZ with the control clear should do nothing", func() {
			sv.Apply(ControlledRotateY(1, 0, math.Pi))
			sv.Apply(ControlledRotateZ(1, 0, math.Pi))
			So(sv.Amplitudes[0], ShouldEqual, complex(1, 0))
		})

		Convey("CRZ should leave the control-clear subspace untouched", func() {
			sv.Apply(RotateY(0, math.Pi/2))
			sv.Apply(ControlledRotateZ(1, 0, math.Pi/2))
			So(imag(sv.Amplitudes[0]), ShouldAlmostEqual, 0, tolerance)
			So(imag(sv.Amplitudes[1]), ShouldAlmostEqual, 0, tolerance)
		})
	})
}

func TestApproxQFT(t *testing.T) {
	Convey("Given |000⟩", t, func() {
		sv := NewStateVector(3)

		Convey("The QFT without swaps should give the uniform superposition", func() {
			sv.Apply(ApproxQFT(true, 0))

			for _, a := range sv.Amplitudes {
				So(real(a), ShouldAlmostEqual, 1/math.Sqrt(8), tolerance)
				So(imag(a), ShouldAlmostEqual, 0, tolerance)
			}
			So(Entropy(sv), ShouldAlmostEqual, 1, 1e-6)
		})

		Convey("It should preserve the norm of a mixed state", func() {
			sv.Apply(RotateY(0, 1.1))
			sv.Apply(RotateY(2, 0.3))
			sv.Apply(ControlledRotateZ(0, 1, 0.7))
			sv.Apply(ApproxQFT(true, 0))
			sv.Apply(ApproxQFT(false, 1))
			So(sv.Norm(), ShouldAlmostEqual, 1, NormTolerance)
		})
	})

	Convey("Given qubit 0 set on two qubits", t, func() {
		sv := NewStateVector(2)
		sv.Apply(RotateY(0, math.Pi))
		sv.Apply(ApproxQFT(true, 0))

		Convey("Every outcome should be equally likely", func() {
			for _, p := range sv.Probabilities() {
				So(p, ShouldAlmostEqual, 0.25, tolerance)
			}
		})
	})
}

func TestNormGuard(t *testing.T) {
	Convey("Given a state that has drifted", t, func() {
		sv := NewStateVector(1)
		sv.Amplitudes[0] = 2

		Convey("A lenient state should renormalize", func() {
			sv.Apply(RotateZ(0, 0))
			So(sv.Norm(), ShouldAlmostEqual, 1, NormTolerance)
		})

		Convey("A strict state should panic", func() {
			sv.Strict = true
			So(func() { sv.Apply(RotateZ(0, 0)) }, ShouldPanic)
		})
	})
}

func TestInsertZero(t *testing.T) {
	Convey("insertZero should open a gap at the given bit", t, func() {
		So(insertZero(0b101, 1), ShouldEqual, 0b1001)
		So(insertZero(0b11, 0), ShouldEqual, 0b110)
		So(insertZero(0b11, 2), ShouldEqual, 0b11)
	})
}
