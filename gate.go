package qhash

import "fmt"

// GateKind tags the operation a Gate performs.
type GateKind int

const (
	KindRotateY GateKind = iota
	KindRotateZ
	KindControlledNot
	KindControlledZ
	KindControlledRotateY
	KindControlledRotateZ
	KindApproxQFT
)

func (k GateKind) String() string {
	switch k {
	case KindRotateY:
		return "ry"
	case KindRotateZ:
		return "rz"
	case KindControlledNot:
		return "cx"
	case KindControlledZ:
		return "cz"
	case KindControlledRotateY:
		return "cry"
	case KindControlledRotateZ:
		return "crz"
	case KindApproxQFT:
		return "qft"
	default:
		return "unknown"
	}
}

/*
Gate is a single step of a Circuit. It only carries indices and an angle,
the StateVector decides how to run it. Control is -1 for single-qubit gates.
*/
type Gate struct {
	Kind    GateKind
	Control int
	Target  int
	Theta   float64
	NoSwap  bool // ApproxQFT only
	Degree  int  // ApproxQFT only
}

func RotateY(qubit int, theta float64) Gate {
	return Gate{Kind: KindRotateY, Control: -1, Target: qubit, Theta: theta}
}

func RotateZ(qubit int, theta float64) Gate {
	return Gate{Kind: KindRotateZ, Control: -1, Target: qubit, Theta: theta}
}

func ControlledNot(control, target int) Gate {
	return Gate{Kind: KindControlledNot, Control: control, Target: target}
}

func ControlledZ(control, target int) Gate {
	return Gate{Kind: KindControlledZ, Control: control, Target: target}
}

func ControlledRotateY(control, target int, theta float64) Gate {
	return Gate{Kind: KindControlledRotateY, Control: control, Target: target, Theta: theta}
}

func ControlledRotateZ(control, target int, theta float64) Gate {
	return Gate{Kind: KindControlledRotateZ, Control: control, Target: target, Theta: theta}
}

/*
ApproxQFT spans every qubit of the state it is applied to. The final
qubit-order swap stage is skipped when noSwap is set. degree drops the
smallest controlled-phase rotations, 0 keeps them all.
*/
func ApproxQFT(noSwap bool, degree int) Gate {
	return Gate{Kind: KindApproxQFT, Control: -1, Target: -1, NoSwap: noSwap, Degree: degree}
}

func (g Gate) controlled() bool {
	switch g.Kind {
	case KindControlledNot, KindControlledZ, KindControlledRotateY, KindControlledRotateZ:
		return true
	}
	return false
}

func (g Gate) String() string {
	switch {
	case g.Kind == KindApproxQFT:
		return fmt.Sprintf("qft(noswap=%t, degree=%d)", g.NoSwap, g.Degree)
	case g.controlled():
		return fmt.Sprintf("%s(%d, %d, %.4f)", g.Kind, g.Control, g.Target, g.Theta)
	default:
		return fmt.Sprintf("%s(%d, %.4f)", g.Kind, g.Target, g.Theta)
	}
}
