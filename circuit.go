package qhash

import (
	"math"

	"github.com/pkg/errors"
)

// Circuit is an ordered gate list over a fixed number of qubits.
type Circuit struct {
	Qubits int
	Gates  []Gate
}

/*
Builder turns input bytes into a Circuit. It holds no per-call state, so one
Builder can serve any number of concurrent hashes.
*/
type Builder struct {
	cap       int
	entangler Entangler
	layout    Layout
	blockBits int
	qftDegree int
}

func NewBuilder(config *Config) *Builder {
	return &Builder{
		cap:       config.Cap,
		entangler: config.Entangler,
		layout:    config.Layout,
		blockBits: config.BlockBits,
		qftDegree: config.QFTDegree,
	}
}

/*
Build lays out the hash circuit for input. Both layouts open with

 1. RY(i, θ_i) on every qubit
 2. CX(i, i+1) along the chain

The byte layout follows with

 3. the entangler family on (i, i+1) for even i, driven by θ_i
 4. CRY(i, j, π/2) for every non-adjacent ordered pair

and the block layout with

 3. CZ(i, i+2) then CRY(i, i+2, π/2) for every i
 4. RZ(i, θ_i) on every qubit

Either way ApproxQFT without swaps closes the circuit when diffusion is set.
*/
func (b *Builder) Build(input []byte, diffusion bool) (*Circuit, error) {
	if len(input) == 0 {
		return nil, ErrEmptyInput
	}

	var angles []float64

	switch b.layout {
	case LayoutBytes, "":
		angles = b.Angles(input)
	case LayoutBlocks:
		angles = b.BlockAngles(input)
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown layout %q", b.layout)
	}

	n := len(angles)
	gates := make([]Gate, 0, b.size(n, diffusion))

	for i, theta := range angles {
		gates = append(gates, RotateY(i, theta))
	}

	for i := 0; i < n-1; i++ {
		gates = append(gates, ControlledNot(i, i+1))
	}

	if b.layout == LayoutBlocks {
		gates = b.distanceTwo(gates, angles)
	} else {
		var err error
		if gates, err = b.mesh(gates, angles); err != nil {
			return nil, err
		}
	}

	if diffusion {
		gates = append(gates, ApproxQFT(true, b.qftDegree))
	}

	return &Circuit{Qubits: n, Gates: gates}, nil
}

func (b *Builder) mesh(gates []Gate, angles []float64) ([]Gate, error) {
	n := len(angles)

	for i := 0; i < n-1; i += 2 {
		gate, err := b.entangle(i, i+1, angles[i])
		if err != nil {
			return nil, err
		}
		gates = append(gates, gate)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j == i || j == i-1 || j == i+1 {
				continue
			}
			gates = append(gates, ControlledRotateY(i, j, math.Pi/2))
		}
	}

	return gates, nil
}

// distanceTwo appends the non-local pairs and the closing phase layer.
func (b *Builder) distanceTwo(gates []Gate, angles []float64) []Gate {
	n := len(angles)

	for i := 0; i < n-2; i++ {
		gates = append(gates, ControlledZ(i, i+2), ControlledRotateY(i, i+2, math.Pi/2))
	}

	for i, phi := range angles {
		gates = append(gates, RotateZ(i, phi))
	}

	return gates
}

/*
Angles applies the qubit budget and maps each selected byte to θ = b/255·π.
Inputs shorter than the cap get one qubit per byte. Longer inputs keep every
other byte, zero-padded to twice the cap, up to cap qubits.
*/
func (b *Builder) Angles(input []byte) []float64 {
	var source []byte

	if len(input) < b.cap {
		source = input
	} else {
		n := min(len(input)/2, b.cap)
		padded := input
		if len(padded) < 2*b.cap {
			padded = make([]byte, 2*b.cap)
			copy(padded, input)
		}

		source = make([]byte, n)
		for i := range source {
			source[i] = padded[2*i]
		}
	}

	angles := make([]float64, len(source))
	for i, v := range source {
		angles[i] = float64(v) / 255 * math.Pi
	}

	return angles
}

/*
BlockAngles reads input as a bit string, MSB of each byte first, and cuts it
into blockBits-wide blocks. Block i becomes θ_i = π·v/2^k, where v is the
block read as a k-bit binary number. Bits past cap blocks, or a trailing
partial block, are dropped.
*/
func (b *Builder) BlockAngles(input []byte) []float64 {
	k := b.blockBits
	if k < 1 {
		k = DefaultBlockBits
	}

	n := min(len(input)*8/k, b.cap)
	angles := make([]float64, n)
	scale := math.Ldexp(math.Pi, -k)

	for i := range angles {
		v := 0
		for j := 0; j < k; j++ {
			pos := i*k + j
			v = v<<1 | int(input[pos/8]>>(7-pos%8)&1)
		}
		angles[i] = float64(v) * scale
	}

	return angles
}

func (b *Builder) entangle(control, target int, theta float64) (Gate, error) {
	switch b.entangler {
	case EntanglerCRZ, "":
		return ControlledRotateZ(control, target, theta), nil
	case EntanglerCZ:
		return ControlledZ(control, target), nil
	case EntanglerCRY:
		return ControlledRotateY(control, target, theta), nil
	}

	return Gate{}, errors.Wrapf(ErrInvalidConfig, "unknown entangler %q", b.entangler)
}

func (b *Builder) size(n int, diffusion bool) int {
	size := n + max(n-1, 0)
	if b.layout == LayoutBlocks {
		size += 2*max(n-2, 0) + n
	} else {
		size += n/2 + n*n - 3*n + 2
	}
	if diffusion {
		size++
	}
	return size
}
