package qhash

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
)

// Mode selects how a finished state is turned into output.
type Mode int

const (
	// ModeExpectation maps each qubit's ⟨Z⟩ to a byte. Deterministic.
	ModeExpectation Mode = iota
	// ModeSampling draws one measurement outcome from the state.
	ModeSampling
)

func (m Mode) String() string {
	switch m {
	case ModeExpectation:
		return "expectation"
	case ModeSampling:
		return "sampling"
	default:
		return "unknown"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "expectation", "exp", "password":
		return ModeExpectation, nil
	case "sampling", "sample", "shot", "single-shot":
		return ModeSampling, nil
	}
	return 0, errors.Wrapf(ErrUnknownMode, "%q", s)
}

// Expectations returns ⟨Z_i⟩ for every qubit of the state.
func Expectations(sv *StateVector) []float64 {
	z := make([]float64, sv.Qubits)

	for s, p := range sv.Probabilities() {
		if p == 0 {
			continue
		}
		for i := range z {
			if s&(1<<i) == 0 {
				z[i] += p
			} else {
				z[i] -= p
			}
		}
	}

	return z
}

/*
ExpectationBytes maps ⟨Z_i⟩ from [-1, 1] onto a byte per qubit and zero-pads
the result to width bytes.
*/
func ExpectationBytes(sv *StateVector, width int) []byte {
	out := make([]byte, max(width, sv.Qubits))
	for i, z := range Expectations(sv) {
		out[i] = expectationByte(z)
	}
	return out
}

func expectationByte(z float64) byte {
	v := math.Round((z + 1) / 2 * 256)
	return byte(math.Max(0, math.Min(255, v)))
}

/*
Sample draws one basis state from |a|² using rng. The distribution is walked
cumulatively, so a fixed rng seed always yields the same outcome for the
same state.
*/
func Sample(sv *StateVector, rng *rand.Rand) int {
	probs := sv.Probabilities()

	var total float64
	for _, p := range probs {
		total += p
	}

	r := rng.Float64() * total
	last := 0

	var cumulative float64
	for s, p := range probs {
		if p == 0 {
			continue
		}
		last = s
		cumulative += p
		if r < cumulative {
			return s
		}
	}

	return last
}

/*
BitString renders outcome as its n-bit basis string, qubit n-1 leftmost, so
the string read as binary is the basis index. It is right-padded with '0' to
width bits.
*/
func BitString(outcome, qubits, width int) string {
	var sb strings.Builder
	sb.Grow(max(width, qubits))

	for i := qubits - 1; i >= 0; i-- {
		if outcome&(1<<i) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}

	for i := qubits; i < width; i++ {
		sb.WriteByte('0')
	}

	return sb.String()
}

// packBits packs a '0'/'1' string MSB-first into bytes.
func packBits(bits string) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i := 0; i < len(bits); i++ {
		if bits[i] == '1' {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

// unpackBits is the inverse of packBits.
func unpackBits(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data) * 8)

	for _, b := range data {
		for i := 7; i >= 0; i-- {
			if b&(1<<i) != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}

	return sb.String()
}
