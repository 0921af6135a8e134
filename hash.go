package qhash

import (
	"encoding/hex"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/theapemachine/errnie"
)

// Result is the outcome of a single hash call.
type Result struct {
	Mode   Mode
	Qubits int
	// Bytes is always Config.OutputBytes long.
	Bytes []byte
	// Bits renders Bytes MSB-first. In sampling mode it starts with the
	// measured basis string, qubit n-1 first.
	Bits    string
	Entropy float64
}

func (r *Result) Hex() string {
	return hex.EncodeToString(r.Bytes)
}

/*
SignificantBits is the number of leading output bits that depend on the
input. Everything after them is padding.
*/
func (r *Result) SignificantBits() int {
	if r.Mode == ModeSampling {
		return r.Qubits
	}
	return r.Qubits * 8
}

// HashOption configures a single Hash call.
type HashOption func(*hashCall)

type hashCall struct {
	rng *rand.Rand
}

/*
WithRand makes a sampling-mode call draw from rng instead of the Hasher's
shared source. The caller owns rng and must not share it between goroutines.
*/
func WithRand(rng *rand.Rand) HashOption {
	return func(c *hashCall) {
		c.rng = rng
	}
}

/*
Hasher wires Builder, StateVector, extraction and entropy together. It is
safe for concurrent use: every call builds its own circuit and state, and
the shared random source is only touched under lock.
*/
type Hasher struct {
	config  *Config
	builder *Builder
	metrics *Metrics

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewHasher(config *Config) (*Hasher, error) {
	if config == nil {
		config = NewConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	errnie.Info(
		"NewHasher - cap %d, width %d, layout %s, entangler %s, seed %d",
		config.Cap, config.OutputBytes, config.Layout, config.Entangler, seed,
	)

	return &Hasher{
		config:  config,
		builder: NewBuilder(config),
		metrics: NewMetrics(),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

var defaultHasher = sync.OnceValues(func() (*Hasher, error) {
	return NewHasher(nil)
})

// Hash runs input through a shared Hasher built from NewConfig defaults.
func Hash(input []byte, mode Mode, diffusion bool, opts ...HashOption) (*Result, error) {
	hasher, err := defaultHasher()
	if err != nil {
		return nil, err
	}
	return hasher.Hash(input, mode, diffusion, opts...)
}

func (h *Hasher) Config() *Config {
	return h.config
}

func (h *Hasher) Metrics() *Metrics {
	return h.metrics
}

// Hash computes the fixed-width output and entropy for input.
func (h *Hasher) Hash(input []byte, mode Mode, diffusion bool, opts ...HashOption) (*Result, error) {
	start := time.Now()

	result, err := h.hash(input, mode, diffusion, opts...)
	h.metrics.recordHash(start, err == nil)

	return result, err
}

func (h *Hasher) hash(input []byte, mode Mode, diffusion bool, opts ...HashOption) (*Result, error) {
	call := &hashCall{}
	for _, opt := range opts {
		opt(call)
	}

	if mode != ModeExpectation && mode != ModeSampling {
		return nil, ErrUnknownMode
	}

	circuit, err := h.builder.Build(input, diffusion)
	if err != nil {
		return nil, err
	}

	sv := h.execute(circuit)

	result := &Result{
		Mode:    mode,
		Qubits:  circuit.Qubits,
		Entropy: Entropy(sv),
	}

	width := h.config.OutputBytes

	switch mode {
	case ModeExpectation:
		result.Bytes = ExpectationBytes(sv, width)
		result.Bits = unpackBits(result.Bytes)
	case ModeSampling:
		result.Bits = BitString(h.sample(sv, call.rng), circuit.Qubits, width*8)
		result.Bytes = packBits(result.Bits)
	}

	errnie.Debug(
		"hash - %d bytes, %d qubits, %d gates, mode %s, entropy %.4f",
		len(input), circuit.Qubits, len(circuit.Gates), mode, result.Entropy,
	)

	return result, nil
}

// Execute builds and runs the circuit for input and returns the final state.
func (h *Hasher) Execute(input []byte, diffusion bool) (*StateVector, error) {
	circuit, err := h.builder.Build(input, diffusion)
	if err != nil {
		return nil, err
	}
	return h.execute(circuit), nil
}

func (h *Hasher) execute(circuit *Circuit) *StateVector {
	sv := NewStateVector(circuit.Qubits)
	sv.Strict = h.config.Strict
	sv.Debug = h.config.Debug
	sv.Run(circuit)
	return sv
}

func (h *Hasher) sample(sv *StateVector, rng *rand.Rand) int {
	if rng != nil {
		return Sample(sv, rng)
	}

	h.rngMu.Lock()
	defer h.rngMu.Unlock()

	return Sample(sv, h.rng)
}
