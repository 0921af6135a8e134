package qhash

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
	"gonum.org/v1/gonum/stat"
)

/*
Harness drives a Hasher through the statistical experiments: collision
sweeps, avalanche, timing and output uniformity. It only ever calls Hash.
Its input generator is not locked, so a Harness belongs to one goroutine;
the hashing itself is spread over the pool.
*/
type Harness struct {
	hasher *Hasher
	pool   *Q
	seed   uint64
	rng    *rand.Rand
}

func NewHarness(hasher *Hasher, pool *Q) *Harness {
	seed := hasher.Config().Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Harness{
		hasher: hasher,
		pool:   pool,
		seed:   seed,
		rng:    rand.New(rand.NewPCG(seed, ^seed)),
	}
}

// LengthStats tallies one input length of a collision sweep.
type LengthStats struct {
	Length     int
	Hashes     int
	Unique     int
	Collisions int
}

// Collision is one output produced by more than one distinct input.
type Collision struct {
	Output string
	Inputs []string
}

type CollisionReport struct {
	RunID      string
	Mode       Mode
	Diffusion  bool
	Lengths    []LengthStats
	Collisions []Collision
}

/*
Collisions hashes repeats random inputs for every length and reports every
output that two or more different inputs share. Inputs longer than the
output width are expected to collide; that is reported, not raised.
*/
func (h *Harness) Collisions(
	ctx context.Context, lengths []int, repeats int, mode Mode, diffusion bool,
) (*CollisionReport, error) {
	report := &CollisionReport{
		RunID:     uuid.NewString(),
		Mode:      mode,
		Diffusion: diffusion,
	}

	errnie.Info("Collisions %s - lengths %v, repeats %d", report.RunID, lengths, repeats)

	seen := make(map[string]map[string]struct{})

	for _, length := range lengths {
		if length < 1 {
			return nil, errors.Wrapf(ErrEmptyInput, "sweep length %d", length)
		}

		inputs := make([][]byte, repeats)
		for i := range inputs {
			inputs[i] = h.randomInput(length)
		}

		results, err := h.hashAll(ctx, report.RunID, inputs, mode, diffusion)
		if err != nil {
			return nil, err
		}

		stats := LengthStats{Length: length, Hashes: len(results)}
		outputs := make(map[string]map[string]struct{})

		for i, result := range results {
			key, in := result.Hex(), hex.EncodeToString(inputs[i])
			addInput(outputs, key, in)
			addInput(seen, key, in)
		}

		stats.Unique = len(outputs)
		for _, group := range outputs {
			if len(group) > 1 {
				stats.Collisions++
			}
		}

		report.Lengths = append(report.Lengths, stats)
	}

	for output, group := range seen {
		if len(group) < 2 {
			continue
		}

		collision := Collision{Output: output}
		for in := range group {
			collision.Inputs = append(collision.Inputs, in)
		}
		sort.Strings(collision.Inputs)
		report.Collisions = append(report.Collisions, collision)
	}

	sort.Slice(report.Collisions, func(i, j int) bool {
		return report.Collisions[i].Output < report.Collisions[j].Output
	})

	errnie.Info("Collisions %s - %d colliding outputs", report.RunID, len(report.Collisions))

	return report, nil
}

func addInput(groups map[string]map[string]struct{}, output, input string) {
	group, ok := groups[output]
	if !ok {
		group = make(map[string]struct{})
		groups[output] = group
	}
	group[input] = struct{}{}
}

type AvalancheReport struct {
	RunID     string
	Base      string
	Mode      Mode
	Diffusion bool
	// Bits is how many output bits were compared per flip.
	Bits      int
	Distances []int
	Mean      float64
	StdDev    float64
	// MeanRatio is Mean over Bits, the average fraction of output bits
	// that changed.
	MeanRatio float64
}

/*
Avalanche flips every bit of base in turn and measures the Hamming distance
between the flipped and the base output over the significant output bits.
Sampling-mode calls all draw from the same seed, so differences come from
the state and not from the random source.
*/
func (h *Harness) Avalanche(ctx context.Context, base []byte, mode Mode, diffusion bool) (*AvalancheReport, error) {
	if len(base) == 0 {
		return nil, ErrEmptyInput
	}

	report := &AvalancheReport{
		RunID:     uuid.NewString(),
		Base:      hex.EncodeToString(base),
		Mode:      mode,
		Diffusion: diffusion,
	}

	inputs := make([][]byte, 0, len(base)*8+1)
	inputs = append(inputs, base)

	for i := 0; i < len(base)*8; i++ {
		flipped := make([]byte, len(base))
		copy(flipped, base)
		flipped[i/8] ^= 0x80 >> (i % 8)
		inputs = append(inputs, flipped)
	}

	results, err := h.hashAllSeeded(ctx, report.RunID, inputs, mode, diffusion, func(int) uint64 {
		return h.seed
	})
	if err != nil {
		return nil, err
	}

	report.Bits = results[0].SignificantBits()
	samples := make([]float64, 0, len(results)-1)

	for _, result := range results[1:] {
		d := HammingDistance(results[0].Bits[:report.Bits], result.Bits[:report.Bits])
		report.Distances = append(report.Distances, d)
		samples = append(samples, float64(d))
	}

	report.Mean, report.StdDev = stat.MeanStdDev(samples, nil)
	if len(samples) < 2 {
		report.StdDev = 0
	}
	report.MeanRatio = report.Mean / float64(report.Bits)

	errnie.Info(
		"Avalanche %s - %d flips, mean distance %.2f of %d bits",
		report.RunID, len(report.Distances), report.Mean, report.Bits,
	)

	return report, nil
}

// HammingDistance counts the positions where two equal-length bit strings differ.
func HammingDistance(a, b string) int {
	distance := 0
	for i := 0; i < min(len(a), len(b)); i++ {
		if a[i] != b[i] {
			distance++
		}
	}
	return distance + max(len(a), len(b)) - min(len(a), len(b))
}

type TimingReport struct {
	RunID    string
	Samples  int
	InputLen int
	Mean     time.Duration
	StdDev   time.Duration
	P95      time.Duration
	P99      time.Duration
	Total    time.Duration
}

/*
Benchmark times samples sequential hashes of random inputs. It stays off the
pool so each measurement is a single uncontended call.
*/
func (h *Harness) Benchmark(
	ctx context.Context, samples, inputLen int, mode Mode, diffusion bool,
) (*TimingReport, error) {
	if samples < 1 {
		return nil, errors.Errorf("benchmark needs at least one sample, got %d", samples)
	}

	report := &TimingReport{
		RunID:    uuid.NewString(),
		Samples:  samples,
		InputLen: inputLen,
	}

	times := make([]float64, 0, samples)
	rng := rand.New(rand.NewPCG(h.seed, 0))

	for i := 0; i < samples; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		input := h.randomInput(inputLen)
		start := time.Now()

		if _, err := h.hasher.Hash(input, mode, diffusion, WithRand(rng)); err != nil {
			return nil, err
		}

		elapsed := time.Since(start)
		report.Total += elapsed
		times = append(times, elapsed.Seconds())
	}

	mean, std := stat.MeanStdDev(times, nil)
	if samples < 2 {
		std = 0
	}
	sort.Float64s(times)

	report.Mean = seconds(mean)
	report.StdDev = seconds(std)
	report.P95 = seconds(stat.Quantile(0.95, stat.Empirical, times, nil))
	report.P99 = seconds(stat.Quantile(0.99, stat.Empirical, times, nil))

	errnie.Info("Benchmark %s - %d hashes, mean %v", report.RunID, samples, report.Mean)

	return report, nil
}

type UniformityReport struct {
	RunID    string
	Samples  int
	InputLen int
	Counts   map[string]int
	Distinct int
	// Entropy of the observed output frequencies in bits.
	Entropy float64
}

/*
Uniformity hashes samples random inputs in sampling mode and counts how
often each measured outcome appears.
*/
func (h *Harness) Uniformity(ctx context.Context, samples, inputLen int, diffusion bool) (*UniformityReport, error) {
	if samples < 1 {
		return nil, errors.Errorf("uniformity needs at least one sample, got %d", samples)
	}

	report := &UniformityReport{
		RunID:    uuid.NewString(),
		Samples:  samples,
		InputLen: inputLen,
		Counts:   make(map[string]int),
	}

	inputs := make([][]byte, samples)
	for i := range inputs {
		inputs[i] = h.randomInput(inputLen)
	}

	results, err := h.hashAll(ctx, report.RunID, inputs, ModeSampling, diffusion)
	if err != nil {
		return nil, err
	}

	for _, result := range results {
		report.Counts[result.Bits[:result.SignificantBits()]]++
	}
	report.Distinct = len(report.Counts)

	freqs := make([]float64, 0, len(report.Counts))
	for _, count := range report.Counts {
		freqs = append(freqs, float64(count)/float64(len(results)))
	}
	report.Entropy = stat.Entropy(freqs) / math.Ln2

	return report, nil
}

func (h *Harness) randomInput(length int) []byte {
	out := make([]byte, length+7)
	for i := 0; i < length; i += 8 {
		binary.LittleEndian.PutUint64(out[i:], h.rng.Uint64())
	}
	return out[:length]
}

// hashAll gives every job its own seed-derived source so sampling stays reproducible.
func (h *Harness) hashAll(
	ctx context.Context, runID string, inputs [][]byte, mode Mode, diffusion bool,
) ([]*Result, error) {
	return h.hashAllSeeded(ctx, runID, inputs, mode, diffusion, func(i int) uint64 {
		return h.seed + uint64(i)
	})
}

/*
hashAllSeeded schedules inputs on the pool one queue-length window at a
time, so Schedule never waits on a full queue, and returns the results in
input order.
*/
func (h *Harness) hashAllSeeded(
	ctx context.Context, runID string, inputs [][]byte, mode Mode, diffusion bool, seedFor func(int) uint64,
) ([]*Result, error) {
	results := make([]*Result, len(inputs))
	window := max(cap(h.pool.jobs), 1)

	for start := 0; start < len(inputs); start += window {
		end := min(start+window, len(inputs))
		pending := make([]chan Outcome, 0, end-start)

		for i := start; i < end; i++ {
			input := inputs[i]
			rng := rand.New(rand.NewPCG(seedFor(i), uint64(len(input))))

			pending = append(pending, h.pool.Schedule(
				fmt.Sprintf("%s-%d", runID, i),
				func() (any, error) {
					return h.hasher.Hash(input, mode, diffusion, WithRand(rng))
				},
			))
		}

		for offset, ch := range pending {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case outcome := <-ch:
				if outcome.Error != nil {
					return nil, errors.Wrapf(outcome.Error, "hash %d", start+offset)
				}
				results[start+offset] = outcome.Value.(*Result)
			}
		}
	}

	return results, nil
}
