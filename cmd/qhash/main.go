package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/theapemachine/qhash"
)

// VERSION is populated via build flags when packaging release binaries.
var VERSION = "SELFBUILD"

func main() {
	myApp := cli.NewApp()
	myApp.Name = "qhash"
	myApp.Usage = "simulated quantum-circuit hash and its test harnesses"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "config file (yaml, json or toml), QHASH_* env vars apply on top",
			EnvVar: "QHASH_CONFIG",
		},
		cli.IntFlag{
			Name:  "cap",
			Value: qhash.DefaultCap,
			Usage: "maximum number of qubits",
		},
		cli.StringFlag{
			Name:  "entangler",
			Value: string(qhash.EntanglerCRZ),
			Usage: "phase layer gate family: crz, cz, cry",
		},
		cli.StringFlag{
			Name:  "layout",
			Value: string(qhash.LayoutBytes),
			Usage: "input layout: bytes (one qubit per byte), blocks (one qubit per bit block)",
		},
		cli.IntFlag{
			Name:  "block-bits",
			Value: qhash.DefaultBlockBits,
			Usage: "bits per qubit for the blocks layout",
		},
		cli.StringFlag{
			Name:  "mode, m",
			Value: "expectation",
			Usage: "output mode: expectation, sampling",
		},
		cli.BoolFlag{
			Name:  "diffusion, d",
			Usage: "append the QFT diffusion layer",
		},
		cli.Uint64Flag{
			Name:  "seed",
			Usage: "seed for sampling and random inputs, 0 seeds from the clock",
		},
		cli.IntFlag{
			Name:  "workers",
			Value: 4,
			Usage: "harness worker count",
		},
	}
	myApp.Commands = []cli.Command{
		{
			Name:      "hash",
			Usage:     "hash a string, or hex bytes with --hex",
			ArgsUsage: "<input>",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "hex", Usage: "treat the input as hex"},
			},
			Action: hashAction,
		},
		{
			Name:  "collide",
			Usage: "sweep input lengths and report colliding outputs",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "lengths", Value: "1,2,4,8,16,32,64", Usage: "comma separated input lengths"},
				cli.IntFlag{Name: "repeats", Value: 32, Usage: "random inputs per length"},
			},
			Action: collideAction,
		},
		{
			Name:      "avalanche",
			Usage:     "flip every input bit and measure output Hamming distance",
			ArgsUsage: "<input>",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "hex", Usage: "treat the input as hex"},
			},
			Action: avalancheAction,
		},
		{
			Name:  "bench",
			Usage: "time repeated hashes of random inputs",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "samples", Value: 50, Usage: "number of hashes"},
				cli.IntFlag{Name: "len", Value: 8, Usage: "input length in bytes"},
			},
			Action: benchAction,
		},
		{
			Name:  "uniform",
			Usage: "count sampled outputs over random inputs",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "samples", Value: 200, Usage: "number of hashes"},
				cli.IntFlag{Name: "len", Value: 8, Usage: "input length in bytes"},
			},
			Action: uniformAction,
		},
	}

	if err := myApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type session struct {
	config    *qhash.Config
	hasher    *qhash.Hasher
	mode      qhash.Mode
	diffusion bool
}

func setup(c *cli.Context) (*session, error) {
	config, err := qhash.LoadConfig(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}

	if c.GlobalIsSet("cap") {
		config.Cap = c.GlobalInt("cap")
		config.OutputBytes = max(config.OutputBytes, config.Cap)
	}
	if c.GlobalIsSet("entangler") {
		config.Entangler = qhash.Entangler(c.GlobalString("entangler"))
	}
	if c.GlobalIsSet("layout") {
		config.Layout = qhash.Layout(c.GlobalString("layout"))
	}
	if c.GlobalIsSet("block-bits") {
		config.BlockBits = c.GlobalInt("block-bits")
	}
	if c.GlobalIsSet("diffusion") {
		config.Diffusion = c.GlobalBool("diffusion")
	}
	if c.GlobalIsSet("seed") {
		config.Seed = c.GlobalUint64("seed")
	}
	if c.GlobalIsSet("workers") {
		config.Workers = c.GlobalInt("workers")
	}

	mode, err := qhash.ParseMode(c.GlobalString("mode"))
	if err != nil {
		return nil, err
	}

	hasher, err := qhash.NewHasher(config)
	if err != nil {
		return nil, err
	}

	return &session{
		config:    config,
		hasher:    hasher,
		mode:      mode,
		diffusion: config.Diffusion,
	}, nil
}

func (rt *session) harness(ctx context.Context) (*qhash.Harness, *qhash.Q) {
	pool := qhash.NewQ(ctx, rt.config)
	return qhash.NewHarness(rt.hasher, pool), pool
}

func input(c *cli.Context) ([]byte, error) {
	arg := c.Args().First()
	if arg == "" {
		return nil, errors.New("missing <input> argument")
	}

	if !c.Bool("hex") {
		return []byte(arg), nil
	}

	data, err := hex.DecodeString(arg)
	if err != nil {
		return nil, errors.Wrap(err, "hex.DecodeString()")
	}
	return data, nil
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func hashAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}

	data, err := input(c)
	if err != nil {
		return err
	}

	result, err := rt.hasher.Hash(data, rt.mode, rt.diffusion)
	if err != nil {
		return err
	}

	table := newTable(os.Stdout, "field", "value")
	table.Append([]string{"mode", result.Mode.String()})
	table.Append([]string{"qubits", strconv.Itoa(result.Qubits)})
	table.Append([]string{"output", result.Hex()})
	if result.Mode == qhash.ModeSampling {
		table.Append([]string{"outcome", result.Bits[:result.SignificantBits()]})
	}
	table.Append([]string{"entropy", fmt.Sprintf("%.6f", result.Entropy)})
	table.Render()

	return nil
}

func collideAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}

	lengths, err := parseLengths(c.String("lengths"))
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	harness, pool := rt.harness(ctx)
	defer pool.Close()

	report, err := harness.Collisions(ctx, lengths, c.Int("repeats"), rt.mode, rt.diffusion)
	if err != nil {
		return err
	}

	table := newTable(os.Stdout, "length", "hashes", "unique", "collisions")
	for _, stats := range report.Lengths {
		table.Append([]string{
			strconv.Itoa(stats.Length),
			strconv.Itoa(stats.Hashes),
			strconv.Itoa(stats.Unique),
			strconv.Itoa(stats.Collisions),
		})
	}
	table.Render()

	fmt.Printf("run %s: %d colliding outputs across the sweep\n", report.RunID, len(report.Collisions))
	return nil
}

func avalancheAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}

	data, err := input(c)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	harness, pool := rt.harness(ctx)
	defer pool.Close()

	report, err := harness.Avalanche(ctx, data, rt.mode, rt.diffusion)
	if err != nil {
		return err
	}

	table := newTable(os.Stdout, "bit", "distance")
	for i, d := range report.Distances {
		table.Append([]string{strconv.Itoa(i), strconv.Itoa(d)})
	}
	table.SetFooter([]string{"mean", fmt.Sprintf("%.2f / %d (%.1f%%)", report.Mean, report.Bits, report.MeanRatio*100)})
	table.Render()

	return nil
}

func benchAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	harness, pool := rt.harness(ctx)
	defer pool.Close()

	report, err := harness.Benchmark(ctx, c.Int("samples"), c.Int("len"), rt.mode, rt.diffusion)
	if err != nil {
		return err
	}

	table := newTable(os.Stdout, "samples", "input", "mean", "stddev", "p95", "p99")
	table.Append([]string{
		strconv.Itoa(report.Samples),
		strconv.Itoa(report.InputLen),
		report.Mean.String(),
		report.StdDev.String(),
		report.P95.String(),
		report.P99.String(),
	})
	table.Render()

	return nil
}

func uniformAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	harness, pool := rt.harness(ctx)
	defer pool.Close()

	report, err := harness.Uniformity(ctx, c.Int("samples"), c.Int("len"), rt.diffusion)
	if err != nil {
		return err
	}

	outcomes := make([]string, 0, len(report.Counts))
	for outcome := range report.Counts {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)

	table := newTable(os.Stdout, "outcome", "count")
	for _, outcome := range outcomes {
		table.Append([]string{outcome, strconv.Itoa(report.Counts[outcome])})
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d distinct", report.Distinct),
		fmt.Sprintf("%.3f bits", report.Entropy),
	})
	table.Render()

	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

func parseLengths(s string) ([]int, error) {
	var lengths []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, errors.Wrapf(err, "length %q", field)
		}
		lengths = append(lengths, n)
	}

	if len(lengths) == 0 {
		return nil, errors.Errorf("no lengths in %q", s)
	}
	return lengths, nil
}
