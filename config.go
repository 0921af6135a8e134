package qhash

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Entangler names the controlled gate family used by the phase layer.
type Entangler string

const (
	EntanglerCRZ Entangler = "crz"
	EntanglerCZ  Entangler = "cz"
	EntanglerCRY Entangler = "cry"
)

// Layout selects how input bits become qubit angles and which layers follow.
type Layout string

const (
	// LayoutBytes gives each selected byte a qubit and runs the mesh circuit.
	LayoutBytes Layout = "bytes"
	// LayoutBlocks gives each BlockBits-wide bit block a qubit and runs the
	// distance-two circuit closed by an RZ phase layer.
	LayoutBlocks Layout = "blocks"
)

const (
	DefaultCap         = 20
	DefaultOutputBytes = 32
	DefaultBlockBits   = 2
)

type Config struct {
	// Cap is the largest qubit count a circuit may use.
	Cap int `mapstructure:"cap"`
	// OutputBytes is the fixed width every result is padded to.
	OutputBytes int       `mapstructure:"output_bytes"`
	Entangler   Entangler `mapstructure:"entangler"`
	Layout      Layout    `mapstructure:"layout"`
	BlockBits   int       `mapstructure:"block_bits"`
	// Diffusion appends the ApproxQFT layer when a call does not say otherwise.
	Diffusion bool `mapstructure:"diffusion"`
	QFTDegree int  `mapstructure:"qft_degree"`
	Strict    bool `mapstructure:"strict"`
	Debug     bool `mapstructure:"debug"`

	Workers           int           `mapstructure:"workers"`
	Seed              uint64        `mapstructure:"seed"`
	SchedulingTimeout time.Duration `mapstructure:"scheduling_timeout"`
}

func NewConfig() *Config {
	return &Config{
		Cap:               DefaultCap,
		OutputBytes:       DefaultOutputBytes,
		Entangler:         EntanglerCRZ,
		Layout:            LayoutBytes,
		BlockBits:         DefaultBlockBits,
		Workers:           4,
		SchedulingTimeout: 10 * time.Second,
	}
}

/*
LoadConfig reads configuration from an optional file and from QHASH_*
environment variables, on top of the NewConfig defaults. An empty path only
consults the environment.
*/
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	defaults := NewConfig()

	v.SetDefault("cap", defaults.Cap)
	v.SetDefault("output_bytes", defaults.OutputBytes)
	v.SetDefault("entangler", string(defaults.Entangler))
	v.SetDefault("layout", string(defaults.Layout))
	v.SetDefault("block_bits", defaults.BlockBits)
	v.SetDefault("diffusion", defaults.Diffusion)
	v.SetDefault("qft_degree", defaults.QFTDegree)
	v.SetDefault("strict", defaults.Strict)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("seed", defaults.Seed)
	v.SetDefault("scheduling_timeout", defaults.SchedulingTimeout)

	v.SetEnvPrefix("qhash")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "ReadInConfig()")
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "Unmarshal()")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the config can produce a well-defined circuit.
func (c *Config) Validate() error {
	switch {
	case c.Cap < 2 || c.Cap > maxQubits:
		return errors.Wrapf(ErrInvalidConfig, "cap %d outside [2, %d]", c.Cap, maxQubits)
	case c.OutputBytes < c.Cap:
		// expectation mode emits one byte per qubit
		return errors.Wrapf(ErrInvalidConfig, "output of %d bytes cannot hold %d qubits", c.OutputBytes, c.Cap)
	case c.BlockBits < 1 || c.BlockBits > 8:
		return errors.Wrapf(ErrInvalidConfig, "block of %d bits outside [1, 8]", c.BlockBits)
	case c.QFTDegree < 0:
		return errors.Wrapf(ErrInvalidConfig, "qft degree %d is negative", c.QFTDegree)
	case c.Workers < 1:
		return errors.Wrapf(ErrInvalidConfig, "need at least one worker, got %d", c.Workers)
	}

	switch c.Entangler {
	case EntanglerCRZ, EntanglerCZ, EntanglerCRY:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown entangler %q", c.Entangler)
	}

	switch c.Layout {
	case LayoutBytes, LayoutBlocks:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown layout %q", c.Layout)
	}

	return nil
}
