package qhash

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestConfigValidate(t *testing.T) {
	Convey("Given the default config", t, func() {
		config := NewConfig()
		So(config.Validate(), ShouldBeNil)
		So(config.Cap, ShouldEqual, DefaultCap)
		So(config.OutputBytes, ShouldEqual, DefaultOutputBytes)
		So(config.Entangler, ShouldEqual, EntanglerCRZ)
		So(config.Layout, ShouldEqual, LayoutBytes)
		So(config.BlockBits, ShouldEqual, DefaultBlockBits)

		Convey("Broken fields should be rejected", func() {
			for _, mutate := range []func(*Config){
				func(c *Config) { c.Cap = 1 },
				func(c *Config) { c.Cap = maxQubits + 1 },
				func(c *Config) { c.OutputBytes = c.Cap - 1 },
				func(c *Config) { c.QFTDegree = -1 },
				func(c *Config) { c.Workers = 0 },
				func(c *Config) { c.Entangler = "iswap" },
				func(c *Config) { c.Layout = "spiral" },
				func(c *Config) { c.BlockBits = 0 },
				func(c *Config) { c.BlockBits = 9 },
			} {
				broken := NewConfig()
				mutate(broken)
				So(errors.Is(broken.Validate(), ErrInvalidConfig), ShouldBeTrue)
			}
		})
	})
}

func TestLoadConfig(t *testing.T) {
	Convey("Given a config file", t, func() {
		path := filepath.Join(t.TempDir(), "qhash.yml")
		err := os.WriteFile(path, []byte(
			"cap: 12\nentangler: cz\nlayout: blocks\nblock_bits: 3\ndiffusion: true\nqft_degree: 2\nseed: 99\nscheduling_timeout: 3s\n",
		), 0o600)
		So(err, ShouldBeNil)

		Convey("Its values should override the defaults", func() {
			config, err := LoadConfig(path)
			So(err, ShouldBeNil)
			So(config.Cap, ShouldEqual, 12)
			So(config.Entangler, ShouldEqual, EntanglerCZ)
			So(config.Layout, ShouldEqual, LayoutBlocks)
			So(config.BlockBits, ShouldEqual, 3)
			So(config.Diffusion, ShouldBeTrue)
			So(config.QFTDegree, ShouldEqual, 2)
			So(config.Seed, ShouldEqual, uint64(99))
			So(config.SchedulingTimeout, ShouldEqual, 3*time.Second)
			So(config.OutputBytes, ShouldEqual, DefaultOutputBytes)
			So(config.Workers, ShouldEqual, 4)
		})
	})

	Convey("Given a file that does not exist", t, func() {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
		So(err, ShouldNotBeNil)
	})

	Convey("Given an invalid file", t, func() {
		path := filepath.Join(t.TempDir(), "qhash.yml")
		So(os.WriteFile(path, []byte("cap: 64\n"), 0o600), ShouldBeNil)

		_, err := LoadConfig(path)
		So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
	})
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("QHASH_CAP", "8")
	t.Setenv("QHASH_STRICT", "true")

	Convey("Given QHASH_ variables and no file", t, func() {
		config, err := LoadConfig("")
		So(err, ShouldBeNil)
		So(config.Cap, ShouldEqual, 8)
		So(config.Strict, ShouldBeTrue)
	})
}
