package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/heatsim/internal/device"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/kernels"
	"github.com/san-kum/heatsim/internal/stencil"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOrder   = 2
	DefaultNX      = 256
	DefaultNY      = 256
	DefaultCFL     = 0.1
	DefaultIters   = 100
	DefaultVariant = "naive"
	DefaultSigma   = 8.0
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Order         int            `yaml:"order"`
	NX            int            `yaml:"nx"`
	NY            int            `yaml:"ny"`
	XCFL          float64        `yaml:"xcfl"`
	YCFL          float64        `yaml:"ycfl"`
	Iters         int            `yaml:"iters"`
	Variant       string         `yaml:"variant"`
	Block         BlockConfig    `yaml:"block"`
	RowsPerThread int            `yaml:"rows_per_thread"`
	Workers       int            `yaml:"workers"`
	Boundary      BoundaryConfig `yaml:"boundary"`
	Init          InitConfig     `yaml:"init"`
}

type BlockConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// BoundaryConfig selects the halo rule. Per-edge values override Value for the
// dirichlet kind.
type BoundaryConfig struct {
	Kind   string   `yaml:"kind"`
	Value  float64  `yaml:"value"`
	Top    *float64 `yaml:"top,omitempty"`
	Bottom *float64 `yaml:"bottom,omitempty"`
	Left   *float64 `yaml:"left,omitempty"`
	Right  *float64 `yaml:"right,omitempty"`
}

// InitConfig describes the initial field. X and Y are interior cell
// coordinates; a negative coordinate means the centre of that axis.
type InitConfig struct {
	Kind      string  `yaml:"kind"`
	Value     float64 `yaml:"value"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Amplitude float64 `yaml:"amplitude"`
	Sigma     float64 `yaml:"sigma"`
	Seed      int64   `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Order:         DefaultOrder,
		NX:            DefaultNX,
		NY:            DefaultNY,
		XCFL:          DefaultCFL,
		YCFL:          DefaultCFL,
		Iters:         DefaultIters,
		Variant:       DefaultVariant,
		Block:         BlockConfig{X: kernels.DefaultBlock.X, Y: kernels.DefaultBlock.Y},
		RowsPerThread: kernels.DefaultRowsPerThread,
		Boundary:      BoundaryConfig{Kind: "dirichlet"},
		Init: InitConfig{
			Kind:      "gaussian",
			X:         -1,
			Y:         -1,
			Amplitude: 1,
			Sigma:     DefaultSigma,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be used as a base without being
// modified.
func (c *Config) Clone() *Config {
	out := *c
	b := c.Boundary
	for _, p := range []**float64{&b.Top, &b.Bottom, &b.Left, &b.Right} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	out.Boundary = b
	return &out
}

// Validate checks the structural fields. It does not check stability; see
// CheckStability.
func (c *Config) Validate() error {
	var errs []error
	if !stencil.Order(c.Order).Valid() {
		errs = append(errs, fmt.Errorf("order %d not in {2, 4, 8}", c.Order))
	}
	if c.NX <= 0 || c.NY <= 0 {
		errs = append(errs, fmt.Errorf("extents %dx%d must be positive", c.NX, c.NY))
	}
	if c.Iters < 0 {
		errs = append(errs, fmt.Errorf("iters %d must be non-negative", c.Iters))
	}
	if _, err := kernels.ParseVariant(c.Variant); err != nil {
		errs = append(errs, err)
	}
	if c.Block.X < 0 || c.Block.Y < 0 || c.RowsPerThread < 0 || c.Workers < 0 {
		errs = append(errs, fmt.Errorf("block, rows_per_thread and workers must be non-negative"))
	}
	if c.Init.Kind == "gaussian" && !(c.Init.Sigma > 0) {
		errs = append(errs, fmt.Errorf("gaussian sigma %g must be positive", c.Init.Sigma))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func (c *Config) Params() grid.Params {
	return grid.NewParams(stencil.Order(c.Order), c.NX, c.NY, c.XCFL, c.YCFL, c.Iters)
}

func (c *Config) KernelOptions() kernels.Options {
	return kernels.Options{
		Block:         device.Dim2{X: c.Block.X, Y: c.Block.Y},
		RowsPerThread: c.RowsPerThread,
	}
}

func (c *Config) Device() *device.Device {
	return device.New(c.Workers)
}

func (c *Config) ParsedVariant() (kernels.Variant, error) {
	return kernels.ParseVariant(c.Variant)
}

// Courant folds the physical parameters into a per-axis Courant number for the
// given order: alpha*dt/dx^2 divided by the order's normalization.
func Courant(order stencil.Order, alpha, dt, dx float64) float64 {
	return alpha * dt / (dx * dx) / order.Normalization()
}

// StabilityLimit is the largest xcfl+ycfl for which the explicit scheme of the
// given order does not amplify the highest-frequency mode. It is derived from
// the magnitude of the weight symbol at the Nyquist frequency.
func StabilityLimit(order stencil.Order) float64 {
	w := order.Weights()
	if w == nil {
		return math.NaN()
	}
	r := len(w) / 2
	nyquist := 0.0
	for i, v := range w {
		if (i-r)%2 == 0 {
			nyquist += v
		} else {
			nyquist -= v
		}
	}
	return 2 / math.Abs(nyquist)
}

// CheckStability reports whether the configured Courant numbers are within the
// advisory limit.
func (c *Config) CheckStability() (sum, limit float64, ok bool) {
	sum = c.XCFL + c.YCFL
	limit = StabilityLimit(stencil.Order(c.Order))
	return sum, limit, sum <= limit
}

func (c *Config) String() string {
	return fmt.Sprintf("%s order=%d %dx%d cfl=(%g,%g) iters=%d boundary=%s init=%s",
		strings.ToLower(c.Variant), c.Order, c.NX, c.NY, c.XCFL, c.YCFL, c.Iters, c.Boundary.Kind, c.Init.Kind)
}
