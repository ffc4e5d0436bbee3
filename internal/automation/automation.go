package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/experiment"
	"github.com/san-kum/heatsim/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset ("group/name") or the defaults and applies
// the fields given under config on top.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
}

type StepResult struct {
	Name   string
	Config *config.Config
	Result *sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Resolve builds the effective configuration of the step.
func (s *ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		group, name, ok := strings.Cut(s.Preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset %q: want group/name", s.Preset)
		}
		cfg = config.GetPreset(group, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	}
	if !s.Config.IsZero() {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure. The
// results of the steps completed so far are returned with the error.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i := range scenario.Steps {
		step := &scenario.Steps[i]
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		slog.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(registry, registry.DefaultMetrics()); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: name, Config: cfg, Result: result})
	}

	return results, nil
}

// VariantSweep runs every variant at every order from the same base
// configuration.
type VariantSweep struct {
	Base     *config.Config
	Orders   []int
	Variants []string
}

type VariantResult struct {
	Order   int
	Variant string
	Result  *sim.Result
	// MaxDiff is the largest interior difference from the first variant of
	// the same order.
	MaxDiff float64
}

// RunVariantSweep executes the runs one after another so their timings do not
// contend for workers.
func RunVariantSweep(ctx context.Context, sweep *VariantSweep, registry *experiment.Registry) ([]VariantResult, error) {
	results := make([]VariantResult, 0, len(sweep.Orders)*len(sweep.Variants))

	for _, order := range sweep.Orders {
		var ref []float64
		for _, variant := range sweep.Variants {
			cfg := sweep.Base.Clone()
			cfg.Order = order
			cfg.Variant = variant

			exp := experiment.New(cfg)
			if err := exp.Setup(registry, nil); err != nil {
				return nil, fmt.Errorf("order %d %s: %w", order, variant, err)
			}
			result, err := exp.Run(ctx)
			if err != nil {
				return nil, fmt.Errorf("order %d %s: %w", order, variant, err)
			}

			field := exp.Grid().Current()
			if ref == nil {
				ref = field
			}
			results = append(results, VariantResult{
				Order:   order,
				Variant: variant,
				Result:  result,
				MaxDiff: maxInteriorDiff(ref, field, cfg),
			})
			slog.Debug("sweep run", "order", order, "variant", variant, "steps_per_second", result.StepsPerSecond())
		}
	}

	return results, nil
}

func maxInteriorDiff(a, b []float64, cfg *config.Config) float64 {
	p := cfg.Params()
	diff := 0.0
	for row := 0; row < p.NY; row++ {
		for col := 0; col < p.NX; col++ {
			idx := p.Index(col, row)
			d := math.Abs(a[idx] - b[idx])
			if math.IsNaN(d) {
				return math.Inf(1)
			}
			diff = math.Max(diff, d)
		}
	}
	return diff
}

// ParameterSweep runs the base configuration across evenly spaced values of one
// Courant parameter: "xcfl", "ycfl" or "cfl" (both axes).
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue float64
	Stability  float64
	Peak       float64
	Stable     bool
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		switch sweep.ParamName {
		case "xcfl":
			cfg.XCFL = paramVal
		case "ycfl":
			cfg.YCFL = paramVal
		case "cfl":
			cfg.XCFL, cfg.YCFL = paramVal, paramVal
		default:
			return nil, fmt.Errorf("unknown sweep parameter %q", sweep.ParamName)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(registry, registry.DefaultMetrics()); err != nil {
			return nil, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		stability := result.Metrics["stability"]
		results = append(results, SweepResult{
			ParamValue: paramVal,
			Stability:  stability,
			Peak:       result.Metrics["peak"],
			Stable:     stability == 1,
		})
		slog.Debug("sweep step", "param", sweep.ParamName, "value", paramVal, "stability", stability)
	}

	return results, nil
}

// SweepStats counts stable and unstable sweep points.
func SweepStats(results []SweepResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
