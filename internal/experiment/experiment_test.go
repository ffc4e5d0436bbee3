package experiment

import (
	"context"
	"testing"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/grid"
)

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()

	for _, name := range r.ListBoundaries() {
		bc, err := r.GetBoundary(config.BoundaryConfig{Kind: name})
		if err != nil || bc.Name() != name {
			t.Errorf("boundary %s: got %v, %v", name, bc, err)
		}
	}
	for _, name := range r.ListFields() {
		if _, err := r.GetField(config.InitConfig{Kind: name, Sigma: 1}, 8, 8); err != nil {
			t.Errorf("field %s: %v", name, err)
		}
	}
	for _, name := range r.ListVariants() {
		if _, err := r.GetKernel(name, config.DefaultConfig().KernelOptions()); err != nil {
			t.Errorf("variant %s: %v", name, err)
		}
	}

	if _, err := r.GetBoundary(config.BoundaryConfig{Kind: "absorbing"}); err == nil {
		t.Error("expected error for unknown boundary")
	}
	if _, err := r.GetField(config.InitConfig{Kind: "sine"}, 8, 8); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestDirichletEdgeOverrides(t *testing.T) {
	top := 5.0
	bc, err := NewRegistry().GetBoundary(config.BoundaryConfig{Kind: "dirichlet", Value: 1, Top: &top})
	if err != nil {
		t.Fatal(err)
	}

	p := grid.NewParams(2, 4, 4, 0, 0, 1)
	buf := make([]float64, p.Len())
	if err := bc.Update(buf, buf, p); err != nil {
		t.Fatal(err)
	}
	if buf[1] != 5 {
		t.Errorf("top halo = %v, want 5", buf[1])
	}
	if buf[p.GX*2] != 1 {
		t.Errorf("left halo = %v, want 1", buf[p.GX*2])
	}
}

func TestImpulseCentred(t *testing.T) {
	f, err := NewRegistry().GetField(config.InitConfig{Kind: "impulse", X: -1, Y: -1}, 9, 7)
	if err != nil {
		t.Fatal(err)
	}
	p := grid.NewParams(2, 9, 7, 0, 0, 1)
	buf := f(p)
	if buf[p.Index(4, 3)] != 1 {
		t.Error("expected unit impulse at the centre cell")
	}
}

func TestExperimentRun(t *testing.T) {
	cfg := config.GetPreset("smoke", "impulse")
	exp := New(cfg)

	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error before setup")
	}

	reg := NewRegistry()
	if err := exp.Setup(reg, reg.DefaultMetrics()); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Iterations != 1 {
		t.Errorf("expected 1 iteration, got %d", result.Iterations)
	}
	if got := exp.Grid().At(33, 32); got != 0.25 {
		t.Errorf("neighbour = %v, want 0.25", got)
	}
	if result.Metrics["heat"] != 1 {
		t.Errorf("heat = %v, want 1", result.Metrics["heat"])
	}
}

func TestExperimentSetupInvalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Order = 3
	if err := New(cfg).Setup(NewRegistry(), nil); err == nil {
		t.Error("expected validation error")
	}

	cfg = config.DefaultConfig()
	cfg.Boundary.Kind = "absorbing"
	if err := New(cfg).Setup(NewRegistry(), nil); err == nil {
		t.Error("expected unknown boundary error")
	}
}
