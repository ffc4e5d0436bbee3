package device

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestNewDefaultWorkers(t *testing.T) {
	d := New(0)
	if d.Workers() != runtime.GOMAXPROCS(0) {
		t.Errorf("Workers() = %d, want %d", d.Workers(), runtime.GOMAXPROCS(0))
	}
	if d.MaxSharedWords() != DefaultMaxSharedWords {
		t.Errorf("MaxSharedWords() = %d, want %d", d.MaxSharedWords(), DefaultMaxSharedWords)
	}
}

func TestLaunchCoversEveryThread(t *testing.T) {
	d := New(4)
	cfg := LaunchConfig{Grid: Dim2{X: 5, Y: 3}, Block: Dim2{X: 8, Y: 4}}
	w, h := cfg.Grid.X*cfg.Block.X, cfg.Grid.Y*cfg.Block.Y
	hits := make([]int32, w*h)

	err := d.Launch(context.Background(), cfg, func(th Thread, _ []float64) {
		atomic.AddInt32(&hits[th.GlobalY()*w+th.GlobalX()], 1)
	})
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}

	for i, n := range hits {
		if n != 1 {
			t.Fatalf("thread %d ran %d times, want 1", i, n)
		}
	}
	if d.Launches() != 1 {
		t.Errorf("Launches() = %d, want 1", d.Launches())
	}
}

func TestPhasesActAsBarrier(t *testing.T) {
	d := New(2)
	cfg := LaunchConfig{Grid: Dim2{X: 2, Y: 2}, Block: Dim2{X: 4, Y: 4}, Shared: 16}
	out := make([]float64, cfg.Grid.Size()*cfg.Block.Size())

	load := func(th Thread, shared []float64) {
		shared[th.ThreadIdx.Y*4+th.ThreadIdx.X] = float64(th.ThreadIdx.X + 1)
	}
	// each thread reads the slot written by the last thread of its row
	compute := func(th Thread, shared []float64) {
		block := th.BlockIdx.Y*th.GridDim.X + th.BlockIdx.X
		out[block*16+th.ThreadIdx.Y*4+th.ThreadIdx.X] = shared[th.ThreadIdx.Y*4+3]
	}

	if err := d.Launch(context.Background(), cfg, load, compute); err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	for i, v := range out {
		if v != 4 {
			t.Fatalf("out[%d] = %v, want 4", i, v)
		}
	}
}

func TestInvalidLaunch(t *testing.T) {
	d := New(1, WithMaxThreadsPerBlock(64), WithMaxSharedWords(100))
	noop := func(Thread, []float64) {}

	tests := []struct {
		name   string
		cfg    LaunchConfig
		phases []Phase
	}{
		{"no phases", LaunchConfig{Grid: Dim2{1, 1}, Block: Dim2{1, 1}}, nil},
		{"zero grid", LaunchConfig{Grid: Dim2{0, 1}, Block: Dim2{1, 1}}, []Phase{noop}},
		{"zero block", LaunchConfig{Grid: Dim2{1, 1}, Block: Dim2{1, 0}}, []Phase{noop}},
		{"block too large", LaunchConfig{Grid: Dim2{1, 1}, Block: Dim2{16, 8}}, []Phase{noop}},
		{"shared too large", LaunchConfig{Grid: Dim2{1, 1}, Block: Dim2{1, 1}, Shared: 101}, []Phase{noop}},
		{"negative shared", LaunchConfig{Grid: Dim2{1, 1}, Block: Dim2{1, 1}, Shared: -1}, []Phase{noop}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Launch(context.Background(), tt.cfg, tt.phases...)
			if !errors.Is(err, ErrInvalidLaunch) {
				t.Errorf("expected ErrInvalidLaunch, got %v", err)
			}
		})
	}
	if d.Launches() != 0 {
		t.Errorf("rejected launches counted: %d", d.Launches())
	}
}

func TestFaultIsRecovered(t *testing.T) {
	d := New(4)
	cfg := LaunchConfig{Grid: Dim2{X: 4, Y: 4}, Block: Dim2{X: 2, Y: 2}}
	buf := make([]float64, 4)

	err := d.Launch(context.Background(), cfg, func(th Thread, _ []float64) {
		buf[th.GlobalX()] = 1
	})
	if !errors.Is(err, ErrFault) {
		t.Fatalf("expected ErrFault, got %v", err)
	}
	var fe *FaultError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FaultError, got %T", err)
	}
	if fe.Block.X < 2 {
		t.Errorf("fault attributed to in-bounds block %v", fe.Block)
	}
}

func TestLaunchCanceled(t *testing.T) {
	d := New(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := LaunchConfig{Grid: Dim2{X: 8, Y: 8}, Block: Dim2{X: 1, Y: 1}}
	err := d.Launch(ctx, cfg, func(Thread, []float64) {})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestScratchPoolZeroes(t *testing.T) {
	p := NewScratchPool(8)
	s := p.Get(8)
	for i := range s {
		s[i] = float64(i + 1)
	}
	p.Put(s)

	s = p.Get(4)
	if len(s) != 4 {
		t.Fatalf("Get(4) returned %d words", len(s))
	}
	for i, v := range s[:cap(s)] {
		if v != 0 {
			t.Fatalf("recycled buffer not zeroed at %d: %v", i, v)
		}
	}
}
