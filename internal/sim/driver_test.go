package sim_test

import (
	"context"
	"errors"
	"time"

	"github.com/san-kum/heatsim/internal/boundary"
	"github.com/san-kum/heatsim/internal/device"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/kernels"
	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/sim"
	"github.com/san-kum/heatsim/internal/stencil"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Driver", func() {
	var (
		dev *device.Device
		p   grid.Params
		g   *grid.Grid
	)

	BeforeEach(func() {
		dev = device.New(2)
		p = grid.NewParams(stencil.Order2, 24, 16, 0.1, 0.1, 20)
		var err error
		g, err = grid.New(p, grid.Gaussian(12, 8, 3, 1)(p))
		Expect(err).NotTo(HaveOccurred())
	})

	newDriver := func(v kernels.Variant, bc boundary.Condition) *sim.Driver {
		k, err := kernels.New(v, kernels.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		return sim.New(dev, k, bc)
	}

	It("starts idle and finishes done", func() {
		d := newDriver(kernels.Naive, boundary.Fixed(0))
		Expect(d.State()).To(Equal(sim.Idle))

		var during sim.State
		d.AddObserver(sim.ObserverFunc(func(int, *grid.Grid, time.Duration) { during = d.State() }))

		_, err := d.Run(context.Background(), g)
		Expect(err).NotTo(HaveOccurred())
		Expect(during).To(Equal(sim.Running))
		Expect(d.State()).To(Equal(sim.Done))
	})

	It("notifies observers once per iteration in order", func() {
		d := newDriver(kernels.RowBlocked, boundary.Fixed(0))
		var seen []int
		d.AddObserver(sim.ObserverFunc(func(iter int, _ *grid.Grid, _ time.Duration) { seen = append(seen, iter) }))

		res, err := d.Run(context.Background(), g)
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(HaveLen(p.Iters))
		for i, it := range seen {
			Expect(it).To(Equal(i))
		}
		Expect(res.StepTimes).To(HaveLen(p.Iters))
		Expect(res.StepsPerSecond()).To(BeNumerically(">", 0))
	})

	It("conserves heat with periodic boundaries", func() {
		d := newDriver(kernels.Tiled, boundary.Periodic{})
		drift := metrics.NewHeatDrift()
		d.AddMetric(drift)

		res, err := d.Run(context.Background(), g)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics[drift.Name()]).To(BeNumerically("<", 1e-12))
	})

	It("loses heat through cold Dirichlet walls", func() {
		d := newDriver(kernels.Naive, boundary.Fixed(0))
		heat := metrics.NewHeatContent()
		d.AddMetric(heat)

		var initial float64
		for _, row := range g.Interior() {
			for _, v := range row {
				initial += v
			}
		}

		res, err := d.Run(context.Background(), g)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics[heat.Name()]).To(BeNumerically("<", initial))
	})

	It("reports the failing iteration", func() {
		bad := grid.NewParams(stencil.Order(6), 8, 8, 0.1, 0.1, 3)
		bg, err := grid.New(bad, grid.Constant(0)(bad))
		Expect(err).NotTo(HaveOccurred())

		d := newDriver(kernels.Tiled, boundary.Fixed(0))
		res, err := d.Run(context.Background(), bg)
		Expect(res).To(BeNil())
		Expect(err).To(MatchError(stencil.ErrUnsupportedOrder))

		var se *sim.StepError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.Iteration).To(Equal(0))
	})

	It("matches across variants", func() {
		cmp, err := sim.Compare(context.Background(), dev, g, boundary.Neumann{}, kernels.Variants, kernels.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		Expect(cmp.MaxDiff).To(HaveLen(len(kernels.Variants)))
		Expect(cmp.Agree(0)).To(BeTrue())
		for _, r := range cmp.Results {
			Expect(r.Iterations).To(Equal(p.Iters))
		}
	})
})
