package bake_test

import (
	"bytes"
	"context"
	"errors"
	"math"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/orbitbake/internal/analysis"
	"github.com/san-kum/orbitbake/internal/bake"
	"github.com/san-kum/orbitbake/internal/config"
	"github.com/san-kum/orbitbake/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func preset(name string) dynamo.Orbit {
	orbit, err := config.GetPreset(name).ToOrbit()
	Expect(err).NotTo(HaveOccurred())
	return orbit
}

var _ = Describe("Baker", func() {
	var (
		logs  *bytes.Buffer
		opts  bake.Options
		baker *bake.Baker
		ctx   context.Context
	)

	BeforeEach(func() {
		logs = &bytes.Buffer{}
		opts = bake.DefaultOptions()
		opts.Simulation = dynamo.SimulationConfig{Frames: 10, Subframes: 20, MicroSteps: 250}
		opts.Logger = log.NewWithOptions(logs, log.Options{Level: log.DebugLevel})
		ctx = context.Background()
	})

	JustBeforeEach(func() {
		var err error
		baker, err = bake.New(opts)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Bake", func() {
		It("compresses the figure-eight", func() {
			res, err := baker.Bake(ctx, preset("figure-eight"))
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Orbit.Name).To(Equal("figure-eight"))
			Expect(res.Orbit.Period).To(Equal(6.325897))
			Expect(res.Orbit.Energy).NotTo(BeNil())
			Expect(*res.Orbit.Energy).To(Equal(-1.287146))
			Expect(res.Orbit.Bodies).To(HaveLen(3))

			Expect(res.Closed).To(HaveLen(200))
			Expect(res.Compressed).To(HaveLen(200))
			Expect(res.Compressed[0]).To(HaveLen(3))

			d := res.Diagnostics
			Expect(d.ClosingErrors).To(HaveLen(3))
			Expect(d.MaxClosingError()).To(BeNumerically("<", 1e-3))
			Expect(d.ReconstructionErrors).To(HaveLen(3))
			Expect(d.MaxReconstructionError()).To(BeNumerically("<", 1e-3))
			for i, s := range d.Components {
				Expect(s.Before).To(Equal(200))
				Expect(s.After).To(Equal(len(res.Orbit.Bodies[i].Components)))
				Expect(s.After).To(BeNumerically("<", s.Before))
			}
		})

		It("keeps the mean position of every body", func() {
			res, err := baker.Bake(ctx, preset("figure-eight"))
			Expect(err).NotTo(HaveOccurred())

			for _, body := range res.Orbit.Bodies {
				dc := 0
				for _, c := range body.Components {
					if c.IsDC() {
						dc++
					}
				}
				Expect(dc).To(Equal(1))
			}
		})

		It("rebuilds the compressed trajectory from the baked frequencies", func() {
			res, err := baker.Bake(ctx, preset("binary"))
			Expect(err).NotTo(HaveOccurred())

			for b, body := range res.Orbit.Bodies {
				path, err := analysis.Reconstruct(len(res.Compressed), body)
				Expect(err).NotTo(HaveOccurred())
				for i := range path {
					Expect(path[i]).To(Equal(res.Compressed[i][b]))
				}
			}
		})

		It("always logs diagnostics on success", func() {
			_, err := baker.Bake(ctx, preset("binary"))
			Expect(err).NotTo(HaveOccurred())

			Expect(logs.String()).To(ContainSubstring("orbit baked"))
			Expect(logs.String()).To(ContainSubstring("closing_error"))
			Expect(logs.String()).To(ContainSubstring("reconstruction_error"))
			Expect(logs.String()).To(ContainSubstring("body baked"))
		})

		It("reduces a body at rest to its mean position", func() {
			res, err := baker.Bake(ctx, preset("single"))
			Expect(err).NotTo(HaveOccurred())

			comps := res.Orbit.Bodies[0].Components
			Expect(comps).To(HaveLen(1))
			Expect(comps[0].IsDC()).To(BeTrue())
			Expect(comps[0].Amplitude).To(BeNumerically("~", math.Hypot(0.5, 0.25), 1e-12))
			Expect(res.Diagnostics.ClosingErrors[0]).To(BeZero())
		})

		It("rejects a drifting single body as unclosed", func() {
			orbit := preset("single")
			orbit.Bodies[0].Velocity = dynamo.Vec2{X: 1}

			_, err := baker.Bake(ctx, orbit)
			Expect(err).To(MatchError(dynamo.ErrUnstable))
			Expect(logs.String()).To(ContainSubstring("orbit does not close"))
		})

		It("rejects orbits whose period does not close", func() {
			orbit := preset("figure-eight")
			orbit.Period *= 0.5

			_, err := baker.Bake(ctx, orbit)
			Expect(err).To(MatchError(dynamo.ErrUnstable))
			var inst *dynamo.InstabilityError
			Expect(errors.As(err, &inst)).To(BeTrue())
			Expect(inst.Value).To(BeNumerically(">", inst.Threshold))
		})

		It("fails fast on an invalid orbit", func() {
			orbit := preset("binary")
			orbit.Bodies[1].Mass = 0

			_, err := baker.Bake(ctx, orbit)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("stops when the context is canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := baker.Bake(canceled, preset("figure-eight"))
			Expect(err).To(MatchError(context.Canceled))
		})

		Context("without keeping DC", func() {
			BeforeEach(func() {
				opts.Policy = analysis.TruncatePolicy{Cutoff: 10, KeepDC: false}
			})

			It("may drop every component", func() {
				res, err := baker.Bake(ctx, preset("single"))
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Orbit.Bodies[0].Components).To(BeEmpty())
				Expect(res.Compressed[0][0]).To(Equal(dynamo.Vec2{}))
				Expect(res.Diagnostics.ReconstructionErrors[0]).To(BeNumerically("~", 0.3125, 1e-12))
			})
		})

		Context("with the leapfrog integrator", func() {
			BeforeEach(func() {
				opts.Stepper = "leapfrog"
			})

			It("closes the figure-eight", func() {
				res, err := baker.Bake(ctx, preset("figure-eight"))
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Diagnostics.MaxClosingError()).To(BeNumerically("<", 1e-3))
			})
		})
	})

	Describe("Batch", func() {
		var broken config.OrbitConfig

		BeforeEach(func() {
			broken = config.OrbitConfig{
				Name:       "broken",
				Period:     1,
				Masses:     []float64{1, 1},
				Positions:  [][]float64{{0, 0}},
				Velocities: [][]float64{{0, 0}, {1, 0}},
			}
		})

		It("isolates an invalid orbit placed first", func() {
			outcomes := baker.Batch(ctx, []bake.Source{broken, *config.GetPreset("binary")})

			Expect(outcomes).To(HaveLen(2))
			Expect(outcomes[0].Index).To(Equal(0))
			Expect(outcomes[0].Name).To(Equal("broken"))
			Expect(outcomes[0].Err).To(MatchError(dynamo.ErrInvalidConfig))
			Expect(outcomes[0].Result).To(BeNil())

			Expect(outcomes[1].Err).NotTo(HaveOccurred())
			Expect(outcomes[1].Result.Orbit.Name).To(Equal("binary"))
			Expect(bake.Failed(outcomes)).To(Equal(1))
		})

		It("isolates an invalid orbit placed last", func() {
			outcomes := baker.Batch(ctx, []bake.Source{*config.GetPreset("binary"), broken})

			Expect(outcomes[0].Err).NotTo(HaveOccurred())
			Expect(outcomes[0].Name).To(Equal("binary"))
			Expect(outcomes[1].Err).To(MatchError(dynamo.ErrInvalidConfig))
			Expect(outcomes[1].Name).To(Equal("broken"))
			Expect(logs.String()).To(ContainSubstring("orbit rejected"))
		})

		It("keeps outcomes in input order", func() {
			names := []string{"single", "figure-eight", "binary", "single"}
			orbits := make([]dynamo.Orbit, len(names))
			for i, n := range names {
				orbits[i] = preset(n)
			}

			outcomes := baker.Batch(ctx, bake.Orbits(orbits...))
			for i, o := range outcomes {
				Expect(o.Err).NotTo(HaveOccurred())
				Expect(o.Index).To(Equal(i))
				Expect(o.Result.Orbit.Name).To(Equal(names[i]))
			}
		})

		It("reports an unclosed orbit without failing the rest", func() {
			bad := preset("figure-eight")
			bad.Name = "half"
			bad.Period *= 0.5

			outcomes := baker.Batch(ctx, bake.Orbits(bad, preset("binary")))
			Expect(outcomes[0].Err).To(MatchError(dynamo.ErrUnstable))
			Expect(outcomes[1].Err).NotTo(HaveOccurred())
		})

		It("handles an empty batch", func() {
			Expect(baker.Batch(ctx, nil)).To(BeEmpty())
		})
	})
})

var _ = Describe("New", func() {
	It("rejects an unknown integrator", func() {
		opts := bake.DefaultOptions()
		opts.Stepper = "euler-cromer"
		_, err := bake.New(opts)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	It("rejects a bad simulation config", func() {
		opts := bake.DefaultOptions()
		opts.Simulation.Frames = 0
		_, err := bake.New(opts)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	It("rejects a negative cutoff", func() {
		opts := bake.DefaultOptions()
		opts.Policy.Cutoff = -1
		_, err := bake.New(opts)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})
})

var _ = Describe("BakedOrbit", func() {
	It("flags non-finite values", func() {
		e := math.Inf(1)
		b := bake.BakedOrbit{Name: "x", Period: 1, Energy: &e}
		Expect(b.CheckFinite()).To(MatchError(dynamo.ErrNonFinite))

		b = bake.BakedOrbit{Name: "x", Period: 1, Bodies: []analysis.Body{
			{Components: []analysis.FrequencyComponent{{Freq: 1, Amplitude: 1, Phase: math.NaN()}}},
		}}
		Expect(b.CheckFinite()).To(MatchError(dynamo.ErrNonFinite))

		b.Bodies[0].Components[0].Phase = 0
		Expect(b.CheckFinite()).To(Succeed())
	})
})

var _ = Describe("Orbits", func() {
	It("hands out independent copies", func() {
		orbit := preset("binary")
		src := bake.Orbits(orbit)[0]

		got, err := src.ToOrbit()
		Expect(err).NotTo(HaveOccurred())
		got.Bodies[0].Position = r2.Vec{X: 9}
		Expect(orbit.Bodies[0].Position).To(Equal(dynamo.Vec2{X: -0.5}))
	})
})
