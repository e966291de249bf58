package analysis

import (
	"context"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/trajmsd/internal/trajectory"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ = Describe("Time-averaged MSD", func() {
	ctx := context.Background()

	It("sizes the curve from the timestep span", func() {
		Expect(Slots(0, 20, 10)).To(Equal(3))
		Expect(Slots(0, 25, 10)).To(Equal(4))
		Expect(Slots(100, 100, 10)).To(Equal(1))
		Expect(Slots(-30, 30, 20)).To(Equal(4))
	})

	It("refuses spans wider than the slot limit", func() {
		Expect(Slots(0, MaxSlots-1, 1)).To(Equal(MaxSlots))
		_, err := Slots(0, MaxSlots, 1)
		Expect(err).To(MatchError(ErrSpan))
		_, err = Slots(math.MinInt64, math.MaxInt64, math.MaxInt64)
		Expect(err).To(MatchError(ErrSpan))
		_, err = Slots(0, 10, 0)
		Expect(err).To(MatchError(ErrDelta))
	})

	It("averages a particle moving one unit per frame", func() {
		series := []r3.Vec{{}, {X: 1}, {X: 2}}
		m, err := TimeAveragedMSD(ctx, series, []int64{0, 10, 20}, 10)
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Len()).To(Equal(3))
		Expect(m.Values[0]).To(Equal(0.0))
		Expect(m.Values[1]).To(BeNumerically("~", 1.0, 1e-12))
		Expect(m.Values[2]).To(BeNumerically("~", 4.0, 1e-12))
		Expect(m.Hits).To(Equal([]int64{0, 2, 1}))
		Expect(m.Timestep(2)).To(Equal(int64(20)))
		Expect(m.Misaligned).To(BeZero())
	})

	It("leaves missing lags empty", func() {
		series := []r3.Vec{{}, {Y: 1}, {Y: 3}}
		m, err := TimeAveragedMSD(ctx, series, []int64{0, 10, 40}, 10)
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Len()).To(Equal(5))
		Expect(m.Hits).To(Equal([]int64{0, 1, 0, 1, 1}))
		Expect(m.Values[2]).To(Equal(0.0))
		Expect(m.Values[3]).To(BeNumerically("~", 4.0, 1e-12))
		Expect(m.Values[4]).To(BeNumerically("~", 9.0, 1e-12))
	})

	It("counts pairs off the delta grid", func() {
		series := []r3.Vec{{}, {X: 1}, {X: 2}}
		m, err := TimeAveragedMSD(ctx, series, []int64{0, 15, 20}, 10)
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Misaligned).To(Equal(int64(2)))
		Expect(m.Values[0]).To(Equal(0.0))
		Expect(m.Hits).To(Equal([]int64{0, 1, 1}))
	})

	DescribeTable("rejects invalid input",
		func(series []r3.Vec, ts []int64, delta int64, want error) {
			_, err := TimeAveragedMSD(ctx, series, ts, delta)
			if want != nil {
				Expect(err).To(MatchError(want))
			} else {
				Expect(err).To(HaveOccurred())
			}
		},
		Entry("length mismatch", []r3.Vec{{}, {}}, []int64{0}, int64(1), ErrSeriesLength),
		Entry("single point", []r3.Vec{{}}, []int64{0}, int64(1), ErrTooShort),
		Entry("zero delta", []r3.Vec{{}, {}}, []int64{0, 1}, int64(0), ErrDelta),
		Entry("unordered timesteps", []r3.Vec{{}, {}}, []int64{5, 1}, int64(1), nil),
		Entry("gap wider than the slot limit", []r3.Vec{{}, {}, {}}, []int64{0, 1, 1 << 62}, int64(1), ErrSpan),
		Entry("extreme endpoints", []r3.Vec{{}, {}}, []int64{math.MinInt64, math.MaxInt64}, int64(1), ErrSpan),
	)

	It("matches the serial result when run in parallel", func() {
		rng := rand.New(rand.NewSource(7))
		series := make([]r3.Vec, 300)
		ts := make([]int64, len(series))
		var p r3.Vec
		for i := range series {
			p = r3.Add(p, r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()})
			series[i] = p
			ts[i] = int64(5 * i)
			if i > 150 {
				ts[i] += 5
			}
		}

		serial, err := TimeAveragedMSD(ctx, series, ts, 5, WithWorkers(1))
		Expect(err).NotTo(HaveOccurred())
		parallel, err := TimeAveragedMSD(ctx, series, ts, 5, WithWorkers(8))
		Expect(err).NotTo(HaveOccurred())

		Expect(parallel.Hits).To(Equal(serial.Hits))
		for l := range serial.Values {
			Expect(parallel.Values[l]).To(BeNumerically("~", serial.Values[l], 1e-9*(1+serial.Values[l])))
		}
		Expect(parallel.Values[0]).To(Equal(0.0))
	})

	It("stops when the context is canceled", func() {
		c, cancel := context.WithCancel(ctx)
		cancel()
		_, err := TimeAveragedMSD(c, []r3.Vec{{}, {}, {}}, []int64{0, 1, 2}, 1, WithWorkers(2))
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Bead-averaged MSD", func() {
	ctx := context.Background()

	var frames []*trajectory.Frame

	BeforeEach(func() {
		frames = []*trajectory.Frame{
			frameOf(0, r3.Vec{}, r3.Vec{}),
			frameOf(10, r3.Vec{}, r3.Vec{X: 1}),
			frameOf(20, r3.Vec{}, r3.Vec{X: 2}),
		}
	})

	It("averages the per-bead curves", func() {
		m, err := BeadAveragedMSD(ctx, frames, []int{0, 1}, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Values[0]).To(Equal(0.0))
		Expect(m.Values[1]).To(BeNumerically("~", 0.5, 1e-12))
		Expect(m.Values[2]).To(BeNumerically("~", 2.0, 1e-12))
		Expect(m.Hits).To(Equal([]int64{0, 2, 1}))
	})

	It("gives the g3 curve for the centre of mass series", func() {
		com := CenterOfMassSeries(frames)
		m, err := TimeAveragedMSD(ctx, com, Timesteps(frames), 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Values[1]).To(BeNumerically("~", 0.25, 1e-12))
		Expect(m.Values[2]).To(BeNumerically("~", 1.0, 1e-12))
	})

	It("does not depend on the worker count", func() {
		rows := []int{1, 0, 1, 1, 0}
		one, err := BeadAveragedMSD(ctx, frames, rows, 10, WithWorkers(1))
		Expect(err).NotTo(HaveOccurred())
		many, err := BeadAveragedMSD(ctx, frames, rows, 10, WithWorkers(4))
		Expect(err).NotTo(HaveOccurred())
		for l := range one.Values {
			Expect(math.Abs(one.Values[l] - many.Values[l])).To(BeNumerically("<", 1e-12))
		}
	})

	It("requires at least one bead", func() {
		_, err := BeadAveragedMSD(ctx, frames, nil, 10)
		Expect(err).To(MatchError(ErrNoBeads))
	})

	It("refuses a gap wider than the slot limit", func() {
		frames = append(frames, frameOf(1<<62, r3.Vec{}, r3.Vec{X: 3}))
		_, err := BeadAveragedMSD(ctx, frames, []int{0, 1}, 10)
		Expect(err).To(MatchError(ErrSpan))
	})
})
