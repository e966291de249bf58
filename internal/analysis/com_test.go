package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/trajmsd/internal/trajectory"
	"gonum.org/v1/gonum/spatial/r3"
)

func frameOf(timestep int64, atoms ...r3.Vec) *trajectory.Frame {
	f := &trajectory.Frame{Timestep: timestep, Coords: make([]float64, 3*len(atoms))}
	for i, a := range atoms {
		f.SetAtom(i, a)
	}
	return f
}

var _ = Describe("Center of mass", func() {
	It("averages two atoms", func() {
		f := frameOf(0, r3.Vec{}, r3.Vec{X: 2})
		Expect(CenterOfMass(f.Coords)).To(Equal(r3.Vec{X: 1}))
	})

	It("is zero for an empty buffer", func() {
		Expect(CenterOfMass(nil)).To(Equal(r3.Vec{}))
	})

	It("stays finite for huge coordinates", func() {
		big := 1e307
		f := frameOf(0, r3.Vec{X: big}, r3.Vec{X: big}, r3.Vec{X: big})
		com := CenterOfMass(f.Coords)
		Expect(com.X).To(BeNumerically("~", big, big*1e-12))
	})

	It("leaves a recentred frame at the origin", func() {
		f := frameOf(0, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: -4, Y: 0.5, Z: 9}, r3.Vec{X: 7, Y: -3, Z: 1})
		RemoveCenterOfMass(f.Coords, CenterOfMass(f.Coords))
		com := CenterOfMass(f.Coords)
		Expect(r3.Norm(com)).To(BeNumerically("~", 0, 1e-12))
	})

	Describe("series", func() {
		var frames []*trajectory.Frame

		BeforeEach(func() {
			frames = []*trajectory.Frame{
				frameOf(0, r3.Vec{}, r3.Vec{X: 2}),
				frameOf(10, r3.Vec{}, r3.Vec{X: 2}),
			}
		})

		It("uses each frame's own centre", func() {
			frames[1].SetAtom(0, r3.Vec{X: 4})
			series := CenterOfMassSeries(frames)
			Expect(series).To(Equal([]r3.Vec{{X: 1}, {X: 3}}))

			Expect(RemoveCenterOfMassSeries(frames, series)).To(Succeed())
			Expect(frames[0].Atom(0)).To(Equal(r3.Vec{X: -1}))
			Expect(frames[0].Atom(1)).To(Equal(r3.Vec{X: 1}))
			Expect(frames[1].Atom(0)).To(Equal(r3.Vec{X: 1}))
			Expect(frames[1].Atom(1)).To(Equal(r3.Vec{X: -1}))
		})

		It("rejects a series of the wrong length", func() {
			err := RemoveCenterOfMassSeries(frames, []r3.Vec{{}})
			Expect(err).To(MatchError(ErrSeriesLength))
		})

		It("extracts bead positions and timesteps", func() {
			Expect(BeadSeries(frames, 1)).To(Equal([]r3.Vec{{X: 2}, {X: 2}}))
			Expect(Timesteps(frames)).To(Equal([]int64{0, 10}))
		})
	})
})
