package analysis

import (
	"fmt"

	"github.com/san-kum/trajmsd/internal/trajectory"
	"gonum.org/v1/gonum/spatial/r3"
)

// CenterOfMass returns the unweighted centre of an atom-major coordinate
// buffer. Each coordinate is divided by N before it is added, which keeps
// the running sum on the scale of a single position for large N.
func CenterOfMass(coords []float64) r3.Vec {
	n := len(coords) / 3
	if n == 0 {
		return r3.Vec{}
	}
	inv := 1 / float64(n)

	var com r3.Vec
	for i := 0; i < n; i++ {
		com.X += coords[3*i] * inv
		com.Y += coords[3*i+1] * inv
		com.Z += coords[3*i+2] * inv
	}
	return com
}

// RemoveCenterOfMass subtracts com from every atom in place.
func RemoveCenterOfMass(coords []float64, com r3.Vec) {
	for i := 0; i+2 < len(coords); i += 3 {
		coords[i] -= com.X
		coords[i+1] -= com.Y
		coords[i+2] -= com.Z
	}
}

// CenterOfMassSeries returns the centre of every frame, in frame order.
func CenterOfMassSeries(frames []*trajectory.Frame) []r3.Vec {
	series := make([]r3.Vec, len(frames))
	for i, f := range frames {
		series[i] = CenterOfMass(f.Coords)
	}
	return series
}

// RemoveCenterOfMassSeries shifts each frame by its own entry of series.
func RemoveCenterOfMassSeries(frames []*trajectory.Frame, series []r3.Vec) error {
	if len(frames) != len(series) {
		return fmt.Errorf("%w: %d frames, %d centres", ErrSeriesLength, len(frames), len(series))
	}
	for i, f := range frames {
		RemoveCenterOfMass(f.Coords, series[i])
	}
	return nil
}

// Timesteps lists the timestep of every frame.
func Timesteps(frames []*trajectory.Frame) []int64 {
	ts := make([]int64, len(frames))
	for i, f := range frames {
		ts[i] = f.Timestep
	}
	return ts
}

// BeadSeries extracts the position of the atom at row across all frames.
func BeadSeries(frames []*trajectory.Frame, row int) []r3.Vec {
	series := make([]r3.Vec, len(frames))
	for i, f := range frames {
		series[i] = f.Atom(row)
	}
	return series
}
