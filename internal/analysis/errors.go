package analysis

import "errors"

var (
	// ErrSeriesLength indicates a position series and its timesteps differ in length.
	ErrSeriesLength = errors.New("analysis: series and timesteps differ in length")

	// ErrTooShort indicates fewer than two points, so no lag can be formed.
	ErrTooShort = errors.New("analysis: need at least two frames")

	// ErrDelta indicates a non-positive timestep spacing.
	ErrDelta = errors.New("analysis: timestep spacing must be positive")

	// ErrSpan indicates a timestep range too wide to hold one slot per lag.
	ErrSpan = errors.New("analysis: timestep span needs too many lag slots")

	// ErrNoBeads indicates an empty bead list.
	ErrNoBeads = errors.New("analysis: no beads to average")
)
