package trajectory

import (
	"errors"
	"fmt"
)

// Domain errors for trajectory ingestion.
var (
	// ErrIO indicates the trajectory could not be opened or read.
	ErrIO = errors.New("trajectory: io failure")

	// ErrParse indicates a missing marker, a malformed numeric field or too few frames.
	ErrParse = errors.New("trajectory: parse failure")

	// ErrConsistency indicates the index and the file disagree.
	ErrConsistency = errors.New("trajectory: index and file diverged")

	// ErrTimestepMismatch marks a frame spacing that differs from the declared delta.
	ErrTimestepMismatch = errors.New("trajectory: timestep spacing mismatch")
)

// FrameError wraps an error with the frame it happened in.
type FrameError struct {
	Timestep int64
	Offset   int64
	Wrapped  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame timestep=%d offset=%d: %v", e.Timestep, e.Offset, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}

func parseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

func consistencyErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConsistency, fmt.Sprintf(format, args...))
}
