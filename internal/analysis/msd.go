package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/trajmsd/internal/trajectory"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// MSD is a lag-indexed mean squared displacement curve.
type MSD struct {
	Delta  int64
	Values []float64
	// Hits[L] is the number of pairs averaged into Values[L]. A zero hit
	// count marks a lag with no data.
	Hits []int64
	// Misaligned counts pairs whose time difference is not a multiple of
	// Delta. They are still binned by integer division, except those that
	// would land on lag 0, which are dropped.
	Misaligned int64
}

// Len returns the number of lag slots.
func (m *MSD) Len() int { return len(m.Values) }

// Timestep converts a lag slot to its time offset.
func (m *MSD) Timestep(lag int) int64 { return int64(lag) * m.Delta }

type options struct {
	workers int
}

// Option tunes an MSD computation.
type Option func(*options)

// WithWorkers sets the number of goroutines. Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// MaxSlots bounds the length of an MSD curve.
const MaxSlots = 1 << 24

// Slots returns ceil((last-first)/delta)+1. It fails with ErrSpan when the
// result exceeds MaxSlots and with ErrDelta when delta is not positive.
func Slots(first, last, delta int64) (int, error) {
	if delta <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrDelta, delta)
	}
	if last < first {
		return 0, fmt.Errorf("analysis: last timestep %d before first %d", last, first)
	}
	// Unsigned so that extreme endpoints cannot wrap.
	span := uint64(last) - uint64(first)
	if span > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d to %d", ErrSpan, first, last)
	}
	q := span / uint64(delta)
	if span%uint64(delta) != 0 {
		q++
	}
	if q >= MaxSlots {
		return 0, fmt.Errorf("%w: %d to %d at spacing %d needs %d slots, limit %d", ErrSpan, first, last, delta, q+1, MaxSlots)
	}
	return int(q) + 1, nil
}

type accumulator struct {
	sums       []float64
	hits       []int64
	misaligned int64
}

func newAccumulator(n int) *accumulator {
	return &accumulator{sums: make([]float64, n), hits: make([]int64, n)}
}

func (a *accumulator) merge(b *accumulator) {
	floats.Add(a.sums, b.sums)
	for i, h := range b.hits {
		a.hits[i] += h
	}
	a.misaligned += b.misaligned
}

// pairs accumulates every pair (i, j>i) for the rows i owned by worker w.
func (a *accumulator) pairs(ctx context.Context, series []r3.Vec, timesteps []int64, delta int64, w, workers int) error {
	n := len(series)
	for i := w; i < n-1; i += workers {
		if err := ctx.Err(); err != nil {
			return err
		}
		pi, ti := series[i], timesteps[i]
		for j := i + 1; j < n; j++ {
			diff := timesteps[j] - ti
			lag := diff / delta
			if diff%delta != 0 {
				a.misaligned++
				if lag == 0 {
					continue
				}
			}
			a.sums[lag] += r3.Norm2(r3.Sub(series[j], pi))
			a.hits[lag]++
		}
	}
	return nil
}

// validateSeries checks a series and returns its slot count.
func validateSeries(n, nt int, timesteps []int64, delta int64) (int, error) {
	if n != nt {
		return 0, fmt.Errorf("%w: %d positions, %d timesteps", ErrSeriesLength, n, nt)
	}
	if n < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrTooShort, n)
	}
	if delta <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrDelta, delta)
	}
	for i := 1; i < n; i++ {
		if timesteps[i] <= timesteps[i-1] {
			return 0, fmt.Errorf("analysis: timesteps not increasing at %d (%d after %d)", i, timesteps[i], timesteps[i-1])
		}
	}
	return Slots(timesteps[0], timesteps[n-1], delta)
}

// TimeAveragedMSD reduces a single position series over all pairs of
// frames. series and timesteps are only read.
func TimeAveragedMSD(ctx context.Context, series []r3.Vec, timesteps []int64, delta int64, opts ...Option) (*MSD, error) {
	slots, err := validateSeries(len(series), len(timesteps), timesteps, delta)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	workers := workerCount(o.workers, len(series)-1)

	accs := make([]*accumulator, workers)
	err = striped(ctx, len(series)-1, workers, func(ctx context.Context, w int) error {
		acc := newAccumulator(slots)
		accs[w] = acc
		return acc.pairs(ctx, series, timesteps, delta, w, workers)
	})
	if err != nil {
		return nil, err
	}

	total := accs[0]
	for _, acc := range accs[1:] {
		total.merge(acc)
	}
	return total.finish(delta), nil
}

func (a *accumulator) finish(delta int64) *MSD {
	m := &MSD{Delta: delta, Values: a.sums, Hits: a.hits, Misaligned: a.misaligned}
	for l, h := range a.hits {
		if h > 0 {
			m.Values[l] /= float64(h)
		}
	}
	return m
}

// BeadAveragedMSD computes the curve of every bead row and averages them
// slot by slot. Hits and Misaligned are those of a single bead, since all
// beads share the same timesteps.
func BeadAveragedMSD(ctx context.Context, frames []*trajectory.Frame, rows []int, delta int64, opts ...Option) (*MSD, error) {
	if len(rows) == 0 {
		return nil, ErrNoBeads
	}
	timesteps := Timesteps(frames)
	slots, err := validateSeries(len(frames), len(timesteps), timesteps, delta)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	workers := workerCount(o.workers, len(rows))
	scale := 1 / float64(len(rows))

	partial := make([][]float64, workers)
	var first *MSD
	err = striped(ctx, len(rows), workers, func(ctx context.Context, w int) error {
		sum := make([]float64, slots)
		partial[w] = sum
		for b := w; b < len(rows); b += workers {
			if err := ctx.Err(); err != nil {
				return err
			}
			acc := newAccumulator(slots)
			if err := acc.pairs(ctx, BeadSeries(frames, rows[b]), timesteps, delta, 0, 1); err != nil {
				return err
			}
			m := acc.finish(delta)
			floats.AddScaled(sum, scale, m.Values)
			if b == 0 {
				first = m
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	avg := &MSD{Delta: delta, Values: partial[0], Hits: first.Hits, Misaligned: first.Misaligned}
	for _, p := range partial[1:] {
		floats.Add(avg.Values, p)
	}
	return avg, nil
}
