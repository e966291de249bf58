// Package analysis computes centre-of-mass series and time-averaged mean
// squared displacement curves from loaded trajectory frames.
//
//   - [CenterOfMass] and [RemoveCenterOfMass] act on a single frame buffer
//   - [CenterOfMassSeries] and [RemoveCenterOfMassSeries] apply them per frame
//   - [TimeAveragedMSD] reduces one position series over all frame pairs
//   - [BeadAveragedMSD] averages the per-bead curves of a selection
//
// # Lag slots
//
// A curve has ceil((last-first)/delta)+1 slots. Slot L holds the mean of
// |p[j]-p[i]|² over every pair i<j with (t[j]-t[i])/delta == L. Slot 0 never
// receives a pair and stays zero:
//
//	m, err := analysis.TimeAveragedMSD(ctx, series, timesteps, delta)
//	for lag, v := range m.Values {
//	    fmt.Println(m.Timestep(lag), v, m.Hits[lag])
//	}
package analysis
