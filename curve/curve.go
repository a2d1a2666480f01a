// Package curve provides numeric routines for 1D measurement curves:
// peak location, full width at half maximum, and selection of the x-window
// over which a decay model should be fit.
//
// All functions take paired, equal-length x and y sample slices and hold
// no state, so they are safe for concurrent use.
package curve

import (
	"errors"
	"math"
)

var (
	// ErrEmptyInput is returned when the x and y slices are empty.
	ErrEmptyInput = errors.New("curve: x and y must not be empty")

	// ErrLengthMismatch is returned when the x and y slices differ in length.
	ErrLengthMismatch = errors.New("curve: x and y must be the same length")

	// ErrNoDecay is returned by DetermineFitRange when the signal never
	// decays below the fit threshold after its peak.
	ErrNoDecay = errors.New("curve: signal does not decay sufficiently after the peak")

	// ErrNoPeakWindow is returned by DetermineFitRange when there are no
	// usable samples between the peak and the end of the data.
	ErrNoPeakWindow = errors.New("curve: no usable window after the peak")

	// ErrNoOnset is returned by FindDecayStart when the signal never rises
	// above its noise floor.
	ErrNoOnset = errors.New("curve: no signal onset above the noise floor")
)

const (
	// fitStartOffset is the number of samples after the peak excluded from
	// the fit window, so the non-monotonic top of the rise is not fit.
	fitStartOffset = 2

	// decayRatio is the fraction of the peak height (above baseline) at
	// which the fit window ends.
	decayRatio = 0.10
)

// Peak is the (x, y) pair at the sample-wise maximum of a curve.
type Peak struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Interval is an x-axis interval with Left <= Right.
type Interval struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Width returns the length of the interval.
func (iv Interval) Width() float64 {
	return iv.Right - iv.Left
}

func validate(x, y []float64) error {
	if len(x) != len(y) {
		return ErrLengthMismatch
	}
	if len(x) == 0 {
		return ErrEmptyInput
	}
	return nil
}

// peakIndex returns the index of the maximum y value.  Ties break to the
// lowest index.
func peakIndex(y []float64) int {
	idx := 0
	for i, v := range y {
		if v > y[idx] {
			idx = i
		}
	}
	return idx
}

func minimum(y []float64) float64 {
	m := y[0]
	for _, v := range y[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// FindPeak returns the (x, y) sample at the maximum of y.  Among equal
// maxima the first occurrence wins.
func FindPeak(x, y []float64) (Peak, error) {
	if err := validate(x, y); err != nil {
		return Peak{}, err
	}
	idx := peakIndex(y)
	return Peak{X: x[idx], Y: y[idx]}, nil
}

// FindFWHM returns the interval between the two half-height crossings
// around the peak of y.  The baseline is the minimum of y and the half
// height is baseline + (peak-baseline)/2.  Crossing positions are linearly
// interpolated between the bracketing samples.
//
// When the signal never drops below the half height before the data ends
// on one side, that endpoint saturates to the boundary x value instead of
// failing.  This is the only case in the package where a partial result is
// returned.
func FindFWHM(x, y []float64) (Interval, error) {
	if err := validate(x, y); err != nil {
		return Interval{}, err
	}
	p := peakIndex(y)
	base := minimum(y)
	half := base + (y[p]-base)/2

	left := x[0]
	for i := p; i >= 0; i-- {
		if y[i] < half {
			left = crossing(x[i], y[i], x[i+1], y[i+1], half)
			break
		}
	}
	right := x[len(x)-1]
	for i := p; i < len(y); i++ {
		if y[i] < half {
			right = crossing(x[i-1], y[i-1], x[i], y[i], half)
			break
		}
	}
	if right < left {
		left, right = right, left
	}
	return Interval{Left: left, Right: right}, nil
}

// crossing linearly interpolates the x position where the segment from
// (x0, y0) to (x1, y1) crosses level.
func crossing(x0, y0, x1, y1, level float64) float64 {
	if y1 == y0 {
		return x0
	}
	return x0 + (level-y0)*(x1-x0)/(y1-y0)
}

// DetermineFitRange selects the x-window over which a decay model should
// be fit.  The window starts two samples after the peak, to exclude the
// rise, and ends at the last sample still at or above
// baseline + 0.10*(peak-baseline).
//
// It returns ErrNoDecay when the tail never falls below that threshold
// (nothing to fit against) and ErrNoPeakWindow when the peak sits too
// close to the end of the data to leave a window.
func DetermineFitRange(x, y []float64) (Interval, error) {
	if err := validate(x, y); err != nil {
		return Interval{}, err
	}
	p := peakIndex(y)
	start := p + fitStartOffset
	if start >= len(y)-1 {
		return Interval{}, ErrNoPeakWindow
	}
	base := minimum(y)
	threshold := base + decayRatio*(y[p]-base)

	decayed := false
	for i := start; i < len(y); i++ {
		if y[i] < threshold {
			decayed = true
			break
		}
	}
	if !decayed {
		return Interval{}, ErrNoDecay
	}

	end := start
	for i := len(y) - 1; i > start; i-- {
		if y[i] >= threshold {
			end = i
			break
		}
	}
	if end <= start {
		return Interval{}, ErrNoPeakWindow
	}
	return Interval{Left: x[start], Right: x[end]}, nil
}

// Smooth applies a centered mean filter of the given window size.  Windows
// shrink near the edges so every output uses at least one sample.  A
// window below 2 returns a copy of the input.
func Smooth(v []float64, window int) []float64 {
	out := make([]float64, len(v))
	if window < 2 {
		copy(out, v)
		return out
	}
	for i := range v {
		lo := i - (window-1)/2
		hi := i + window/2
		if lo < 0 {
			lo = 0
		}
		if hi > len(v)-1 {
			hi = len(v) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += v[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// FitExponentialDecay fits y = amp * exp(-x/tau) by least squares on the
// logarithm of the positive y samples.  It returns ErrNoDecay when the fit
// does not produce a positive time constant, and ErrEmptyInput when fewer
// than two usable samples exist.
func FitExponentialDecay(x, y []float64) (amp, tau float64, err error) {
	if err := validate(x, y); err != nil {
		return 0, 0, err
	}
	var (
		n                      float64
		sx, sy, sxx, sxy, logY float64
	)
	for i := range y {
		if y[i] <= 0 {
			continue
		}
		logY = math.Log(y[i])
		n++
		sx += x[i]
		sy += logY
		sxx += x[i] * x[i]
		sxy += x[i] * logY
	}
	if n < 2 {
		return 0, 0, ErrEmptyInput
	}
	det := n*sxx - sx*sx
	if det == 0 {
		return 0, 0, ErrNoDecay
	}
	slope := (n*sxy - sx*sy) / det
	if slope >= 0 {
		return 0, 0, ErrNoDecay
	}
	intercept := (sy - slope*sx) / n
	return math.Exp(intercept), -1 / slope, nil
}
