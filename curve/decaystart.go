package curve

import (
	"math"
	"sort"
)

const (
	// noiseWindow is the trailing window used to estimate the local noise
	// ceiling of the background signal.
	noiseWindow = 10

	// noiseSigma scales the standard deviation term of the noise ceiling.
	noiseSigma = 2.0

	// baselineTrim discards this quantile from both tails of the background
	// before averaging, so stray counts do not skew the baseline.
	baselineTrim = 0.05
)

// FindDecayStart locates the start coordinates of a decay curve: the last
// sub-baseline sample before the peak of the rise.  The baseline is the
// trimmed mean of the background, where the background is everything before
// the first sample to exceed a rolling mean + 2 sigma noise ceiling.
//
// x must be ordered ascending.  It returns ErrNoOnset when the signal never
// rises above its noise floor.
func FindDecayStart(x, y []float64) (float64, float64, error) {
	if err := validate(x, y); err != nil {
		return 0, 0, err
	}

	// onset: index of the sample preceding the first excursion above the
	// noise ceiling.  The ceiling at i uses the trailing noiseWindow samples
	// ending at i, so the first window-1 samples cannot trigger it.
	onset := -1
	for i := noiseWindow - 1; i < len(y); i++ {
		m, s := meanStd(y[i-noiseWindow+1 : i+1])
		if y[i] > m+noiseSigma*s {
			onset = i - 1
			break
		}
	}
	if onset < 0 {
		return 0, 0, ErrNoOnset
	}

	baseline, ok := trimmedMean(y[:onset+1], baselineTrim)
	if !ok {
		return 0, 0, ErrNoOnset
	}

	p := peakIndex(y)
	for i := p - 1; i >= 0; i-- {
		if y[i] < baseline {
			return x[i], y[i], nil
		}
	}
	return 0, 0, ErrNoOnset
}

func meanStd(v []float64) (mean, std float64) {
	for _, f := range v {
		mean += f
	}
	mean /= float64(len(v))
	for _, f := range v {
		d := f - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(v)))
	return mean, std
}

// trimmedMean averages the values between the trim and 1-trim quantiles.
func trimmedMean(v []float64, trim float64) (float64, bool) {
	if len(v) == 0 {
		return 0, false
	}
	lo := quantile(v, trim)
	hi := quantile(v, 1-trim)
	sum, n := 0.0, 0
	for _, f := range v {
		if f >= lo && f <= hi {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// quantile linearly interpolates the q-th quantile of v.
func quantile(v []float64, q float64) float64 {
	s := make([]float64, len(v))
	copy(s, v)
	sort.Float64s(s)
	if len(s) == 1 {
		return s[0]
	}
	pos := q * float64(len(s)-1)
	i := int(pos)
	if i >= len(s)-1 {
		return s[len(s)-1]
	}
	frac := pos - float64(i)
	return s[i] + frac*(s[i+1]-s[i])
}
