package trpl

import (
	"errors"
	"sort"

	"github.com/wasedatakeuchilab/tlab-analysis/curve"
	"github.com/wasedatakeuchilab/tlab-analysis/util"
)

var (
	// ErrEmptyDataset is returned by aggregation over a dataset with no
	// samples.
	ErrEmptyDataset = errors.New("trpl: dataset has no samples")

	// ErrInvalidRange is returned when a range's low bound exceeds its
	// high bound.
	ErrInvalidRange = errors.New("trpl: range low bound exceeds high bound")
)

// Dataset is an immutable decoded measurement.  Time, Wavelength and
// Intensity are parallel slices holding one (time, wavelength, intensity)
// triple per matrix cell, row-major.  Derived views are computed fresh on
// each call and return independent containers, so a Dataset is safe to
// share between concurrent readers.
type Dataset struct {
	Header Header

	// TimeAxis holds one time value per row, in nanoseconds.
	TimeAxis []float64

	// WavelengthAxis holds one wavelength value per column, in nanometers.
	WavelengthAxis []float64

	// Time, Wavelength and Intensity are the flattened triples.
	Time       []float64
	Wavelength []float64
	Intensity  []float64
}

// Range is an inclusive [Low, High] interval on an axis.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

func (r Range) contains(v float64) bool {
	return v >= r.Low && v <= r.High
}

// AggregateView is a two-column (axis value, summed intensity) table
// produced by collapsing the dataset along one axis.  Axis is sorted
// ascending and holds one entry per distinct axis value.
type AggregateView struct {
	Axis      []float64 `json:"axis"`
	Intensity []float64 `json:"intensity"`
}

// Total returns the sum of the intensity column.
func (v AggregateView) Total() float64 {
	return util.Sum(v.Intensity)
}

// StreakImage returns the intensity values reshaped into a height x width
// grid: time along rows, wavelength along columns.  The grid is freshly
// allocated on each call.
func (d *Dataset) StreakImage() [][]float64 {
	h, w := d.Header.Height, d.Header.Width
	img := make([][]float64, h)
	for row := 0; row < h; row++ {
		img[row] = make([]float64, w)
		copy(img[row], d.Intensity[row*w:(row+1)*w])
	}
	return img
}

// AggregateAlongTime collapses the time axis: for each distinct wavelength
// it sums the intensity of all triples at that wavelength, optionally
// restricted to times inside rng.  The result is ordered by wavelength
// ascending.
func (d *Dataset) AggregateAlongTime(rng *Range) (AggregateView, error) {
	return d.aggregate(d.Wavelength, d.Time, rng)
}

// AggregateAlongWavelength collapses the wavelength axis: for each distinct
// time it sums the intensity of all triples at that time, optionally
// restricted to wavelengths inside rng.  The result is ordered by time
// ascending.
func (d *Dataset) AggregateAlongWavelength(rng *Range) (AggregateView, error) {
	return d.aggregate(d.Time, d.Wavelength, rng)
}

// aggregate is a grouped reduction: one pass over the triples building a
// map from the retained axis value to a running intensity sum, then output
// sorted by key.
func (d *Dataset) aggregate(keep, filter []float64, rng *Range) (AggregateView, error) {
	if len(d.Intensity) == 0 {
		return AggregateView{}, ErrEmptyDataset
	}
	if rng != nil && rng.Low > rng.High {
		return AggregateView{}, ErrInvalidRange
	}
	sums := make(map[float64]float64)
	for i := range d.Intensity {
		if rng != nil && !rng.contains(filter[i]) {
			continue
		}
		sums[keep[i]] += d.Intensity[i]
	}
	v := AggregateView{
		Axis:      make([]float64, 0, len(sums)),
		Intensity: make([]float64, 0, len(sums)),
	}
	for k := range sums {
		v.Axis = append(v.Axis, k)
	}
	sort.Float64s(v.Axis)
	for _, k := range v.Axis {
		v.Intensity = append(v.Intensity, sums[k])
	}
	return v, nil
}

// NormalizeDecay shifts a wavelength-aggregated decay curve so its decay
// start sits at the origin: the time and intensity offsets located by
// curve.FindDecayStart are subtracted from the respective columns.  The
// input view is not modified.
func NormalizeDecay(v AggregateView) (AggregateView, error) {
	t0, i0, err := curve.FindDecayStart(v.Axis, v.Intensity)
	if err != nil {
		return AggregateView{}, err
	}
	out := AggregateView{
		Axis:      make([]float64, len(v.Axis)),
		Intensity: make([]float64, len(v.Intensity)),
	}
	for i := range v.Axis {
		out.Axis[i] = v.Axis[i] - t0
		out.Intensity[i] = v.Intensity[i] - i0
	}
	return out, nil
}
