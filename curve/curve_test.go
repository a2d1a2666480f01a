package curve_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wasedatakeuchilab/tlab-analysis/curve"
)

func ExampleSmooth() {
	v := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	fmt.Println(curve.Smooth(v, 3))
	// Output: [0.5 1 2 3 4 5 6 7 8 8.5]
}

func ExampleFindPeak() {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{0, 2, 4, 2, 0}
	p, _ := curve.FindPeak(x, y)
	fmt.Printf("x=%v y=%v\n", p.X, p.Y)
	// Output: x=2 y=4
}

func TestFindPeakTieBreaksToFirstOccurrence(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{5, 9, 9, 3}
	p, err := curve.FindPeak(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.X != 1 || p.Y != 9 {
		t.Errorf("expected peak at (1, 9), got (%v, %v)", p.X, p.Y)
	}
}

func TestFindPeakEmptyInput(t *testing.T) {
	_, err := curve.FindPeak(nil, nil)
	if err != curve.ErrEmptyInput {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestFindPeakLengthMismatch(t *testing.T) {
	_, err := curve.FindPeak([]float64{1, 2}, []float64{1})
	if err != curve.ErrLengthMismatch {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestFindFWHMTriangle(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{0, 2, 4, 2, 0}
	iv, err := curve.FindFWHM(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv.Left != 1 || iv.Right != 3 {
		t.Errorf("expected interval (1, 3), got (%v, %v)", iv.Left, iv.Right)
	}
	if iv.Width() != 2 {
		t.Errorf("expected width 2, got %v", iv.Width())
	}
}

func TestFindFWHMSaturatesAtBoundary(t *testing.T) {
	// monotone rise: the right side never crosses back below half height,
	// so the right endpoint saturates to the last x value
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 1, 2, 4}
	iv, err := curve.FindFWHM(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv.Right != 3 {
		t.Errorf("expected right endpoint to saturate to 3, got %v", iv.Right)
	}
	if iv.Left != 2 {
		t.Errorf("expected left crossing at 2, got %v", iv.Left)
	}
}

func TestFindFWHMEmptyInput(t *testing.T) {
	_, err := curve.FindFWHM([]float64{}, []float64{})
	if err != curve.ErrEmptyInput {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestDetermineFitRangeExponentialDecay(t *testing.T) {
	const tau = 10.0
	x := make([]float64, 100)
	y := make([]float64, 100)
	for i := range x {
		x[i] = float64(i)
		y[i] = math.Exp(-x[i] / tau)
	}
	iv, err := curve.DetermineFitRange(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv.Left >= iv.Right {
		t.Errorf("expected left < right, got (%v, %v)", iv.Left, iv.Right)
	}
	// peak is at x=0; both endpoints must sit strictly after it
	if iv.Left <= 0 {
		t.Errorf("expected fit range to start after the peak, got left=%v", iv.Left)
	}
	if iv.Left != 2 {
		t.Errorf("expected fit to start two samples after the peak, got %v", iv.Left)
	}
	// exp(-x/10) stays above a tenth of the peak until x ~ 23
	if iv.Right != 23 {
		t.Errorf("expected fit to end at 23, got %v", iv.Right)
	}
}

func TestDetermineFitRangeFlatTail(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8}
	y := []float64{0, 1, 2, 5, 5, 5, 5, 5, 5}
	_, err := curve.DetermineFitRange(x, y)
	if err != curve.ErrNoDecay {
		t.Errorf("expected ErrNoDecay, got %v", err)
	}
}

func TestDetermineFitRangePeakTooLate(t *testing.T) {
	x := []float64{0, 1, 2}
	y := []float64{0, 1, 2}
	_, err := curve.DetermineFitRange(x, y)
	if err != curve.ErrNoPeakWindow {
		t.Errorf("expected ErrNoPeakWindow, got %v", err)
	}
}

func TestDetermineFitRangeEmptyInput(t *testing.T) {
	_, err := curve.DetermineFitRange(nil, nil)
	if err != curve.ErrEmptyInput {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestSmoothSmallWindowCopies(t *testing.T) {
	in := []float64{3, 1, 4, 1, 5}
	out := curve.Smooth(in, 1)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("window of 1 should return the input unchanged (-want +got):\n%s", diff)
	}
}

func TestFitExponentialDecayRecoversParameters(t *testing.T) {
	const (
		amp = 2.0
		tau = 5.0
	)
	x := make([]float64, 50)
	y := make([]float64, 50)
	for i := range x {
		x[i] = float64(i) * 0.5
		y[i] = amp * math.Exp(-x[i]/tau)
	}
	a, tc, err := curve.FitExponentialDecay(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(a-amp) > 1e-9 {
		t.Errorf("expected amplitude %v, got %v", amp, a)
	}
	if math.Abs(tc-tau) > 1e-9 {
		t.Errorf("expected time constant %v, got %v", tau, tc)
	}
}

func TestFitExponentialDecayFlatSignal(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{1, 1, 1, 1}
	_, _, err := curve.FitExponentialDecay(x, y)
	if err != curve.ErrNoDecay {
		t.Errorf("expected ErrNoDecay, got %v", err)
	}
}

func TestFindDecayStart(t *testing.T) {
	// flat rippling background, sharp rise at i=30, decay after i=34
	x := make([]float64, 60)
	y := make([]float64, 60)
	for i := range x {
		x[i] = float64(i)
		switch {
		case i < 30:
			if i%2 == 0 {
				y[i] = 0.11
			} else {
				y[i] = 0.09
			}
		case i < 35:
			y[i] = float64(i - 29)
		default:
			y[i] = 5 * math.Exp(-float64(i-34)/8)
		}
	}
	sx, sy, err := curve.FindDecayStart(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sx != 29 || sy != 0.09 {
		t.Errorf("expected decay start at (29, 0.09), got (%v, %v)", sx, sy)
	}
}

func TestFindDecayStartNoOnset(t *testing.T) {
	x := make([]float64, 40)
	y := make([]float64, 40)
	for i := range x {
		x[i] = float64(i)
		y[i] = 1.0
	}
	_, _, err := curve.FindDecayStart(x, y)
	if err != curve.ErrNoOnset {
		t.Errorf("expected ErrNoOnset, got %v", err)
	}
}
