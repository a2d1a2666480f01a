// Package trplhttp exposes a decoded TRPL measurement and its derived views
// over HTTP, in the same server-client architecture the lab uses for its
// instrument servers.
package trplhttp

import (
	"errors"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"sync"

	"goji.io/pat"
	"golang.org/x/time/rate"

	"github.com/wasedatakeuchilab/tlab-analysis/curve"
	"github.com/wasedatakeuchilab/tlab-analysis/imgrec"
	"github.com/wasedatakeuchilab/tlab-analysis/server"
	"github.com/wasedatakeuchilab/tlab-analysis/trpl"
	"github.com/wasedatakeuchilab/tlab-analysis/util"
)

// Wrapper serves a measurement over HTTP.  The dataset itself is immutable;
// uploads swap the pointer under a lock, so reads may proceed concurrently.
type Wrapper struct {
	mu sync.RWMutex
	ds *trpl.Dataset

	// Recorder saves a FITS copy of each uploaded measurement when enabled
	Recorder *imgrec.Recorder

	limiter    *rate.Limiter
	routeTable server.RouteTable
}

// NewWrapper returns a wrapper with the route table populated.  ds may be
// nil when no measurement is preloaded.  Uploads are limited to uploadRate
// decodes per second to keep a misbehaving client from starving readers.
func NewWrapper(ds *trpl.Dataset, rec *imgrec.Recorder, uploadRate float64) *Wrapper {
	w := &Wrapper{ds: ds, Recorder: rec, limiter: rate.NewLimiter(rate.Limit(uploadRate), 1)}
	w.routeTable = server.RouteTable{
		// measurement ingest and metadata
		pat.Post("/measurement"): w.Upload,
		pat.Get("/header"):       w.GetHeader,

		// derived views
		pat.Get("/streak-image"): w.GetStreakImage,
		pat.Get("/spectrum"):     w.GetSpectrum,
		pat.Get("/decay"):        w.GetDecay,

		// characteristic features
		pat.Get("/spectrum/peak"):   w.GetSpectrumPeak,
		pat.Get("/spectrum/fwhm"):   w.GetSpectrumFWHM,
		pat.Get("/decay/fit-range"): w.GetDecayFitRange,
	}
	return w
}

// RT satisfies server.HTTPer
func (h *Wrapper) RT() server.RouteTable {
	return h.routeTable
}

func (h *Wrapper) current() (*trpl.Dataset, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ds, h.ds != nil
}

// Upload decodes a raw measurement from the request body and makes it the
// served dataset
func (h *Wrapper) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		http.Error(w, "too many uploads", http.StatusTooManyRequests)
		return
	}
	defer r.Body.Close()
	ds, err := trpl.Decode(r.Body)
	if err != nil {
		var ferr *trpl.FormatError
		if errors.As(err, &ferr) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.mu.Lock()
	h.ds = ds
	h.mu.Unlock()
	if h.Recorder != nil && h.Recorder.Enabled {
		if err := ds.WriteFITS(h.Recorder); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.Recorder.Incr()
	}
	w.WriteHeader(http.StatusOK)
}

// GetHeader returns the acquisition metadata as JSON
func (h *Wrapper) GetHeader(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.current()
	if !ok {
		http.Error(w, "no measurement loaded", http.StatusNotFound)
		return
	}
	server.EncodeJSON(w, ds.Header)
}

// GetStreakImage renders the intensity matrix, as FITS by default or PNG
// with ?fmt=png
func (h *Wrapper) GetStreakImage(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.current()
	if !ok {
		http.Error(w, "no measurement loaded", http.StatusNotFound)
		return
	}
	switch format := r.URL.Query().Get("fmt"); format {
	case "", "fits":
		w.Header().Set("Content-Type", "image/fits")
		if err := ds.WriteFITS(w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	case "png":
		img := image.NewGray16(image.Rect(0, 0, ds.Header.Width, ds.Header.Height))
		for i, v := range ds.Intensity {
			s := uint16(util.Clamp(v, 0, 65535))
			img.Pix[2*i] = byte(s >> 8)
			img.Pix[2*i+1] = byte(s)
		}
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, img); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	default:
		http.Error(w, "fmt must be fits or png", http.StatusBadRequest)
	}
}

// GetSpectrum returns the time-aggregated (wavelength, intensity) table,
// optionally restricted to ?low=&high= on the time axis
func (h *Wrapper) GetSpectrum(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.current()
	if !ok {
		http.Error(w, "no measurement loaded", http.StatusNotFound)
		return
	}
	v, err := h.spectrum(ds, r)
	if err != nil {
		httpError(w, err)
		return
	}
	server.EncodeJSON(w, v)
}

// GetDecay returns the wavelength-aggregated (time, intensity) table,
// optionally restricted to ?low=&high= on the wavelength axis and shifted
// to the decay start with ?normalize=true
func (h *Wrapper) GetDecay(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.current()
	if !ok {
		http.Error(w, "no measurement loaded", http.StatusNotFound)
		return
	}
	v, err := h.decay(ds, r)
	if err != nil {
		httpError(w, err)
		return
	}
	server.EncodeJSON(w, v)
}

// GetSpectrumPeak returns the (wavelength, intensity) peak of the spectrum
func (h *Wrapper) GetSpectrumPeak(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.current()
	if !ok {
		http.Error(w, "no measurement loaded", http.StatusNotFound)
		return
	}
	v, err := h.spectrum(ds, r)
	if err != nil {
		httpError(w, err)
		return
	}
	p, err := curve.FindPeak(v.Axis, v.Intensity)
	if err != nil {
		httpError(w, err)
		return
	}
	server.EncodeJSON(w, p)
}

// GetSpectrumFWHM returns the full width at half maximum interval of the
// spectrum
func (h *Wrapper) GetSpectrumFWHM(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.current()
	if !ok {
		http.Error(w, "no measurement loaded", http.StatusNotFound)
		return
	}
	v, err := h.spectrum(ds, r)
	if err != nil {
		httpError(w, err)
		return
	}
	iv, err := curve.FindFWHM(v.Axis, v.Intensity)
	if err != nil {
		httpError(w, err)
		return
	}
	server.EncodeJSON(w, iv)
}

// GetDecayFitRange returns the time window over which a decay model should
// be fit to the wavelength-aggregated curve
func (h *Wrapper) GetDecayFitRange(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.current()
	if !ok {
		http.Error(w, "no measurement loaded", http.StatusNotFound)
		return
	}
	v, err := h.decay(ds, r)
	if err != nil {
		httpError(w, err)
		return
	}
	iv, err := curve.DetermineFitRange(v.Axis, v.Intensity)
	if err != nil {
		httpError(w, err)
		return
	}
	server.EncodeJSON(w, iv)
}

func (h *Wrapper) spectrum(ds *trpl.Dataset, r *http.Request) (trpl.AggregateView, error) {
	rng, err := rangeFromQuery(r)
	if err != nil {
		return trpl.AggregateView{}, err
	}
	return ds.AggregateAlongTime(rng)
}

func (h *Wrapper) decay(ds *trpl.Dataset, r *http.Request) (trpl.AggregateView, error) {
	rng, err := rangeFromQuery(r)
	if err != nil {
		return trpl.AggregateView{}, err
	}
	v, err := ds.AggregateAlongWavelength(rng)
	if err != nil {
		return trpl.AggregateView{}, err
	}
	if r.URL.Query().Get("normalize") == "true" {
		return trpl.NormalizeDecay(v)
	}
	return v, nil
}

// rangeFromQuery parses the optional low/high pair; both must be given
// together
func rangeFromQuery(r *http.Request) (*trpl.Range, error) {
	q := r.URL.Query()
	lowS, highS := q.Get("low"), q.Get("high")
	if lowS == "" && highS == "" {
		return nil, nil
	}
	if lowS == "" || highS == "" {
		return nil, errors.New("low and high must be provided together")
	}
	low, err := strconv.ParseFloat(lowS, 64)
	if err != nil {
		return nil, err
	}
	high, err := strconv.ParseFloat(highS, 64)
	if err != nil {
		return nil, err
	}
	return &trpl.Range{Low: low, High: high}, nil
}

// httpError maps input-contract violations to 400 and degenerate-signal
// analysis failures to 422
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, curve.ErrNoDecay),
		errors.Is(err, curve.ErrNoPeakWindow),
		errors.Is(err, curve.ErrNoOnset):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
