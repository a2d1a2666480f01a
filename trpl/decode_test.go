package trpl_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wasedatakeuchilab/tlab-analysis/trpl"
)

// rawFile builds a synthetic measurement file byte-for-byte, independent of
// the package's own encoder.
func rawFile(width, height uint16, samples []uint16) []byte {
	head := make([]byte, trpl.HeaderSize)
	le := binary.LittleEndian
	copy(head, "IM")
	le.PutUint16(head[2:], width)
	le.PutUint16(head[4:], height)
	le.PutUint16(head[6:], 2) // pixel format
	// 2022-05-17 14:30:08 UTC, DOS-packed
	le.PutUint16(head[8:], (2022-1980)<<9|5<<5|17)
	le.PutUint16(head[10:], 14<<11|30<<5|8/2)
	le.PutUint32(head[12:], math.Float32bits(0.25)) // exposure [s]
	le.PutUint16(head[16:], 10)                     // MCP gain
	le.PutUint16(head[18:], 1)                      // shutter
	le.PutUint32(head[20:], math.Float32bits(0.5))  // time per row [ns]
	le.PutUint32(head[24:], math.Float32bits(400))  // wavelength origin [nm]
	le.PutUint32(head[28:], math.Float32bits(2.5))  // wavelength step [nm]
	copy(head[32:], "sample-A                ")

	buf := bytes.NewBuffer(head)
	for _, s := range samples {
		binary.Write(buf, le, s)
	}
	return buf.Bytes()
}

func TestDecodeRoundTrip(t *testing.T) {
	raw := rawFile(3, 2, []uint16{1, 2, 3, 4, 5, 6})
	d, err := trpl.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := d.Header
	if h.Width != 3 || h.Height != 2 {
		t.Errorf("expected extents 3x2, got %dx%d", h.Width, h.Height)
	}
	if h.Label != "sample-A" {
		t.Errorf("expected label %q, got %q", "sample-A", h.Label)
	}
	want := time.Date(2022, time.May, 17, 14, 30, 8, 0, time.UTC)
	if !h.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, h.Timestamp)
	}
	if h.Exposure != 250*time.Millisecond {
		t.Errorf("expected exposure 250ms, got %v", h.Exposure)
	}
	if h.MCPGain != 10 || h.Shutter != 1 {
		t.Errorf("expected gain 10 shutter 1, got %d %d", h.MCPGain, h.Shutter)
	}

	img := d.StreakImage()
	wantImg := [][]float64{{1, 2, 3}, {4, 5, 6}}
	if diff := cmp.Diff(wantImg, img); diff != "" {
		t.Errorf("streak image mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]float64{0, 0.5}, d.TimeAxis); diff != "" {
		t.Errorf("time axis mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{400, 402.5, 405}, d.WavelengthAxis); diff != "" {
		t.Errorf("wavelength axis mismatch (-want +got):\n%s", diff)
	}

	// triples pair every sample with its row time and column wavelength
	if d.Time[4] != 0.5 || d.Wavelength[4] != 402.5 || d.Intensity[4] != 5 {
		t.Errorf("unexpected triple at index 4: (%v, %v, %v)", d.Time[4], d.Wavelength[4], d.Intensity[4])
	}
}

func TestDecodeTruncatedHeader(t *testing.T) {
	raw := rawFile(3, 2, []uint16{1, 2, 3, 4, 5, 6})
	var ferr *trpl.FormatError
	_, err := trpl.Decode(bytes.NewReader(raw[:10]))
	if !errors.As(err, &ferr) {
		t.Errorf("expected FormatError for truncated header, got %v", err)
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	raw := rawFile(3, 2, []uint16{1, 2, 3, 4})
	var ferr *trpl.FormatError
	_, err := trpl.Decode(bytes.NewReader(raw))
	if !errors.As(err, &ferr) {
		t.Errorf("expected FormatError for truncated payload, got %v", err)
	}
}

func TestDecodeTrailingBytesIgnored(t *testing.T) {
	raw := rawFile(3, 2, []uint16{1, 2, 3, 4, 5, 6})
	raw = append(raw, []byte("footer variant data")...)
	d, err := trpl.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("trailing bytes must be ignored, got %v", err)
	}
	if len(d.Intensity) != 6 {
		t.Errorf("expected 6 samples, got %d", len(d.Intensity))
	}
}

func TestDecodeZeroExtent(t *testing.T) {
	var ferr *trpl.FormatError
	_, err := trpl.Decode(bytes.NewReader(rawFile(0, 2, nil)))
	if !errors.As(err, &ferr) {
		t.Errorf("expected FormatError for zero width, got %v", err)
	}
	_, err = trpl.Decode(bytes.NewReader(rawFile(3, 0, nil)))
	if !errors.As(err, &ferr) {
		t.Errorf("expected FormatError for zero height, got %v", err)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	raw := rawFile(3, 2, []uint16{1, 2, 3, 4, 5, 6})
	raw[0] = 'X'
	var ferr *trpl.FormatError
	_, err := trpl.Decode(bytes.NewReader(raw))
	if !errors.As(err, &ferr) {
		t.Errorf("expected FormatError for bad magic, got %v", err)
	}
}

func TestEncodeRawRoundTrip(t *testing.T) {
	raw := rawFile(3, 2, []uint16{1, 2, 3, 4, 5, 6})
	d, err := trpl.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := d.EncodeRaw(&buf); err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if !bytes.Equal(raw, buf.Bytes()) {
		t.Errorf("re-encoded bytes differ from the original file")
	}

	d2, err := trpl.Decode(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(d, d2); diff != "" {
		t.Errorf("round-tripped dataset differs (-want +got):\n%s", diff)
	}
}
