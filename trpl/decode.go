package trpl

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wasedatakeuchilab/tlab-analysis/util"
)

// FormatError describes a malformed measurement file: truncated header or
// payload, bad magic, or invalid header-derived extents.  Decoding is not
// retried on a FormatError; the input is unusable.
type FormatError struct {
	// Offset is the byte offset the problem was detected at.
	Offset int64

	// Reason is a human-readable description.
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("trpl: invalid format at byte %d: %s", e.Offset, e.Reason)
}

// Decode reads one measurement record from r in a single sequential pass
// and returns the decoded dataset.  Bytes following the payload are left
// unread.  Errors caused by malformed input are of type *FormatError.
func Decode(r io.Reader) (*Dataset, error) {
	head := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, head); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &FormatError{Offset: 0, Reason: "truncated header"}
		}
		return nil, err
	}
	h, err := decodeHeader(head)
	if err != nil {
		return nil, err
	}

	n := h.Width * h.Height
	payload := make([]byte, 2*n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &FormatError{Offset: HeaderSize, Reason: fmt.Sprintf("truncated payload, want %d samples", n)}
		}
		return nil, err
	}

	d := &Dataset{
		Header:         h,
		TimeAxis:       util.Arange(0, h.TimeStep, h.Height),
		WavelengthAxis: util.Arange(h.WavelengthOrigin, h.WavelengthStep, h.Width),
		Time:           make([]float64, n),
		Wavelength:     make([]float64, n),
		Intensity:      make([]float64, n),
	}
	for i := 0; i < n; i++ {
		row, col := i/h.Width, i%h.Width
		d.Time[i] = d.TimeAxis[row]
		d.Wavelength[i] = d.WavelengthAxis[col]
		d.Intensity[i] = float64(binary.LittleEndian.Uint16(payload[2*i:]))
	}
	return d, nil
}

// EncodeRaw writes d back out in the instrument's binary format: the
// 64-byte header followed by the row-major uint16 payload.  Intensity
// values are clamped to the uint16 range.
func (d *Dataset) EncodeRaw(w io.Writer) error {
	if _, err := w.Write(encodeHeader(d.Header)); err != nil {
		return err
	}
	buf := make([]byte, 2*len(d.Intensity))
	for i, v := range d.Intensity {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(util.Clamp(v, 0, 65535)))
	}
	_, err := w.Write(buf)
	return err
}
