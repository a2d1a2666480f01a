// Package trpl decodes raw binary streak-camera measurement files
// (time-resolved photoluminescence) into an in-memory dataset supporting
// spectral and temporal aggregation.
//
// The on-disk record is a fixed 64-byte little-endian header followed by
// width*height uint16 intensity samples in row-major order (time rows,
// wavelength columns).  Trailing bytes after the payload are permitted and
// ignored, which tolerates format variants with footers.
package trpl

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

// HeaderSize is the fixed size of the file header in bytes.
const HeaderSize = 64

// headerMagic identifies a streak image record.
var headerMagic = [2]byte{'I', 'M'}

// Header is the acquisition metadata block at the start of a measurement
// file.
type Header struct {
	// Label is the operator comment recorded at acquisition.
	Label string `json:"label" yaml:"label"`

	// Timestamp is the acquisition date and time.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Exposure is the exposure duration.
	Exposure time.Duration `json:"exposure" yaml:"exposure"`

	// MCPGain is the gain of the microchannel plate.
	MCPGain int `json:"mcpGain" yaml:"mcpGain"`

	// Shutter is the shutter setting.
	Shutter int `json:"shutter" yaml:"shutter"`

	// Width is the number of wavelength-axis samples (columns).
	Width int `json:"width" yaml:"width"`

	// Height is the number of time-axis samples (rows).
	Height int `json:"height" yaml:"height"`

	// TimeStep is the time increment per row in nanoseconds.
	TimeStep float64 `json:"timeStep" yaml:"timeStep"`

	// WavelengthOrigin is the wavelength of column zero in nanometers.
	WavelengthOrigin float64 `json:"wavelengthOrigin" yaml:"wavelengthOrigin"`

	// WavelengthStep is the wavelength increment per column in nanometers.
	WavelengthStep float64 `json:"wavelengthStep" yaml:"wavelengthStep"`
}

// field kinds understood by the header schema
const (
	kindMagic = iota
	kindU16
	kindF32
	kindText
	kindDateTime
)

// headerField is one entry in the header schema: a named byte range and the
// rule used to decode it.
type headerField struct {
	name string
	off  int
	size int
	kind int
}

// headerSchema is the full fixed-offset layout of the header, in file
// order.  Decoding walks this table in a single bounds-checked pass, so any
// layout mistake shows up in the schema tests rather than as scattered
// offset arithmetic.
var headerSchema = []headerField{
	{name: "magic", off: 0, size: 2, kind: kindMagic},
	{name: "width", off: 2, size: 2, kind: kindU16},
	{name: "height", off: 4, size: 2, kind: kindU16},
	{name: "format", off: 6, size: 2, kind: kindU16},
	{name: "timestamp", off: 8, size: 4, kind: kindDateTime},
	{name: "exposure", off: 12, size: 4, kind: kindF32},
	{name: "mcpGain", off: 16, size: 2, kind: kindU16},
	{name: "shutter", off: 18, size: 2, kind: kindU16},
	{name: "timeStep", off: 20, size: 4, kind: kindF32},
	{name: "wavelengthOrigin", off: 24, size: 4, kind: kindF32},
	{name: "wavelengthStep", off: 28, size: 4, kind: kindF32},
	{name: "label", off: 32, size: 24, kind: kindText},
	// bytes 56..63 reserved
}

// formatStreak is the only payload encoding the decoder understands:
// 16-bit unsigned little-endian samples.
const formatStreak = 2

// decodeHeader parses a HeaderSize byte block.  buf must hold at least
// HeaderSize bytes.
func decodeHeader(buf []byte) (Header, error) {
	var (
		h      Header
		format int
	)
	for _, f := range headerSchema {
		b := buf[f.off : f.off+f.size]
		switch f.kind {
		case kindMagic:
			if b[0] != headerMagic[0] || b[1] != headerMagic[1] {
				return h, &FormatError{Offset: int64(f.off), Reason: fmt.Sprintf("bad magic %q", b)}
			}
		case kindU16:
			v := int(binary.LittleEndian.Uint16(b))
			switch f.name {
			case "width":
				h.Width = v
			case "height":
				h.Height = v
			case "format":
				format = v
			case "mcpGain":
				h.MCPGain = v
			case "shutter":
				h.Shutter = v
			}
		case kindF32:
			v := float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
			switch f.name {
			case "exposure":
				h.Exposure = time.Duration(v * float64(time.Second))
			case "timeStep":
				h.TimeStep = v
			case "wavelengthOrigin":
				h.WavelengthOrigin = v
			case "wavelengthStep":
				h.WavelengthStep = v
			}
		case kindText:
			h.Label = strings.TrimRight(string(b), " \x00")
		case kindDateTime:
			h.Timestamp = unpackDateTime(binary.LittleEndian.Uint16(b), binary.LittleEndian.Uint16(b[2:]))
		}
	}
	if format != formatStreak {
		return h, &FormatError{Offset: 6, Reason: fmt.Sprintf("unsupported pixel format %d", format)}
	}
	if h.Width <= 0 {
		return h, &FormatError{Offset: 2, Reason: "width must be positive"}
	}
	if h.Height <= 0 {
		return h, &FormatError{Offset: 4, Reason: "height must be positive"}
	}
	return h, nil
}

// encodeHeader is the inverse of decodeHeader; it writes h into a fresh
// HeaderSize byte block.
func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	for _, f := range headerSchema {
		b := buf[f.off : f.off+f.size]
		switch f.kind {
		case kindMagic:
			copy(b, headerMagic[:])
		case kindU16:
			var v int
			switch f.name {
			case "width":
				v = h.Width
			case "height":
				v = h.Height
			case "format":
				v = formatStreak
			case "mcpGain":
				v = h.MCPGain
			case "shutter":
				v = h.Shutter
			}
			binary.LittleEndian.PutUint16(b, uint16(v))
		case kindF32:
			var v float64
			switch f.name {
			case "exposure":
				v = h.Exposure.Seconds()
			case "timeStep":
				v = h.TimeStep
			case "wavelengthOrigin":
				v = h.WavelengthOrigin
			case "wavelengthStep":
				v = h.WavelengthStep
			}
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		case kindText:
			copy(b, padText(h.Label, f.size))
		case kindDateTime:
			d, t := packDateTime(h.Timestamp)
			binary.LittleEndian.PutUint16(b, d)
			binary.LittleEndian.PutUint16(b[2:], t)
		}
	}
	return buf
}

func padText(s string, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

// The timestamp is packed in the DOS scheme: the date word holds
// (year-1980)<<9 | month<<5 | day, the time word hour<<11 | minute<<5 |
// second/2.

func unpackDateTime(d, t uint16) time.Time {
	year := int(d>>9) + 1980
	month := time.Month(d >> 5 & 0x0F)
	day := int(d & 0x1F)
	hour := int(t >> 11)
	minute := int(t >> 5 & 0x3F)
	sec := int(t&0x1F) * 2
	return time.Date(year, month, day, hour, minute, sec, 0, time.UTC)
}

func packDateTime(ts time.Time) (d, t uint16) {
	ts = ts.UTC()
	d = uint16(ts.Year()-1980)<<9 | uint16(ts.Month())<<5 | uint16(ts.Day())
	t = uint16(ts.Hour())<<11 | uint16(ts.Minute())<<5 | uint16(ts.Second()/2)
	return d, t
}
