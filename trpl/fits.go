package trpl

import (
	"io"
	"time"

	"github.com/astrogo/fitsio"
)

// WriteFITS streams the streak image to w as a 16-bit FITS file with the
// acquisition metadata in the header.  The usual BZERO 32768 offset maps
// the unsigned samples onto FITS signed integers.
func (d *Dataset) WriteFITS(w io.Writer) error {
	cards := []fitsio.Card{
		{Name: "BZERO", Value: 32768},
		{Name: "BSCALE", Value: 1.0},
		{Name: "LABEL", Value: d.Header.Label, Comment: "acquisition label"},
		{Name: "DATE-OBS", Value: d.Header.Timestamp.Format(time.RFC3339), Comment: "acquisition time"},
		{Name: "EXPTIME", Value: d.Header.Exposure.Seconds(), Comment: "[s] exposure duration"},
		{Name: "MCPGAIN", Value: d.Header.MCPGain, Comment: "microchannel plate gain"},
		{Name: "SHUTTER", Value: d.Header.Shutter, Comment: "shutter setting"},
		{Name: "TIMESTEP", Value: d.Header.TimeStep, Comment: "[ns] time per row"},
		{Name: "WAVEORIG", Value: d.Header.WavelengthOrigin, Comment: "[nm] wavelength of column 0"},
		{Name: "WAVESTEP", Value: d.Header.WavelengthStep, Comment: "[nm] wavelength per column"},
	}
	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()
	im := fitsio.NewImage(16, []int{d.Header.Width, d.Header.Height})
	defer im.Close()
	if err := im.Header().Append(cards...); err != nil {
		return err
	}
	ints := make([]int16, len(d.Intensity))
	for i, v := range d.Intensity {
		ints[i] = int16(uint16(v) - 32768)
	}
	if err := im.Write(&ints); err != nil {
		return err
	}
	return fits.Write(im)
}
