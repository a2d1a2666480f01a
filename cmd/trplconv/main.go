package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/snksoft/crc"
	"github.com/theckman/yacspin"

	"github.com/wasedatakeuchilab/tlab-analysis/trpl"
)

// Version is the version number.  Typically injected via ldflags with git build
var Version = "1"

var crcTable = crc.NewTable(crc.XMODEM)

func root() {
	str := `trpl-conv converts raw streak camera measurements to FITS
and inspects their headers without leaving the terminal.

Usage:
	trpl-conv <command> [args]

Commands:
	convert <in.img> [out.fits]
	info <in.img>
	help
	version`
	fmt.Println(str)
}

func pversion() {
	fmt.Printf("trpl-conv version %v\n", Version)
}

func convert(in, out string) {
	cfg := yacspin.Config{
		Frequency:     100 * time.Millisecond,
		CharSet:       yacspin.CharSets[59],
		Suffix:        " converting",
		Message:       in,
		StopCharacter: "✓",
		StopColors:    []string{"fgGreen"},
	}
	spinner, err := yacspin.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	spinner.Start()

	ds, err := trpl.ReadFile(in)
	if err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}
	f, err := os.Create(out)
	if err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}
	defer f.Close()
	if err := ds.WriteFITS(f); err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}
	spinner.Message(out)
	spinner.Stop()
}

func info(in string) {
	raw, err := os.ReadFile(in)
	if err != nil {
		log.Fatal(err)
	}
	ds, err := trpl.Decode(bytes.NewReader(raw))
	if err != nil {
		log.Fatal(err)
	}
	h := ds.Header
	payload := raw[trpl.HeaderSize : trpl.HeaderSize+2*h.Width*h.Height]

	spectrum, err := ds.AggregateAlongTime(nil)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("label:       %s\n", h.Label)
	fmt.Printf("acquired:    %s\n", h.Timestamp.Format(time.RFC3339))
	fmt.Printf("exposure:    %v\n", h.Exposure)
	fmt.Printf("MCP gain:    %d\n", h.MCPGain)
	fmt.Printf("extents:     %d wavelength x %d time\n", h.Width, h.Height)
	fmt.Printf("time axis:   %g ns/row\n", h.TimeStep)
	fmt.Printf("wavelength:  %g + j*%g nm\n", h.WavelengthOrigin, h.WavelengthStep)
	fmt.Printf("total counts: %g\n", spectrum.Total())
	fmt.Printf("payload CRC: %04X\n", crcTable.CalculateCRC(payload))
	if extra := len(raw) - trpl.HeaderSize - len(payload); extra > 0 {
		fmt.Printf("trailing:    %d bytes ignored\n", extra)
	}
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	cmd := strings.ToLower(args[1])
	switch cmd {
	case "help":
		root()
	case "version":
		pversion()
	case "convert":
		if len(args) < 3 {
			log.Fatal("convert requires an input file")
		}
		in := args[2]
		out := strings.TrimSuffix(in, ".img") + ".fits"
		if len(args) > 3 {
			out = args[3]
		}
		convert(in, out)
	case "info":
		if len(args) < 3 {
			log.Fatal("info requires an input file")
		}
		info(args[2])
	default:
		log.Fatal("unknown command")
	}
}
