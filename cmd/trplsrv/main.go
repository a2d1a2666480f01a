package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"goji.io"

	yml "gopkg.in/yaml.v2"

	"github.com/wasedatakeuchilab/tlab-analysis/imgrec"
	"github.com/wasedatakeuchilab/tlab-analysis/server/middleware/locker"
	"github.com/wasedatakeuchilab/tlab-analysis/trpl"
	"github.com/wasedatakeuchilab/tlab-analysis/trplhttp"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "trpl-http.yml"
	k              = koanf.New(".")
)

type recorder struct {
	// Root is the root folder to write to
	Root string `yaml:"Root"`

	// Prefix is the filename prefix to use
	Prefix string `yaml:"Prefix"`

	// Enabled turns recording of uploaded measurements on or off
	Enabled bool `yaml:"Enabled"`
}

type config struct {
	Addr       string   `yaml:"Addr"`
	Root       string   `yaml:"Root"`
	File       string   `yaml:"File"`
	UploadRate float64  `yaml:"UploadRate"`
	Recorder   recorder `yaml:"Recorder"`
}

func setupconfig() {
	k.Load(structs.Provider(config{
		Addr:       ":8000",
		Root:       "/",
		File:       "",
		UploadRate: 4,
		Recorder:   recorder{}}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `trpl-http serves a streak camera TRPL measurement over HTTP
This enables a server-client architecture,
and the clients can leverage the excellent HTTP
libraries for any programming language,
instead of parsing the raw binary themselves.

Usage:
	trpl-http <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `trpl-http is amenable to configuration via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

When no configuration is provided, the defaults are used.  Keys are not case-sensitive.
The command mkconf generates the configuration file with the default values.

File, when set, is a raw .img measurement preloaded at boot.  Without it the
server starts empty and expects a POST to /measurement.

Uploaded measurements are recorded to FITS under Recorder.Root when
Recorder.Enabled is true.

POST true to /lock to reject uploads while an acquisition is being reviewed.`
	fmt.Println(str)
}

func mkconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	err = yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("trpl-http version %v\n", Version)
}

// subMuxSanitize ensures the mount path begins with a slash and does not
// end with one
func subMuxSanitize(str string) string {
	if !strings.HasPrefix(str, "/") {
		str = "/" + str
	}
	return strings.TrimSuffix(str, "/")
}

func run() {
	cfg := config{}
	err := k.Unmarshal("", &cfg)
	if err != nil {
		log.Fatal(err)
	}

	var ds *trpl.Dataset
	if cfg.File != "" {
		ds, err = trpl.ReadFile(cfg.File)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("loaded %s: %dx%d %q", cfg.File, ds.Header.Width, ds.Header.Height, ds.Header.Label)
	}

	args := cfg.Recorder
	rec := &imgrec.Recorder{Root: args.Root, Prefix: args.Prefix, Enabled: args.Enabled}
	w := trplhttp.NewWrapper(ds, rec, cfg.UploadRate)
	lock := locker.New()
	locker.Inject(w, lock)

	mux := goji.NewMux()
	mux.Use(lock.Check)
	w.RT().Bind(mux)

	hndlrS := subMuxSanitize(cfg.Root)
	rootMux := chi.NewRouter()
	if hndlrS == "" {
		rootMux.Mount("/", mux)
	} else {
		rootMux.Handle(hndlrS+"/*", http.StripPrefix(hndlrS, mux))
	}
	log.Println("now listening for requests at ", cfg.Addr+hndlrS)
	log.Fatal(http.ListenAndServe(cfg.Addr, rootMux))
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
