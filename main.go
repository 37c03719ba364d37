// Command c8 executes CHIP-8 programs.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"

	"github.com/nf/c8/host"
)

func main() {
	log.SetPrefix("c8: ")
	log.SetFlags(0)

	var (
		cliFlag   = flag.Bool("cli", false, "disable GUI features")
		muteFlag  = flag.Bool("mute", false, "disable the beep")
		devFlag   = flag.Bool("dev", false, "enable developer mode (reload the program when its file changes)")
		debugFlag = flag.Bool("debug", false, "enable debugger (implies -dev)")
		romsFlag  = flag.String("roms", "roms", "`directory` listed by the debugger's load command")

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-cli] [-mute] <program.ch8>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [-cli] <-dev | -debug> <program.ch8>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}

	cfg := loadConfig()

	if *devFlag || *debugFlag {
		err := devMode(cfg, devOptions{
			gui:     !*cliFlag,
			mute:    *muteFlag,
			debug:   *debugFlag,
			romsDir: *romsFlag,
			romFile: flag.Arg(0),
		})
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			log.Fatalf("creating CPU profile file: %v", err)
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	err := run(cfg, flag.Arg(0), !*cliFlag, *muteFlag)

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	if err != nil {
		log.Fatal(err)
	}
}

func run(cfg host.Config, romFile string, guiEnabled, mute bool) error {
	rom, err := os.ReadFile(romFile)
	if err != nil {
		return err
	}
	r := host.NewRunner(cfg, guiEnabled, mute, nil)
	return r.Run(rom)
}

func loadConfig() host.Config {
	path, err := host.DefaultConfigPath()
	if err != nil {
		log.Printf("config: %v", err)
		return host.DefaultConfig()
	}
	cfg, err := host.LoadConfig(path)
	if err != nil {
		log.Printf("config: %v", err)
	}
	return cfg
}
