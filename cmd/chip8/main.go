// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/frontend/desktop"
	"github.com/ezrec/chip8/frontend/term"
)

func main() {
	var compile string
	var output string
	var save bool
	var disassemble bool
	var ui string
	var hz int
	var verbose bool
	var quirks string

	flag.StringVar(&compile, "c", "", ".asm file to compile")
	flag.StringVar(&output, "o", "", "Binary ROM output")
	flag.BoolVar(&save, "s", false, "Save ROM to output, do not execute")
	flag.BoolVar(&disassemble, "d", false, "Disassemble ROM, do not execute")
	flag.StringVar(&ui, "ui", "term", "User interface (term, desktop, none)")
	flag.IntVar(&hz, "hz", emulator.DEFAULT_HZ, "Steps per second")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&quirks, "q", "original", "Quirk preset (original, cosmac, modern)")

	flag.Parse()

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	preset, ok := cpu.QuirkPresets[quirks]
	if !ok {
		log.Fatalf("%v: unknown quirk preset %q", os.Args[0], quirks)
	}
	emu.Quirks = preset

	var rom []byte

	if len(compile) != 0 {
		// Compile a new instruction stream.
		if flag.NArg() != 0 {
			log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
		}

		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		prog, err := emu.Assemble(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		rom = prog.Binary()
	} else {
		if flag.NArg() != 1 {
			log.Fatalf("%v: expected one ROM file, got %v", os.Args[0], flag.Args())
		}

		var err error
		rom, err = os.ReadFile(flag.Arg(0))
		if err != nil {
			log.Fatal(err)
		}

		err = emu.Load(rom)
		if err != nil {
			log.Fatalf("%v: %v", flag.Arg(0), err)
		}
	}

	if len(output) != 0 {
		err := os.WriteFile(output, rom, 0o644)
		if err != nil {
			log.Fatal(err)
		}
	}

	if disassemble {
		for addr, code := range cpu.Disassemble(rom) {
			fmt.Printf("%03x: %04x %v\n", addr, uint16(code), code)
		}
	}

	if save || disassemble {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	emu.Reset()

	var err error
	switch ui {
	case "term":
		terminal := term.NewTerminal(emu)
		terminal.Hz = hz
		err = terminal.Run(ctx)
	case "desktop":
		err = desktop.Run(ctx, emu, hz)
	case "none":
		err = emu.Run(ctx, hz, func(frame *display.Frame) {
			log.Printf("\n%v", frame)
		})
	default:
		log.Fatalf("%v: unknown user interface %q", os.Args[0], ui)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
