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
	"strings"
	"time"

	"github.com/tebeka/atexit"

	"github.com/ezrec/jello/cpu"
	"github.com/ezrec/jello/emulator"
	"github.com/ezrec/jello/inspect"
)

const VERSION = "0.3.0"

// options are the command line settings.
type options struct {
	assemble bool
	output   string
	timing   bool
	quiet    bool
	buffered bool
	trace    int
	clockHz  float64
	expr     string
	input    string
	version  bool
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), "usage: %v FILE [flags]\n\n", fs.Name())
		fmt.Fprintf(fs.Output(), "Assemble and run a jello program.\n\n")
		fs.PrintDefaults()
	}
}

// parseArgs parses the command line. The program file may be given before
// or after the flags.
func parseArgs(args []string) (file string, opt options, err error) {
	fs := flag.NewFlagSet("jello", flag.ContinueOnError)
	fs.Usage = usage(fs)

	fs.BoolVar(&opt.version, "v", false, "Print the version and exit")
	fs.BoolVar(&opt.assemble, "a", false, "Assemble only, writing the byte stream to the -o path")
	fs.StringVar(&opt.output, "o", "a.ja", "Output file for -a")
	fs.BoolVar(&opt.timing, "m", false, "Print elapsed assembly and execution time")
	fs.BoolVar(&opt.quiet, "q", false, "Suppress non-program output")
	fs.BoolVar(&opt.buffered, "b", false, "Buffer program output until the run ends")
	fs.IntVar(&opt.trace, "dbl", 0, "Trace level (0 none, 1 instructions, 2 machine state)")
	fs.Float64Var(&opt.clockHz, "t", 0, "Clock rate in Hz (0 for unthrottled)")
	fs.StringVar(&opt.expr, "x", "", "Starlark expression to print over the final machine state")
	fs.StringVar(&opt.input, "i", "", "Input buffer contents from a file ('-' for stdin)")

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		file = args[0]
		args = args[1:]
	}

	err = fs.Parse(args)
	if err != nil {
		return
	}

	rest := fs.Args()
	if len(file) == 0 && len(rest) > 0 {
		file = rest[0]
		rest = rest[1:]
	}
	if len(rest) != 0 {
		err = fmt.Errorf("unknown arguments: %v", rest)
		return
	}

	if opt.version {
		return
	}

	switch {
	case len(file) == 0:
		err = fmt.Errorf("no program file given")
	case opt.trace < int(emulator.TRACE_NONE) || opt.trace > int(emulator.TRACE_STATE):
		err = fmt.Errorf("-dbl %d: trace level must be 0, 1 or 2", opt.trace)
	case opt.clockHz < 0:
		err = fmt.Errorf("-t %v: clock rate must not be negative", opt.clockHz)
	}

	return
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("jello: ")

	file, opt, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		atexit.Exit(0)
	}
	if err != nil {
		log.Printf("%v", err)
		atexit.Exit(2)
	}

	if opt.version {
		fmt.Printf("jello %v\n", VERSION)
		atexit.Exit(0)
	}

	inf, err := os.Open(file)
	if err != nil {
		log.Printf("%v", err)
		atexit.Exit(1)
	}

	start := time.Now()
	asm := &cpu.Assembler{Verbose: opt.trace >= int(emulator.TRACE_STATE)}
	prog, err := asm.Parse(inf)
	inf.Close()
	if err != nil {
		log.Printf("%v: %v", file, err)
		atexit.Exit(1)
	}
	assembled := time.Since(start)

	if opt.timing && !opt.quiet {
		atexit.Register(func() {
			log.Printf("assembled %d bytes in %v", len(prog.Binary), assembled)
		})
	}

	if opt.assemble {
		err = os.WriteFile(opt.output, prog.Binary, 0o644)
		if err != nil {
			log.Printf("%v", err)
			atexit.Exit(1)
		}
		if !opt.quiet {
			log.Printf("wrote %d bytes to %v", len(prog.Binary), opt.output)
		}
		atexit.Exit(0)
	}

	emu := emulator.NewEmulator()
	emu.Trace = emulator.TraceLevel(opt.trace)
	emu.Buffered = opt.buffered
	emu.Cpu.ClockHz = opt.clockHz
	emu.Tape.Output = os.Stdout

	// Held output is written even when the run is interrupted or fails.
	atexit.Register(func() {
		err := emu.Flush()
		if err != nil {
			log.Printf("%v", err)
		}
	})

	err = emu.Load(prog)
	if err != nil {
		log.Printf("%v: %v", file, err)
		atexit.Exit(1)
	}

	switch opt.input {
	case "":
	case "-":
		emu.Tape.Input = os.Stdin
		emu.Feed()
	default:
		inf, err := os.Open(opt.input)
		if err != nil {
			log.Printf("%v", err)
			atexit.Exit(1)
		}
		emu.Tape.Input = inf
		emu.Feed()
		inf.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start = time.Now()
	err = emu.Run(ctx)
	elapsed := time.Since(start)

	if opt.timing && !opt.quiet {
		atexit.Register(func() {
			log.Printf("executed %d instructions (%d cycles) in %v",
				emu.Cpu.Ticks, emu.Cpu.Cycles, elapsed)
		})
	}

	if err != nil {
		log.Printf("%v: %v", file, err)
		atexit.Exit(1)
	}

	if len(opt.expr) != 0 {
		err = emu.Flush()
		if err != nil {
			log.Printf("%v", err)
			atexit.Exit(1)
		}
		var text string
		text, err = inspect.Eval(emu.Cpu, opt.expr)
		if err != nil {
			log.Printf("%v", err)
			atexit.Exit(1)
		}
		fmt.Println(text)
	}

	atexit.Exit(0)
}
