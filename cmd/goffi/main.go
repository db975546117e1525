// Command goffi calls one symbol declared in a manifest:
//
//	goffi -manifest libc.yaml strlen hello
//
// Numeric arguments are passed as numbers, everything else as strings.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/CosmWasm/goffi"
	"github.com/CosmWasm/goffi/types"
)

func main() {
	manifest := flag.String("manifest", "goffi.yaml", "manifest declaring the library and its symbols (.yaml, .json or .msgpack)")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: goffi [-manifest path] [-v] symbol [args...]")
		os.Exit(2)
	}
	out, err := run(*manifest, flag.Arg(0), flag.Args()[1:], logger)
	if err != nil {
		logger.Error().Err(err).Msg("call failed")
		os.Exit(1)
	}
	fmt.Println(out)
}

func run(manifest, symbol string, raw []string, logger zerolog.Logger) (string, error) {
	m, err := types.LoadManifest(manifest)
	if err != nil {
		return "", err
	}
	e, err := goffi.NewEngine(m.Config, logger)
	if err != nil {
		return "", err
	}
	defer e.Close()

	lib, err := e.Open(m.Library, m.Symbols)
	if err != nil {
		return "", err
	}
	defer lib.Close()

	fn, ok := lib.Lookup(symbol)
	if !ok {
		return "", fmt.Errorf("%s declares no symbol %q", manifest, symbol)
	}
	args := make([]any, len(raw))
	for i, s := range raw {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			args[i] = f
		} else {
			// text goes in as a NUL-terminated buffer
			args[i] = append([]byte(s), 0)
		}
	}
	ret, err := fn.Call(args...)
	if err != nil {
		return "", err
	}
	switch v := ret.(type) {
	case nil:
		return "", nil
	case *goffi.ByteString:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return fmt.Sprint(ret), nil
}
