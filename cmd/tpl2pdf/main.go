package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	flags, fs, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(ExitSuccess)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsage)
	}

	if flags.version {
		fmt.Println("tpl2pdf", Version)
		os.Exit(ExitSuccess)
	}

	env := DefaultEnv(logLevel(flags.quiet, flags.verbose))

	// Configure GOMAXPROCS for containers. Error ignored: maxprocs.Set only
	// fails on an invalid GOMAXPROCS env, and the runtime default applies.
	_, _ = maxprocs.Set(maxprocs.Logger(env.Logger.Debugf))

	ctx, stop := notifyContext(context.Background())
	defer stop()

	track := newProgress(env.Logger)
	if err := runGenerate(ctx, flags, fs, env, newGeneratorPool); err != nil {
		env.Logger.Error(err.Error())
		stop()
		os.Exit(exitCodeFor(err))
	}
	if !flags.quiet {
		track.done("done")
	}
}
