package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spacemonkeygo/errors"
	"github.com/spacemonkeygo/errors/try"

	"polydawn.net/fperr/cli"
)

func main() {
	try.Do(func() {
		cli.Main(os.Args, os.Stdin, os.Stdout, os.Stderr)
	}).Catch(cli.Error, func(err *errors.Error) {
		// A user-facing problem: say what it was, exit with its code.
		if debugging() {
			panic(err)
		}
		fmt.Fprintf(os.Stderr, "fperr: %s\n", errors.GetMessage(err))
		os.Exit(int(cli.GetExitCode(err)))
	}).CatchAll(func(err error) {
		// Anything else is our bug.  Keep the stacks somewhere for the report.
		if debugging() {
			panic(err)
		}
		bugReport(os.Stderr, err)
		os.Exit(int(cli.EXIT_UNKNOWNPANIC))
	}).Done()
}

// DEBUG or FPERR_DEBUG lets panics through unhandled, stacks and all.
func debugging() bool {
	return os.Getenv("DEBUG") != "" || os.Getenv("FPERR_DEBUG") != ""
}

func bugReport(stderr io.Writer, caught error) {
	fmt.Fprintln(stderr, "fperr hit an internal error and could not finish.")
	fmt.Fprintln(stderr, "Please file an issue so we can fix it.")
	if path, err := writeReport(caught); err == nil {
		fmt.Fprintf(stderr, "The full error was saved to %q; please attach it.\n", path)
	} else {
		fmt.Fprintf(stderr, "Saving the full error failed too (%s).\n", err)
	}
	fmt.Fprintf(stderr, "\nIn short: %s\n", errors.GetMessage(caught))
}

func writeReport(caught error) (string, error) {
	f, err := os.CreateTemp("", "fperr-error-report-")
	if err != nil {
		return "", err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f,
		"fperr error report\n"+
			"date: %s\n"+
			"args: %q\n"+
			"\n%+v\n",
		time.Now().Format(time.RFC3339), os.Args, caught)
	return f.Name(), err
}
