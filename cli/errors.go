package cli

import (
	"github.com/spacemonkeygo/errors"
)

type ExitCode byte

const (
	EXIT_BADARGS      = ExitCode(1)
	EXIT_UNKNOWNPANIC = ExitCode(2) // same code as golang uses when the process dies naturally on an unhandled panic.
	EXIT_USER         = ExitCode(3) // grab bag for general user input errors (try to make a more specific code if possible/useful)
)

var ExitCodeKey = errors.GenSym()

/*
	CLI errors are the last line: they should be formatted to be user-facing.
	The main method will convert a CLIError into a short and well-formatted
	message, and will *not* include stack traces unless the user is running
	with debug mode enabled.

	CLI errors are an appropriate wrapping for anything where we can map a
	problem onto something the user can understand and fix: a formula that
	doesn't parse, a language we can't generate, a config file with typos.
	Errors that are an fperr bug or unknown territory should *not* be
	mapped into a CLIError.
*/
var Error *errors.ErrorClass = errors.NewClass("CLIError")

/*
	Use this to set a specific error code the process should exit with
	when producing a `cli.Error`.

	Example: `cli.Error.New("something terrible!", SetExitCode(EXIT_BADARGS))`
*/
func SetExitCode(code ExitCode) errors.ErrorOption {
	return errors.SetData(ExitCodeKey, code)
}

// The exit code a `cli.Error` asked for; EXIT_USER if it didn't say.
func GetExitCode(err error) ExitCode {
	if code, ok := errors.GetData(err, ExitCodeKey).(ExitCode); ok {
		return code
	}
	return EXIT_USER
}

/*
	Turn errors the user can do something about into CLI errors.  Anything
	else passes through untouched, to be reported as a bug.
*/
func userFacing(err error) error {
	if err == nil {
		return nil
	}
	if errors.GetClass(err).Is(Error) {
		return err
	}
	for _, class := range userClasses {
		if errors.GetClass(err).Is(class) {
			return Error.NewWith(errors.GetMessage(err), SetExitCode(EXIT_USER))
		}
	}
	return err
}
