package def

import (
	"github.com/spacemonkeygo/errors"
)

/*
	Raised when formula text cannot be turned into a formula: unbalanced
	parens, unknown operators, arity mismatches, undeclared variables,
	malformed literals.

	Parse errors are always detected before any evaluation is attempted.
*/
var ParseError *errors.ErrorClass = errors.NewClass("ParseError")

/*
	Validation error is a base class for anything that matches the description
	of an HTTP 400 but isn't about formula syntax: sample points with the
	wrong arity, empty samples where points are required, unknown request
	kinds, and so on.
*/
var ValidationError *errors.ErrorClass = errors.NewClass("ValidationError")
