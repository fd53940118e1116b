package eval

import (
	"github.com/spacemonkeygo/errors"
)

/*
	Raised when a formula's domain can't be worked with: the sampler gave
	up finding points where the formula is defined, or a sample holds no
	point on which exact evaluation succeeded.

	Undefined results at individual points are *not* DomainErrors; those
	are recorded in place on the report.
*/
var DomainError *errors.ErrorClass = errors.NewClass("DomainError")
