/*
	fperr is focused on telling a story about formulas: a formula written
	over the reals is evaluated in binary64, and we tell you how far the
	floating-point answer strays from the real one, where that error comes
	from, and what you could write instead.

	The `def` package holds the vocabulary shared by every other package:
	parsed formulas and their expression trees, sample sets, error reports,
	and the requests and job records that flow through the foreman.

	### Identity:

	A request's job ID is a hash of everything that determines its result:

	h(kind||canonical(formula)||seed||size||sample||language) -> JobID

	Submitting the same request twice yields the same job; changing any
	sample point, even in the last bit, yields a different one.

	### Misc docs:

	- Formulas are immutable once parsed.  Rewrites build new trees,
	sharing untouched subtrees with the original.

	- The formula language is a subset of FPCore: binary64 only, no
	`let`/`if`/`while`.
*/
package def
