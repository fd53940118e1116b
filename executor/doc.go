/*
	Executor implementations are responsible for turning job requests into
	results.

	The engine executor routes each kind of job to the sampler, the
	evaluator, the search, or the code generator.  Other executors wrap it
	(see `impl/memo`).

	Imports: executors import from the analysis packages (never the other
	way around).
*/
package executor
