/*
	The sample package draws reproducible point sets for a formula.

	Points are drawn by reinterpreting raw 64-bit PCG output as binary64
	bit patterns.  That spreads inputs evenly over exponents rather than
	over the number line, so tiny, huge, and subnormal inputs all turn up
	about as often as ordinary ones.  A drawn point is kept only if its
	inputs are finite, it satisfies the precondition, and the formula's
	exact value there is a finite number.

	The seed fully determines the sequence: the same (formula, seed, size)
	gives bit-identical points, in the same order, on any machine.
*/
package sample

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/spacemonkeygo/errors"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/eval"
)

const DefaultSize = 8000

// Sampling gives up after this many rejections in a row.
const maxConsecutiveRejects = 10000

// Second half of the PCG state; the seed supplies the first.
const streamConstant = 0xda3e39cb94b95bdb

// StatsKey holds the *Stats of a failed sampling run on its DomainError.
var StatsKey = errors.GenSym()

type Stats struct {
	Drawn      int `json:"drawn"`
	Accepted   int `json:"accepted"`
	NonFinite  int `json:"nonFinite"`  // drawn inputs that were NaN or infinite
	FailedPre  int `json:"failedPre"`  // precondition false
	Invalid    int `json:"invalid"`    // exact output undefined
	Infinite   int `json:"infinite"`   // exact output overflows binary64
	Unsure     int `json:"unsure"`     // exact evaluation didn't settle
	MaxRejects int `json:"maxRejects"` // longest run of consecutive rejections
}

func (s Stats) String() string {
	return fmt.Sprintf("drawn=%d accepted=%d nonfinite=%d pre=%d invalid=%d infinite=%d unsure=%d",
		s.Drawn, s.Accepted, s.NonFinite, s.FailedPre, s.Invalid, s.Infinite, s.Unsure)
}

/*
	Sample draws `size` points for the formula from the stream named by
	`seed`.  Every returned point carries the exact output.

	If the formula is defined almost nowhere, sampling fails with an
	`eval.DomainError` carrying the stats under `StatsKey`.
*/
func Sample(f *def.Formula, seed uint64, size int) (def.SampleSet, Stats, error) {
	var stats Stats
	if size <= 0 {
		return nil, stats, def.ValidationError.New("sample size must be positive, not %d", size)
	}
	rng := rand.New(rand.NewPCG(seed, streamConstant))
	points := make(def.SampleSet, 0, size)
	rejects := 0

	for len(points) < size {
		// Draw a batch in stream order, filter cheaply, then do the
		// expensive exact evaluations in parallel.  Acceptance still
		// happens in draw order, so the result doesn't depend on batching.
		want := size - len(points)
		batch := make([][]float64, 0, want+want/4+16)
		verdicts := make([]int, 0, cap(batch))
		for i := 0; i < cap(batch); i++ {
			x := make([]float64, f.Arity())
			for j := range x {
				x[j] = math.Float64frombits(rng.Uint64())
			}
			batch = append(batch, x)
			verdicts = append(verdicts, screen(f, x))
		}
		var candidates [][]float64
		for i, v := range verdicts {
			if v == accepted {
				candidates = append(candidates, batch[i])
			}
		}
		truth := eval.Exacts(f, candidates)

		next := 0
		for i, x := range batch {
			stats.Drawn++
			v := verdicts[i]
			var out float64
			if v == accepted {
				out = truth.Values[next]
				switch truth.Status[next] {
				case eval.Invalid:
					v = rejectInvalid
				case eval.Infinite:
					v = rejectInfinite
				case eval.Unsure:
					v = rejectUnsure
				}
				next++
			}
			switch v {
			case accepted:
				stats.Accepted++
				rejects = 0
				points = append(points, def.Point{Inputs: x, Output: out})
			case rejectNonFinite:
				stats.NonFinite++
			case rejectPre:
				stats.FailedPre++
			case rejectInvalid:
				stats.Invalid++
			case rejectInfinite:
				stats.Infinite++
			case rejectUnsure:
				stats.Unsure++
			}
			if v != accepted {
				rejects++
				stats.MaxRejects = max(stats.MaxRejects, rejects)
				if rejects >= maxConsecutiveRejects {
					return nil, stats, eval.DomainError.NewWith(
						fmt.Sprintf("could not sample %s: %d points in a row were rejected (%s)", f, rejects, stats),
						errors.SetData(StatsKey, &stats),
					)
				}
			}
			if len(points) == size {
				break
			}
		}
	}
	return points, stats, nil
}

const (
	accepted = iota
	rejectNonFinite
	rejectPre
	rejectInvalid
	rejectInfinite
	rejectUnsure
)

func screen(f *def.Formula, x []float64) int {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return rejectNonFinite
		}
	}
	if !eval.Pre(f, x) {
		return rejectPre
	}
	return accepted
}

// NewSeed picks a seed for callers that didn't name one.
func NewSeed() uint64 {
	return rand.Uint64()
}
