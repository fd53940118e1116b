/*
	The improve package searches for better-behaved formulations of a
	formula and explains where the original loses accuracy.

	The search is a beam search over the rewrite rules: each round, every
	rule is tried at every subexpression of every formula in the beam, the
	results are simplified and scored, and the best few go on to the next
	round.  Candidates are scored on a subset of the sample during the
	search; the survivors are rescored on the whole sample at the end.
*/
package improve

import (
	"context"
	"sort"
	"sync"

	"github.com/inconshreveable/log15"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/eval"
	"polydawn.net/fperr/rewrite"
)

type Options struct {
	Iterations int            // rounds of rewriting
	Beam       int            // formulas carried from one round to the next
	Points     int            // sample points used for scoring during the search
	Rules      []rewrite.Rule // identities to try
	Log        log15.Logger
}

func DefaultOptions() Options {
	return Options{
		Iterations: 4,
		Beam:       8,
		Points:     256,
		Rules:      rewrite.Rules,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Iterations <= 0 {
		o.Iterations = d.Iterations
	}
	if o.Beam <= 0 {
		o.Beam = d.Beam
	}
	if o.Points <= 0 {
		o.Points = d.Points
	}
	if o.Rules == nil {
		o.Rules = d.Rules
	}
	if o.Log == nil {
		o.Log = log15.New()
		o.Log.SetHandler(log15.DiscardHandler())
	}
	return o
}

// Candidate is a formula with its score and how it was reached.
type Candidate struct {
	Formula    *def.Formula
	Error      float64 // average bits of error
	Cost       float64
	Derivation []string
}

func (c Candidate) Alternative() def.Alternative {
	return def.Alternative{
		Formula:    c.Formula.String(),
		Error:      c.Error,
		Cost:       c.Cost,
		Derivation: append([]string{}, c.Derivation...),
	}
}

type Result struct {
	Original     Candidate
	Alternatives []Candidate // Pareto frontier on (error, cost); never contains the original
}

/*
	Search runs the beam search.  It fails only when the sample has no
	point with a defined exact value, or when the context is cancelled
	between rounds.
*/
func Search(ctx context.Context, f *def.Formula, sample def.SampleSet, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	inputs := sample.Inputs()
	truth := eval.Exacts(f, inputs)
	full := scorer{inputs, truth}
	if !full.usable() {
		return nil, eval.DomainError.New("no sample point has a defined exact value")
	}
	quick := full.subset(opts.Points)

	original := Candidate{Formula: f, Derivation: []string{}}
	quick.score(&original)
	seen := map[string]bool{f.Body().String(): true}
	beam := []Candidate{original}
	var pool []Candidate

	for round := 0; round < opts.Iterations; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var fresh []Candidate
		for _, parent := range beam {
			for _, rw := range rewrite.All(parent.Formula.Body(), opts.Rules) {
				body := rewrite.Simplify(rw.Result)
				key := body.String()
				if seen[key] {
					continue
				}
				seen[key] = true
				fresh = append(fresh, Candidate{
					Formula:    parent.Formula.With(body),
					Derivation: append(append([]string{}, parent.Derivation...), rw.Rule),
				})
			}
		}
		quick.scoreAll(fresh)
		opts.Log.Debug("search round", "round", round, "beam", len(beam), "candidates", len(fresh))
		if len(fresh) == 0 {
			break
		}
		pool = append(pool, fresh...)
		sortCandidates(fresh)
		// Keep the most accurate, but always carry the frontier too, so a
		// cheap formula that's slightly worse can still seed improvements.
		beam = beam[:0]
		beam = append(beam, frontier(append(fresh, original))...)
		for _, c := range fresh {
			if len(beam) >= opts.Beam {
				break
			}
			if !contains(beam, c) {
				beam = append(beam, c)
			}
		}
		if len(beam) > opts.Beam {
			beam = beam[:opts.Beam]
		}
	}

	// Rescore the survivors on everything.  The original goes first so
	// that it wins exact ties: a rewrite no better on either axis is not
	// an alternative.
	finalists := append([]Candidate{original}, frontier(pool)...)
	full.scoreAll(finalists)
	result := &Result{Original: finalists[0], Alternatives: []Candidate{}}
	for _, c := range frontier(finalists) {
		if c.Formula != f {
			result.Alternatives = append(result.Alternatives, c)
		}
	}
	opts.Log.Info("search done",
		"original", result.Original.Error,
		"alternatives", len(result.Alternatives),
		"explored", len(pool),
	)
	return result, nil
}

// Alternatives is Search reduced to its wire form.  The slice is never nil.
func Alternatives(ctx context.Context, f *def.Formula, sample def.SampleSet, opts Options) ([]def.Alternative, *def.Alternative, error) {
	res, err := Search(ctx, f, sample, opts)
	if err != nil {
		return []def.Alternative{}, nil, err
	}
	alts := make([]def.Alternative, len(res.Alternatives))
	for i, c := range res.Alternatives {
		alts[i] = c.Alternative()
	}
	orig := res.Original.Alternative()
	return alts, &orig, nil
}

type scorer struct {
	inputs [][]float64
	truth  eval.Truth
}

func (s scorer) usable() bool {
	for _, st := range s.truth.Status {
		if st == eval.Valid || st == eval.Infinite {
			return true
		}
	}
	return false
}

// subset takes every k-th point so the subset spans the whole sample.
func (s scorer) subset(n int) scorer {
	if n >= len(s.inputs) {
		return s
	}
	step := len(s.inputs) / n
	out := scorer{truth: eval.Truth{}}
	for i := 0; i < len(s.inputs) && len(out.inputs) < n; i += step {
		out.inputs = append(out.inputs, s.inputs[i])
		out.truth.Values = append(out.truth.Values, s.truth.Values[i])
		out.truth.Status = append(out.truth.Status, s.truth.Status[i])
	}
	if !out.usable() {
		return s
	}
	return out
}

func (s scorer) score(c *Candidate) {
	c.Error = eval.AverageBits(c.Formula, s.inputs, s.truth)
	c.Cost = eval.Cost(c.Formula)
}

const scoreWorkers = 8

func (s scorer) scoreAll(cs []Candidate) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, scoreWorkers)
	for i := range cs {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *Candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			s.score(c)
		}(&cs[i])
	}
	wg.Wait()
}

func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Error != cs[j].Error {
			return cs[i].Error < cs[j].Error
		}
		return cs[i].Cost < cs[j].Cost
	})
}

/*
	frontier returns the candidates not dominated on (error, cost),
	ordered by error then cost.  Exact ties keep the first seen.
*/
func frontier(cs []Candidate) []Candidate {
	sorted := append([]Candidate(nil), cs...)
	sortCandidates(sorted)
	var out []Candidate
	for _, c := range sorted {
		if len(out) == 0 || c.Cost < out[len(out)-1].Cost {
			out = append(out, c)
		}
	}
	return out
}

func contains(cs []Candidate, c Candidate) bool {
	for _, x := range cs {
		if x.Formula == c.Formula {
			return true
		}
	}
	return false
}
