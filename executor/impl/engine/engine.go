/*
	The engine executor runs every kind of job in-process.
*/
package engine

import (
	"context"
	"math"

	"github.com/inconshreveable/log15"

	"polydawn.net/fperr/codegen"
	"polydawn.net/fperr/def"
	"polydawn.net/fperr/eval"
	"polydawn.net/fperr/executor"
	"polydawn.net/fperr/improve"
	"polydawn.net/fperr/sample"
)

var _ executor.Executor = &Executor{}

type Executor struct {
	Search improve.Options
}

func New(search improve.Options) *Executor {
	return &Executor{Search: search}
}

// Kinds computed over a sample set.
var routed = map[def.Kind]bool{
	def.KindSample:       true,
	def.KindAnalyze:      true,
	def.KindLocalError:   true,
	def.KindAlternatives: true,
	def.KindImprove:      true,
	def.KindExplanations: true,
	def.KindExacts:       true,
	def.KindCalculate:    true,
}

func (e *Executor) Run(ctx context.Context, req def.Request, log log15.Logger) (*def.Result, error) {
	f := req.Formula
	result := &def.Result{Kind: req.Kind}

	// Kinds that don't need points.
	switch req.Kind {
	case def.KindCost:
		result.Cost = eval.Cost(f)
		return result, nil
	case def.KindTranslate, def.KindMathJS:
		lang := req.Language
		if req.Kind == def.KindMathJS {
			lang = "mathjs"
		}
		src, err := codegen.Translate(f, lang)
		if err != nil {
			return nil, err
		}
		result.Language = lang
		result.Source = src
		return result, nil
	}

	if !routed[req.Kind] {
		return nil, executor.UnknownOperationError.New("no route for job kind %q", req.Kind)
	}

	points := req.Sample
	if len(points) == 0 {
		drawn, stats, err := sample.Sample(f, req.Seed, req.Size)
		if err != nil {
			log.Warn("sampling failed", "seed", req.Seed, "err", err)
			return nil, err
		}
		log.Info("sampled", "seed", req.Seed, "points", len(drawn), "drawn", stats.Drawn)
		points = drawn
		result.Seed = req.Seed
	}

	switch req.Kind {
	case def.KindSample:
		result.Points = points
	case def.KindAnalyze:
		report, err := eval.Analyze(f, points)
		if err != nil {
			return nil, err
		}
		log.Info("analyzed", "average", report.Average, "flagged", report.Flagged)
		result.Analysis = report
	case def.KindLocalError:
		tree, err := eval.LocalError(f, points)
		if err != nil {
			return nil, err
		}
		result.Tree = tree
	case def.KindAlternatives, def.KindImprove:
		opts := e.Search
		opts.Log = log
		alts, orig, err := improve.Alternatives(ctx, f, points, opts)
		if err != nil {
			return nil, err
		}
		result.Alternatives = alts
		result.Original = orig
	case def.KindExplanations:
		expl, err := improve.Explain(f, points)
		if err != nil {
			return nil, err
		}
		result.Explanations = expl
	case def.KindExacts:
		truth := eval.Exacts(f, points.Inputs())
		result.Points = withOutputs(points, truth.Values)
		log.Debug("exacts", "valid", truth.Valid(), "points", len(points))
	case def.KindCalculate:
		result.Points = withOutputs(points, eval.Floats(f, points.Inputs()))
	}
	return result, nil
}

// withOutputs pairs each point's inputs with a freshly computed output.
func withOutputs(points def.SampleSet, outputs []float64) []def.Point {
	out := make([]def.Point, len(points))
	for i, p := range points {
		y := outputs[i]
		if math.IsNaN(y) {
			y = math.NaN() // one canonical NaN on the wire
		}
		out[i] = def.Point{Inputs: p.Inputs, Output: y}
	}
	return out
}
