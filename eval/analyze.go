package eval

import (
	"math"

	"polydawn.net/fperr/def"
)

/*
	Analyze measures the formula's error at every sample point.  The
	outputs recorded in the sample aren't trusted; exact values are
	recomputed.
*/
func Analyze(f *def.Formula, sample def.SampleSet) (*def.ErrorReport, error) {
	inputs := sample.Inputs()
	return AnalyzeWith(f, inputs, Exacts(f, inputs))
}

/*
	AnalyzeWith is Analyze with the exact values already known.  The
	search uses it to score many equivalent formulas against one truth.

	Points where exact evaluation failed are kept in the report, flagged,
	and left out of the average.  If that leaves nothing to average, the
	sample is unusable and a DomainError is returned.
*/
func AnalyzeWith(f *def.Formula, inputs [][]float64, truth Truth) (*def.ErrorReport, error) {
	report := &def.ErrorReport{Points: make([]def.PointError, len(inputs))}
	approx := Floats(f, inputs)
	var sum float64
	measured := 0
	for i, x := range inputs {
		pe := def.PointError{Inputs: x, Float: approx[i], Exact: truth.Values[i]}
		switch truth.Status[i] {
		case Invalid:
			pe.Flag = def.FlagUndefined
		case Unsure:
			pe.Flag = def.FlagUnsure
		default:
			pe.Bits, pe.Flag = ErrorBits(approx[i], truth.Values[i])
			sum += pe.Bits
			report.Max = math.Max(report.Max, pe.Bits)
			measured++
		}
		if pe.Flag != "" {
			report.Flagged++
		}
		report.Points[i] = pe
	}
	if measured == 0 {
		return report, DomainError.New("no sample point has a defined exact value")
	}
	report.Average = sum / float64(measured)
	return report, nil
}

// AverageBits is the average error alone, skipping points without a usable exact value.
func AverageBits(f *def.Formula, inputs [][]float64, truth Truth) float64 {
	var sum float64
	n := 0
	for i, x := range inputs {
		if truth.Status[i] != Valid && truth.Status[i] != Infinite {
			continue
		}
		bits, _ := ErrorBits(Float(f, x), truth.Values[i])
		sum += bits
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
