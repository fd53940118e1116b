package eval

import (
	"polydawn.net/fperr/def"
)

/*
	Operator weights, roughly in units of one floating-point add.
	Leaves cost 1 so that every formula costs something.
*/
var opCost = map[def.Operator]float64{
	def.OpNeg:   1,
	def.OpFabs:  1,
	def.OpAdd:   1,
	def.OpSub:   1,
	def.OpMul:   1,
	def.OpDiv:   4,
	def.OpFma:   2,
	def.OpFmin:  1,
	def.OpFmax:  1,
	def.OpFloor: 1,
	def.OpCeil:  1,
	def.OpRound: 1,
	def.OpSqrt:  4,
	def.OpCbrt:  8,
	def.OpHypot: 40,
	def.OpExp:   32,
	def.OpExpm1: 32,
	def.OpLog:   32,
	def.OpLog1p: 32,
	def.OpPow:   40,
	def.OpSin:   40,
	def.OpCos:   40,
	def.OpTan:   40,
	def.OpAtan:  40,
	def.OpAtan2: 40,
}

const leafCost = 1

// Cost estimates evaluation cost from the shape of the body.  Always positive.
func Cost(f *def.Formula) float64 {
	return def.Fold[float64](f.Body(), costVisitor{})
}

type costVisitor struct{}

func (costVisitor) Num(*def.Num) float64     { return leafCost }
func (costVisitor) Var(*def.Var) float64     { return leafCost }
func (costVisitor) Const(*def.Const) float64 { return leafCost }
func (costVisitor) Op(o *def.Op, args []float64) float64 {
	c := opCost[o.Op]
	for _, a := range args {
		c += a
	}
	return c
}
