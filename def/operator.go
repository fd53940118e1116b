package def

type Operator int

const (
	OpNeg Operator = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpSqrt
	OpCbrt
	OpFabs
	OpExp
	OpExpm1
	OpLog
	OpLog1p
	OpPow
	OpSin
	OpCos
	OpTan
	OpAtan
	OpAtan2
	OpHypot
	OpFma
	OpFmin
	OpFmax
	OpFloor
	OpCeil
	OpRound

	// Boolean operators; only legal inside a `:pre` precondition.
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpEqual
	OpNotEqual
	OpAnd
	OpOr
	OpNot

	numOperators
)

const variadic = -1

type opInfo struct {
	name    string
	minArgs int
	maxArgs int // variadic for "two or more"
	boolean bool
}

var operators = [numOperators]opInfo{
	OpNeg:       {"neg", 1, 1, false},
	OpAdd:       {"+", 2, 2, false},
	OpSub:       {"-", 2, 2, false},
	OpMul:       {"*", 2, 2, false},
	OpDiv:       {"/", 2, 2, false},
	OpSqrt:      {"sqrt", 1, 1, false},
	OpCbrt:      {"cbrt", 1, 1, false},
	OpFabs:      {"fabs", 1, 1, false},
	OpExp:       {"exp", 1, 1, false},
	OpExpm1:     {"expm1", 1, 1, false},
	OpLog:       {"log", 1, 1, false},
	OpLog1p:     {"log1p", 1, 1, false},
	OpPow:       {"pow", 2, 2, false},
	OpSin:       {"sin", 1, 1, false},
	OpCos:       {"cos", 1, 1, false},
	OpTan:       {"tan", 1, 1, false},
	OpAtan:      {"atan", 1, 1, false},
	OpAtan2:     {"atan2", 2, 2, false},
	OpHypot:     {"hypot", 2, 2, false},
	OpFma:       {"fma", 3, 3, false},
	OpFmin:      {"fmin", 2, 2, false},
	OpFmax:      {"fmax", 2, 2, false},
	OpFloor:     {"floor", 1, 1, false},
	OpCeil:      {"ceil", 1, 1, false},
	OpRound:     {"round", 1, 1, false},
	OpLess:      {"<", 2, variadic, true},
	OpLessEq:    {"<=", 2, variadic, true},
	OpGreater:   {">", 2, variadic, true},
	OpGreaterEq: {">=", 2, variadic, true},
	OpEqual:     {"==", 2, variadic, true},
	OpNotEqual:  {"!=", 2, variadic, true},
	OpAnd:       {"and", 2, variadic, true},
	OpOr:        {"or", 2, variadic, true},
	OpNot:       {"not", 1, 1, true},
}

var operatorsByName = func() map[string]Operator {
	m := make(map[string]Operator, numOperators)
	for op := Operator(0); op < numOperators; op++ {
		m[operators[op].name] = op
	}
	return m
}()

func LookupOperator(name string) (Operator, bool) {
	op, ok := operatorsByName[name]
	return op, ok
}

func (op Operator) String() string {
	if op < 0 || op >= numOperators {
		return "?"
	}
	return operators[op].name
}

// Accepts reports whether the operator can be applied to n arguments.
func (op Operator) Accepts(n int) bool {
	info := operators[op]
	if n < info.minArgs {
		return false
	}
	return info.maxArgs == variadic || n <= info.maxArgs
}

func (op Operator) Arity() int { return operators[op].minArgs }

// Boolean operators produce truth values rather than reals.
func (op Operator) Boolean() bool { return operators[op].boolean }

// Operators lists every real-valued operator, in declaration order.
func Operators() []Operator {
	ops := make([]Operator, 0, numOperators)
	for op := Operator(0); op < numOperators; op++ {
		if !operators[op].boolean {
			ops = append(ops, op)
		}
	}
	return ops
}
