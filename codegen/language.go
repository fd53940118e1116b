package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"polydawn.net/fperr/def"
)

/*
	language is everything that differs between targets.  The expression
	walk itself is shared; see `renderer`.
*/
type language struct {
	name string

	literal func(float64) string
	consts  map[string]string

	// Operators rendered as plain function calls, by target name.
	funcs map[def.Operator]string
	call  func(name string, args []string) string

	// Operators rendered some other way.  Takes precedence over funcs.
	special map[def.Operator]func(l *language, a []piece) piece

	// Tokens for the arithmetic operators that are written infix.
	infixes map[def.Operator]string

	// Parenthesize only where precedence requires it, instead of around
	// every infix operation.
	minimal     bool
	open, close string

	// Applied to every rendered operator node, if set.
	wrap func(op def.Operator, p piece) piece

	ident  func(name string) string
	define func(params []string, body string) string
}

var cInfix = map[def.Operator]string{
	def.OpAdd: "+",
	def.OpSub: "-",
	def.OpMul: "*",
	def.OpDiv: "/",
}

func parenCall(name string, args []string) string {
	return name + "(" + strings.Join(args, ", ") + ")"
}

func bracketCall(name string, args []string) string {
	return name + "[" + strings.Join(args, ", ") + "]"
}

// named maps each operator to a function of the same name, with a prefix.
func named(prefix string, ops ...def.Operator) map[def.Operator]string {
	m := make(map[def.Operator]string, len(ops))
	for _, op := range ops {
		m[op] = prefix + op.String()
	}
	return m
}

func with(m map[def.Operator]string, extra map[def.Operator]string) map[def.Operator]string {
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// tmpl renders a fixed format with the arguments' texts.
func tmpl(format string) func(*language, []piece) piece {
	return func(_ *language, a []piece) piece {
		args := make([]interface{}, len(a))
		for i, p := range a {
			args[i] = p.text
		}
		return atom(fmt.Sprintf(format, args...))
	}
}

// fmaExpanded writes fma as a multiply and an add, for targets without it.
func fmaExpanded(l *language, a []piece) piece {
	return l.binary(def.OpAdd, l.binary(def.OpMul, a[0], a[1]), a[2])
}

// decimal renders a float as a literal that every C-family parser reads as a double.
func decimal(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e16 {
		return strconv.FormatFloat(v, 'f', -1, 64) + ".0"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func fortranDecimal(v float64) string {
	s := decimal(v)
	if strings.Contains(s, "e") {
		return strings.Replace(s, "e", "d", 1)
	}
	return s + "d0"
}

// scientific renders a float exactly, with the exponent handed to `exp`.
func scientific(exp func(mant string, e int) string) func(float64) string {
	return func(v float64) string {
		if v == math.Trunc(v) && math.Abs(v) < 1e16 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		s := strconv.FormatFloat(v, 'g', -1, 64)
		mant, e, found := strings.Cut(s, "e")
		if !found {
			return s
		}
		n, _ := strconv.Atoi(e)
		return exp(mant, n)
	}
}

var keywords = map[string]bool{
	"and": true, "as": true, "break": true, "case": true, "char": true, "class": true,
	"def": true, "do": true, "double": true, "else": true, "end": true, "expr": true,
	"float": true, "for": true, "function": true, "if": true, "import": true, "in": true,
	"int": true, "is": true, "lambda": true, "let": true, "long": true, "math": true,
	"new": true, "not": true, "or": true, "return": true, "static": true, "tmp": true,
	"var": true, "while": true,
}

// cIdent rewrites a symbol into something every imperative target accepts.
func cIdent(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r < 128 && (r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	s := sb.String()
	if keywords[s] {
		s += "_"
	}
	return s
}

// Wolfram symbols are letters and digits only; `_` introduces a pattern.
func wlsIdent(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r < 128 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	s := sb.String()
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		s = "v" + s
	}
	return s
}

func texIdent(name string) string {
	if len(name) == 1 {
		return name
	}
	return `\mathsf{` + strings.ReplaceAll(name, "_", `\_`) + `}`
}

var languages = map[string]*language{
	"c": {
		name:    "c",
		literal: decimal,
		consts:  map[string]string{"PI": "M_PI", "E": "M_E", "INFINITY": "INFINITY", "NAN": "NAN"},
		funcs: named("",
			def.OpSqrt, def.OpCbrt, def.OpFabs, def.OpExp, def.OpExpm1, def.OpLog, def.OpLog1p,
			def.OpPow, def.OpSin, def.OpCos, def.OpTan, def.OpAtan, def.OpAtan2, def.OpHypot,
			def.OpFma, def.OpFmin, def.OpFmax, def.OpFloor, def.OpCeil, def.OpRound,
		),
		call:    parenCall,
		infixes: cInfix,
		open:    "(",
		close:   ")",
		ident:   cIdent,
		define: func(params []string, body string) string {
			return "double expr(" + typed("double ", params) + ") {\n\treturn " + body + ";\n}\n"
		},
	},

	"python": {
		name:    "python",
		literal: decimal,
		consts:  map[string]string{"PI": "math.pi", "E": "math.e", "INFINITY": "math.inf", "NAN": "math.nan"},
		funcs: with(named("math.",
			def.OpSqrt, def.OpCbrt, def.OpFabs, def.OpExp, def.OpExpm1, def.OpLog, def.OpLog1p,
			def.OpPow, def.OpSin, def.OpCos, def.OpTan, def.OpAtan, def.OpAtan2, def.OpHypot,
			def.OpFloor, def.OpCeil,
		), map[def.Operator]string{def.OpFmin: "min", def.OpFmax: "max"}),
		special: map[def.Operator]func(*language, []piece) piece{
			// math.fma only arrived in 3.13.
			def.OpFma: fmaExpanded,
			def.OpRound: tmpl("math.copysign(math.floor(math.fabs(%[1]s) + 0.5), %[1]s)"),
		},
		call:    parenCall,
		infixes: cInfix,
		open:    "(",
		close:   ")",
		ident:   cIdent,
		define: func(params []string, body string) string {
			return "def expr(" + strings.Join(params, ", ") + "):\n\treturn " + body + "\n"
		},
	},

	"java": {
		name:    "java",
		literal: decimal,
		consts:  map[string]string{"PI": "Math.PI", "E": "Math.E", "INFINITY": "Double.POSITIVE_INFINITY", "NAN": "Double.NaN"},
		funcs: with(named("Math.",
			def.OpSqrt, def.OpCbrt, def.OpExp, def.OpExpm1, def.OpLog, def.OpLog1p,
			def.OpPow, def.OpSin, def.OpCos, def.OpTan, def.OpAtan, def.OpAtan2, def.OpHypot,
			def.OpFma, def.OpFloor, def.OpCeil,
		), map[def.Operator]string{def.OpFabs: "Math.abs", def.OpFmin: "Math.min", def.OpFmax: "Math.max"}),
		special: map[def.Operator]func(*language, []piece) piece{
			def.OpRound: tmpl("Math.copySign(Math.floor(Math.abs(%[1]s) + 0.5), %[1]s)"),
		},
		call:    parenCall,
		infixes: cInfix,
		open:    "(",
		close:   ")",
		ident:   cIdent,
		define: func(params []string, body string) string {
			return "public static double expr(" + typed("double ", params) + ") {\n\treturn " + body + ";\n}\n"
		},
	},

	"js": {
		name:    "js",
		literal: decimal,
		consts:  map[string]string{"PI": "Math.PI", "E": "Math.E", "INFINITY": "Infinity", "NAN": "NaN"},
		funcs: with(named("Math.",
			def.OpSqrt, def.OpCbrt, def.OpExp, def.OpExpm1, def.OpLog, def.OpLog1p,
			def.OpPow, def.OpSin, def.OpCos, def.OpTan, def.OpAtan, def.OpAtan2, def.OpHypot,
			def.OpFloor, def.OpCeil,
		), map[def.Operator]string{def.OpFabs: "Math.abs", def.OpFmin: "Math.min", def.OpFmax: "Math.max"}),
		special: map[def.Operator]func(*language, []piece) piece{
			def.OpFma:   fmaExpanded,
			def.OpRound: tmpl("(Math.sign(%[1]s) * Math.round(Math.abs(%[1]s)))"),
		},
		call:    parenCall,
		infixes: cInfix,
		open:    "(",
		close:   ")",
		ident:   cIdent,
		define: func(params []string, body string) string {
			return "function expr(" + strings.Join(params, ", ") + ") {\n\treturn " + body + ";\n}\n"
		},
	},

	"julia": {
		name:    "julia",
		literal: decimal,
		consts:  map[string]string{"PI": "pi", "E": "exp(1.0)", "INFINITY": "Inf", "NAN": "NaN"},
		funcs: with(named("",
			def.OpSqrt, def.OpCbrt, def.OpExp, def.OpExpm1, def.OpLog, def.OpLog1p,
			def.OpSin, def.OpCos, def.OpTan, def.OpAtan, def.OpHypot, def.OpFma, def.OpFloor, def.OpCeil,
		), map[def.Operator]string{def.OpFabs: "abs", def.OpFmin: "min", def.OpFmax: "max"}),
		special: map[def.Operator]func(*language, []piece) piece{
			def.OpPow:   tmpl("(%s ^ %s)"),
			def.OpAtan2: tmpl("atan(%s, %s)"),
			def.OpRound: tmpl("round(%s, RoundNearestTiesAway)"),
		},
		call:    parenCall,
		infixes: cInfix,
		open:    "(",
		close:   ")",
		// Julia promotes freely; pin every arithmetic result to binary64.
		wrap: func(op def.Operator, p piece) piece {
			if _, ok := cInfix[op]; ok || op == def.OpNeg {
				return atom("Float64(" + p.top() + ")")
			}
			return p
		},
		ident: cIdent,
		define: func(params []string, body string) string {
			return "function expr(" + strings.Join(params, ", ") + ")\n\treturn " + body + "\nend\n"
		},
	},

	"matlab": {
		name:    "matlab",
		literal: decimal,
		consts:  map[string]string{"PI": "pi", "E": "exp(1.0)", "INFINITY": "Inf", "NAN": "NaN"},
		funcs: with(named("",
			def.OpSqrt, def.OpExp, def.OpExpm1, def.OpLog, def.OpLog1p,
			def.OpSin, def.OpCos, def.OpTan, def.OpAtan, def.OpAtan2, def.OpHypot,
			def.OpFloor, def.OpCeil, def.OpRound,
		), map[def.Operator]string{def.OpFabs: "abs", def.OpFmin: "min", def.OpFmax: "max"}),
		special: map[def.Operator]func(*language, []piece) piece{
			def.OpCbrt: tmpl("nthroot(%s, 3.0)"),
			def.OpPow:  tmpl("(%s ^ %s)"),
			def.OpFma:  fmaExpanded,
		},
		call:    parenCall,
		infixes: cInfix,
		open:    "(",
		close:   ")",
		ident:   cIdent,
		define: func(params []string, body string) string {
			return "function tmp = expr(" + strings.Join(params, ", ") + ")\n\ttmp = " + body + ";\nend\n"
		},
	},

	"fortran": {
		name:    "fortran",
		literal: fortranDecimal,
		consts: map[string]string{
			"PI":       "(4.0d0 * atan(1.0d0))",
			"E":        "exp(1.0d0)",
			"INFINITY": "ieee_value(1.0d0, ieee_positive_inf)",
			"NAN":      "ieee_value(1.0d0, ieee_quiet_nan)",
		},
		funcs: with(named("",
			def.OpSqrt, def.OpExp, def.OpLog,
			def.OpSin, def.OpCos, def.OpTan, def.OpAtan, def.OpAtan2, def.OpHypot,
		), map[def.Operator]string{def.OpFabs: "abs", def.OpFmin: "min", def.OpFmax: "max", def.OpRound: "anint"}),
		special: map[def.Operator]func(*language, []piece) piece{
			def.OpCbrt:  tmpl("sign(abs(%[1]s) ** (1.0d0 / 3.0d0), %[1]s)"),
			def.OpExpm1: tmpl("(exp(%s) - 1.0d0)"),
			def.OpLog1p: tmpl("log((1.0d0 + %s))"),
			def.OpPow:   tmpl("(%s ** %s)"),
			def.OpFma:   fmaExpanded,
			def.OpFloor: tmpl("real(floor(%s), 8)"),
			def.OpCeil:  tmpl("real(ceiling(%s), 8)"),
		},
		call:    parenCall,
		infixes: cInfix,
		open:    "(",
		close:   ")",
		ident:   cIdent,
		define: func(params []string, body string) string {
			var sb strings.Builder
			sb.WriteString("real(8) function expr(" + strings.Join(params, ", ") + ")\n")
			if strings.Contains(body, "ieee_value") {
				sb.WriteString("    use ieee_arithmetic\n")
			}
			for _, p := range params {
				sb.WriteString("    real(8), intent (in) :: " + p + "\n")
			}
			sb.WriteString(fortranLines("    expr = " + body))
			sb.WriteString("end function\n")
			return sb.String()
		},
	},

	"wls": {
		name: "wls",
		literal: scientific(func(mant string, e int) string {
			return mant + "*^" + strconv.Itoa(e)
		}),
		consts: map[string]string{"PI": "Pi", "E": "E", "INFINITY": "Infinity", "NAN": "Indeterminate"},
		funcs: map[def.Operator]string{
			def.OpSqrt:  "Sqrt",
			def.OpFabs:  "Abs",
			def.OpExp:   "Exp",
			def.OpLog:   "Log",
			def.OpSin:   "Sin",
			def.OpCos:   "Cos",
			def.OpTan:   "Tan",
			def.OpAtan:  "ArcTan",
			def.OpFloor: "Floor",
			def.OpCeil:  "Ceiling",
			def.OpRound: "Round",
			def.OpFmin:  "Min",
			def.OpFmax:  "Max",
			def.OpPow:   "Power",
		},
		special: map[def.Operator]func(*language, []piece) piece{
			def.OpCbrt:  tmpl("Surd[%s, 3]"),
			def.OpExpm1: tmpl("(Exp[%s] - 1)"),
			def.OpLog1p: tmpl("Log[1 + %s]"),
			def.OpAtan2: tmpl("ArcTan[%[2]s, %[1]s]"),
			def.OpHypot: tmpl("Sqrt[%s ^ 2 + %s ^ 2]"),
			def.OpFma:   tmpl("(%s * %s + %s)"),
		},
		call:    bracketCall,
		infixes: cInfix,
		open:    "(",
		close:   ")",
		// Every intermediate is rounded to machine precision, as it would be in binary64.
		wrap: func(_ def.Operator, p piece) piece {
			return atom("N[" + p.text + ", $MachinePrecision]")
		},
		ident: wlsIdent,
		define: func(params []string, body string) string {
			args := make([]string, len(params))
			for i, p := range params {
				args[i] = p + "_"
			}
			return "expr[" + strings.Join(args, ", ") + "] := " + body + "\n"
		},
	},

	"tex": {
		name: "tex",
		literal: scientific(func(mant string, e int) string {
			return mant + ` \cdot 10^{` + strconv.Itoa(e) + `}`
		}),
		consts: map[string]string{"PI": `\pi`, "E": "e", "INFINITY": `\infty`, "NAN": `\mathsf{NaN}`},
		special: map[def.Operator]func(*language, []piece) piece{
			def.OpDiv:   tmpl(`\frac{%s}{%s}`),
			def.OpSqrt:  tmpl(`\sqrt{%s}`),
			def.OpCbrt:  tmpl(`\sqrt[3]{%s}`),
			def.OpFabs:  tmpl(`\left|%s\right|`),
			def.OpExp:   tmpl(`e^{%s}`),
			def.OpExpm1: tmpl(`\mathsf{expm1}\left(%s\right)`),
			def.OpLog:   tmpl(`\log \left(%s\right)`),
			def.OpLog1p: tmpl(`\mathsf{log1p}\left(%s\right)`),
			def.OpPow: func(l *language, a []piece) piece {
				return atom("{" + l.operand(a[0], precAtom) + "}^{" + a[1].text + "}")
			},
			def.OpSin:   tmpl(`\sin \left(%s\right)`),
			def.OpCos:   tmpl(`\cos \left(%s\right)`),
			def.OpTan:   tmpl(`\tan \left(%s\right)`),
			def.OpAtan:  tmpl(`\tan^{-1} \left(%s\right)`),
			def.OpAtan2: tmpl(`\tan^{-1}_* \frac{%s}{%s}`),
			def.OpHypot: tmpl(`\mathsf{hypot}\left(%s, %s\right)`),
			def.OpFma:   tmpl(`\mathsf{fma}\left(%s, %s, %s\right)`),
			def.OpFmin:  tmpl(`\mathsf{min}\left(%s, %s\right)`),
			def.OpFmax:  tmpl(`\mathsf{max}\left(%s, %s\right)`),
			def.OpFloor: tmpl(`\left\lfloor %s\right\rfloor`),
			def.OpCeil:  tmpl(`\left\lceil %s\right\rceil`),
			def.OpRound: tmpl(`\mathsf{round}\left(%s\right)`),
		},
		infixes: map[def.Operator]string{def.OpAdd: "+", def.OpSub: "-", def.OpMul: `\cdot`},
		minimal: true,
		open:    `\left(`,
		close:   `\right)`,
		ident:   texIdent,
		define: func(params []string, body string) string {
			return `\mathsf{expr}\left(` + strings.Join(params, ", ") + `\right) = ` + body + "\n"
		},
	},

	"mathjs": {
		name:    "mathjs",
		literal: decimal,
		consts:  map[string]string{"PI": "PI", "E": "E", "INFINITY": "Infinity", "NAN": "NaN"},
		funcs: with(named("",
			def.OpSqrt, def.OpCbrt, def.OpExp, def.OpExpm1, def.OpLog, def.OpLog1p,
			def.OpPow, def.OpSin, def.OpCos, def.OpTan, def.OpAtan, def.OpAtan2, def.OpHypot,
			def.OpFloor, def.OpCeil, def.OpRound,
		), map[def.Operator]string{def.OpFabs: "abs", def.OpFmin: "min", def.OpFmax: "max"}),
		special: map[def.Operator]func(*language, []piece) piece{
			def.OpFma: fmaExpanded,
		},
		call:    parenCall,
		infixes: cInfix,
		minimal: true,
		open:    "(",
		close:   ")",
		ident:   cIdent,
		// mathjs wants the bare expression.
		define: func(_ []string, body string) string { return body },
	},
}

func typed(prefix string, params []string) string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = prefix + p
	}
	return strings.Join(out, ", ")
}

// Free-form Fortran caps lines at 132 characters.
const fortranLineLimit = 100

// fortranLines breaks a long statement at spaces with continuation marks.
func fortranLines(stmt string) string {
	var sb strings.Builder
	for len(stmt) > fortranLineLimit {
		cut := strings.LastIndexByte(stmt[:fortranLineLimit], ' ')
		if cut <= len("    expr =") {
			break
		}
		sb.WriteString(stmt[:cut] + " &\n")
		stmt = "        &" + stmt[cut:]
	}
	sb.WriteString(stmt + "\n")
	return sb.String()
}
