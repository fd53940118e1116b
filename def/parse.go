package def

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

/*
	Parse reads a formula in FPCore syntax:

		(FPCore (x y ...) [:name "str"] [:pre expr] [:precision binary64] body)

	A bare expression without the `FPCore` wrapper is accepted too; its
	inputs are its free variables in order of first appearance.

	All failures are `ParseError`s.  Nothing is evaluated while parsing.
*/
func Parse(text string) (*Formula, error) {
	sx, err := readOne(text)
	if err != nil {
		return nil, err
	}
	if sx.isList && len(sx.list) > 0 && !sx.list[0].isList && sx.list[0].atom == "FPCore" {
		return parseFPCore(sx)
	}
	body, err := toExpr(sx)
	if err != nil {
		return nil, err
	}
	return NewFormula("", FreeVars(body), nil, body)
}

// MustParse is Parse for literals known to be good; it panics otherwise.
func MustParse(text string) *Formula {
	f, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return f
}

/*
	ParseExpr reads a single expression without checking its variables
	against any declaration.  The rewriter uses it for rule patterns.
*/
func ParseExpr(text string) (Expr, error) {
	sx, err := readOne(text)
	if err != nil {
		return nil, err
	}
	return toExpr(sx)
}

func parseFPCore(sx sexp) (*Formula, error) {
	items := sx.list[1:]
	// FPCore 2 allows an identifier before the argument list.
	if len(items) > 0 && !items[0].isList {
		items = items[1:]
	}
	if len(items) == 0 || !items[0].isList {
		return nil, ParseError.New("FPCore requires an argument list")
	}
	var inputs []string
	for _, a := range items[0].list {
		if a.isList || a.str || !isSymbol(a.atom) {
			return nil, ParseError.New("bad argument %q at offset %d", a.String(), a.pos)
		}
		inputs = append(inputs, a.atom)
	}
	items = items[1:]

	var name string
	var pre Expr
	for len(items) > 1 && !items[0].isList && strings.HasPrefix(items[0].atom, ":") {
		prop, val := items[0].atom, items[1]
		items = items[2:]
		switch prop {
		case ":name":
			if !val.str {
				return nil, ParseError.New(":name must be a string")
			}
			name = val.atom
		case ":pre":
			e, err := toExpr(val)
			if err != nil {
				return nil, err
			}
			pre = e
		case ":precision":
			if val.isList || val.atom != "binary64" {
				return nil, ParseError.New("unsupported precision %s", val.String())
			}
		default:
			// Unknown properties are metadata; they don't change the meaning.
		}
	}
	switch len(items) {
	case 0:
		return nil, ParseError.New("FPCore has no body")
	case 1:
	default:
		return nil, ParseError.New("unexpected trailing forms in FPCore at offset %d", items[1].pos)
	}
	body, err := toExpr(items[0])
	if err != nil {
		return nil, err
	}
	return NewFormula(name, inputs, pre, body)
}

func toExpr(sx sexp) (Expr, error) {
	if !sx.isList {
		if sx.str {
			return nil, ParseError.New("unexpected string %q at offset %d", sx.atom, sx.pos)
		}
		return atomExpr(sx)
	}
	if len(sx.list) == 0 {
		return nil, ParseError.New("empty expression at offset %d", sx.pos)
	}
	head := sx.list[0]
	if head.isList || head.str {
		return nil, ParseError.New("expected operator at offset %d", head.pos)
	}
	args := make([]Expr, 0, len(sx.list)-1)
	for _, a := range sx.list[1:] {
		e, err := toExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	if head.atom == "-" && len(args) == 1 {
		return &Op{Op: OpNeg, Args: args}, nil
	}
	op, ok := LookupOperator(head.atom)
	if !ok {
		return nil, ParseError.New("unknown operator %q at offset %d", head.atom, head.pos)
	}
	// Variadic arithmetic folds to the left: (+ a b c) is (+ (+ a b) c).
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		if len(args) > 2 {
			acc := Expr(&Op{Op: op, Args: args[:2:2]})
			for _, a := range args[2:] {
				acc = &Op{Op: op, Args: []Expr{acc, a}}
			}
			return acc, nil
		}
	}
	if !op.Accepts(len(args)) {
		return nil, ParseError.New("operator %s given %d args at offset %d", op, len(args), head.pos)
	}
	return &Op{Op: op, Args: args}, nil
}

var (
	decimalLiteral  = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE]([+-]?[0-9]+))?$`)
	rationalLiteral = regexp.MustCompile(`^([+-]?[0-9]+)/([0-9]+)$`)
)

// Literals whose decimal exponent exceeds this are far outside binary64 and are rejected.
const maxExponent = 1000

func atomExpr(sx sexp) (Expr, error) {
	tok := sx.atom
	if IsConstant(tok) {
		return &Const{Name: tok}, nil
	}
	if m := decimalLiteral.FindStringSubmatch(tok); m != nil {
		if m[4] != "" {
			exp, err := strconv.Atoi(m[4])
			if err != nil || exp > maxExponent || exp < -maxExponent {
				return nil, ParseError.New("literal %q out of range", tok)
			}
		}
		r, ok := new(big.Rat).SetString(tok)
		if !ok {
			return nil, ParseError.New("bad literal %q at offset %d", tok, sx.pos)
		}
		return &Num{Value: r, Text: tok}, nil
	}
	if m := rationalLiteral.FindStringSubmatch(tok); m != nil {
		p, _ := new(big.Int).SetString(m[1], 10)
		q, _ := new(big.Int).SetString(m[2], 10)
		if q.Sign() == 0 {
			return nil, ParseError.New("zero denominator in %q", tok)
		}
		return &Num{Value: new(big.Rat).SetFrac(p, q), Text: tok}, nil
	}
	if !isSymbol(tok) {
		return nil, ParseError.New("bad literal %q at offset %d", tok, sx.pos)
	}
	return &Var{Name: tok}, nil
}

func isSymbol(s string) bool {
	if s == "" || strings.HasPrefix(s, ":") {
		return false
	}
	r := rune(s[0])
	if unicode.IsDigit(r) || r == '.' || r == '+' || r == '-' {
		return false
	}
	for _, r := range s {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_.-?!*", r)) {
			return false
		}
	}
	_, isOp := LookupOperator(s)
	return !isOp
}

type sexp struct {
	atom   string
	str    bool // atom came from a "quoted string"
	isList bool
	list   []sexp
	pos    int
}

func (s sexp) String() string {
	if !s.isList {
		if s.str {
			return strconv.Quote(s.atom)
		}
		return s.atom
	}
	parts := make([]string, len(s.list))
	for i, x := range s.list {
		parts[i] = x.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

type reader struct {
	text string
	pos  int
}

func readOne(text string) (sexp, error) {
	r := &reader{text: text}
	r.skipSpace()
	if r.pos >= len(r.text) {
		return sexp{}, ParseError.New("empty expression")
	}
	sx, err := r.read()
	if err != nil {
		return sexp{}, err
	}
	r.skipSpace()
	if r.pos < len(r.text) {
		return sexp{}, ParseError.New("unexpected trailing text at offset %d", r.pos)
	}
	return sx, nil
}

func (r *reader) skipSpace() {
	for r.pos < len(r.text) {
		c := r.text[r.pos]
		switch {
		case c == ';':
			for r.pos < len(r.text) && r.text[r.pos] != '\n' {
				r.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.pos++
		default:
			return
		}
	}
}

func (r *reader) read() (sexp, error) {
	start := r.pos
	switch c := r.text[r.pos]; c {
	case '(', '[':
		closer := byte(')')
		if c == '[' {
			closer = ']'
		}
		r.pos++
		var items []sexp
		for {
			r.skipSpace()
			if r.pos >= len(r.text) {
				return sexp{}, ParseError.New("unbalanced parens: list opened at offset %d is never closed", start)
			}
			if r.text[r.pos] == closer {
				r.pos++
				return sexp{isList: true, list: items, pos: start}, nil
			}
			if r.text[r.pos] == ')' || r.text[r.pos] == ']' {
				return sexp{}, ParseError.New("mismatched %q at offset %d", r.text[r.pos], r.pos)
			}
			item, err := r.read()
			if err != nil {
				return sexp{}, err
			}
			items = append(items, item)
		}
	case ')', ']':
		return sexp{}, ParseError.New("unbalanced parens: unexpected %q at offset %d", c, start)
	case '"':
		r.pos++
		for r.pos < len(r.text) && r.text[r.pos] != '"' {
			if r.text[r.pos] == '\\' {
				r.pos++
			}
			r.pos++
		}
		if r.pos >= len(r.text) {
			return sexp{}, ParseError.New("unterminated string at offset %d", start)
		}
		r.pos++
		s, err := strconv.Unquote(r.text[start:r.pos])
		if err != nil {
			return sexp{}, ParseError.New("bad string at offset %d: %s", start, err)
		}
		return sexp{atom: s, str: true, pos: start}, nil
	default:
		for r.pos < len(r.text) && !strings.ContainsRune("()[]\" \t\n\r;", rune(r.text[r.pos])) {
			r.pos++
		}
		return sexp{atom: r.text[start:r.pos], pos: start}, nil
	}
}
