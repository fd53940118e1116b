/*
	The codegen package renders formulas as source code.

	Every target shares one walk over the expression tree (`renderer`);
	what differs per target is captured in a `language` table: how
	literals are spelled, what the math functions are called, how
	infix operators are parenthesized, and what a function definition
	looks like.

	Output is deterministic.  The generated function is always called
	`expr`, whatever the formula's `:name` says, so output is stable
	across renamings.
*/
package codegen

import (
	"sort"
	"strconv"

	"github.com/spacemonkeygo/errors"
	"github.com/spacemonkeygo/errors/try"

	"polydawn.net/fperr/def"
)

var UnsupportedTargetError *errors.ErrorClass = errors.NewClass("UnsupportedTargetError")

// FPCore isn't in the language table: it is the formula's own syntax.
const FPCore = "fpcore"

// Languages lists every supported target name, sorted.
func Languages() []string {
	names := []string{FPCore}
	for name := range languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

/*
	Translate renders the formula as a complete function definition in the
	named target language.  For "mathjs" the result is a bare expression
	and for "tex" a typeset equation.

	Unknown targets fail with UnsupportedTargetError.
*/
func Translate(f *def.Formula, target string) (out string, err error) {
	if target == FPCore {
		return f.String() + "\n", nil
	}
	lang, ok := languages[target]
	if !ok {
		return "", UnsupportedTargetError.New("no code generator for %q", target)
	}
	try.Do(func() {
		out = lang.translate(f)
	}).Catch(UnsupportedTargetError, func(e *errors.Error) {
		err = e
	}).Done()
	return out, err
}

func (l *language) translate(f *def.Formula) string {
	r := renderer{lang: l, vars: make(map[string]string, f.Arity())}
	params := make([]string, f.Arity())
	taken := map[string]bool{}
	for i, name := range f.Inputs() {
		id := l.ident(name)
		for base, n := id, 2; taken[id]; n++ {
			id = base + strconv.Itoa(n)
		}
		taken[id] = true
		r.vars[name] = id
		params[i] = id
	}
	body := def.Fold[piece](f.Body(), r)
	return l.define(params, body.top())
}
