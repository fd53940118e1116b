package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spacemonkeygo/errors"
	"github.com/urfave/cli"

	"polydawn.net/fperr/actors/foreman"
	"polydawn.net/fperr/codegen"
	"polydawn.net/fperr/def"
)

const (
	promptMain = "fperr> "
	promptCont = "  ...> "
)

func ReplCommandPattern(e *env) cli.Command {
	return cli.Command{
		Name:  "repl",
		Usage: "Interactively analyze formulas, one per line.  Try `:help`.",
		Flags: []cli.Flag{
			seedFlag,
			cli.StringFlag{
				Name:  "lang, l",
				Value: "c",
				Usage: "Language to show the best alternative in",
			},
		},
		Action: func(ctx *cli.Context) error {
			man, err := e.foreman(context.Background())
			if err != nil {
				return userFacing(err)
			}
			r := &repl{man: man, out: e.stdout, lang: ctx.String("lang"), seed: man.Seed(seedArg(ctx))}

			ln := liner.NewLiner()
			defer ln.Close()
			ln.SetCtrlCAborts(true)
			fmt.Fprintf(e.stdout, "fperr %s; seed %d; :help for commands\n", ctx.App.Version, r.seed)
			for {
				src, ok := readFormula(ln)
				if !ok {
					fmt.Fprintln(e.stdout)
					return nil
				}
				if strings.TrimSpace(src) == "" {
					continue
				}
				ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
				if r.eval(src) {
					return nil
				}
			}
		},
	}
}

// Reads until the parens balance, so formulas can span lines.
func readFormula(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if err != nil { // io.EOF, liner.ErrPromptAborted, or a dead terminal
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if depth(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

// How many parens are still open.
func depth(src string) int {
	return strings.Count(src, "(") - strings.Count(src, ")")
}

type repl struct {
	man  *foreman.Foreman
	out  io.Writer
	lang string
	seed uint64
}

// Handles one input.  Returns true when it's time to quit.
func (r *repl) eval(src string) (quit bool) {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, ":") {
		return r.command(strings.Fields(src))
	}
	f, err := def.Parse(src)
	if err != nil {
		fmt.Fprintf(r.out, "error: %s\n", errors.GetMessage(err))
		return false
	}
	run := func(kind def.Kind) *def.Result {
		rec, err := r.man.Submit(context.Background(), def.Request{Kind: kind, Formula: f, Seed: r.seed})
		if err != nil {
			fmt.Fprintf(r.out, "error: %s\n", errors.GetMessage(err))
			return nil
		}
		return rec.Result
	}

	analysis := run(def.KindAnalyze)
	if analysis == nil {
		return false
	}
	fmt.Fprintf(r.out, "average error: %.1f bits (max %.1f)\n", analysis.Analysis.Average, analysis.Analysis.Max)

	if expl := run(def.KindExplanations); expl != nil {
		for i, x := range expl.Explanations {
			if i == 3 {
				break
			}
			if x.Kind == def.ExplainAccurate {
				fmt.Fprintln(r.out, "  no hotspots")
				break
			}
			fmt.Fprintf(r.out, "  %s in %s (%d points)\n", x.Kind, x.Expr, x.Count)
		}
	}

	alts := run(def.KindAlternatives)
	if alts == nil {
		return false
	}
	if len(alts.Alternatives) == 0 {
		fmt.Fprintln(r.out, "no better alternative found")
		return false
	}
	best := alts.Alternatives[0]
	fmt.Fprintf(r.out, "best alternative: %s (%.1f bits, cost %g)\n", best.Formula, best.Error, best.Cost)
	g, err := def.Parse(best.Formula)
	if err != nil {
		fmt.Fprintf(r.out, "error: %s\n", errors.GetMessage(err))
		return false
	}
	src, err = codegen.Translate(g, r.lang)
	if err != nil {
		fmt.Fprintf(r.out, "error: %s\n", errors.GetMessage(err))
		return false
	}
	fmt.Fprint(r.out, src)
	if !strings.HasSuffix(src, "\n") {
		fmt.Fprintln(r.out)
	}
	return false
}

func (r *repl) command(words []string) (quit bool) {
	switch words[0] {
	case ":quit", ":q":
		return true
	case ":lang":
		if len(words) != 2 {
			fmt.Fprintf(r.out, "usage: :lang NAME (one of %s)\n", strings.Join(codegen.Languages(), " "))
			return false
		}
		r.lang = words[1]
		fmt.Fprintf(r.out, "language: %s\n", r.lang)
	case ":seed":
		if len(words) != 2 {
			fmt.Fprintln(r.out, "usage: :seed N")
			return false
		}
		seed, err := strconv.ParseUint(words[1], 10, 64)
		if err != nil {
			fmt.Fprintf(r.out, "not a seed: %q\n", words[1])
			return false
		}
		r.seed = seed
		fmt.Fprintf(r.out, "seed: %d\n", r.seed)
	case ":help":
		fmt.Fprintln(r.out, "enter a formula, e.g. (FPCore (x) (- (sqrt (+ x 1)) (sqrt x)))")
		fmt.Fprintln(r.out, "  :lang NAME   language for the best alternative")
		fmt.Fprintln(r.out, "  :seed N      sampling seed")
		fmt.Fprintln(r.out, "  :quit        leave")
	default:
		fmt.Fprintf(r.out, "unknown command %s; try :help\n", words[0])
	}
	return false
}
