package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli"
	"github.com/ugorji/go/codec"

	"polydawn.net/fperr/codegen"
	"polydawn.net/fperr/def"
)

func SampleCommandPattern(e *env) cli.Command {
	return cli.Command{
		Name:  "sample",
		Usage: "Draw sample points for a formula and print them as JSON",
		Flags: []cli.Flag{formulaFlag, seedFlag, sizeFlag},
		Action: func(ctx *cli.Context) error {
			res, err := e.runOne(ctx, def.KindSample)
			if err != nil {
				return err
			}
			return emit(e.stdout, struct {
				Seed   uint64      `json:"seed"`
				Points []def.Point `json:"points"`
			}{res.Seed, res.Points})
		},
	}
}

func AnalyzeCommandPattern(e *env) cli.Command {
	return cli.Command{
		Name:  "analyze",
		Usage: "Measure a formula's error and say where it comes from",
		Flags: []cli.Flag{formulaFlag, seedFlag, sizeFlag},
		Action: func(ctx *cli.Context) error {
			res, err := e.runOne(ctx, def.KindAnalyze)
			if err != nil {
				return err
			}
			tree, err := e.runOne(ctx, def.KindLocalError)
			if err != nil {
				return err
			}
			return emit(e.stdout, struct {
				Seed    uint64         `json:"seed"`
				Average float64        `json:"average"`
				Max     float64        `json:"max"`
				Flagged int            `json:"flagged"`
				Tree    *def.ErrorTree `json:"tree"`
			}{res.Seed, res.Analysis.Average, res.Analysis.Max, res.Analysis.Flagged, tree.Tree})
		},
	}
}

func TranslateCommandPattern(e *env) cli.Command {
	return cli.Command{
		Name:  "translate",
		Usage: "Print a formula as source code",
		Flags: []cli.Flag{
			formulaFlag,
			cli.StringFlag{
				Name:  "lang, l",
				Value: "c",
				Usage: fmt.Sprintf("Target language: one of %v", codegen.Languages()),
			},
		},
		Action: func(ctx *cli.Context) error {
			f, err := e.formulaArg(ctx)
			if err != nil {
				return err
			}
			src, err := codegen.Translate(f, ctx.String("lang"))
			if err != nil {
				return userFacing(err)
			}
			_, err = io.WriteString(e.stdout, src)
			return err
		},
	}
}

func ImproveCommandPattern(e *env) cli.Command {
	return cli.Command{
		Name:  "improve",
		Usage: "Search for more accurate rewrites of a formula",
		Flags: []cli.Flag{formulaFlag, seedFlag, sizeFlag},
		Action: func(ctx *cli.Context) error {
			res, err := e.runOne(ctx, def.KindImprove)
			if err != nil {
				return err
			}
			return emit(e.stdout, struct {
				Seed         uint64            `json:"seed"`
				Original     *def.Alternative  `json:"original"`
				Alternatives []def.Alternative `json:"alternatives"`
			}{res.Seed, res.Original, res.Alternatives})
		},
	}
}

// Runs one job of the given kind through a fresh foreman, inline.
func (e *env) runOne(ctx *cli.Context, kind def.Kind) (*def.Result, error) {
	f, err := e.formulaArg(ctx)
	if err != nil {
		return nil, err
	}
	bg := context.Background()
	man, err := e.foreman(bg)
	if err != nil {
		return nil, userFacing(err)
	}
	rec, err := man.Submit(bg, def.Request{
		Kind:    kind,
		Formula: f,
		Seed:    man.Seed(seedArg(ctx)),
		Size:    ctx.Int("size"),
	})
	if err != nil {
		return nil, userFacing(err)
	}
	return rec.Result, nil
}

func emit(w io.Writer, v interface{}) error {
	if err := codec.NewEncoder(w, &codec.JsonHandle{Indent: -1}).Encode(v); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}
