package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/inconshreveable/log15"
	"github.com/spacemonkeygo/errors"
	"github.com/urfave/cli"

	"polydawn.net/fperr/actors/foreman"
	"polydawn.net/fperr/codegen"
	"polydawn.net/fperr/config"
	"polydawn.net/fperr/def"
	"polydawn.net/fperr/eval"
	"polydawn.net/fperr/executor"
	"polydawn.net/fperr/executor/impl/engine"
	"polydawn.net/fperr/executor/impl/memo"
	"polydawn.net/fperr/improve"
	"polydawn.net/fperr/model/cassandra"
	"polydawn.net/fperr/model/cassandra/impl/mem"
	"polydawn.net/fperr/model/cassandra/impl/redis"
	"polydawn.net/fperr/scheduler/dispatch"
)

var userClasses = []*errors.ErrorClass{
	def.ParseError,
	def.ValidationError,
	codegen.UnsupportedTargetError,
	eval.DomainError,
	config.ConfigError,
	cassandra.StorageError,
	foreman.JobNotFoundError,
}

/*
	Everything a command needs, assembled once the global flags are known.
*/
type env struct {
	cfg    config.Config
	log    log15.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	man *foreman.Foreman // built on first use
}

/*
	Run the CLI.  Errors come out as panics: `cli.Error` for things the
	user can fix, anything else for bugs.
*/
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) {
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}

	App := cli.NewApp()

	App.Name = "fperr"
	App.Usage = "Find where floating point goes wrong, and how to fix it."
	App.Version = "0.1.0"

	App.Writer = stderr
	App.ErrWriter = stderr

	App.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "Path to a YAML config file",
			EnvVar: "FPERR_CONFIG",
		},
	}
	App.Before = func(ctx *cli.Context) error {
		cfg, err := config.Load(ctx.GlobalString("config"))
		if err != nil {
			return userFacing(err)
		}
		e.cfg = cfg
		e.log = log15.New()
		e.log.SetHandler(cfg.LogHandler(stderr))
		return nil
	}

	App.Commands = []cli.Command{
		ServeCommandPattern(e),
		SampleCommandPattern(e),
		AnalyzeCommandPattern(e),
		TranslateCommandPattern(e),
		ImproveCommandPattern(e),
		ReplCommandPattern(e),
	}

	// Reporting "no help topic for 'zyx'" and exiting with a *zero* is... silly.
	// A failure to hit a command should be an error.
	App.CommandNotFound = func(ctx *cli.Context, command string) {
		panic(Error.NewWith(fmt.Sprintf("'%s %v' is not an fperr subcommand", ctx.App.Name, command), SetExitCode(EXIT_BADARGS)))
	}

	if err := App.Run(args); err != nil {
		panic(err)
	}
}

func (e *env) searchOptions() improve.Options {
	opts := improve.DefaultOptions()
	opts.Iterations = e.cfg.Search.Iterations
	opts.Beam = e.cfg.Search.Beam
	return opts
}

// The engine, behind a memo layer if one is configured.
func (e *env) executor() (executor.Executor, error) {
	var ex executor.Executor = engine.New(e.searchOptions())
	memoDir, err := e.cfg.MemoPath()
	if err != nil {
		return nil, err
	}
	if memoDir != "" {
		return memo.NewExecutor(memoDir, ex)
	}
	return ex, nil
}

func (e *env) results(ctx context.Context) (cassandra.Cassandra, error) {
	if e.cfg.Results == "mem" {
		return cassandra_mem.New(), nil
	}
	return cassandra_redis.Dial(ctx, e.cfg.Results, "fperr")
}

/*
	The foreman wired per the config.  Commands that run one job and
	exit use one too, so that they behave exactly like the server would.
*/
func (e *env) foreman(ctx context.Context) (*foreman.Foreman, error) {
	if e.man != nil {
		return e.man, nil
	}
	ex, err := e.executor()
	if err != nil {
		return nil, err
	}
	kb, err := e.results(ctx)
	if err != nil {
		return nil, err
	}
	sched, err := schedulerdispatch.Start(e.cfg.Scheduler, ex, e.cfg.Workers)
	if err != nil {
		return nil, err
	}
	e.man = foreman.New(foreman.Config{
		Executor:    ex,
		Scheduler:   sched,
		Results:     kb,
		MaxJobs:     e.cfg.Jobs.Max,
		SampleSize:  e.cfg.Sample.Size,
		DefaultSeed: e.cfg.Sample.Seed,
		Log:         e.log,
	})
	return e.man, nil
}

// Reads the formula flag, or the positional args joined, whichever is given.
func (e *env) formulaArg(ctx *cli.Context) (*def.Formula, error) {
	text := ctx.String("formula")
	if text == "" {
		text = strings.Join(ctx.Args(), " ")
	}
	if text == "" {
		return nil, Error.NewWith("a formula is required (-f)", SetExitCode(EXIT_BADARGS))
	}
	if text == "-" {
		ser, err := io.ReadAll(e.stdin)
		if err != nil {
			return nil, err
		}
		text = string(ser)
	}
	f, err := def.Parse(text)
	return f, userFacing(err)
}

var formulaFlag = cli.StringFlag{
	Name:  "formula, f",
	Usage: "The formula, in FPCore (or '-' to read it from stdin)",
}

var seedFlag = cli.Uint64Flag{
	Name:  "seed",
	Usage: "Sampling seed (default: the configured one, else random)",
}

func seedArg(ctx *cli.Context) *uint64 {
	if !ctx.IsSet("seed") {
		return nil
	}
	seed := ctx.Uint64("seed")
	return &seed
}

var sizeFlag = cli.IntFlag{
	Name:  "size",
	Usage: "Number of points to sample (default: the configured sample size)",
}
