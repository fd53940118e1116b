package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"polydawn.net/fperr/server"
)

func ServeCommandPattern(e *env) cli.Command {
	return cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "listen, l",
				Usage: "Address to listen on (default: the configured one)",
			},
		},
		Action: func(ctx *cli.Context) error {
			addr := e.cfg.Listen
			if ctx.IsSet("listen") {
				addr = ctx.String("listen")
			}
			sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			man, err := e.foreman(sigCtx)
			if err != nil {
				return userFacing(err)
			}
			e.log.Info("starting", "scheduler", e.cfg.Scheduler, "workers", e.cfg.Workers, "results", e.cfg.Results)
			return server.New(man, e.log).ListenAndServe(sigCtx, addr)
		},
	}
}
