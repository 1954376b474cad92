// Command loadgen fires concurrent charge/use requests for one user at a
// running point-ledger API and checks that no update was lost.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := createApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:  "loadgen",
		Usage: "concurrent charge/use load against the point API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "http://localhost:8080", Usage: "API base URL"},
			&cli.StringFlag{Name: "user", Usage: "user id (random when empty)"},
			&cli.IntFlag{Name: "charges", Value: 500, Usage: "number of charge requests"},
			&cli.IntFlag{Name: "uses", Value: 500, Usage: "number of use requests"},
			&cli.IntFlag{Name: "amount", Value: 100, Usage: "points per request"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: 32, Usage: "concurrent senders"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "per-request timeout"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			user := cmd.String("user")
			if user == "" {
				user = uuid.NewString()
			}
			r := &runner{
				client:  newClient(cmd.String("addr"), cmd.Duration("timeout")),
				user:    user,
				charges: cmd.Int("charges"),
				uses:    cmd.Int("uses"),
				amount:  int64(cmd.Int("amount")),
				workers: cmd.Int("workers"),
			}
			rep, err := r.Run(ctx)
			if err != nil {
				return err
			}
			rep.Print(os.Stdout)
			if !rep.Consistent() {
				return cli.Exit("FAIL: final balance does not match applied requests", 2)
			}
			return nil
		},
	}
}
