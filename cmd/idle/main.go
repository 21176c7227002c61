package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cl "idlegalaxy/internal/cli"
	"idlegalaxy/internal/config"
	"idlegalaxy/internal/game"
	"idlegalaxy/internal/syncq"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type options struct {
	apiBase string
	timeout time.Duration
	json    bool
}

func main() {
	cfg := config.LoadCLIFromEnv()
	opts := &options{apiBase: cfg.APIBaseURL, timeout: cfg.Timeout}

	root := &cobra.Command{
		Use:          "idle",
		Short:        "Idle Galaxy terminal client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.apiBase, "api", opts.apiBase, "server base URL")
	root.PersistentFlags().BoolVar(&opts.json, "json", !stdoutIsTerminal(), "print raw JSON")

	root.AddCommand(
		newStatusCmd(opts),
		newBuyCmd(opts),
		newResetCmd(opts),
		newGalaxyCmd(opts),
		newSyncCmd(opts),
		newWatchCmd(opts),
		newSessionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(opts *options) (*cl.Client, error) {
	sess, err := cl.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return cl.NewClient(strings.TrimSpace(opts.apiBase), sess.ClientID, opts.timeout), nil
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current game state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			v, err := client.State(ctx)
			if err != nil {
				return err
			}
			if opts.json {
				return renderJSON(os.Stdout, v)
			}
			renderView(os.Stdout, v)
			return nil
		},
	}
}

func newBuyCmd(opts *options) *cobra.Command {
	buy := &cobra.Command{
		Use:   "buy",
		Short: "Buy generators or boosts",
	}
	buy.AddCommand(
		triggerCmd(opts, "generator", "Buy one generator", game.ActionBuyGenerator),
		triggerCmd(opts, "boost", "Buy one boost", game.ActionBuyBoost),
	)
	return buy
}

func newResetCmd(opts *options) *cobra.Command {
	return triggerCmd(opts, "reset", "Trade points, generators and boosts for energy", game.ActionFirstReset)
}

func newGalaxyCmd(opts *options) *cobra.Command {
	galaxy := &cobra.Command{
		Use:   "galaxy",
		Short: "Buy galaxies with energy",
	}
	galaxy.AddCommand(
		triggerCmd(opts, "buy", "Buy one galaxy (runs a reset first)", game.ActionBuyGalaxy),
		triggerCmd(opts, "max", "Buy as many galaxies as energy allows", game.ActionMaxGalaxies),
	)
	return galaxy
}

func triggerCmd(opts *options, use, short string, action game.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrigger(cmd.Context(), opts, action)
		},
	}
}

func runTrigger(ctx context.Context, opts *options, action game.Action) error {
	client, err := newClient(opts)
	if err != nil {
		return err
	}
	idem := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	res, err := client.Trigger(ctx, action, idem)
	if err != nil {
		return queueOnNetworkError(err, syncq.Command{Action: string(action), IdempotencyKey: idem})
	}
	if opts.json {
		return renderJSON(os.Stdout, res)
	}
	if res.Changed {
		printSuccess(fmt.Sprintf("%s done.", action))
	} else {
		printWarn(fmt.Sprintf("%s had no effect: locked or not affordable yet.", action))
	}
	renderView(os.Stdout, res.State)
	return nil
}

func newSyncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay triggers queued while the server was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*opts.timeout)
			defer cancel()

			out, err := client.SyncReplay(ctx, queue)
			if err != nil {
				return err
			}
			done := make(map[string]bool, len(out.Results))
			applied := 0
			for _, r := range out.Results {
				if r.Error != "" {
					printError(fmt.Sprintf("Sync failed for %s: %s", r.Action, r.Error))
				}
				// Errors are permanent on the server side; retrying would fail the same way.
				done[r.IdempotencyKey] = true
				if r.Changed {
					applied++
				}
			}
			if err := syncq.Drop(done); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d applied=%d", len(out.Results), applied))
			return nil
		},
	}
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the game live until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tty := stdoutIsTerminal()
			return client.Stream(ctx, func(v game.View) error {
				if opts.json {
					return renderJSON(os.Stdout, v)
				}
				if tty {
					clearScreen(os.Stdout)
				}
				renderView(os.Stdout, v)
				return nil
			})
		},
	}
}

func newSessionCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show or reset this terminal's client id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset {
				if err := cl.ClearSession(); err != nil {
					return err
				}
			}
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			printInfo(fmt.Sprintf("Client id: %s (since %s)", sess.ClientID, sess.CreatedAt.Format(time.RFC3339)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "issue a new client id")
	return cmd
}

// queueOnNetworkError keeps a trigger for `idle sync` when the server could
// not be reached. Replies from the server are returned as errors.
func queueOnNetworkError(err error, q syncq.Command) error {
	if err == nil {
		return nil
	}
	if !cl.IsOffline(err) {
		return err
	}
	if qerr := syncq.Push(q); qerr != nil {
		return fmt.Errorf("request failed (%v) and queueing failed: %w", err, qerr)
	}
	printWarn(fmt.Sprintf("Server unreachable; queued %s. Run `idle sync` later.", q.Action))
	return nil
}
