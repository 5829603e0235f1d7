// Command gallery drives the session and fetch cache layer of the contest
// gallery from a terminal, and serves a hydration-gated shell page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: gallery <command> [flags]

commands:
  serve                   serve the shell page and its attach endpoint
  login <token>           store an authentication token
  logout                  clear the stored token and user-bound cache entries
  whoami                  print the signed-in profile
  achievements <user-id>  print a user's achievements
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "gallery:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	envFile := fs.String("env-file", "", "load environment from this file before reading config")
	if err := fs.Parse(args[1:]); err != nil {
		return errors.Join(errUsage, err)
	}
	rest := fs.Args()

	a, err := newApp(ctx, *envFile, stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	switch args[0] {
	case "serve":
		return a.serve(ctx)
	case "login":
		if len(rest) != 1 {
			return errUsage
		}
		return a.login(ctx, rest[0])
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "achievements":
		if len(rest) != 1 {
			return errUsage
		}
		return a.achievements(ctx, rest[0])
	default:
		return errUsage
	}
}
