// Command roomctl runs one room command as one actor against a watchroom
// server:
//
//	roomctl --as Bob chat hello everyone
//	roomctl --as AdminGPU poll "Pizza or sushi?" pizza sushi
//	roomctl --as Bob state --format yaml
//	roomctl --as Bob log --tail 20
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/dkeye/watchroom/internal/client"
	"github.com/dkeye/watchroom/internal/command"
)

// exitError carries the process exit code for a command the room rejected.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

var exitCodes = map[command.Status]int{
	command.StatusSuccess:         0,
	command.StatusInvalidArgument: 2,
	command.StatusDenied:          3,
	command.StatusNotFound:        4,
	command.StatusUnavailable:     5,
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("roomctl", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	server := fs.String("server", envOr("WATCHROOM_SERVER", "http://localhost:8080"), "server base URL")
	as := fs.StringP("as", "a", os.Getenv("WATCHROOM_ACTOR"), "username to act as")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	verbose := fs.BoolP("verbose", "v", false, "log requests")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: roomctl --as <username> <command> [args...]\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExtra subcommands: state [--format json|yaml], members, log [--tail N]\n\nRoom commands:\n%s", command.Help())
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("command required")
	}
	if *as == "" {
		return errors.New("--as is required")
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c, err := client.New(strings.TrimRight(*server, "/"))
	if err != nil {
		return err
	}
	log.Debug().Str("module", "roomctl").Str("server", *server).Str("actor", *as).Msg("login")
	if err := c.Login(ctx, *as); err != nil {
		return err
	}

	switch rest[0] {
	case "state":
		return runState(ctx, c, rest[1:], out)
	case "members":
		return runMembers(ctx, c, out)
	case "log":
		return runLog(ctx, c, rest[1:], out)
	}

	line := joinArgs(rest)
	log.Debug().Str("module", "roomctl").Str("line", line).Msg("command")
	res, err := c.Command(ctx, line)
	if err != nil {
		return err
	}
	return printResult(out, res)
}

func printResult(out io.Writer, res command.Result) error {
	if res.Output != "" {
		fmt.Fprint(out, res.Output)
	}
	if res.OK() {
		if res.Message != "" {
			fmt.Fprintln(out, res.Message)
		}
		return nil
	}
	fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", res.Status, res.Message, res.Code)
	code, ok := exitCodes[res.Status]
	if !ok {
		code = 1
	}
	return exitError{code: code}
}

func runState(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("state", pflag.ContinueOnError)
	format := fs.StringP("format", "f", "json", "output format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	room, err := c.Room(ctx)
	if err != nil {
		return err
	}
	return encode(out, *format, room)
}

func runMembers(ctx context.Context, c *client.Client, out io.Writer) error {
	members, err := c.Members(ctx)
	if err != nil {
		return err
	}
	for _, m := range members {
		role := "member"
		switch {
		case m.Roles.IsAdmin:
			role = "admin"
		case m.Roles.IsCoAdmin:
			role = "co-admin"
		}
		hand := ""
		if m.Personal.HandRaised {
			hand = " (hand raised)"
		}
		fmt.Fprintf(out, "%-36s %s%s\n", m.Username, role, hand)
	}
	return nil
}

func runLog(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("log", pflag.ContinueOnError)
	tail := fs.IntP("tail", "n", 0, "show only the last N lines")
	if err := fs.Parse(args); err != nil {
		return err
	}
	page, err := c.Log(ctx, *tail)
	if err != nil {
		return err
	}
	for _, line := range page.Lines {
		fmt.Fprintln(out, line)
	}
	return nil
}

// encode writes v as JSON or YAML. YAML goes through the JSON form so
// field names match the API.
func encode(out io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "yaml":
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}

// joinArgs rebuilds a command line from shell-split arguments, quoting
// the ones that would otherwise split again.
func joinArgs(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		switch {
		case a == "":
			parts[i] = `""`
		case !strings.ContainsAny(a, " \t\n\"'"):
			parts[i] = a
		case !strings.Contains(a, `"`):
			parts[i] = `"` + a + `"`
		default:
			parts[i] = "'" + a + "'"
		}
	}
	return strings.Join(parts, " ")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
