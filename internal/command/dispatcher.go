package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchroom/internal/core"
)

// Dispatcher executes command lines on behalf of actors.
type Dispatcher struct {
	svc core.RoomService
}

func NewDispatcher(svc core.RoomService) *Dispatcher {
	return &Dispatcher{svc: svc}
}

// Execute runs one command line as actor. It never panics and never
// returns a Go error: every outcome, including malformed input, is a
// Result.
func (d *Dispatcher) Execute(ctx context.Context, actor, line string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "command").Str("actor", actor).Str("line", line).Interface("panic", r).Msg("command panicked")
			res = Result{Status: StatusUnavailable, Code: codeInternal, Message: "internal error"}
		}
	}()

	toks, err := tokenize(line)
	if err != nil {
		return FromError(err)
	}
	if len(toks) == 0 {
		return FromError(ErrUnrecognized.Withf("empty command"))
	}

	name := toks[0].text
	if strings.EqualFold(name, "help") {
		return shown(Help(), nil)
	}
	cmd, found := Lookup(name)
	if !found {
		msg := fmt.Sprintf("unrecognized command %q", name)
		if s := suggest(name); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		return FromError(ErrUnrecognized.Withf("%s", msg))
	}

	args := Args{line: line, toks: toks[1:]}
	if args.Len() < cmd.MinArgs || (cmd.MaxArgs >= 0 && args.Len() > cmd.MaxArgs) {
		return FromError(ErrBadArguments.Withf("usage: %s", cmd.usage()))
	}

	res, err = cmd.Run(ctx, d.svc, actor, args)
	if err != nil {
		res = FromError(err)
	}
	log.Debug().Str("module", "command").Str("actor", actor).Str("command", cmd.Name).Str("status", string(res.Status)).Str("code", res.Code).Msg("command executed")
	return res
}

// suggest returns the closest command name within edit distance 3.
func suggest(unknown string) string {
	best, bestDistance := "", 4
	lower := strings.ToLower(unknown)
	for _, c := range Commands {
		if d := levenshtein(lower, strings.ToLower(c.Name)); d < bestDistance {
			best, bestDistance = c.Name, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}
	for j := 1; j <= len(b); j++ {
		current := make([]int, len(a)+1)
		current[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[i] = min(previous[i]+1, current[i-1]+1, previous[i-1]+cost)
		}
		previous = current
	}
	return previous[len(a)]
}
