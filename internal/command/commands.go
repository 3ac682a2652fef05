// Package command turns textual command lines into RoomService calls and
// their outcomes into Results. It is the only place that knows the
// command vocabulary; transports just pass lines through.
package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dkeye/watchroom/internal/core"
	"github.com/dkeye/watchroom/internal/domain"
)

// Command is one entry of the command vocabulary.
type Command struct {
	Name    string
	Aliases []string
	// Usage lists the arguments, e.g. "<pid> <title>".
	Usage   string
	Summary string
	// MinArgs and MaxArgs bound the token count after the name; MaxArgs
	// < 0 means unbounded.
	MinArgs int
	MaxArgs int
	Run     func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error)
}

func (c *Command) usage() string {
	if c.Usage == "" {
		return c.Name
	}
	return c.Name + " " + c.Usage
}

// Commands is the full vocabulary in help order.
var Commands = []*Command{
	{Name: "add", Usage: "<name>", Summary: "add a user to the room", MinArgs: 1, MaxArgs: 1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			u, err := svc.AddUser(ctx, actor, args.At(0))
			if err != nil {
				return Result{}, err
			}
			res := ok(fmt.Sprintf("%s joined the room.", u.Username))
			res.Data = u
			return res, nil
		}},
	{Name: "promote", Aliases: []string{"prom"}, Usage: "<name>", Summary: "make a user co-admin", MinArgs: 1, MaxArgs: 1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			if err := svc.SetCoAdmin(ctx, actor, args.At(0), true); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("%s promoted to co-admin.", args.At(0))), nil
		}},
	{Name: "demote", Aliases: []string{"dem"}, Usage: "<name>", Summary: "revoke co-admin", MinArgs: 1, MaxArgs: 1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			if err := svc.SetCoAdmin(ctx, actor, args.At(0), false); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("%s demoted from co-admin.", args.At(0))), nil
		}},
	{Name: "kick", Usage: "<name>", Summary: "remove a user from the room", MinArgs: 1, MaxArgs: 1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			if err := svc.Kick(ctx, actor, args.At(0)); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("%s left the room.", args.At(0))), nil
		}},
	{Name: "chat", Usage: "<text>", Summary: "send a chat message", MinArgs: 1, MaxArgs: -1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			if err := svc.Chat(ctx, actor, args.Rest(0)); err != nil {
				return Result{}, err
			}
			return ok("sent"), nil
		}},
	{Name: "react", Usage: "<code>", Summary: "react with 1-4 or any emoji", MinArgs: 1, MaxArgs: 1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			emoji, err := svc.React(ctx, actor, args.At(0))
			if err != nil {
				return Result{}, err
			}
			return ok(emoji), nil
		}},
	{Name: "toggle", Usage: "<setting> on|off", Summary: "switch your own video, audio, reactions or screen_lock", MinArgs: 2, MaxArgs: 2,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			setting, err := domain.ParsePersonalSetting(args.At(0))
			if err != nil {
				return Result{}, err
			}
			on, err := parseOnOff(args.At(1))
			if err != nil {
				return Result{}, err
			}
			if err := svc.ToggleSelf(ctx, actor, setting, on); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("%s %s.", setting, onOff(on))), nil
		}},
	{Name: "hand", Summary: "raise your hand",
		Run: func(ctx context.Context, svc core.RoomService, actor string, _ Args) (Result, error) {
			if err := svc.RaiseHand(ctx, actor); err != nil {
				return Result{}, err
			}
			return ok("hand raised"), nil
		}},

	{Name: "playlistCreate", Usage: "<name>", Summary: "create a playlist", MinArgs: 1, MaxArgs: -1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			pl, err := svc.CreatePlaylist(ctx, actor, args.Rest(0))
			if err != nil {
				return Result{}, err
			}
			res := ok(fmt.Sprintf("created playlist %s (%s)", pl.ID, pl.Name))
			res.Data = pl
			return res, nil
		}},
	{Name: "playlistDelete", Usage: "<pid>", Summary: "delete a playlist", MinArgs: 1, MaxArgs: 1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			if err := svc.DeletePlaylist(ctx, actor, domain.PlaylistID(args.At(0))); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("deleted playlist %s", args.At(0))), nil
		}},
	{Name: "playlistAdd", Aliases: []string{"padd"}, Usage: "<pid> <title>", Summary: "append a title to a playlist", MinArgs: 2, MaxArgs: -1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			title := args.Rest(1)
			if err := svc.AddToPlaylist(ctx, actor, domain.PlaylistID(args.At(0)), title); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("added '%s'", title)), nil
		}},
	{Name: "playlistRemove", Aliases: []string{"prem"}, Usage: "<pid> <index>", Summary: "remove the title at a 1-based index", MinArgs: 2, MaxArgs: 2,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			idx, err := parseIndex(args.At(1))
			if err != nil {
				return Result{}, err
			}
			removed, err := svc.RemoveFromPlaylist(ctx, actor, domain.PlaylistID(args.At(0)), idx)
			if err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("removed '%s'", removed)), nil
		}},
	{Name: "playlistShow", Aliases: []string{"pshow"}, Usage: "[<pid>]", Summary: "list playlists or show one", MinArgs: 0, MaxArgs: 1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			if args.Len() == 1 {
				v, err := svc.ShowPlaylist(ctx, actor, domain.PlaylistID(args.At(0)))
				if err != nil {
					return Result{}, err
				}
				return shown(FormatPlaylist(v), v), nil
			}
			views, err := svc.ShowPlaylists(ctx, actor)
			if err != nil {
				return Result{}, err
			}
			return shown(FormatPlaylists(views), views), nil
		}},
	{Name: "playlistSwitch", Aliases: []string{"pswitch"}, Usage: "<pid>", Summary: "make a playlist current", MinArgs: 1, MaxArgs: 1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			if err := svc.SwitchPlaylist(ctx, actor, domain.PlaylistID(args.At(0))); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("current playlist is %s", args.At(0))), nil
		}},

	{Name: "currentAdd", Aliases: []string{"cpadd"}, Usage: "<title>", Summary: "append to the current playlist", MinArgs: 1, MaxArgs: -1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			title := args.Rest(0)
			if err := svc.AddToCurrent(ctx, actor, title); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("added '%s'", title)), nil
		}},
	{Name: "currentRemove", Aliases: []string{"cprem"}, Usage: "<index>", Summary: "remove from the current playlist", MinArgs: 1, MaxArgs: 1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			idx, err := parseIndex(args.At(0))
			if err != nil {
				return Result{}, err
			}
			removed, err := svc.RemoveFromCurrent(ctx, actor, idx)
			if err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("removed '%s'", removed)), nil
		}},
	{Name: "currentShow", Aliases: []string{"cpshow"}, Summary: "show the current playlist",
		Run: func(ctx context.Context, svc core.RoomService, actor string, _ Args) (Result, error) {
			v, err := svc.ShowCurrent(ctx, actor)
			if err != nil {
				return Result{}, err
			}
			return shown(FormatPlaylist(v), v), nil
		}},
	{Name: "currentNext", Aliases: []string{"cpnext"}, Summary: "drop the head of the current playlist", MinArgs: 0, MaxArgs: 0,
		Run: func(ctx context.Context, svc core.RoomService, actor string, _ Args) (Result, error) {
			removed, err := svc.NextInCurrent(ctx, actor)
			if err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("finished '%s'", removed)), nil
		}},

	{Name: "pollCreate", Aliases: []string{"poll"}, Usage: "<question> <option>...", Summary: "open a poll", MinArgs: 2, MaxArgs: -1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			p, err := svc.CreatePoll(ctx, actor, args.At(0), args.From(1))
			if err != nil {
				return Result{}, err
			}
			res := ok(fmt.Sprintf("poll %s: %s (%s)", p.ID, p.Question, strings.Join(p.Options, ", ")))
			res.Data = p
			return res, nil
		}},
	{Name: "vote", Usage: "<pid> <option>", Summary: "vote in a poll", MinArgs: 2, MaxArgs: 2,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			if err := svc.Vote(ctx, actor, domain.PollID(args.At(0)), args.At(1)); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("voted for %s", args.At(1))), nil
		}},
	{Name: "pollEnd", Aliases: []string{"pend"}, Usage: "<pid>", Summary: "close a poll and show the tally", MinArgs: 1, MaxArgs: 1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			res, err := svc.EndPoll(ctx, actor, domain.PollID(args.At(0)))
			if err != nil {
				return Result{}, err
			}
			out := ok(fmt.Sprintf("Poll %s closed - %s (winner = %s)", res.PollID, res, res.Winner))
			out.Data = res
			return out, nil
		}},

	{Name: "globalToggle", Aliases: []string{"glob"}, Usage: "<setting> on|off", Summary: "switch chat or reactions for everyone", MinArgs: 2, MaxArgs: 2,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			setting, err := domain.ParseGlobalSetting(args.At(0))
			if err != nil {
				return Result{}, err
			}
			on, err := parseOnOff(args.At(1))
			if err != nil {
				return Result{}, err
			}
			if err := svc.SetGlobal(ctx, actor, setting, on); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("%s %s for everyone.", setting, onOff(on))), nil
		}},
	{Name: "forcePersonal", Aliases: []string{"force"}, Usage: "<name> <setting> on|off", Summary: "override another user's switch", MinArgs: 3, MaxArgs: 3,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			setting, err := domain.ParsePersonalSetting(args.At(1))
			if err != nil {
				return Result{}, err
			}
			on, err := parseOnOff(args.At(2))
			if err != nil {
				return Result{}, err
			}
			if err := svc.ForcePersonal(ctx, actor, args.At(0), setting, on); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("%s's %s %s.", args.At(0), setting, onOff(on))), nil
		}},
	{Name: "share", Usage: "on|off", Summary: "allow or forbid screen sharing", MinArgs: 1, MaxArgs: 1,
		Run: func(ctx context.Context, svc core.RoomService, actor string, args Args) (Result, error) {
			on, err := parseOnOff(args.At(0))
			if err != nil {
				return Result{}, err
			}
			if err := svc.SetScreenSharing(ctx, actor, on); err != nil {
				return Result{}, err
			}
			return ok(fmt.Sprintf("screen sharing %s.", onOff(on))), nil
		}},
}

var byName = func() map[string]*Command {
	m := make(map[string]*Command)
	for _, c := range Commands {
		m[strings.ToLower(c.Name)] = c
		for _, a := range c.Aliases {
			m[a] = c
		}
	}
	return m
}()

// Lookup finds a command by name or alias, ignoring case.
func Lookup(name string) (*Command, bool) {
	c, ok := byName[strings.ToLower(name)]
	return c, ok
}

// Help renders the vocabulary, one command per line.
func Help() string {
	var b strings.Builder
	for _, c := range Commands {
		fmt.Fprintf(&b, "%-40s %s\n", c.usage(), c.Summary)
	}
	return b.String()
}

// parseIndex turns a 1-based textual index into a 0-based one.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, domain.ErrInvalidIndex.Withf("index must be a positive number, got %q", s)
	}
	return n - 1, nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, ErrBadArguments.Withf("expected on or off, got %q", s)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
