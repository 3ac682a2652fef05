package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchroom/internal/domain"
)

// Reaction shortcodes accepted by React; other values are sent verbatim.
var reactionCodes = map[string]string{
	"1": "😂",
	"2": "👍",
	"3": "❤️",
	"4": "👏",
}

func (s *RoomService) AddUser(ctx context.Context, actor, name string) (domain.User, error) {
	var added domain.User
	err := s.mutate(ctx, "add_user", actor, ActAddUser, func(next *domain.Room, _ domain.User) ([]string, error) {
		if _, taken := next.UserByName(name); taken {
			return nil, domain.ErrDuplicateName.Withf("user %q already exists", name)
		}
		u, err := domain.NewUser(name)
		if err != nil {
			return nil, err
		}
		u.Joined = next.Revision
		next.Users[u.ID] = u
		added = u
		return []string{fmt.Sprintf("%s joined the room.", name)}, nil
	})
	if err == nil {
		log.Info().Str("module", "app.room").Str("actor", actor).Str("user", name).Str("user_id", string(added.ID)).Msg("user added")
	}
	return added, err
}

func (s *RoomService) SetCoAdmin(ctx context.Context, actor, target string, makeCoAdmin bool) error {
	return s.mutate(ctx, "set_co_admin", actor, ActSetCoAdmin, func(next *domain.Room, _ domain.User) ([]string, error) {
		u, err := s.target(next, target)
		if err != nil {
			return nil, err
		}
		u.Roles.IsCoAdmin = makeCoAdmin
		next.Users[u.ID] = u
		verb := "demoted from"
		if makeCoAdmin {
			verb = "promoted to"
		}
		return []string{fmt.Sprintf("%s %s co-admin.", target, verb)}, nil
	})
}

func (s *RoomService) Kick(ctx context.Context, actor, target string) error {
	return s.mutate(ctx, "kick", actor, ActKick, func(next *domain.Room, who domain.User) ([]string, error) {
		u, err := s.target(next, target)
		if err != nil {
			return nil, err
		}
		if err := s.policy.AuthorizeKick(next, who, u); err != nil {
			return nil, err
		}
		delete(next.Users, u.ID)
		return []string{fmt.Sprintf("%s left the room.", target)}, nil
	})
}

// Chat appends to the audit log only; it still runs under the writer lock
// so chat lines keep their place relative to state changes.
func (s *RoomService) Chat(ctx context.Context, actor, text string) error {
	return s.record("chat", actor, ActChat, func(who domain.User) ([]string, error) {
		if strings.TrimSpace(text) == "" {
			return nil, domain.ErrEmptyValue.Withf("chat message must not be empty")
		}
		return []string{fmt.Sprintf("[chat] %s: %s", who.Username, text)}, nil
	})
}

func (s *RoomService) React(ctx context.Context, actor, code string) (string, error) {
	emoji, ok := reactionCodes[code]
	if !ok {
		emoji = code
	}
	err := s.record("react", actor, ActReact, func(who domain.User) ([]string, error) {
		if emoji == "" {
			return nil, domain.ErrEmptyValue.Withf("reaction must not be empty")
		}
		return []string{fmt.Sprintf("[reaction] %s: %s", who.Username, emoji)}, nil
	})
	return emoji, err
}

func (s *RoomService) ToggleSelf(ctx context.Context, actor string, setting domain.PersonalSetting, on bool) error {
	return s.mutate(ctx, "toggle_self", actor, ActToggleSelf, func(next *domain.Room, who domain.User) ([]string, error) {
		if err := who.Personal.Set(setting, on); err != nil {
			return nil, err
		}
		next.Users[who.ID] = who
		return []string{fmt.Sprintf("%s turned %s %s.", who.Username, setting, onOff(on))}, nil
	})
}

func (s *RoomService) RaiseHand(ctx context.Context, actor string) error {
	return s.mutate(ctx, "raise_hand", actor, ActRaiseHand, func(next *domain.Room, who domain.User) ([]string, error) {
		who.Personal.HandRaised = true
		next.Users[who.ID] = who
		return []string{fmt.Sprintf("%s raised a hand.", who.Username)}, nil
	})
}

// ForcePersonal lets an admin override another user's switches, except
// the screen lock which only its owner may change.
func (s *RoomService) ForcePersonal(ctx context.Context, actor, target string, setting domain.PersonalSetting, on bool) error {
	return s.mutate(ctx, "force_personal", actor, ActForcePersonal, func(next *domain.Room, who domain.User) ([]string, error) {
		if !setting.Forceable() {
			return nil, domain.ErrScreenLockNotForceable
		}
		u, err := s.target(next, target)
		if err != nil {
			return nil, err
		}
		if err := u.Personal.Set(setting, on); err != nil {
			return nil, err
		}
		next.Users[u.ID] = u
		return []string{fmt.Sprintf("%s set %s's %s %s.", who.Username, target, setting, onOff(on))}, nil
	})
}
