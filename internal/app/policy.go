package app

import "github.com/dkeye/watchroom/internal/domain"

// Action is a permission-checked room operation.
type Action int

const (
	ActAddUser Action = iota + 1
	ActSetCoAdmin
	ActForcePersonal
	ActShareToggle
	ActPollCreate

	ActPlaylistEdit
	ActQueueEdit
	ActGlobalToggle
	ActPollEnd

	ActKick
	ActChat
	ActReact
	ActToggleSelf
	ActRaiseHand
	ActVote
	ActRead
)

// Requirement is the minimum role an action needs.
type Requirement int

const (
	RequireMember Requirement = iota
	RequireModerator
	RequireAdmin
)

var requirements = map[Action]Requirement{
	ActAddUser:       RequireAdmin,
	ActSetCoAdmin:    RequireAdmin,
	ActForcePersonal: RequireAdmin,
	ActShareToggle:   RequireAdmin,
	ActPollCreate:    RequireAdmin,

	ActPlaylistEdit: RequireModerator,
	ActQueueEdit:    RequireModerator,
	ActGlobalToggle: RequireModerator,
	ActPollEnd:      RequireModerator,
}

// RequirementOf reports the role gate of a. Unlisted actions are
// self-service and need only membership; ActKick is decided per target
// by AuthorizeKick.
func RequirementOf(a Action) Requirement {
	return requirements[a]
}

func IsAdmin(u domain.User) bool { return u.Roles.IsAdmin }

func IsModerator(u domain.User) bool { return u.Roles.IsAdmin || u.Roles.IsCoAdmin }

// CanKick: an admin may remove anyone; a co-admin may remove anyone who
// is not an admin, other co-admins included.
func CanKick(actor, target domain.User) bool {
	if IsAdmin(actor) {
		return true
	}
	return actor.Roles.IsCoAdmin && !IsAdmin(target)
}

// Policy decides whether an actor may perform an action. It never
// mutates the room.
type Policy interface {
	Authorize(room *domain.Room, actor domain.User, a Action) error
	AuthorizeKick(room *domain.Room, actor, target domain.User) error
}

// RolePolicy is the admin / co-admin / member policy.
type RolePolicy struct{}

func (RolePolicy) Authorize(room *domain.Room, actor domain.User, a Action) error {
	switch RequirementOf(a) {
	case RequireAdmin:
		if !IsAdmin(actor) {
			return domain.ErrPermissionDenied.Withf("%s is not an admin", actor.Username)
		}
	case RequireModerator:
		if !IsModerator(actor) {
			return domain.ErrPermissionDenied.Withf("%s is not a moderator", actor.Username)
		}
	}
	if a == ActChat && !room.Global.ChatEnabled {
		return domain.ErrChatDisabled
	}
	return nil
}

func (RolePolicy) AuthorizeKick(room *domain.Room, actor, target domain.User) error {
	if !CanKick(actor, target) {
		return domain.ErrPermissionDenied.Withf("%s may not kick %s", actor.Username, target.Username)
	}
	if IsAdmin(target) && room.AdminCount() <= 1 {
		return domain.ErrLastAdmin
	}
	return nil
}
