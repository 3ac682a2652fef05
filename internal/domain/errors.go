package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so transports can map it to a status
// without parsing messages.
type Kind int

const (
	KindDenied Kind = iota + 1
	KindNotFound
	KindDuplicate
	KindInvalidArgument
	KindStoreUnavailable
	KindStoreCorrupt
)

func (k Kind) String() string {
	switch k {
	case KindDenied:
		return "denied"
	case KindNotFound:
		return "not_found"
	case KindDuplicate:
		return "duplicate"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindStoreCorrupt:
		return "store_corrupt"
	default:
		return "unknown"
	}
}

// Error is a room failure with a stable Code. Two errors match under
// errors.Is when their codes are equal, so sentinels survive wrapping
// and re-creation with a different message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Withf returns a copy of e carrying a more specific message.
func (e *Error) Withf(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrPermissionDenied       = &Error{KindDenied, "permission_denied", "permission denied"}
	ErrChatDisabled           = &Error{KindDenied, "chat_disabled", "chat is off"}
	ErrLastAdmin              = &Error{KindDenied, "last_admin", "the last admin cannot be removed"}
	ErrUnknownActor           = &Error{KindNotFound, "unknown_actor", "actor is not in the room"}
	ErrUnknownUser            = &Error{KindNotFound, "unknown_user", "user not found"}
	ErrPlaylistNotFound       = &Error{KindNotFound, "playlist_not_found", "playlist not found"}
	ErrNoCurrentPlaylist      = &Error{KindNotFound, "no_current_playlist", "no current playlist"}
	ErrPollNotFound           = &Error{KindNotFound, "poll_not_found", "poll not found"}
	ErrDuplicateName          = &Error{KindDuplicate, "duplicate_name", "username already taken"}
	ErrUsernameEmpty          = &Error{KindInvalidArgument, "invalid_username", "username empty"}
	ErrUsernameTooLong        = &Error{KindInvalidArgument, "invalid_username", "username too long"}
	ErrUsernameInvalid        = &Error{KindInvalidArgument, "invalid_username", "username must not contain spaces"}
	ErrUnknownSetting         = &Error{KindInvalidArgument, "unknown_setting", "unknown setting"}
	ErrInvalidIndex           = &Error{KindInvalidArgument, "invalid_index", "invalid movie index"}
	ErrQueueEmpty             = &Error{KindInvalidArgument, "queue_empty", "current playlist is empty"}
	ErrInvalidOption          = &Error{KindInvalidArgument, "invalid_option", "invalid poll option"}
	ErrInvalidPoll            = &Error{KindInvalidArgument, "invalid_poll", "a poll needs a question and at least one option"}
	ErrEmptyValue             = &Error{KindInvalidArgument, "bad_arguments", "value must not be empty"}
	ErrScreenLockNotForceable = &Error{KindInvalidArgument, "screen_lock_not_forceable", "screen_lock is personal only"}
	ErrStoreUnavailable       = &Error{KindStoreUnavailable, "store_unavailable", "room store unavailable"}
	ErrNotInitialized         = &Error{KindStoreUnavailable, "not_initialized", "room store not initialized"}
	ErrCorruptState           = &Error{KindStoreCorrupt, "store_corrupt", "room store is corrupt"}
)

// KindOf reports the Kind carried by err, or 0 when err is not a room
// error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// CodeOf reports the stable code carried by err, or "" when err is not
// a room error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
