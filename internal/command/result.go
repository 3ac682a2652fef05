package command

import (
	"errors"

	"github.com/dkeye/watchroom/internal/domain"
)

// Status is the outcome class of a command, as seen by the actor.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusDenied          Status = "denied"
	StatusNotFound        Status = "not_found"
	StatusInvalidArgument Status = "invalid_argument"
	StatusUnavailable     Status = "unavailable"
)

// Result is what every command returns. Output carries the rendered view
// of read commands; Data the structured value behind it, if any.
type Result struct {
	Status  Status `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Output  string `json:"output,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (r Result) OK() bool { return r.Status == StatusSuccess }

var (
	ErrUnrecognized = &domain.Error{Kind: domain.KindInvalidArgument, Code: "unrecognized_command", Message: "unrecognized command"}
	ErrBadArguments = &domain.Error{Kind: domain.KindInvalidArgument, Code: "bad_arguments", Message: "bad arguments"}
)

const codeInternal = "internal"

// StatusOf maps an error kind to a Status. Errors outside the domain
// taxonomy are treated as unavailability, never as success.
func StatusOf(kind domain.Kind) Status {
	switch kind {
	case domain.KindDenied:
		return StatusDenied
	case domain.KindNotFound:
		return StatusNotFound
	case domain.KindDuplicate, domain.KindInvalidArgument:
		return StatusInvalidArgument
	default:
		return StatusUnavailable
	}
}

// FromError builds the failure Result for err.
func FromError(err error) Result {
	var de *domain.Error
	if !errors.As(err, &de) {
		return Result{Status: StatusUnavailable, Code: codeInternal, Message: err.Error()}
	}
	return Result{Status: StatusOf(de.Kind), Code: de.Code, Message: de.Message}
}

func ok(msg string) Result { return Result{Status: StatusSuccess, Message: msg} }

func shown(out string, data any) Result {
	return Result{Status: StatusSuccess, Output: out, Data: data}
}
