// Package errors provides structured error handling for the simulation core.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Scheduling errors
	CodeScheduleActivityBlocked  Code = "SCHEDULE_ACTIVITY_BLOCKED"
	CodeScheduleUnknownActivity  Code = "SCHEDULE_UNKNOWN_ACTIVITY_TYPE"
	CodeScheduleNotActivityEvent Code = "SCHEDULE_NOT_ACTIVITY_EVENT"
	CodeScheduleEventImmutable   Code = "SCHEDULE_EVENT_IMMUTABLE"

	// Activity lifecycle errors
	CodeActivityInvalidTransition Code = "ACTIVITY_INVALID_TRANSITION"
	CodeActivityInvalidState      Code = "ACTIVITY_INVALID_STATE"

	// Day advance errors
	CodeDayAdvanceInFlight Code = "DAY_ADVANCE_IN_FLIGHT"

	// Drama errors
	CodeDramaTemplateUnknown    Code = "DRAMA_TEMPLATE_UNKNOWN"
	CodeDramaInstanceNotFound   Code = "DRAMA_INSTANCE_NOT_FOUND"
	CodeDramaInstanceNotPending Code = "DRAMA_INSTANCE_NOT_PENDING"
	CodeDramaInvalidChoice      Code = "DRAMA_INVALID_CHOICE"

	// Content catalog errors
	CodeContentInvalid Code = "CONTENT_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeScheduleUnknownActivity,
		CodeScheduleNotActivityEvent,
		CodeDramaInvalidChoice,
		CodeContentInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeScheduleActivityBlocked,
		CodeScheduleEventImmutable,
		CodeActivityInvalidTransition,
		CodeActivityInvalidState,
		CodeDramaInstanceNotPending:
		return codes.FailedPrecondition

	// Aborted - concurrent use of a serialized operation
	case CodeDayAdvanceInFlight:
		return codes.Aborted

	// NotFound
	case CodeNotFound,
		CodeDramaTemplateUnknown,
		CodeDramaInstanceNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
