// Package proto defines the wire-level RPC envelope for the FWU update
// agent service: status codes, function identifiers, and the packed
// payload structures exchanged between a client and the agent.
package proto

// Status is the FWU-A RPC status code, returned in every response header.
type Status int32

const (
	StatusSuccess      Status = 0
	StatusUnknown      Status = -1
	StatusBusy         Status = -2
	StatusOutOfBounds  Status = -3
	StatusAuthFail     Status = -4
	StatusNoPermission Status = -5
	StatusDenied       Status = -6
	StatusResume       Status = -7
	StatusNotAvailable Status = -8
)

// StatusError carries a specific FWU status code through an error
// return, letting callers that need the exact code recover it with
// errors.As instead of collapsing every failure to StatusUnknown.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return "fwu: " + e.Status.String()
}

// AsStatus recovers the Status carried by err: StatusSuccess if err is
// nil, StatusUnknown if err is not a *StatusError.
func AsStatus(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	if se, ok := err.(*StatusError); ok {
		return se.Status
	}
	return StatusUnknown
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusUnknown:
		return "UNKNOWN"
	case StatusBusy:
		return "BUSY"
	case StatusOutOfBounds:
		return "OUT_OF_BOUNDS"
	case StatusAuthFail:
		return "AUTH_FAIL"
	case StatusNoPermission:
		return "NO_PERMISSION"
	case StatusDenied:
		return "DENIED"
	case StatusResume:
		return "RESUME"
	case StatusNotAvailable:
		return "NOT_AVAILABLE"
	default:
		return "UNRECOGNISED_STATUS"
	}
}
