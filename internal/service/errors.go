package service

import "errors"

// Origin tells a caller which source of truth produced a read result, so
// telemetry can distinguish "empty because nothing exists" from "empty
// because we fell back to a cold cache".
type Origin int

const (
	// OriginRemote means the ordering API answered.
	OriginRemote Origin = iota
	// OriginCache means the result came from the local mirror, either
	// because the refresh interval had not elapsed or because the remote
	// call failed.
	OriginCache
)

func (o Origin) String() string {
	if o == OriginRemote {
		return "remote"
	}
	return "cache"
}

// ErrOrderNotFound is returned by delete and status updates when neither
// the server nor the local mirror knows the order.
var ErrOrderNotFound = errors.New("order not found")

// ValidationError is bad caller input. It fails fast: no network call, no
// storage call has happened when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
