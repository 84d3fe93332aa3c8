package moderation

import "errors"

// ErrConcurrencyTimeout is returned when the per-member serialization lock
// could not be acquired within the configured bound. The operation is not
// retried automatically; callers may retry.
var ErrConcurrencyTimeout = errors.New("timed out waiting for moderation lock")

// ActuatorError reports that the platform refused to execute a punishment,
// e.g. because of missing permission or role hierarchy. The ledger entry for
// the attempted action is not written; only the triggering warn remains.
type ActuatorError struct {
	Reason string
	Err    error
}

func (e *ActuatorError) Error() string {
	if e.Reason != "" {
		return "actuator refused action: " + e.Reason
	}
	return "actuator refused action"
}

func (e *ActuatorError) Unwrap() error {
	return e.Err
}
