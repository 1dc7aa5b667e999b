package botapi

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the client can surface.
type Kind string

const (
	KindCredentialMissing Kind = "credential_missing"
	KindTransportFailure  Kind = "transport_failure"
	KindRemoteRejected    Kind = "remote_rejected"
)

// fallbackDescription is used when the platform rejects a call without saying why.
const fallbackDescription = "telegram api request failed"

var ErrCredentialMissing = errors.New("bot token is missing")

// ErrTransport and ErrRemoteRejected match any *TransportError or
// *RemoteRejectedError through errors.Is.
var (
	ErrTransport      = errors.New("transport failure")
	ErrRemoteRejected = errors.New("remote rejected")
)

// TransportError covers network failures and bodies that are not valid JSON.
// The wrapped error never contains the request URL.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// RemoteRejectedError is returned when the envelope says ok=false.
type RemoteRejectedError struct {
	Method      string
	ErrorCode   int
	Description string
}

func (e *RemoteRejectedError) Error() string {
	return e.Description
}

func (e *RemoteRejectedError) Is(target error) bool {
	return target == ErrRemoteRejected
}

// KindOf reports which kind of client failure err is. ok is false for errors
// that did not come from the client.
func KindOf(err error) (Kind, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, ErrCredentialMissing):
		return KindCredentialMissing, true
	case errors.Is(err, ErrRemoteRejected):
		return KindRemoteRejected, true
	case errors.Is(err, ErrTransport):
		return KindTransportFailure, true
	default:
		return "", false
	}
}
