package spd3303x

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectFailed indicates that no candidate address accepted a connection.
	// The returned error also wraps every per-address failure.
	ErrConnectFailed = errors.New("spd3303x: connect failed")

	// ErrNoAddress indicates that the host name resolved to no address, so nothing was dialed.
	ErrNoAddress = errors.New("spd3303x: no address resolved")

	// ErrSessionClosed indicates that the session was closed, either explicitly or by a transport fault.
	ErrSessionClosed = errors.New("spd3303x: session closed")

	// ErrSerialMismatch indicates that the device identity did not match the expected serial number.
	ErrSerialMismatch = errors.New("spd3303x: serial number mismatch")

	// ErrNotIPv4 indicates that a network setting was not an IPv4 address.
	ErrNotIPv4 = errors.New("spd3303x: not an IPv4 address")
)

// TransportError reports a failure of the underlying stream. The session that produced
// it is closed.
type TransportError struct {
	// Op is the failed operation: "write", "read" or "deadline".
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("spd3303x: transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SerialMismatchError is returned by VerifyIdentity and carries the serial number the device reported.
type SerialMismatchError struct {
	Expected string
	Actual   string
}

func (e *SerialMismatchError) Error() string {
	return fmt.Sprintf("spd3303x: serial number mismatch: expected %q, device has %q", e.Expected, e.Actual)
}

// Is reports whether target is ErrSerialMismatch.
func (e *SerialMismatchError) Is(target error) bool {
	return target == ErrSerialMismatch
}
