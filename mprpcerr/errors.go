// Package mprpcerr defines a small error-kind taxonomy: one kind, one
// semantic, so every layer can wrap its underlying error while still
// letting a caller branch on *what kind* of failure it is (a dispatcher
// turning MethodNotFound into a wire response vs. tearing the session down
// for everything else).
//
// Errors wrap an underlying cause with fmt.Errorf-style %w semantics
// (errors.Is/As both work through a Kind), extended with an enum because
// callers need to distinguish fatal-to-session from wire-visible from
// fatal-to-construction failures, not just identify a single sentinel.
package mprpcerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error per the table in spec §7.
type Kind int

const (
	// KindUnknown is the zero value; KindOf returns it for errors that are
	// not (and do not wrap) an *Error.
	KindUnknown Kind = iota
	KindParseError
	KindInvalidMessage
	KindEOF
	KindFailedToListen
	KindFailedToAccept
	KindFailedToResolve
	KindFailedToConnect
	KindFailedToRead
	KindFailedToWrite
	KindMethodNotFound
	KindInvalidFutureUse
	KindInvalidConfigValue
	KindConfigParseError
	KindClientTimeout
	KindUnexpectedError
)

func (k Kind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindInvalidMessage:
		return "InvalidMessage"
	case KindEOF:
		return "EOF"
	case KindFailedToListen:
		return "FailedToListen"
	case KindFailedToAccept:
		return "FailedToAccept"
	case KindFailedToResolve:
		return "FailedToResolve"
	case KindFailedToConnect:
		return "FailedToConnect"
	case KindFailedToRead:
		return "FailedToRead"
	case KindFailedToWrite:
		return "FailedToWrite"
	case KindMethodNotFound:
		return "MethodNotFound"
	case KindInvalidFutureUse:
		return "InvalidFutureUse"
	case KindInvalidConfigValue:
		return "InvalidConfigValue"
	case KindConfigParseError:
		return "ConfigParseError"
	case KindClientTimeout:
		return "ClientTimeout"
	case KindUnexpectedError:
		return "UnexpectedError"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with the Kind that governs how it
// propagates (spec §7's Propagation column).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind wrapping cause. The cause is kept
// as is, even when it is already an *Error of the same kind; chains are not
// flattened.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err carries the given Kind, looking through wrapped
// errors the way errors.Is does for sentinels.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or KindUnknown if err is not (or does
// not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Sentinel errors for conditions that are detected without extra context
// and don't need a formatted Message; still mapped to a Kind via Is/KindOf
// when wrapped through Wrap.
var (
	// ErrOperationAborted marks a socket operation that was cancelled by a
	// session shutdown or worker pool stop. Per spec §4.5/§4.8 this return
	// is silent: callers must not treat it as a session- or pool-fatal error.
	ErrOperationAborted = errors.New("mprpc: operation aborted")
)
